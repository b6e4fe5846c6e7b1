// Package export renders stored people and jobs as XLSX workbooks or CSV.
// Both formats share one column layout per record type.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/use-agent/harvest/airtable"
	"github.com/use-agent/harvest/models"
)

// Sheet names.
const (
	JobsSheet   = "Jobs"
	PeopleSheet = "People"
)

type column[T any] struct {
	header string
	width  float64
	value  func(*T) string
}

var jobColumns = []column[models.Job]{
	{"Company", 22, func(j *models.Job) string { return j.CompanyName }},
	{"Job Title", 36, func(j *models.Job) string { return j.JobTitle }},
	{"Location", 24, func(j *models.Job) string { return j.JobLocation }},
	{"Job Type", 16, func(j *models.Job) string { return j.JobType }},
	{"Remote", 10, func(j *models.Job) string { return j.IsRemote }},
	{"Posted", 14, func(j *models.Job) string { return j.PostedDate }},
	{"Salary", 20, func(j *models.Job) string { return j.SalaryRange }},
	{"Experience Level", 18, func(j *models.Job) string { return j.ExperienceLevel }},
	{"Department", 18, func(j *models.Job) string { return j.Department }},
	{"Description", 60, func(j *models.Job) string { return j.JobDescription }},
	{"Job URL", 50, func(j *models.Job) string { return j.JobURL }},
	{"Scraped At", 20, func(j *models.Job) string { return formatTime(j.ScrapedAt) }},
}

var personColumns = []column[models.Person]{
	{"Full Name", 24, func(p *models.Person) string { return p.Name }},
	{"Current Job Title", 32, func(p *models.Person) string { return p.CurrentJobTitle }},
	{"Current Company", 24, func(p *models.Person) string { return p.CurrentCompany }},
	{"Location", 24, func(p *models.Person) string { return p.Location }},
	{"Number of Connections", 12, func(p *models.Person) string { return p.ConnectionsCount }},
	{"Skills", 48, func(p *models.Person) string { return strings.Join(p.Skills, ", ") }},
	{"Undergraduate University", 30, func(p *models.Person) string { return p.UndergraduateUniversity }},
	{"Graduate Schools", 40, func(p *models.Person) string { return airtable.FormatGraduateSchools(p.GraduateSchools) }},
	{"Profile Photo", 40, func(p *models.Person) string { return p.ProfilePhoto }},
	{"LinkedIn URL", 44, func(p *models.Person) string { return p.LinkedInURL }},
	{"Scraped At", 20, func(p *models.Person) string { return formatTime(p.ScrapedAt) }},
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// JobsXLSX returns a workbook with one Jobs sheet.
func JobsXLSX(jobs []models.Job) ([]byte, error) {
	return writeXLSX(JobsSheet, jobColumns, jobs)
}

// PeopleXLSX returns a workbook with one People sheet.
func PeopleXLSX(people []models.Person) ([]byte, error) {
	return writeXLSX(PeopleSheet, personColumns, people)
}

func writeXLSX[T any](sheet string, cols []column[T], rows []T) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, c.header)

		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, name, name, c.width)
	}
	for r := range rows {
		for i, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			_ = f.SetCellValue(sheet, cell, c.value(&rows[r]))
		}
	}
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	slog.Info("export.xlsx.ok",
		"sheet", sheet,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// JobsCSV writes jobs as CSV with a header row.
func JobsCSV(w io.Writer, jobs []models.Job) error {
	return writeCSV(w, jobColumns, jobs)
}

// PeopleCSV writes people as CSV with a header row.
func PeopleCSV(w io.Writer, people []models.Person) error {
	return writeCSV(w, personColumns, people)
}

func writeCSV[T any](w io.Writer, cols []column[T], rows []T) error {
	cw := csv.NewWriter(w)
	record := make([]string, len(cols))
	for i, c := range cols {
		record[i] = c.header
	}
	if err := cw.Write(record); err != nil {
		return err
	}
	for r := range rows {
		for i, c := range cols {
			record[i] = c.value(&rows[r])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
