package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/export"
	"github.com/use-agent/harvest/models"
)

// Records reads and clears stored results. *store.Store implements it.
type Records interface {
	ListPeople(ctx context.Context, limit int) ([]models.Person, error)
	ListJobs(ctx context.Context, limit int) ([]models.Job, error)
	ClearJobs(ctx context.Context) (int64, error)
}

const (
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvType  = "text/csv; charset=utf-8"
)

// ListJobs returns a handler for GET /api/v1/jobs?limit=N.
func ListJobs(rec Records) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := limitParam(c)
		if !ok {
			return
		}
		jobs, err := rec.ListJobs(c.Request.Context(), limit)
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeStorage, "listing jobs failed", err))
			return
		}
		c.JSON(http.StatusOK, models.JobsResponse{Count: len(jobs), Jobs: jobs})
	}
}

// ListPeople returns a handler for GET /api/v1/people?limit=N.
func ListPeople(rec Records) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := limitParam(c)
		if !ok {
			return
		}
		people, err := rec.ListPeople(c.Request.Context(), limit)
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeStorage, "listing people failed", err))
			return
		}
		c.JSON(http.StatusOK, models.PeopleResponse{Count: len(people), People: people})
	}
}

// ClearJobs returns a handler for DELETE /api/v1/jobs.
func ClearJobs(rec Records) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := rec.ClearJobs(c.Request.Context())
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeStorage, "clearing jobs failed", err))
			return
		}
		c.JSON(http.StatusOK, models.ClearResponse{Deleted: n})
	}
}

// Export returns a handler for GET /api/v1/export?kind=jobs|people&format=csv|xlsx.
// The file is served as an attachment named after the kind and the time.
func Export(rec Records) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind := c.DefaultQuery("kind", "jobs")
		format := c.DefaultQuery("format", "csv")
		if format != "csv" && format != "xlsx" {
			badRequest(c, "format must be csv or xlsx")
			return
		}

		var (
			body []byte
			n    int
			err  error
		)
		ctx := c.Request.Context()
		switch kind {
		case "jobs":
			var jobs []models.Job
			if jobs, err = rec.ListJobs(ctx, 0); err == nil {
				n = len(jobs)
				body, err = encode(format, jobs, export.JobsXLSX, export.JobsCSV)
			}
		case "people":
			var people []models.Person
			if people, err = rec.ListPeople(ctx, 0); err == nil {
				n = len(people)
				body, err = encode(format, people, export.PeopleXLSX, export.PeopleCSV)
			}
		default:
			badRequest(c, "kind must be jobs or people")
			return
		}
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeStorage, "export failed", err))
			return
		}
		if n == 0 {
			badRequest(c, "no "+kind+" to export")
			return
		}

		contentType := csvType
		if format == "xlsx" {
			contentType = xlsxType
		}
		name := fmt.Sprintf("linkedin_%s_%s.%s", kind, time.Now().Format("20060102_150405"), format)
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, contentType, body)
	}
}

func encode[T any](format string, rows []T, toXLSX func([]T) ([]byte, error), toCSV func(io.Writer, []T) error) ([]byte, error) {
	if format == "xlsx" {
		return toXLSX(rows)
	}
	var buf bytes.Buffer
	if err := toCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// limitParam reads ?limit=; zero or absent means every row.
func limitParam(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}
