package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

// PersonFromResult maps an extraction result onto a Person. Unresolved
// fields stay empty; slices are never nil.
func PersonFromResult(profileURL string, r *extract.Result, at time.Time) models.Person {
	p := models.Person{
		LinkedInURL:             profileURL,
		Name:                    r.Text(extract.FieldName),
		ProfilePhoto:            r.Text(extract.FieldProfilePhoto),
		CurrentJobTitle:         r.Text(extract.FieldJobTitle),
		CurrentCompany:          r.Text(extract.FieldCompany),
		Location:                r.Text(extract.FieldLocation),
		ConnectionsCount:        r.Text(extract.FieldConnections),
		Skills:                  r.List(extract.FieldSkills),
		UndergraduateUniversity: r.Text(extract.FieldUndergraduate),
		GraduateSchools:         []models.School{},
		Education:               []models.EducationEntry{},
		ScrapedAt:               at,
	}
	for _, e := range r.Entries(extract.FieldGraduate) {
		p.GraduateSchools = append(p.GraduateSchools, models.School{School: e.School, Degree: e.Degree})
	}
	for _, e := range r.Entries(extract.FieldEducation) {
		p.Education = append(p.Education, models.EducationEntry{School: e.School, Degree: e.Degree, Level: e.Category.String()})
	}
	return p
}

// JobFromCard maps a job card result onto a Job. company is used when the
// card does not name one; the posting URL is resolved against base.
func JobFromCard(r *extract.Result, company string, base *url.URL, at time.Time) models.Job {
	if c := r.Text(extract.FieldJobCompany); c != "" {
		company = c
	}
	return models.Job{
		JobURL:      extract.ResolveURL(base, r.Text(extract.FieldJobURL)),
		CompanyName: company,
		JobTitle:    r.Text(extract.FieldJobPostTitle),
		JobLocation: r.Text(extract.FieldJobLocation),
		JobType:     strings.Join(r.List(extract.FieldJobType), " • "),
		PostedDate:  r.Text(extract.FieldPostedDate),
		SalaryRange: r.Text(extract.FieldSalary),
		IsRemote:    models.RemoteUnknown,
		ScrapedAt:   at,
	}
}

// JobFromLink builds a minimal Job from a bare posting link, for search
// pages without recognizable cards.
func JobFromLink(l extract.Link, company string, at time.Time) models.Job {
	return models.Job{
		JobURL:      l.URL,
		CompanyName: company,
		JobTitle:    l.Text,
		JobLocation: models.NotSpecified,
		JobType:     models.NotSpecified,
		IsRemote:    models.RemoteUnknown,
		ScrapedAt:   at,
	}
}

// MergeDetail fills j from a posting page result. Card values win over
// detail values except for the description, which only the detail has.
func MergeDetail(j *models.Job, r *extract.Result) {
	j.JobDescription = r.Text(extract.FieldDescription)
	if j.SalaryRange == "" {
		j.SalaryRange = r.Text(extract.FieldSalary)
	}
	if j.ExperienceLevel == "" {
		j.ExperienceLevel = r.Text(extract.FieldExperienceLevel)
	}
	if j.Department == "" {
		j.Department = r.Text(extract.FieldDepartment)
	}
}

var remoteKeywords = []string{"remote", "work from home", "telecommute", "distributed", "anywhere"}

// ClassifyRemote returns RemoteYes when the title, location, type or
// description mentions remote work. Without a remote mention a job with a
// description is RemoteNo; one without is RemoteUnknown.
func ClassifyRemote(j *models.Job) string {
	text := strings.ToLower(strings.Join([]string{j.JobTitle, j.JobLocation, j.JobType, j.JobDescription}, " "))
	for _, kw := range remoteKeywords {
		if strings.Contains(text, kw) {
			return models.RemoteYes
		}
	}
	if j.JobDescription != "" {
		return models.RemoteNo
	}
	return models.RemoteUnknown
}

// Fingerprint is the upload fingerprint of p: a sha256 digest of the fields
// Airtable receives, in order and byte for byte, hex encoded. ScrapedAt is
// excluded so a rescrape of an unchanged profile yields the same value.
func Fingerprint(p *models.Person) string {
	h := sha256.New()
	for _, v := range []string{
		p.Name,
		p.ProfilePhoto,
		p.CurrentJobTitle,
		p.CurrentCompany,
		p.Location,
		p.ConnectionsCount,
	} {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	for _, s := range p.Skills {
		h.Write([]byte(s))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}
