package pipeline

import (
	"strconv"
	"testing"

	"github.com/use-agent/harvest/models"
)

func TestSearchTarget(t *testing.T) {
	tests := []struct {
		in          string
		wantCompany string
		wantSearch  string
	}{
		{
			"https://www.linkedin.com/company/acme-corp/",
			"Acme Corp",
			"https://www.linkedin.com/jobs/search?company=acme-corp&keywords=&location=&trk=public_jobs_jobs-search-bar_search-submit",
		},
		{
			"https://linkedin.com/company/open-ai?trk=x",
			"Open Ai",
			"https://www.linkedin.com/jobs/search?company=open-ai&keywords=&location=&trk=public_jobs_jobs-search-bar_search-submit",
		},
		{
			"https://www.linkedin.com/jobs/search?keywords=go",
			UnknownCompany,
			"https://www.linkedin.com/jobs/search?keywords=go",
		},
	}
	for _, tt := range tests {
		company, search := SearchTarget(tt.in)
		if company != tt.wantCompany || search != tt.wantSearch {
			t.Errorf("SearchTarget(%q) = %q, %q; want %q, %q", tt.in, company, search, tt.wantCompany, tt.wantSearch)
		}
	}
}

func TestClassifyRemote(t *testing.T) {
	tests := []struct {
		name string
		job  models.Job
		want string
	}{
		{"remote location", models.Job{JobLocation: "Remote, US"}, models.RemoteYes},
		{"wfh description", models.Job{JobDescription: "You can Work From Home twice a week"}, models.RemoteYes},
		{"office description", models.Job{JobDescription: "Based in our Berlin office"}, models.RemoteNo},
		{"nothing known", models.Job{JobLocation: "Berlin"}, models.RemoteUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRemote(&tt.job); got != tt.want {
				t.Errorf("ClassifyRemote = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFingerprintIgnoresScrapeTime(t *testing.T) {
	a := models.Person{Name: "Jane", CurrentCompany: "Acme", Skills: []string{"Go"}}
	b := a
	b.ScrapedAt = b.ScrapedAt.AddDate(1, 0, 0)
	if Fingerprint(&a) != Fingerprint(&b) {
		t.Error("scrape time changed the fingerprint")
	}
	b.CurrentCompany = "Globex"
	if Fingerprint(&a) == Fingerprint(&b) {
		t.Error("company change did not change the fingerprint")
	}
}

func TestFingerprintDetectsSmallChanges(t *testing.T) {
	base := models.Person{
		Name:             "Jane Doe",
		CurrentJobTitle:  "Engineer",
		CurrentCompany:   "Acme",
		ConnectionsCount: "0",
		Skills:           []string{"Go", "SQL"},
	}
	seen := map[string]int{Fingerprint(&base): -1}
	for i := 1; i <= 1000; i++ {
		p := base
		p.ConnectionsCount = strconv.Itoa(i)
		fp := Fingerprint(&p)
		if prev, ok := seen[fp]; ok {
			t.Fatalf("connections %d collides with %d", i, prev)
		}
		seen[fp] = i
	}

	tests := []struct {
		name   string
		mutate func(p *models.Person)
	}{
		{"company case", func(p *models.Person) { p.CurrentCompany = "ACME" }},
		{"title case", func(p *models.Person) { p.CurrentJobTitle = "engineer" }},
		{"skill order", func(p *models.Person) { p.Skills = []string{"SQL", "Go"} }},
		{"skills merged", func(p *models.Person) { p.Skills = []string{"Go SQL"} }},
		{"value moved between fields", func(p *models.Person) { p.CurrentJobTitle, p.CurrentCompany = "Engineer Acme", "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			p.Skills = append([]string(nil), base.Skills...)
			tt.mutate(&p)
			if Fingerprint(&p) == Fingerprint(&base) {
				t.Error("fingerprint unchanged")
			}
		})
	}
}
