// Package airtable uploads scraped people to an Airtable table through the
// REST API. Records are created in batches of at most ten, the API's limit
// per request; a failed batch is counted and logged and the remaining
// batches still go out.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

// MaxBatch is the most records Airtable accepts in one create call.
const MaxBatch = 10

// Fields is one Airtable row. The JSON names are the table's column names.
type Fields struct {
	FullName        string `json:"Full Name"`
	ProfilePhoto    string `json:"Profile Photo"`
	CurrentJobTitle string `json:"Current Job Title"`
	CurrentCompany  string `json:"Current Company"`
	Location        string `json:"Location"`
	Skills          string `json:"Skills"`
	LinkedInURL     string `json:"LinkedIn URL"`
	Connections     string `json:"Number of Connections"`
	ScrapedDate     string `json:"Scraped Date"`
}

type record struct {
	ID     string `json:"id,omitempty"`
	Fields Fields `json:"fields"`
}

type recordsBody struct {
	Records []record `json:"records"`
}

// APIError is a non-2xx Airtable response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable: status %d: %s", e.Status, e.Body)
}

// BatchResult summarizes a CreatePeople call.
type BatchResult struct {
	Uploaded  int
	Failed    int
	RecordIDs []string
	// UploadedURLs are the LinkedIn URLs of people in successful batches.
	UploadedURLs []string
	// Errors has one entry per failed batch.
	Errors []error
}

type Client struct {
	client   *resty.Client
	endpoint string
	batch    int
	now      func() time.Time
}

// New builds a client from cfg. It does not contact Airtable; use Ping.
func New(cfg config.AirtableConfig) *Client {
	client := resty.New()
	client.SetAuthToken(cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(cfg.Timeout)

	batch := cfg.Batch
	if batch <= 0 || batch > MaxBatch {
		batch = MaxBatch
	}
	return &Client{
		client:   client,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/" + url.PathEscape(cfg.BaseID) + "/" + url.PathEscape(cfg.Table),
		batch:    batch,
		now:      time.Now,
	}
}

// CreatePeople uploads people in order, batch by batch.
func (c *Client) CreatePeople(ctx context.Context, people []models.Person) BatchResult {
	var res BatchResult
	for start := 0; start < len(people); start += c.batch {
		end := min(start+c.batch, len(people))
		n := start/c.batch + 1

		if err := ctx.Err(); err != nil {
			res.Failed += len(people) - start
			res.Errors = append(res.Errors, err)
			break
		}

		ids, err := c.createBatch(ctx, people[start:end])
		if err != nil {
			res.Failed += end - start
			res.Errors = append(res.Errors, fmt.Errorf("batch %d: %w", n, err))
			slog.Warn("airtable batch failed", "batch", n, "records", end-start, "error", err)
			continue
		}
		res.Uploaded += len(ids)
		res.RecordIDs = append(res.RecordIDs, ids...)
		for _, p := range people[start:end] {
			res.UploadedURLs = append(res.UploadedURLs, p.LinkedInURL)
		}
		slog.Info("airtable batch created", "batch", n, "records", len(ids))
	}
	return res
}

func (c *Client) createBatch(ctx context.Context, people []models.Person) ([]string, error) {
	body := recordsBody{Records: make([]record, len(people))}
	for i := range people {
		body.Records[i] = record{Fields: c.ToFields(&people[i])}
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, &APIError{Status: res.StatusCode(), Body: res.String()}
	}

	var created recordsBody
	if err := json.Unmarshal(res.Body(), &created); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	ids := make([]string, 0, len(created.Records))
	for _, r := range created.Records {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Ping reads at most one record to check the key, base and table.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("maxRecords", "1").
		Get(c.endpoint)
	if err != nil {
		return fmt.Errorf("airtable: %w", err)
	}
	if res.IsError() {
		return &APIError{Status: res.StatusCode(), Body: res.String()}
	}
	return nil
}

// ToFields maps a person to a row.
func (c *Client) ToFields(p *models.Person) Fields {
	at := p.ScrapedAt
	if at.IsZero() {
		at = c.now()
	}
	return Fields{
		FullName:        p.Name,
		ProfilePhoto:    p.ProfilePhoto,
		CurrentJobTitle: p.CurrentJobTitle,
		CurrentCompany:  p.CurrentCompany,
		Location:        p.Location,
		Skills:          strings.Join(p.Skills, ", "),
		LinkedInURL:     p.LinkedInURL,
		Connections:     p.ConnectionsCount,
		ScrapedDate:     at.Format(time.RFC3339),
	}
}

// FormatGraduateSchools renders schools as "School (Degree); School".
func FormatGraduateSchools(schools []models.School) string {
	parts := make([]string, 0, len(schools))
	for _, s := range schools {
		if s.Degree != "" {
			parts = append(parts, s.School+" ("+s.Degree+")")
		} else {
			parts = append(parts, s.School)
		}
	}
	return strings.Join(parts, "; ")
}
