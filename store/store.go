// Package store persists scraped people and jobs in an embedded sqlite
// database. Writes are upserts keyed by profile URL and job URL, so running
// the same scrape twice leaves one row per record holding the latest values.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/use-agent/harvest/models"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite file at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY and
	// keeps ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. The caller applies Schema (see Migrate).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies Schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func marshalList(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UpsertPerson inserts p or overwrites the row with the same LinkedInURL.
// The upload fingerprint of an existing row is preserved.
func (s *Store) UpsertPerson(ctx context.Context, p *models.Person) error {
	if p.LinkedInURL == "" {
		return fmt.Errorf("store: person without linkedin_url")
	}
	skills, err := marshalList(nonNil(p.Skills))
	if err != nil {
		return fmt.Errorf("store: encode skills: %w", err)
	}
	grad, err := marshalList(nonNil(p.GraduateSchools))
	if err != nil {
		return fmt.Errorf("store: encode graduate schools: %w", err)
	}
	edu, err := marshalList(nonNil(p.Education))
	if err != nil {
		return fmt.Errorf("store: encode education: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO people (
			linkedin_url, name, profile_photo, current_job_title, current_company,
			location, connections_count, skills, undergraduate_university,
			graduate_schools, education, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(linkedin_url) DO UPDATE SET
			name = excluded.name,
			profile_photo = excluded.profile_photo,
			current_job_title = excluded.current_job_title,
			current_company = excluded.current_company,
			location = excluded.location,
			connections_count = excluded.connections_count,
			skills = excluded.skills,
			undergraduate_university = excluded.undergraduate_university,
			graduate_schools = excluded.graduate_schools,
			education = excluded.education,
			scraped_at = excluded.scraped_at`,
		p.LinkedInURL, p.Name, p.ProfilePhoto, p.CurrentJobTitle, p.CurrentCompany,
		p.Location, p.ConnectionsCount, skills, p.UndergraduateUniversity,
		grad, edu, formatTime(p.ScrapedAt),
	)
	if err != nil {
		return fmt.Errorf("store: upsert person %s: %w", p.LinkedInURL, err)
	}
	return nil
}

// UpsertJob inserts j or overwrites the row with the same JobURL.
func (s *Store) UpsertJob(ctx context.Context, j *models.Job) error {
	if j.JobURL == "" {
		return fmt.Errorf("store: job without job_url")
	}
	remote := j.IsRemote
	if remote == "" {
		remote = models.RemoteUnknown
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (
			job_url, company_name, job_title, job_location, job_type,
			job_description, posted_date, salary_range, experience_level,
			department, is_remote, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_url) DO UPDATE SET
			company_name = excluded.company_name,
			job_title = excluded.job_title,
			job_location = excluded.job_location,
			job_type = excluded.job_type,
			job_description = excluded.job_description,
			posted_date = excluded.posted_date,
			salary_range = excluded.salary_range,
			experience_level = excluded.experience_level,
			department = excluded.department,
			is_remote = excluded.is_remote,
			scraped_at = excluded.scraped_at`,
		j.JobURL, j.CompanyName, j.JobTitle, j.JobLocation, j.JobType,
		j.JobDescription, j.PostedDate, j.SalaryRange, j.ExperienceLevel,
		j.Department, remote, formatTime(j.ScrapedAt),
	)
	if err != nil {
		return fmt.Errorf("store: upsert job %s: %w", j.JobURL, err)
	}
	return nil
}

const personColumns = `linkedin_url, name, profile_photo, current_job_title, current_company,
	location, connections_count, skills, undergraduate_university, graduate_schools,
	education, scraped_at`

// ListPeople returns people newest first. limit <= 0 means all.
func (s *Store) ListPeople(ctx context.Context, limit int) ([]models.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM people ORDER BY scraped_at DESC, id DESC LIMIT ?`,
		sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("store: list people: %w", err)
	}
	defer rows.Close()

	people := []models.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list people: %w", err)
	}
	return people, nil
}

// GetPerson returns the person stored under url. ok is false when absent.
func (s *Store) GetPerson(ctx context.Context, url string) (p models.Person, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE linkedin_url = ?`, url)
	p, err = scanPerson(row)
	if err == sql.ErrNoRows {
		return models.Person{}, false, nil
	}
	if err != nil {
		return models.Person{}, false, err
	}
	return p, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (models.Person, error) {
	var (
		p                     models.Person
		skills, grad, edu, at string
	)
	err := row.Scan(&p.LinkedInURL, &p.Name, &p.ProfilePhoto, &p.CurrentJobTitle,
		&p.CurrentCompany, &p.Location, &p.ConnectionsCount, &skills,
		&p.UndergraduateUniversity, &grad, &edu, &at)
	if err == sql.ErrNoRows {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("store: scan person: %w", err)
	}
	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return p, fmt.Errorf("store: decode skills of %s: %w", p.LinkedInURL, err)
	}
	if err := json.Unmarshal([]byte(grad), &p.GraduateSchools); err != nil {
		return p, fmt.Errorf("store: decode graduate schools of %s: %w", p.LinkedInURL, err)
	}
	if err := json.Unmarshal([]byte(edu), &p.Education); err != nil {
		return p, fmt.Errorf("store: decode education of %s: %w", p.LinkedInURL, err)
	}
	p.Skills = nonNil(p.Skills)
	p.GraduateSchools = nonNil(p.GraduateSchools)
	p.Education = nonNil(p.Education)
	p.ScrapedAt = parseTime(at)
	return p, nil
}

// ListJobs returns jobs newest first. limit <= 0 means all.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_url, company_name, job_title, job_location, job_type,
			job_description, posted_date, salary_range, experience_level,
			department, is_remote, scraped_at
		FROM jobs ORDER BY scraped_at DESC, id DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		var (
			j  models.Job
			at string
		)
		if err := rows.Scan(&j.JobURL, &j.CompanyName, &j.JobTitle, &j.JobLocation,
			&j.JobType, &j.JobDescription, &j.PostedDate, &j.SalaryRange,
			&j.ExperienceLevel, &j.Department, &j.IsRemote, &at); err != nil {
			return nil, fmt.Errorf("store: scan job: %w", err)
		}
		j.ScrapedAt = parseTime(at)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) CountPeople(ctx context.Context) (int, error) {
	return s.count(ctx, "people")
}

func (s *Store) CountJobs(ctx context.Context) (int, error) {
	return s.count(ctx, "jobs")
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count %s: %w", table, err)
	}
	return n, nil
}

// ClearJobs deletes every job and returns how many were removed.
func (s *Store) ClearJobs(ctx context.Context) (int64, error) {
	return s.clear(ctx, "jobs")
}

// ClearPeople deletes every person and returns how many were removed.
func (s *Store) ClearPeople(ctx context.Context) (int64, error) {
	return s.clear(ctx, "people")
}

func (s *Store) clear(ctx context.Context, table string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("store: clear %s: %w", table, err)
	}
	return res.RowsAffected()
}

// UploadFingerprint returns the fingerprint recorded by the last successful
// upload of url, or "" when it was never uploaded.
func (s *Store) UploadFingerprint(ctx context.Context, url string) (string, error) {
	var fp string
	err := s.db.QueryRowContext(ctx,
		`SELECT upload_fingerprint FROM people WHERE linkedin_url = ?`, url).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: read fingerprint of %s: %w", url, err)
	}
	return fp, nil
}

// MarkUploaded records fingerprint as the uploaded state of url.
func (s *Store) MarkUploaded(ctx context.Context, url, fingerprint string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE people SET upload_fingerprint = ? WHERE linkedin_url = ?`, fingerprint, url)
	if err != nil {
		return fmt.Errorf("store: mark %s uploaded: %w", url, err)
	}
	return nil
}

// sqlLimit maps "no limit" to sqlite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
