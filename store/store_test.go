package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/harvest/models"
)

func setup(t testing.TB) *Store {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestUpsertPersonOverwrites(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	first := &models.Person{
		LinkedInURL:     "https://www.linkedin.com/in/jane",
		Name:            "Jane Doe",
		CurrentJobTitle: "Engineer",
		Skills:          []string{"Go", "SQL"},
		GraduateSchools: []models.School{{School: "MIT", Degree: "MS"}},
		ScrapedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.UpsertPerson(ctx, first))

	second := &models.Person{
		LinkedInURL:     first.LinkedInURL,
		Name:            "Jane Doe",
		CurrentJobTitle: "Staff Engineer",
		ScrapedAt:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.UpsertPerson(ctx, second))

	n, err := s.CountPeople(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, ok, err := s.GetPerson(ctx, first.LinkedInURL)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Staff Engineer", got.CurrentJobTitle)
	require.Equal(t, []string{}, got.Skills)
	require.Equal(t, []models.School{}, got.GraduateSchools)
	require.True(t, got.ScrapedAt.Equal(second.ScrapedAt))
}

func TestPersonRoundTripLists(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	p := &models.Person{
		LinkedInURL:             "https://www.linkedin.com/in/sam",
		Name:                    "Sam",
		Skills:                  []string{"Go", "Kubernetes"},
		UndergraduateUniversity: "Stanford University",
		GraduateSchools:         []models.School{{School: "Harvard", Degree: "MBA"}},
		Education: []models.EducationEntry{
			{School: "Stanford University", Degree: "BS", Level: "undergraduate"},
			{School: "Harvard", Degree: "MBA", Level: "graduate"},
		},
	}
	require.NoError(t, s.UpsertPerson(ctx, p))

	got, ok, err := s.GetPerson(ctx, p.LinkedInURL)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, p.Skills, got.Skills)
	require.Equal(t, p.GraduateSchools, got.GraduateSchools)
	require.Equal(t, p.Education, got.Education)
	require.False(t, got.ScrapedAt.IsZero())

	_, ok, err = s.GetPerson(ctx, "https://www.linkedin.com/in/nobody")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpsertRequiresKey(t *testing.T) {
	s := setup(t)
	require.Error(t, s.UpsertPerson(context.Background(), &models.Person{Name: "x"}))
	require.Error(t, s.UpsertJob(context.Background(), &models.Job{JobTitle: "x"}))
}

func TestJobsUpsertListClear(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, title := range []string{"Backend Engineer", "Data Engineer", "SRE"} {
		require.NoError(t, s.UpsertJob(ctx, &models.Job{
			JobURL:      "https://www.linkedin.com/jobs/view/" + string(rune('1'+i)),
			CompanyName: "Acme",
			JobTitle:    title,
			ScrapedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	// Same URL again updates in place.
	require.NoError(t, s.UpsertJob(ctx, &models.Job{
		JobURL:      "https://www.linkedin.com/jobs/view/1",
		CompanyName: "Acme",
		JobTitle:    "Senior Backend Engineer",
		IsRemote:    models.RemoteYes,
		ScrapedAt:   base.Add(time.Hour),
	}))

	jobs, err := s.ListJobs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	require.Equal(t, "Senior Backend Engineer", jobs[0].JobTitle)
	require.Equal(t, models.RemoteYes, jobs[0].IsRemote)
	require.Equal(t, models.RemoteUnknown, jobs[1].IsRemote)

	limited, err := s.ListJobs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	deleted, err := s.ClearJobs(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, deleted)

	n, err := s.CountJobs(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestUploadFingerprint(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	url := "https://www.linkedin.com/in/jane"

	fp, err := s.UploadFingerprint(ctx, url)
	require.NoError(t, err)
	require.Empty(t, fp)

	require.NoError(t, s.UpsertPerson(ctx, &models.Person{LinkedInURL: url, Name: "Jane"}))
	require.NoError(t, s.MarkUploaded(ctx, url, "00ff00ff00ff00ff"))

	// A later upsert keeps the fingerprint.
	require.NoError(t, s.UpsertPerson(ctx, &models.Person{LinkedInURL: url, Name: "Jane D"}))
	fp, err = s.UploadFingerprint(ctx, url)
	require.NoError(t, err)
	require.Equal(t, "00ff00ff00ff00ff", fp)

	deleted, err := s.ClearPeople(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))
	// Migrate twice is harmless.
	require.NoError(t, s.Migrate(context.Background()))
}
