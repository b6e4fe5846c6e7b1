package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

type fakeAirtable struct {
	mu      sync.Mutex
	batches []int
	failOn  int // 1-based batch number that returns 422
	auth    []string
}

func (f *fakeAirtable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	if r.Method == http.MethodGet {
		if r.URL.Query().Get("maxRecords") != "1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"records":[]}`)
		return
	}

	var body recordsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.batches = append(f.batches, len(body.Records))
	if len(f.batches) == f.failOn {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN"}}`)
		return
	}
	for i := range body.Records {
		body.Records[i].ID = fmt.Sprintf("rec%d_%d", len(f.batches), i)
	}
	json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.AirtableConfig{
		APIKey:  "test-key",
		BaseID:  "appTEST",
		Table:   "People",
		BaseURL: srv.URL,
		Batch:   10,
		Timeout: 5 * time.Second,
	})
}

func people(n int) []models.Person {
	out := make([]models.Person, n)
	for i := range out {
		out[i] = models.Person{
			LinkedInURL: fmt.Sprintf("https://www.linkedin.com/in/p%d", i),
			Name:        fmt.Sprintf("Person %d", i),
			Skills:      []string{"Go", "SQL"},
		}
	}
	return out
}

func TestCreatePeopleBatches(t *testing.T) {
	fake := &fakeAirtable{}
	c := newTestClient(t, fake)

	res := c.CreatePeople(context.Background(), people(23))
	require.Equal(t, 23, res.Uploaded)
	require.Zero(t, res.Failed)
	require.Len(t, res.RecordIDs, 23)
	require.Equal(t, []int{10, 10, 3}, fake.batches)
	for _, a := range fake.auth {
		require.Equal(t, "Bearer test-key", a)
	}
}

func TestCreatePeopleFailedBatchContinues(t *testing.T) {
	fake := &fakeAirtable{failOn: 2}
	c := newTestClient(t, fake)

	res := c.CreatePeople(context.Background(), people(25))
	require.Equal(t, 15, res.Uploaded)
	require.Equal(t, 10, res.Failed)
	require.Len(t, res.Errors, 1)
	require.Len(t, res.UploadedURLs, 15)
	require.Equal(t, "https://www.linkedin.com/in/p20", res.UploadedURLs[10])

	var apiErr *APIError
	require.ErrorAs(t, res.Errors[0], &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Len(t, fake.batches, 3)
}

func TestCreatePeopleCanceled(t *testing.T) {
	c := newTestClient(t, &fakeAirtable{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.CreatePeople(ctx, people(12))
	require.Zero(t, res.Uploaded)
	require.Equal(t, 12, res.Failed)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, &fakeAirtable{})
	require.NoError(t, c.Ping(context.Background()))

	denied := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	var apiErr *APIError
	require.ErrorAs(t, denied.Ping(context.Background()), &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestToFields(t *testing.T) {
	c := New(config.AirtableConfig{})
	c.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

	f := c.ToFields(&models.Person{
		Name:             "Jane Doe",
		Skills:           []string{"Go", "Distributed Systems"},
		ConnectionsCount: "500+",
		LinkedInURL:      "https://www.linkedin.com/in/jane",
	})
	require.Equal(t, "Go, Distributed Systems", f.Skills)
	require.Equal(t, "500+", f.Connections)
	require.Equal(t, "2024-05-01T09:30:00Z", f.ScrapedDate)

	b, err := json.Marshal(f)
	require.NoError(t, err)
	require.Contains(t, string(b), `"Full Name":"Jane Doe"`)
	require.Contains(t, string(b), `"Number of Connections":"500+"`)
}

func TestFormatGraduateSchools(t *testing.T) {
	got := FormatGraduateSchools([]models.School{
		{School: "MIT", Degree: "MS"},
		{School: "Harvard Business School"},
	})
	require.Equal(t, "MIT (MS); Harvard Business School", got)
	require.Empty(t, FormatGraduateSchools(nil))
}
