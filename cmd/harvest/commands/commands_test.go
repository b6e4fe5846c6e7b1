package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/store"
)

func TestReadURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		"# team\nhttps://www.linkedin.com/in/jane\n\n  https://www.linkedin.com/in/john  \n"), 0o644))

	urls, err := readURLs(path)
	require.NoError(t, err)
	require.Equal(t, []string{"https://www.linkedin.com/in/jane", "https://www.linkedin.com/in/john"}, urls)

	_, err = readURLs(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestExportRows(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.UpsertJob(ctx, &models.Job{
		JobURL: "https://www.linkedin.com/jobs/view/1", JobTitle: "Engineer", CompanyName: "Acme", ScrapedAt: time.Now(),
	}))

	body, n, err := exportRows(ctx, st, "jobs", "csv")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, n, err = exportRows(ctx, st, "people", "xlsx")
	require.NoError(t, err)
	require.Zero(t, n)

	_, _, err = exportRows(ctx, st, "companies", "csv")
	require.Error(t, err)
}

func TestReport(t *testing.T) {
	require.NoError(t, report(models.RunStatus{State: models.StatePartial, Total: 2, Succeeded: 1, Failed: 1}))
	require.ErrorIs(t, report(models.RunStatus{State: models.StateFailed}), errRunFailed)
}
