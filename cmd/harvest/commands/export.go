package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/harvest/export"
	"github.com/use-agent/harvest/store"
)

var (
	exportKind   string
	exportFormat string
	exportOut    string
)

func init() {
	exportCmd.Flags().StringVar(&exportKind, "kind", "jobs", "jobs or people.")
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "xlsx or csv.")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file. Defaults to linkedin_<kind>_<timestamp>.<format>.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--kind jobs|people] [--format xlsx|csv] [-o file]",
	Short: "Writes stored jobs or people to a spreadsheet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != "xlsx" && exportFormat != "csv" {
			return fmt.Errorf("unknown format %q", exportFormat)
		}

		st, err := store.Open(cmd.Context(), cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		body, n, err := exportRows(cmd.Context(), st, exportKind, exportFormat)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no %s to export", exportKind)
		}

		out := exportOut
		if out == "" {
			out = fmt.Sprintf("linkedin_%s_%s.%s", exportKind, time.Now().Format("20060102_150405"), exportFormat)
		}
		if err := os.WriteFile(out, body, 0o644); err != nil {
			return err
		}
		abs, _ := filepath.Abs(out)
		slog.Info("exported", "kind", exportKind, "rows", n, "file", abs)
		return nil
	},
}

func exportRows(ctx context.Context, st *store.Store, kind, format string) ([]byte, int, error) {
	var buf bytes.Buffer
	switch kind {
	case "jobs":
		jobs, err := st.ListJobs(ctx, 0)
		if err != nil {
			return nil, 0, err
		}
		if format == "xlsx" {
			b, err := export.JobsXLSX(jobs)
			return b, len(jobs), err
		}
		if err := export.JobsCSV(&buf, jobs); err != nil {
			return nil, 0, err
		}
		return buf.Bytes(), len(jobs), nil
	case "people":
		people, err := st.ListPeople(ctx, 0)
		if err != nil {
			return nil, 0, err
		}
		if format == "xlsx" {
			b, err := export.PeopleXLSX(people)
			return b, len(people), err
		}
		if err := export.PeopleCSV(&buf, people); err != nil {
			return nil, 0, err
		}
		return buf.Bytes(), len(people), nil
	}
	return nil, 0, fmt.Errorf("unknown kind %q", kind)
}
