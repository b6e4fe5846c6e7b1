package commands

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/pipeline"
)

// progress logs item events of a foreground run.
var progress = pipeline.ListenerFunc(func(ev models.RunEvent) {
	switch ev.Type {
	case models.EventItemDone:
		slog.Info("done", "item", ev.Item, "processed", ev.Status.Processed, "total", ev.Status.Total)
	case models.EventItemFailed:
		slog.Warn("failed", "item", ev.Item, "error", ev.Error, "processed", ev.Status.Processed, "total", ev.Status.Total)
	}
})

// report prints the final status as JSON and returns an error when nothing
// succeeded, so scripts can check the exit code.
func report(st models.RunStatus) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return err
	}
	if st.State == models.StateFailed {
		return errRunFailed
	}
	return nil
}
