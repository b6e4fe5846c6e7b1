package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/use-agent/harvest/airtable"
)

func init() {
	rootCmd.AddCommand(pingCmd)
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Checks the Airtable credentials and table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Airtable.Enabled() {
			return errors.New("airtable is not configured: set AIRTABLE_API_KEY, AIRTABLE_BASE_ID and AIRTABLE_TABLE_NAME")
		}
		if err := airtable.New(cfg.Airtable).Ping(cmd.Context()); err != nil {
			return fmt.Errorf("airtable: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "airtable ok: base %s, table %s\n", cfg.Airtable.BaseID, cfg.Airtable.Table)
		return nil
	},
}
