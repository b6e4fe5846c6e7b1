package commands

import (
	"github.com/spf13/cobra"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/pipeline"
)

var (
	jobsEnrich    bool
	jobsLimit     int
	jobsFetchMode string
)

func init() {
	jobsCmd.Flags().BoolVar(&jobsEnrich, "enrich", false, "Fetch every posting for description, salary, level and department.")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 25, "Maximum number of postings.")
	jobsCmd.Flags().StringVar(&jobsFetchMode, "fetch-mode", engine.ModeAuto, "auto, http or browser.")
	rootCmd.AddCommand(jobsCmd)
}

var jobsCmd = &cobra.Command{
	Use:   "jobs <company-url>",
	Short: "Scrapes the open postings of a company into the database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := wire(cmd.Context(), cfg, progress)
		if err != nil {
			return err
		}
		defer a.close()

		st := a.runner.Jobs(cmd.Context(), args[0], pipeline.JobsOptions{
			Enrich:    jobsEnrich,
			Limit:     jobsLimit,
			FetchMode: jobsFetchMode,
		})
		return report(st)
	},
}
