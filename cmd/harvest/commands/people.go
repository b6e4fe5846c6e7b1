package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/pipeline"
)

var errRunFailed = errors.New("run failed")

var (
	peopleFile      string
	peopleNoUpload  bool
	peopleFetchMode string
)

func init() {
	peopleCmd.Flags().StringVarP(&peopleFile, "file", "f", "", "Read profile URLs from a file, one per line (- for stdin).")
	peopleCmd.Flags().BoolVar(&peopleNoUpload, "no-upload", false, "Store profiles locally without uploading them.")
	peopleCmd.Flags().StringVar(&peopleFetchMode, "fetch-mode", engine.ModeAuto, "auto, http or browser.")
	rootCmd.AddCommand(peopleCmd)
}

var peopleCmd = &cobra.Command{
	Use:   "people [profile-url...] [-f urls.txt]",
	Short: "Scrapes member profiles, stores them and uploads them to Airtable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := args
		if peopleFile != "" {
			more, err := readURLs(peopleFile)
			if err != nil {
				return err
			}
			urls = append(urls, more...)
		}
		if len(urls) == 0 {
			return errors.New("no profile URLs given")
		}

		a, err := wire(cmd.Context(), cfg, progress)
		if err != nil {
			return err
		}
		defer a.close()

		st := a.runner.People(cmd.Context(), urls, pipeline.PeopleOptions{
			Upload:    !peopleNoUpload,
			Session:   cfg.Scraper.SessionCookie != "",
			FetchMode: peopleFetchMode,
		})
		return report(st)
	},
}

// readURLs reads one URL per line, skipping blanks and # comments.
func readURLs(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return urls, nil
}
