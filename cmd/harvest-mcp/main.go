// Command harvest-mcp exposes the harvest HTTP API as MCP tools over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/harvest/config"
)

func main() {
	cfg := config.Load()
	api := newClient(cfg.Server.BaseURL, os.Getenv("HARVEST_API_KEY"))

	s := server.NewMCPServer(
		"harvest",
		"0.2.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("scrape_people",
		mcp.WithDescription("Scrape member profiles, store them in the local database and upload them to Airtable when configured. Only one run can be active at a time."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Profile URLs such as https://www.linkedin.com/in/<handle>"),
			mcp.WithStringItems(),
		),
		mcp.WithBoolean("upload",
			mcp.Description("Upload to Airtable after storing (default: true when Airtable is configured)"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Wait for the run to finish and return its final status (default: false)"),
		),
	), api.handleScrapePeople)

	s.AddTool(mcp.NewTool("scrape_jobs",
		mcp.WithDescription("Scrape the open job postings of a company into the local database."),
		mcp.WithString("company_url",
			mcp.Required(),
			mcp.Description("Company page such as https://www.linkedin.com/company/<slug>"),
		),
		mcp.WithBoolean("enrich",
			mcp.Description("Open every posting for description, salary, experience level and department (slower)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of postings (default: 25, max: 100)"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Wait for the run to finish and return its final status (default: false)"),
		),
	), api.handleScrapeJobs)

	s.AddTool(mcp.NewTool("run_status",
		mcp.WithDescription("Report the state and counters of the latest scrape run."),
	), api.handleRunStatus)

	s.AddTool(mcp.NewTool("list_people",
		mcp.WithDescription("List stored profiles, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of profiles (default: 20)")),
	), api.handleListPeople)

	s.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List stored job postings, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of postings (default: 20)")),
	), api.handleListJobs)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
