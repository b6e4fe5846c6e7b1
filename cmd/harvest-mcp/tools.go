package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/use-agent/harvest/models"
)

// pollInterval is how often a waiting tool checks the run status.
var pollInterval = 2 * time.Second

type client struct {
	http *resty.Client
}

func newClient(baseURL, apiKey string) *client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		c.SetHeader("X-API-Key", apiKey)
	}
	return &client{http: c}
}

// call sends a request and decodes a 2xx body into out. Error bodies become
// "[CODE] message".
func (c *client) call(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	res, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	if res.IsError() {
		var e models.ErrorResponse
		if json.Unmarshal(res.Body(), &e) == nil && e.Error != nil {
			return fmt.Errorf("[%s] %s", e.Error.Code, e.Error.Message)
		}
		return fmt.Errorf("API status %d: %s", res.StatusCode(), res.String())
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(res.Body(), out)
}

// start triggers a run and optionally waits for it to finish.
func (c *client) start(ctx context.Context, path string, payload any, wait bool) (*mcp.CallToolResult, error) {
	var run models.RunResponse
	if err := c.call(ctx, "POST", path, payload, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !wait {
		return mcp.NewToolResultText(fmt.Sprintf("Run %s started. Use run_status to follow it.", run.ID)), nil
	}

	st, err := c.waitFor(ctx, run.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStatus(st)), nil
}

func (c *client) waitFor(ctx context.Context, id string) (models.RunStatus, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return models.RunStatus{}, ctx.Err()
		case <-ticker.C:
			var st models.RunStatus
			if err := c.call(ctx, "GET", "/api/v1/status", nil, &st); err != nil {
				return st, err
			}
			if st.ID != id {
				return st, errors.New("run " + id + " was replaced by " + st.ID)
			}
			if !st.Running() {
				return st, nil
			}
		}
	}
}

func (c *client) handleScrapePeople(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urls, err := request.RequireStringSlice("urls")
	if err != nil || len(urls) == 0 {
		return mcp.NewToolResultError("urls is required and must be a non-empty array of strings"), nil
	}

	payload := map[string]any{"urls": urls}
	if v, ok := request.GetArguments()["upload"].(bool); ok {
		payload["upload"] = v
	}
	return c.start(ctx, "/api/v1/people/scrape", payload, request.GetBool("wait", false))
}

func (c *client) handleScrapeJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	companyURL, err := request.RequireString("company_url")
	if err != nil {
		return mcp.NewToolResultError("company_url is required"), nil
	}

	payload := models.ScrapeJobsRequest{
		CompanyURL: companyURL,
		Enrich:     request.GetBool("enrich", false),
		Limit:      request.GetInt("limit", 0),
	}
	return c.start(ctx, "/api/v1/jobs/scrape", payload, request.GetBool("wait", false))
}

func (c *client) handleRunStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var st models.RunStatus
	if err := c.call(ctx, "GET", "/api/v1/status", nil, &st); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStatus(st)), nil
}

func (c *client) handleListPeople(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp models.PeopleResponse
	path := "/api/v1/people?limit=" + strconv.Itoa(request.GetInt("limit", 20))
	if err := c.call(ctx, "GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d profiles:\n\n", resp.Count)
	for _, p := range resp.People {
		fmt.Fprintf(&sb, "- %s", orDash(p.Name))
		if p.CurrentJobTitle != "" || p.CurrentCompany != "" {
			fmt.Fprintf(&sb, ": %s @ %s", orDash(p.CurrentJobTitle), orDash(p.CurrentCompany))
		}
		if p.Location != "" {
			fmt.Fprintf(&sb, " (%s)", p.Location)
		}
		fmt.Fprintf(&sb, "\n  %s\n", p.LinkedInURL)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *client) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp models.JobsResponse
	path := "/api/v1/jobs?limit=" + strconv.Itoa(request.GetInt("limit", 20))
	if err := c.call(ctx, "GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d postings:\n\n", resp.Count)
	for _, j := range resp.Jobs {
		fmt.Fprintf(&sb, "- %s at %s, %s (remote: %s)", j.JobTitle, j.CompanyName, orDash(j.JobLocation), j.IsRemote)
		if j.SalaryRange != "" {
			fmt.Fprintf(&sb, ", %s", j.SalaryRange)
		}
		fmt.Fprintf(&sb, "\n  %s\n", j.JobURL)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatStatus(st models.RunStatus) string {
	if st.ID == "" {
		return "No run yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s (%s): %s", st.ID, st.Kind, st.State)
	if st.Message != "" {
		fmt.Fprintf(&sb, ", %s", st.Message)
	}
	fmt.Fprintf(&sb, "\n%d/%d processed, %d succeeded, %d failed", st.Processed, st.Total, st.Succeeded, st.Failed)
	if st.Uploaded > 0 || st.UploadFailed > 0 || st.Skipped > 0 {
		fmt.Fprintf(&sb, "\n%d uploaded, %d upload failures, %d unchanged", st.Uploaded, st.UploadFailed, st.Skipped)
	}
	if st.Error != "" {
		fmt.Fprintf(&sb, "\nerror: %s", st.Error)
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
