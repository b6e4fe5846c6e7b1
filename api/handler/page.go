package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/pipeline"
)

// Counter reports stored row counts. *store.Store implements it.
type Counter interface {
	CountPeople(ctx context.Context) (int, error)
	CountJobs(ctx context.Context) (int, error)
}

type pageData struct {
	Status models.RunStatus
	Jobs   int
	People int
}

// Index returns a handler for GET /, the trigger and status page.
func Index(tracker *pipeline.Tracker, counts Counter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		data := pageData{Status: tracker.Snapshot()}

		var err error
		if data.Jobs, err = counts.CountJobs(ctx); err != nil {
			slog.Warn("count jobs failed", "error", err)
		}
		if data.People, err = counts.CountPeople(ctx); err != nil {
			slog.Warn("count people failed", "error", err)
		}
		c.HTML(http.StatusOK, "index", data)
	}
}

// IndexTemplate is the status page, registered with gin.Engine.SetHTMLTemplate.
var IndexTemplate = template.Must(template.New("index").Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>harvest</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; color: #222; }
fieldset { margin-bottom: 1.5rem; }
input[type=text], textarea { width: 100%; box-sizing: border-box; }
.state { font-weight: bold; }
.failed { color: #b00; } .partial { color: #b60; } .completed { color: #070; }
</style>
</head>
<body>
<h1>harvest</h1>

<p>Status: <span class="state {{.Status.State}}">{{.Status.State}}</span>
{{with .Status.Message}} &middot; {{.}}{{end}}</p>
{{if .Status.Total}}
<p>{{.Status.Processed}} / {{.Status.Total}} processed,
{{.Status.Succeeded}} succeeded, {{.Status.Failed}} failed
{{- if .Status.Uploaded}}, {{.Status.Uploaded}} uploaded{{end}}</p>
{{end}}
{{with .Status.Error}}<p class="failed">{{.}}</p>{{end}}
<p>Stored: {{.Jobs}} jobs, {{.People}} people.
<a href="/api/v1/export?kind=jobs&format=csv">jobs.csv</a> &middot;
<a href="/api/v1/export?kind=jobs&format=xlsx">jobs.xlsx</a> &middot;
<a href="/api/v1/export?kind=people&format=xlsx">people.xlsx</a></p>

<fieldset>
<legend>Jobs</legend>
<input type="text" id="company" placeholder="https://www.linkedin.com/company/...">
<label><input type="checkbox" id="enrich"> fetch posting details</label>
<button onclick="run('/api/v1/jobs/scrape', {company_url: val('company'), enrich: document.getElementById('enrich').checked})">Scrape jobs</button>
</fieldset>

<fieldset>
<legend>People</legend>
<textarea id="profiles" rows="5" placeholder="one profile URL per line"></textarea>
<button onclick="run('/api/v1/people/scrape', {urls: val('profiles').split('\n').map(s => s.trim()).filter(Boolean)})">Scrape people</button>
</fieldset>

<p><input type="text" id="key" placeholder="API key (if required)"></p>
<pre id="out"></pre>

<script>
function val(id) { return document.getElementById(id).value.trim(); }
async function run(path, body) {
  const headers = {'Content-Type': 'application/json'};
  if (val('key')) headers['X-API-Key'] = val('key');
  const res = await fetch(path, {method: 'POST', headers, body: JSON.stringify(body)});
  document.getElementById('out').textContent = JSON.stringify(await res.json(), null, 2);
  if (res.ok) setTimeout(() => location.reload(), 3000);
}
{{if .Status.Running}}setTimeout(() => location.reload(), 5000);{{end}}
</script>
</body>
</html>
`
