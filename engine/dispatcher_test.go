package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/models"
)

var healthyHTML = "<html><head><title>ok</title></head><body><p>" + strings.Repeat("content ", 60) + "</p></body></html>"

type fakeEngine struct {
	name  string
	calls int
	res   *FetchResult
	err   error
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(_ context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	res := *f.res
	if res.FinalURL == "" {
		res.FinalURL = req.URL
	}
	res.EngineName = f.name
	return &res, nil
}

func TestDispatcherEscalates(t *testing.T) {
	httpEng := &fakeEngine{name: ModeHTTP, res: &FetchResult{HTML: "<html><body><div id=app></div><script>boot()</script></body></html>"}}
	browser := &fakeEngine{name: ModeBrowser, res: &FetchResult{HTML: healthyHTML}}
	mem := NewDomainMemory(time.Hour)
	d := NewDispatcher([]Engine{httpEng, browser}, mem, nil)
	if got := d.Engines(); !reflect.DeepEqual(got, []string{ModeHTTP, ModeBrowser}) {
		t.Errorf("Engines() = %v", got)
	}

	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://www.linkedin.com/in/jane"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.EngineName != ModeBrowser {
		t.Errorf("engine = %q, want browser", res.EngineName)
	}
	if got := mem.Get("www.linkedin.com"); got != ModeBrowser {
		t.Errorf("memory = %q, want browser", got)
	}

	// Remembered host skips the http tier.
	if _, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://www.linkedin.com/in/john"}); err != nil {
		t.Fatal(err)
	}
	if httpEng.calls != 1 || browser.calls != 2 {
		t.Errorf("calls http=%d browser=%d, want 1 and 2", httpEng.calls, browser.calls)
	}
}

func TestDispatcherModes(t *testing.T) {
	httpEng := &fakeEngine{name: ModeHTTP, res: &FetchResult{HTML: healthyHTML}}
	browser := &fakeEngine{name: ModeBrowser, res: &FetchResult{HTML: healthyHTML}}
	d := NewDispatcher([]Engine{httpEng, browser}, nil, nil)

	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://example.com", Mode: ModeBrowser})
	if err != nil || res.EngineName != ModeBrowser {
		t.Fatalf("browser mode: %v, %v", res, err)
	}
	if httpEng.calls != 0 {
		t.Errorf("http engine called in browser mode")
	}

	only := NewDispatcher([]Engine{httpEng}, nil, nil)
	_, err = only.Fetch(context.Background(), &FetchRequest{URL: "https://example.com", Mode: ModeBrowser})
	if models.ErrorCode(err) != models.ErrCodeInvalidInput {
		t.Errorf("missing engine err = %v", err)
	}
}

func TestDispatcherClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		res  *FetchResult
		want string
	}{
		{"auth wall", nil, &FetchResult{HTML: healthyHTML, FinalURL: "https://www.linkedin.com/authwall?trk=x"}, models.ErrCodeAuthWall},
		{"rate limited", &StatusError{Code: 429}, nil, models.ErrCodeRateLimited},
		{"timeout", context.DeadlineExceeded, nil, models.ErrCodeTimeout},
		{"other", errors.New("boom"), nil, models.ErrCodeNavigation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher([]Engine{&fakeEngine{name: ModeHTTP, err: tt.err, res: tt.res}}, nil, nil)
			_, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://www.linkedin.com/in/x"})
			if got := models.ErrorCode(err); got != tt.want {
				t.Errorf("code = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestDispatcherCache(t *testing.T) {
	eng := &fakeEngine{name: ModeHTTP, res: &FetchResult{HTML: healthyHTML}}
	pages := cache.New[*FetchResult](10, time.Minute)
	defer pages.Close()
	d := NewDispatcher([]Engine{eng}, nil, pages)

	req := &FetchRequest{URL: "https://example.com/a"}
	first, err := d.Fetch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Fetch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if eng.calls != 1 {
		t.Errorf("engine calls = %d, want 1", eng.calls)
	}
	if first.Cached || !second.Cached {
		t.Errorf("cached flags = %v, %v", first.Cached, second.Cached)
	}

	if _, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://example.com/a", NoCache: true}); err != nil {
		t.Fatal(err)
	}
	if eng.calls != 2 {
		t.Errorf("NoCache did not bypass cache")
	}
}

func TestCheckPage(t *testing.T) {
	if err := CheckPage(&FetchResult{HTML: healthyHTML, FinalURL: "https://x.com/in/a"}); err != nil {
		t.Errorf("healthy page: %v", err)
	}
	if err := CheckPage(&FetchResult{HTML: healthyHTML, FinalURL: "https://x.com/login?session_redirect=1"}); !errors.Is(err, ErrAuthWall) {
		t.Errorf("login redirect: %v", err)
	}
	shell := "<html><body><script>" + strings.Repeat("var a=1;", 200) + "</script><style>.a{}</style></body></html>"
	if err := CheckPage(&FetchResult{HTML: shell, FinalURL: "https://x.com/"}); !errors.Is(err, ErrEmptyShell) {
		t.Errorf("script shell: %v", err)
	}
}

func TestDomainMemoryExpiry(t *testing.T) {
	dm := NewDomainMemory(time.Minute)
	now := time.Unix(0, 0)
	dm.now = func() time.Time { return now }

	dm.Set("a.com", ModeBrowser)
	if dm.Get("a.com") != ModeBrowser {
		t.Fatal("missing entry")
	}
	now = now.Add(2 * time.Minute)
	if dm.Get("a.com") != "" {
		t.Error("entry should have expired")
	}
	if dm.Len() != 0 {
		t.Error("expired entry not removed")
	}
}
