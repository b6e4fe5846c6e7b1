package engine

import (
	"context"
	"fmt"
)

// BrowserFunc loads a page in a real browser. It is injected from main so
// engine/ does not import scraper/.
type BrowserFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is the browser tier. It always runs with stealth evasions and
// scrolls pages so lazily rendered profile sections exist in the DOM.
type RodEngine struct {
	fetchFunc BrowserFunc
}

// NewRodEngine wraps fetchFunc as an Engine.
func NewRodEngine(fetchFunc BrowserFunc) *RodEngine {
	return &RodEngine{fetchFunc: fetchFunc}
}

func (e *RodEngine) Name() string { return ModeBrowser }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.fetchFunc == nil {
		return nil, fmt.Errorf("%s: fetchFunc not configured", e.Name())
	}

	r := *req
	r.Stealth = true
	r.Scroll = true

	result, err := e.fetchFunc(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}
	result.EngineName = e.Name()
	return result, nil
}
