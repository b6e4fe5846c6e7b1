package scraper

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// scrollPause lets lazily loaded sections fetch and render between steps.
const scrollPause = 400 * time.Millisecond

// scrollPage scrolls down one viewport at a time, steps times, stopping
// early once the bottom is reached.
func scrollPage(p *rod.Page, steps int) error {
	if steps <= 0 {
		return nil
	}
	res, err := p.Eval(`() => window.innerHeight`)
	if err != nil {
		return fmt.Errorf("failed to get viewport height: %w", err)
	}
	viewport := float64(res.Value.Int())

	for i := 0; i < steps; i++ {
		if err := p.Mouse.Scroll(0, viewport, 0); err != nil {
			return fmt.Errorf("scroll step %d failed: %w", i, err)
		}
		select {
		case <-time.After(scrollPause):
		case <-p.GetContext().Done():
			return p.GetContext().Err()
		}
		if atBottom(p) {
			return nil
		}
	}
	return nil
}

func atBottom(p *rod.Page) bool {
	res, err := p.Eval(`() => window.innerHeight + window.scrollY >= document.body.scrollHeight - 2`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}
