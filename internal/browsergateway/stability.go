package browsergateway

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
)

// WaitForStability waits for domcontentloaded (followed by a
// best-effort networkidle with a 3s cap), returning when that sequence
// finishes, the timeout elapses, or ctx is done, then pauses 300ms for
// layout to settle, per spec §4.1. All failures are
// swallowed — the contract is "wait up to T, then return" — mirroring
// the teacher's tolerant WaitFor/WaitForEmailElements style in
// internal/browser/browser.go.
func (g *Gateway) WaitForStability(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   playwright.LoadStateDomcontentloaded,
			Timeout: playwright.Float(float64(timeout.Milliseconds())),
		})
		_ = g.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   playwright.LoadStateNetworkidle,
			Timeout: playwright.Float(3000),
		})
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	case <-ctx.Done():
	}
	time.Sleep(300 * time.Millisecond)
	return nil
}

// GetScrollGeometry reads {scrollY, scrollHeight, viewportHeight}.
func (g *Gateway) GetScrollGeometry() (ScrollGeometry, error) {
	val, err := g.page.Evaluate(`() => ({
		scrollY: window.scrollY,
		scrollHeight: document.documentElement.scrollHeight,
		viewportHeight: window.innerHeight
	})`)
	if err != nil {
		return ScrollGeometry{}, wrap(err)
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		return ScrollGeometry{}, nil
	}
	return ScrollGeometry{
		ScrollY:        toFloat(m["scrollY"]),
		ScrollHeight:   toFloat(m["scrollHeight"]),
		ViewportHeight: toFloat(m["viewportHeight"]),
	}, nil
}

// ScrollGeometry mirrors domain.ScrollGeometry; kept as a distinct
// type at this layer so browsergateway has no import-time dependency
// on domain for this pure transport shape. controller converts.
type ScrollGeometry struct {
	ScrollY        float64
	ScrollHeight   float64
	ViewportHeight float64
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// Wheel scrolls the mouse wheel by (dx, dy) then pauses briefly for
// the layout to settle, matching spec §4.6 ACT mapping for SCROLL.
func (g *Gateway) Wheel(dx, dy float64) error {
	if err := wrap(g.page.Mouse().Wheel(dx, dy)); err != nil {
		return err
	}
	time.Sleep(400 * time.Millisecond)
	return nil
}

// WaitForLoadState waits for a named load state ("load",
// "domcontentloaded", "networkidle").
func (g *Gateway) WaitForLoadState(state string) error {
	var ls playwright.LoadState
	switch state {
	case "domcontentloaded":
		ls = playwright.LoadStateDomcontentloaded
	case "networkidle":
		ls = playwright.LoadStateNetworkidle
	default:
		ls = playwright.LoadStateLoad
	}
	return wrap(g.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: ls}))
}

// PressPage sends a page-level key press (no region scope).
func (g *Gateway) PressPage(key string) error {
	return wrap(g.page.Keyboard().Press(key))
}
