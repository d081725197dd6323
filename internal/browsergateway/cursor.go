package browsergateway

import (
	"context"
	"math/rand"
	"runtime"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/avalonis/browserpilot/internal/domain"
)

// VisionClick performs a human-like cursor click on a region handle:
// scroll into view, jittered centre point, interpolated mouse move,
// hover pause, then a deliberate down/up with a short dwell (spec
// §4.1 "Cursor physics").
func (g *Gateway) VisionClick(ctx context.Context, h ElementHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	point, err := g.resolveClickPoint(h)
	if err != nil {
		return err
	}
	if err := g.moveMouseTo(point); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	mouse := g.page.Mouse()
	if err := wrap(mouse.Down()); err != nil {
		return err
	}
	time.Sleep(70 * time.Millisecond)
	return wrap(mouse.Up())
}

// VisionFill performs the VisionClick sequence, then Select-All +
// Backspace + per-character typing (spec §4.1).
func (g *Gateway) VisionFill(ctx context.Context, h ElementHandle, value string) error {
	if err := g.VisionClick(ctx, h); err != nil {
		return err
	}
	kb := g.page.Keyboard()
	selectAllKey := "Control+A"
	if runtime.GOOS == "darwin" {
		selectAllKey = "Meta+A"
	}
	if err := wrap(kb.Press(selectAllKey)); err != nil {
		return err
	}
	if err := wrap(kb.Press("Backspace")); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)
	for _, r := range value {
		if err := wrap(kb.Type(string(r))); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

type point struct{ x, y float64 }

func (g *Gateway) resolveClickPoint(h ElementHandle) (point, error) {
	if err := h.ScrollIntoViewIfNeeded(); err != nil {
		return point{}, err
	}
	box, ok, err := h.BoundingBox()
	if err != nil {
		return point{}, err
	}
	if !ok {
		return point{}, &domain.NotVisibleError{}
	}
	jitterX := rand.Float64()*2 - 1
	jitterY := rand.Float64()*2 - 1
	return point{
		x: box.X + box.W/2 + jitterX,
		y: box.Y + box.H/2 + jitterY,
	}, nil
}

func (g *Gateway) moveMouseTo(p point) error {
	mouse := g.page.Mouse()
	// Playwright's Move(steps=N) already interpolates intermediate
	// positions, so one call with Steps=10 matches the spec's "10
	// interpolated steps" without re-deriving a start point.
	return wrap(mouse.Move(p.x, p.y, playwright.MouseMoveOptions{Steps: playwright.Int(10)}))
}
