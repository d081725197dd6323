// Package browsergateway implements the engine-agnostic BrowserGateway
// capability (spec §4.1) on top of Playwright, generalizing the
// teacher's internal/browser.Controller: the same launcher/context/page
// lifecycle, widened to expose the raw interactive-selector scan,
// per-handle introspection, and cursor physics the spec requires.
package browsergateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/avalonis/browserpilot/internal/domain"
)

const (
	defaultNavTimeout = 30 * time.Second
	headlessEnv       = "AGENT_HEADLESS"

	// broadInteractiveSelector matches spec §4.1's "scan" contract:
	// buttons, role-tagged elements, anchors with href, visible form
	// controls.
	broadInteractiveSelector = `button, [role="button"], [role="link"], [role="checkbox"], [role="radio"], a[href], input:not([type="hidden"]), textarea, select`
)

// Launcher owns the Playwright process and browser lifecycle, exactly
// like the teacher's browser.Launcher.
type Launcher struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	headless bool
	logger   zerolog.Logger
}

// Launch starts Playwright and a Chromium instance.
func Launch(ctx context.Context, logger zerolog.Logger, headless bool) (*Launcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &Launcher{pw: pw, browser: browser, headless: headless, logger: logger}, nil
}

// LaunchFromEnv mirrors the teacher's headlessEnv lookup.
func LaunchFromEnv(ctx context.Context, logger zerolog.Logger) (*Launcher, error) {
	return Launch(ctx, logger, parseBoolEnv(headlessEnv, false))
}

func (l *Launcher) Close() error {
	if l.browser != nil {
		_ = l.browser.Close()
	}
	if l.pw != nil {
		return l.pw.Stop()
	}
	return nil
}

// NewGateway opens a fresh browser context + page and wraps it as a
// Gateway.
func (l *Launcher) NewGateway(ctx context.Context, storagePath string) (*Gateway, error) {
	opts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
	}
	if strings.TrimSpace(storagePath) != "" {
		opts.StorageStatePath = playwright.String(storagePath)
	}
	bctx, err := l.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	page.SetDefaultTimeout(float64(defaultNavTimeout.Milliseconds()))
	return &Gateway{context: bctx, page: page, logger: l.logger}, nil
}

// Gateway is the BrowserGateway implementation for one session.
type Gateway struct {
	context playwright.BrowserContext
	page    playwright.Page
	logger  zerolog.Logger
}

func (g *Gateway) Close(ctx context.Context) error {
	_ = ctx
	if g.page != nil {
		_ = g.page.Close()
	}
	if g.context != nil {
		return g.context.Close()
	}
	return nil
}

func (g *Gateway) Page() playwright.Page { return g.page }

// SaveState persists the browser context's storage state (cookies,
// localStorage) to path, so a later run can resume a logged-in
// session.
func (g *Gateway) SaveState(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state, err := g.context.StorageState()
	if err != nil {
		return wrap(err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal storage state: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func (g *Gateway) URL() string { return g.page.URL() }

func (g *Gateway) Title() (string, error) {
	t, err := g.page.Title()
	return t, wrap(err)
}

func (g *Gateway) BodyText() (string, error) {
	t, err := g.page.InnerText("body")
	return t, wrap(err)
}

// Scan returns ordered live handles for every node matching the broad
// interactive selector across the main frame and every child frame.
func (g *Gateway) Scan(ctx context.Context) ([]ElementHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var handles []ElementHandle
	frames := g.page.Frames()
	for _, frame := range frames {
		locs, err := frame.Locator(broadInteractiveSelector).All()
		if err != nil {
			continue
		}
		for _, loc := range locs {
			handles = append(handles, ElementHandle{locator: loc})
		}
	}
	return handles, nil
}

// ElementHandle wraps a single live Playwright locator.
type ElementHandle struct {
	locator playwright.Locator
}

func (h ElementHandle) IsVisible() (bool, error) {
	v, err := h.locator.IsVisible()
	return v, wrap(err)
}

func (h ElementHandle) BoundingBox() (domain.BBox, bool, error) {
	box, err := h.locator.BoundingBox()
	if err != nil {
		return domain.BBox{}, false, wrap(err)
	}
	if box == nil {
		return domain.BBox{}, false, nil
	}
	return domain.BBox{X: box.X, Y: box.Y, W: box.Width, H: box.Height}, true, nil
}

func (h ElementHandle) TextContent() (string, error) {
	t, err := h.locator.TextContent()
	return t, wrap(err)
}

func (h ElementHandle) GetAttribute(name string) (string, error) {
	v, err := h.locator.GetAttribute(name)
	return v, wrap(err)
}

// TagName reads the element's lower-cased tag name, mirroring the
// teacher's `el.tagName.toLowerCase()` role derivation in
// internal/snapshot.Collect.
func (h ElementHandle) TagName() (string, error) {
	val, err := h.locator.Evaluate("el => el.tagName.toLowerCase()", nil)
	if err != nil {
		return "", wrap(err)
	}
	tag, _ := val.(string)
	return tag, nil
}

func (h ElementHandle) ScrollIntoViewIfNeeded() error {
	return wrap(h.locator.ScrollIntoViewIfNeeded())
}

func (h ElementHandle) Click() error { return wrap(h.locator.Click()) }

func (h ElementHandle) Fill(value string) error { return wrap(h.locator.Fill(value)) }

func (h ElementHandle) Press(key string) error { return wrap(h.locator.Press(key)) }

// ImageAltFallback looks for a descendant <img alt="..."> per spec
// §4.2 step 4's label-derivation fallback.
func (h ElementHandle) ImageAltFallback() (string, bool) {
	img := h.locator.Locator("img")
	alt, err := img.First().GetAttribute("alt")
	if err != nil || strings.TrimSpace(alt) == "" {
		count, cerr := img.Count()
		if cerr == nil && count > 0 {
			return "", true // image present, but empty alt -> "Unlabeled Image"
		}
		return "", false
	}
	return alt, true
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("browsergateway: %w", err)
}

func parseBoolEnv(name string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
