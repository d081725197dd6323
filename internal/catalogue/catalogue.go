// Package catalogue implements the ElementCatalogue capability (spec
// §4.2): turning a live BrowserGateway scan into a stable, labelled
// set of Regions for one OBSERVE cycle, grounded in the teacher's
// internal/snapshot.Collect element-ranking pass but built on top of
// browsergateway's per-handle accessors rather than a hand-rolled
// querySelectorAll/CDP walk.
package catalogue

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avalonis/browserpilot/internal/browsergateway"
	"github.com/avalonis/browserpilot/internal/domain"
)

// Scanner is the subset of browsergateway.Gateway the catalogue needs,
// kept narrow so tests can fake it without a real browser.
type Scanner interface {
	Scan(ctx context.Context) ([]browsergateway.ElementHandle, error)
}

// maxRegions caps one scan's output so decision prompts stay bounded
// (spec §4.2 step 5).
const maxRegions = 200

// Catalogue produces Regions from a live scan and remembers the
// ElementHandle each Region.ID resolved to, for later ACT dispatch.
type Catalogue struct {
	scanner Scanner
	logger  zerolog.Logger
	store   *ElementStore
}

func New(scanner Scanner, logger zerolog.Logger) *Catalogue {
	return &Catalogue{scanner: scanner, logger: logger, store: NewElementStore()}
}

// Store exposes the current scan's handle lookup table.
func (c *Catalogue) Store() *ElementStore { return c.store }

// Scan performs one OBSERVE pass: collect interactive nodes, derive a
// label for each, drop unlabelled/invisible/sub-floor ones, assign a
// fresh opaque ID, and atomically replace the ElementStore (invariant
// P2 — IDs from a prior scan become stale the instant a new scan
// completes).
func (c *Catalogue) Scan(ctx context.Context) ([]domain.Region, error) {
	handles, err := c.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	fresh := NewElementStore()
	regions := make([]domain.Region, 0, len(handles))

	for _, h := range handles {
		if len(regions) >= maxRegions {
			break
		}
		visible, err := h.IsVisible()
		if err != nil || !visible {
			continue
		}
		box, ok, err := h.BoundingBox()
		if err != nil || !ok || !box.Valid() {
			continue
		}
		attrs := fetchAttrs(h)
		label, labelOK := deriveLabel(attrs)
		if !labelOK {
			continue
		}
		role := attrs.role
		if strings.TrimSpace(role) == "" {
			role = inferRole(attrs)
		}
		href := attrs.href

		id := "element-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
		region := domain.Region{
			ID:         id,
			Label:      label,
			Role:       role,
			BBox:       box,
			Href:       href,
			Confidence: confidenceFor(role, label),
		}
		regions = append(regions, region)
		fresh.put(id, h)
	}

	c.store = fresh
	c.logger.Debug().Int("regions", len(regions)).Msg("catalogue scan complete")
	return regions, nil
}

// elementAttrs is the pre-fetched subset of a handle's attributes
// deriveLabel/inferRole need, kept as plain data so the labelling
// ladder is unit-testable without a live browser.
type elementAttrs struct {
	ariaLabel   string
	name        string
	placeholder string
	text        string
	role        string
	href        string
	inputType   string
	tagName     string
	imageAlt    string
	hasImage    bool
}

func fetchAttrs(h browsergateway.ElementHandle) elementAttrs {
	a := elementAttrs{}
	a.ariaLabel, _ = h.GetAttribute("aria-label")
	a.name, _ = h.GetAttribute("name")
	a.placeholder, _ = h.GetAttribute("placeholder")
	a.text, _ = h.TextContent()
	a.role, _ = h.GetAttribute("role")
	a.href, _ = h.GetAttribute("href")
	a.inputType, _ = h.GetAttribute("type")
	a.tagName, _ = h.TagName()
	a.imageAlt, a.hasImage = h.ImageAltFallback()
	return a
}

// deriveLabel implements spec §4.2 step 4's fallback ladder:
// aria-label -> name -> placeholder -> textContent -> image alt ->
// drop. Labels are whitespace-normalised and trimmed to 100 runes.
func deriveLabel(a elementAttrs) (string, bool) {
	for _, raw := range []string{a.ariaLabel, a.name, a.placeholder, a.text} {
		if label := normalizeLabel(raw); label != "" {
			return label, true
		}
	}
	if a.hasImage {
		if label := normalizeLabel(a.imageAlt); label != "" {
			return label, true
		}
		return "Unlabeled Image", true
	}
	return "", false
}

func normalizeLabel(raw string) string {
	fields := strings.Fields(raw)
	label := strings.Join(fields, " ")
	if runes := []rune(label); len(runes) > 100 {
		label = string(runes[:100])
	}
	return strings.TrimSpace(label)
}

// inputTypeRoles maps an <input type="..."> to spec §3's closed role
// enum, per the teacher's role/tag-name duality in
// internal/snapshot.Collect (`el.tagName.toLowerCase()` plus
// `getAttribute("role")`).
var inputTypeRoles = map[string]string{
	"checkbox": "checkbox",
	"radio":    "radio",
}

// tagRoles maps a bare tag name to spec §3's closed role enum for the
// elements that need no further disambiguation.
var tagRoles = map[string]string{
	"button":   "button",
	"textarea": "textarea",
	"select":   "select",
	"a":        "link",
}

// inferRole falls back to tag-shape heuristics when no explicit ARIA
// role is present: anchors with href and <input type> first (since
// those carry the most specific signal), then bare tag name, landing
// on "other" only when the element is genuinely ambiguous (spec §4.2
// step 6 / §3's closed role enum).
func inferRole(a elementAttrs) string {
	if a.href != "" {
		return "link"
	}
	if a.tagName == "input" {
		if role, ok := inputTypeRoles[a.inputType]; ok {
			return role
		}
		return "textbox"
	}
	if role, ok := tagRoles[a.tagName]; ok {
		return role
	}
	return "other"
}

// confidenceFor is a coarse heuristic consumed by the decision layer
// to prioritise unambiguous, well-labelled regions first.
func confidenceFor(role, label string) float64 {
	score := 0.5
	if role != "" && role != "other" {
		score += 0.25
	}
	if len(label) > 2 {
		score += 0.25
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
