package controller

import (
	"fmt"

	"github.com/avalonis/browserpilot/internal/domain"
)

// regionIDOf extracts the regionId a dispatchable action targets, if
// any, so oscillation detection can resolve a stable label instead of
// the volatile regionId itself (spec §4.6 step 5).
func regionIDOf(action domain.Action) string {
	switch a := action.(type) {
	case *domain.VisionClickAction:
		return a.RegionID
	case *domain.VisionFillAction:
		return a.RegionID
	case *domain.DOMClickAction:
		return a.RegionID
	case *domain.DOMFillAction:
		return a.RegionID
	case *domain.KeyPressAction:
		return a.RegionID
	default:
		return ""
	}
}

func resolveActionLabel(action domain.Action, regions []domain.Region) string {
	regionID := regionIDOf(action)
	if regionID == "" {
		return ""
	}
	for _, r := range regions {
		if r.ID == regionID {
			return r.Label
		}
	}
	return ""
}

func actionKey(action domain.Action, regions []domain.Region) string {
	return fmt.Sprintf("%s:%s", action.Type(), resolveActionLabel(action, regions))
}

// checkOscillation implements invariant P4: the third consecutive
// identical action-key suppresses dispatch and pauses the loop.
func (c *Controller) checkOscillation(action domain.Action, regions []domain.Region) (pause bool, key string) {
	key = actionKey(action, regions)
	if key == c.lastActionKey {
		c.repeatedActionCount++
	} else {
		c.repeatedActionCount = 0
		c.lastActionKey = key
	}
	return c.repeatedActionCount >= 2, key
}

// ResetOscillation clears the repeated-action counters. Invariant I3
// requires this on top of the natural key-change reset above: once the
// user confirms a step is already complete, the next DECIDE may
// legitimately propose the same action-key again and deserves two
// fresh attempts rather than an immediate re-pause.
func (c *Controller) ResetOscillation() {
	c.repeatedActionCount = 0
	c.lastActionKey = ""
}
