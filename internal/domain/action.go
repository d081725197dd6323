// Package domain holds the data model shared by every core component:
// Action, Decision, Region, Feedback, PlanStep, Plan and the typed
// errors the control loop reasons about.
package domain

import "fmt"

// Action is a closed sum type over the ten dispatchable action
// variants, all defined in this file. The unexported isAction marker
// keeps other packages from declaring variants of their own; the only
// outside implementation is store's read-only history stand-in, which
// embeds Action to obtain the marker. Type() names the variant for
// logging, oscillation keys and persisted history.
type Action interface {
	isAction()
	Type() ActionType
	// Describe returns a short, human-readable summary used in
	// oscillation-key resolution and logging.
	Describe() string
}

type ActionType string

const (
	ActionVisionClick ActionType = "VISION_CLICK"
	ActionVisionFill  ActionType = "VISION_FILL"
	ActionDOMClick    ActionType = "DOM_CLICK"
	ActionDOMFill     ActionType = "DOM_FILL"
	ActionKeyPress    ActionType = "KEY_PRESS"
	ActionScroll      ActionType = "SCROLL"
	ActionWait        ActionType = "WAIT"
	ActionAskUser     ActionType = "ASK_USER"
	ActionConfirm     ActionType = "CONFIRM"
	ActionDone        ActionType = "DONE"
)

// VisionClickAction performs a human-like cursor click on a region.
type VisionClickAction struct {
	RegionID    string
	Description string
}

func (VisionClickAction) isAction()            {}
func (VisionClickAction) Type() ActionType     { return ActionVisionClick }
func (a VisionClickAction) Describe() string   { return fmt.Sprintf("vision_click(%s)", a.RegionID) }

// VisionFillAction performs a human-like cursor click+type on a region.
type VisionFillAction struct {
	RegionID    string
	Value       string
	Description string
}

func (VisionFillAction) isAction()          {}
func (VisionFillAction) Type() ActionType   { return ActionVisionFill }
func (a VisionFillAction) Describe() string { return fmt.Sprintf("vision_fill(%s)", a.RegionID) }

// DOMClickAction clicks via the DOM directly. Exactly one of RegionID,
// Selector, or Role+Name should be populated; HasTarget reports
// whether "at least one target specification" holds, per spec §3.
type DOMClickAction struct {
	RegionID    string
	Selector    string
	Role        string
	Name        string
	Description string
}

func (DOMClickAction) isAction()        {}
func (DOMClickAction) Type() ActionType { return ActionDOMClick }
func (a DOMClickAction) Describe() string {
	return fmt.Sprintf("dom_click(%s)", a.targetLabel())
}

func (a DOMClickAction) targetLabel() string {
	switch {
	case a.RegionID != "":
		return a.RegionID
	case a.Selector != "":
		return a.Selector
	case a.Role != "" || a.Name != "":
		return a.Role + ":" + a.Name
	default:
		return ""
	}
}

// HasTarget reports whether at least one target specification is set.
func (a DOMClickAction) HasTarget() bool {
	return a.RegionID != "" || a.Selector != "" || (a.Role != "" && a.Name != "")
}

// DOMFillAction fills via the DOM directly. Exactly one target
// specification is required (spec §3 fill constraint).
type DOMFillAction struct {
	RegionID    string
	Selector    string
	Role        string
	Name        string
	Value       string
	Description string
}

func (DOMFillAction) isAction()        {}
func (DOMFillAction) Type() ActionType { return ActionDOMFill }
func (a DOMFillAction) Describe() string {
	return fmt.Sprintf("dom_fill(%s)", a.targetLabel())
}

func (a DOMFillAction) targetLabel() string {
	switch {
	case a.RegionID != "":
		return a.RegionID
	case a.Selector != "":
		return a.Selector
	case a.Role != "" || a.Name != "":
		return a.Role + ":" + a.Name
	default:
		return ""
	}
}

// TargetCount returns how many of RegionID/Selector/Role+Name are set;
// the "exactly one target" fill constraint holds when it is 1.
func (a DOMFillAction) TargetCount() int {
	n := 0
	if a.RegionID != "" {
		n++
	}
	if a.Selector != "" {
		n++
	}
	if a.Role != "" && a.Name != "" {
		n++
	}
	return n
}

// KeyPressAction sends a keyboard key, optionally scoped to a region.
type KeyPressAction struct {
	Key         string
	RegionID    string
	Description string
}

func (KeyPressAction) isAction()        {}
func (KeyPressAction) Type() ActionType { return ActionKeyPress }
func (a KeyPressAction) Describe() string {
	return fmt.Sprintf("key_press(%s)", a.Key)
}

// ScrollAction scrolls the viewport up or down.
type ScrollAction struct {
	Direction   string // "up" | "down"
	Amount      int    // pixels, 0 = default
	Description string
}

func (ScrollAction) isAction()        {}
func (ScrollAction) Type() ActionType { return ActionScroll }
func (a ScrollAction) Describe() string {
	return fmt.Sprintf("scroll(%s)", a.Direction)
}

// WaitAction pauses for a duration or until a load state is reached.
type WaitAction struct {
	DurationMS  int
	Until       string // "load" | "domcontentloaded" | "networkidle"
	Description string
}

func (WaitAction) isAction()        {}
func (WaitAction) Type() ActionType { return ActionWait }
func (a WaitAction) Describe() string {
	if a.Until != "" {
		return fmt.Sprintf("wait(until=%s)", a.Until)
	}
	return fmt.Sprintf("wait(%dms)", a.DurationMS)
}

// AskUserAction must never reach BrowserGateway — the controller
// intercepts it and pauses the loop.
type AskUserAction struct {
	Message  string
	ActionID string
}

func (AskUserAction) isAction()          {}
func (AskUserAction) Type() ActionType   { return ActionAskUser }
func (a AskUserAction) Describe() string { return "ask_user" }

// ConfirmAction must never reach BrowserGateway — the controller
// intercepts it and pauses the loop.
type ConfirmAction struct {
	Message  string
	ActionID string
}

func (ConfirmAction) isAction()          {}
func (ConfirmAction) Type() ActionType   { return ActionConfirm }
func (a ConfirmAction) Describe() string { return "confirm" }

// DoneAction terminates the loop successfully.
type DoneAction struct {
	Reason string
}

func (DoneAction) isAction()          {}
func (DoneAction) Type() ActionType   { return ActionDone }
func (a DoneAction) Describe() string { return "done" }
