// Package controller implements the AgentController capability (spec
// §4.6): the OBSERVE → auto-scroll → DECIDE → guardrails → ACT →
// VERIFY loop that composes every other core component, generalizing
// the teacher's Orchestrator.Run step loop (internal/agent/orchestrator.go)
// — same re-observe-every-step, repeated-action-detection, and
// adaptive-recovery shape, widened to the spec's explicit state
// machine and pause semantics.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/avalonis/browserpilot/internal/decision"
	"github.com/avalonis/browserpilot/internal/domain"
	"github.com/avalonis/browserpilot/internal/guardrails"
	"github.com/avalonis/browserpilot/internal/llm"
	"github.com/avalonis/browserpilot/internal/memory"
	"github.com/avalonis/browserpilot/internal/verifier"
)

// OnStep is the host orchestrator's callback contract (spec §6):
// runLoop(sessionId, task, onStep(phase,message,action?), opts?).
type OnStep func(ctx context.Context, event domain.StepEvent)

// RunOptions controls one RunLoop invocation.
type RunOptions struct {
	// ResetStepCount zeroes stepCount at the start of this call.
	// Defaults to false: a resumed session after ASK_USER/CONFIRM
	// keeps counting where it paused, matching the teacher's single
	// step counter for the whole Orchestrator.Run call (spec §6.1).
	ResetStepCount bool
}

// Controller is the AgentController.
type Controller struct {
	gateway      gatewayPort
	catalogue    regionSource
	policy       *guardrails.Policy
	oracle       *decision.Oracle
	verifier     *verifier.Verifier
	memStore     memory.Store
	scrollOracle llm.Client // optional: nil disables the semantic visibility gate
	logger       zerolog.Logger

	sessionID string
	stepCount int

	lastURL              string
	previousRegionLabels map[string]struct{}
	scroll               domain.ScrollState

	lastActionKey       string
	repeatedActionCount int

	lastAction  domain.Action
	lastOutcome *domain.Outcome
}

func New(
	gateway gatewayPort,
	cat regionSource,
	policy *guardrails.Policy,
	oracle *decision.Oracle,
	verf *verifier.Verifier,
	memStore memory.Store,
	scrollOracle llm.Client,
	sessionID string,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		gateway:              gateway,
		catalogue:            cat,
		policy:               policy,
		oracle:               oracle,
		verifier:             verf,
		memStore:             memStore,
		scrollOracle:         scrollOracle,
		sessionID:            sessionID,
		logger:               logger.With().Str("comp", "controller").Str("session", sessionID).Logger(),
		previousRegionLabels: make(map[string]struct{}),
	}
}

// RunLoop drives the control loop to completion, a pause, or budget
// exhaustion.
func (c *Controller) RunLoop(ctx context.Context, task string, onStep OnStep, opts RunOptions) (domain.RunResult, error) {
	if opts.ResetStepCount {
		c.stepCount = 0
	}

	for {
		if err := ctx.Err(); err != nil {
			return domain.RunResult{Completed: false, Reason: err.Error()}, nil
		}
		if c.stepCount >= domain.MaxSteps {
			return domain.RunResult{Completed: false, Reason: "Max steps reached"}, nil
		}
		c.stepCount++

		// 1. OBSERVE
		regions, err := c.catalogue.Scan(ctx)
		if err != nil {
			return domain.RunResult{Completed: false, Reason: fmt.Sprintf("scan failed: %v", err)}, nil
		}
		diff := c.computeRegionDiff(regions)
		c.emit(ctx, onStep, domain.PhaseObserve, fmt.Sprintf("observed %d regions", len(regions)), nil)

		// 2. URL-change detection (invariant I4)
		currentURL := c.gateway.URL()
		if currentURL != c.lastURL {
			c.scroll.Reset()
			c.lastURL = currentURL
		}

		// 3. Pre-LLM auto-scroll gate
		if c.autoScrollGate(ctx, task, regions) {
			c.emit(ctx, onStep, domain.PhaseAct, "auto-scroll: content not yet visible", c.lastAction)
			if err := c.appendHistory(ctx, c.lastAction, "auto-scroll gate", *c.lastOutcome); err != nil {
				c.logger.Warn().Err(err).Msg("append history failed")
			}
			continue
		}

		// 4. DECIDE
		feedback := c.buildFeedback(diff)
		history, _ := c.memStore.GetRecentHistory(ctx, c.sessionID, 5)
		bodyText, _ := c.gateway.BodyText()
		dec, err := c.oracle.Decide(ctx, task, c.stepCount, regions, feedback, history, bodyText)
		if err != nil {
			return domain.RunResult{Completed: false, Reason: err.Error()}, nil
		}
		c.emit(ctx, onStep, domain.PhaseDecide, dec.Reasoning, dec.Action)

		switch a := dec.Action.(type) {
		case *domain.DoneAction:
			return domain.RunResult{Completed: true, Reason: a.Reason}, nil
		case *domain.ConfirmAction:
			return domain.RunResult{Completed: false, Reason: a.Message, PendingAction: a, PauseKind: domain.PauseConfirm}, nil
		case *domain.AskUserAction:
			return domain.RunResult{Completed: false, Reason: a.Message, PendingAction: a, PauseKind: domain.PauseAskUser}, nil
		}

		// 5. Oscillation detection
		if pause, key := c.checkOscillation(dec.Action, regions); pause {
			msg := fmt.Sprintf("repeated action %q %d times in a row; is this step already complete?", key, c.repeatedActionCount+1)
			return domain.RunResult{
				Completed:           false,
				Reason:              msg,
				PendingAction:       dec.Action,
				PauseKind:           domain.PauseOscillation,
				StepCompletionCheck: true,
			}, nil
		}

		// 6. Guardrails
		verdict := c.policy.Evaluate(dec.Action, regions)
		if !verdict.Allowed {
			if verdict.RequiresConfirmation {
				return domain.RunResult{Completed: false, Reason: verdict.Reason, PendingAction: dec.Action, PauseKind: domain.PauseGuardrail}, nil
			}
			c.logger.Info().Str("reason", verdict.Reason).Msg("action skipped due to guardrail")
			c.emit(ctx, onStep, domain.PhaseAct, "Action skipped due to guardrail: "+verdict.Reason, dec.Action)
			continue
		}

		// 7. ACT
		urlBefore := c.gateway.URL()
		titleBefore, _ := c.gateway.Title()
		textBefore, _ := c.gateway.BodyText()

		actErr := c.dispatch(ctx, dec.Action, regions)
		c.emit(ctx, onStep, domain.PhaseAct, dec.Action.Describe(), dec.Action)

		// 8. VERIFY
		urlAfter := c.gateway.URL()
		titleAfter, _ := c.gateway.Title()
		textAfter, err := c.gateway.BodyText()
		if err != nil {
			c.logger.Debug().Err(err).Msg("navigation-destroyed context during verify; reading whatever is accessible")
			textAfter = ""
		}

		var outcome domain.Outcome
		var verifyMsg string
		if actErr != nil {
			c.logger.Warn().Err(actErr).Str("action", dec.Action.Describe()).Msg("act failed")
			outcome = domain.Outcome{StateChanged: false, URLBefore: urlBefore, URLAfter: urlAfter, TitleBefore: titleBefore, TitleAfter: titleAfter, TextBefore: textBefore, TextAfter: textAfter}
			verifyMsg = fmt.Sprintf("action failed: %v", actErr)
		} else {
			outcome, verifyMsg = c.verifier.Observe(dec.Action, urlBefore, urlAfter, titleBefore, titleAfter, textBefore, textAfter)
		}
		c.emit(ctx, onStep, domain.PhaseVerify, verifyMsg, dec.Action)

		c.lastAction = dec.Action
		c.lastOutcome = &outcome
		if err := c.appendHistory(ctx, dec.Action, dec.Reasoning, outcome); err != nil {
			c.logger.Warn().Err(err).Msg("append history failed")
		}
	}
}

// ExecuteAction performs a one-shot dispatch outside the loop, used by
// the host orchestrator to resume after the user approves a paused
// CONFIRM/ASK_USER action (spec §6 executeAction contract). CONFIRM and
// ASK_USER carry nothing to dispatch, so for them it returns nil
// without touching the page.
func (c *Controller) ExecuteAction(ctx context.Context, action domain.Action) error {
	switch action.(type) {
	case *domain.AskUserAction, *domain.ConfirmAction:
		return nil
	}
	regions, err := c.catalogue.Scan(ctx)
	if err != nil {
		return fmt.Errorf("rescan before execute: %w", err)
	}
	return c.dispatch(ctx, action, regions)
}

func (c *Controller) emit(ctx context.Context, onStep OnStep, phase domain.Phase, message string, action domain.Action) {
	if onStep == nil {
		return
	}
	onStep(ctx, domain.StepEvent{Phase: phase, Message: message, Action: action})
}

func (c *Controller) appendHistory(ctx context.Context, action domain.Action, reasoning string, outcome domain.Outcome) error {
	return c.memStore.Append(ctx, c.sessionID, domain.HistoryItem{
		Step:      c.stepCount,
		Action:    action,
		Reasoning: reasoning,
		Outcome:   outcome,
		Timestamp: time.Now(),
	})
}

func (c *Controller) buildFeedback(diff domain.RegionDiff) *domain.Feedback {
	return &domain.Feedback{LastAction: c.lastAction, LastOutcome: c.lastOutcome, RegionDiff: &diff}
}

const maxDiffEntries = 15

// computeRegionDiff diffs the current region labels against
// previousRegionLabels, capped at 15 appeared/disappeared (spec §4.6
// step 1), and updates previousRegionLabels for the next iteration.
func (c *Controller) computeRegionDiff(regions []domain.Region) domain.RegionDiff {
	current := make(map[string]struct{}, len(regions))
	var appeared, disappeared []string
	for _, r := range regions {
		current[r.Label] = struct{}{}
		if _, existed := c.previousRegionLabels[r.Label]; !existed && len(appeared) < maxDiffEntries {
			appeared = append(appeared, r.Label)
		}
	}
	for label := range c.previousRegionLabels {
		if _, still := current[label]; !still && len(disappeared) < maxDiffEntries {
			disappeared = append(disappeared, label)
		}
	}
	c.previousRegionLabels = current
	return domain.RegionDiff{Appeared: appeared, Disappeared: disappeared}
}
