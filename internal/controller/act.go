package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/avalonis/browserpilot/internal/domain"
)

const defaultScrollAmount = 400.0

// dispatch implements spec §4.6 step 7's ACT mapping table. DONE,
// ASK_USER and CONFIRM are controller-owned and rejected here — the
// loop intercepts them during DECIDE and never reaches ACT with one.
func (c *Controller) dispatch(ctx context.Context, action domain.Action, regions []domain.Region) error {
	switch a := action.(type) {
	case *domain.VisionClickAction:
		handle, err := c.catalogue.Store().Resolve(a.RegionID)
		if err != nil {
			return err
		}
		return c.gateway.VisionClick(ctx, handle)

	case *domain.VisionFillAction:
		handle, err := c.catalogue.Store().Resolve(a.RegionID)
		if err != nil {
			return err
		}
		return c.gateway.VisionFill(ctx, handle, a.Value)

	case *domain.DOMClickAction:
		switch {
		case a.RegionID != "":
			handle, err := c.catalogue.Store().Resolve(a.RegionID)
			if err != nil {
				return err
			}
			return handle.Click()
		case a.Role != "" && a.Name != "":
			return c.gateway.ClickByRole(a.Role, a.Name)
		case a.Selector != "":
			return c.gateway.ClickBySelector(a.Selector)
		default:
			return fmt.Errorf("dom_click: no target specification")
		}

	case *domain.DOMFillAction:
		switch {
		case a.RegionID != "":
			handle, err := c.catalogue.Store().Resolve(a.RegionID)
			if err != nil {
				return err
			}
			return handle.Fill(a.Value)
		case a.Role != "" && a.Name != "":
			return c.gateway.FillByRole(a.Role, a.Name, a.Value)
		case a.Selector != "":
			return c.gateway.FillBySelector(a.Selector, a.Value)
		default:
			return fmt.Errorf("dom_fill: no target specification")
		}

	case *domain.KeyPressAction:
		if a.RegionID != "" {
			handle, err := c.catalogue.Store().Resolve(a.RegionID)
			if err != nil {
				return err
			}
			return handle.Press(a.Key)
		}
		return c.gateway.PressPage(a.Key)

	case *domain.ScrollAction:
		amount := float64(a.Amount)
		if amount <= 0 {
			amount = defaultScrollAmount
		}
		if a.Direction == "up" {
			amount = -amount
		}
		return c.gateway.Wheel(0, amount)

	case *domain.WaitAction:
		switch {
		case a.DurationMS > 0:
			time.Sleep(time.Duration(a.DurationMS) * time.Millisecond)
			return nil
		case a.Until != "":
			return c.gateway.WaitForLoadState(a.Until)
		default:
			time.Sleep(1000 * time.Millisecond)
			return nil
		}

	case *domain.DoneAction, *domain.AskUserAction, *domain.ConfirmAction:
		return fmt.Errorf("act: %s must be intercepted by the controller before dispatch", action.Type())

	default:
		return fmt.Errorf("act: unknown action type %s", action.Type())
	}
}
