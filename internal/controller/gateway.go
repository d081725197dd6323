package controller

import (
	"context"
	"time"

	"github.com/avalonis/browserpilot/internal/browsergateway"
)

// gatewayPort narrows *browsergateway.Gateway down to exactly what the
// control loop calls, so tests can exercise RunLoop against a fake
// without a real Playwright page — the same "accept an interface"
// shape the teacher uses for tools.Toolbox in internal/agent.
type gatewayPort interface {
	URL() string
	Title() (string, error)
	BodyText() (string, error)
	GetScrollGeometry() (browsergateway.ScrollGeometry, error)
	Wheel(dx, dy float64) error
	WaitForStability(ctx context.Context, timeout time.Duration) error
	VisionClick(ctx context.Context, h browsergateway.ElementHandle) error
	VisionFill(ctx context.Context, h browsergateway.ElementHandle, value string) error
	ClickByRole(role, name string) error
	ClickBySelector(selector string) error
	FillByRole(role, name, value string) error
	FillBySelector(selector, value string) error
	PressPage(key string) error
	WaitForLoadState(state string) error
}
