package controller

import (
	"context"

	"github.com/avalonis/browserpilot/internal/catalogue"
	"github.com/avalonis/browserpilot/internal/domain"
)

// regionSource narrows *catalogue.Catalogue to what the control loop
// needs, so tests can fake a scan without a real browser underneath.
type regionSource interface {
	Scan(ctx context.Context) ([]domain.Region, error)
	Store() *catalogue.ElementStore
}
