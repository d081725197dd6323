package browsergateway

import (
	"github.com/playwright-community/playwright-go"
)

// ClickBySelector and ClickByRole back DOM_CLICK's selector/role+name
// target forms (spec §4.6 ACT mapping), matching the teacher's direct
// playwright.Page locator calls in internal/browser/browser.go rather
// than routing through a previously-scanned ElementHandle.
func (g *Gateway) ClickBySelector(selector string) error {
	return wrap(g.page.Locator(selector).First().Click())
}

func (g *Gateway) ClickByRole(role, name string) error {
	loc := g.page.GetByRole(playwright.AriaRole(role), playwright.PageGetByRoleOptions{
		Name: name,
	})
	return wrap(loc.First().Click())
}

func (g *Gateway) FillBySelector(selector, value string) error {
	return wrap(g.page.Locator(selector).First().Fill(value))
}

func (g *Gateway) FillByRole(role, name, value string) error {
	loc := g.page.GetByRole(playwright.AriaRole(role), playwright.PageGetByRoleOptions{
		Name: name,
	})
	return wrap(loc.First().Fill(value))
}
