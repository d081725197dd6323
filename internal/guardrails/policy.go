// Package guardrails implements the Guardrails capability (spec
// §4.3): a policy oracle that classifies a proposed Action as
// allowed, confirm-required, or denied before AgentController
// dispatches it. Generalized from the teacher's free-text
// requiresConfirmation/destructiveKeywords scan in
// internal/agent/orchestrator.go into a standalone, YAML-configured
// component.
package guardrails

import "strings"

// sensitiveFieldKeywords trigger an outright deny on any fill target
// whose resolved label mentions them (spec §4.3 rule 1).
var sensitiveFieldKeywords = []string{
	"email", "username", "user name", "billing", "mfa", "otp",
	"password", "passcode", "credit card", "cvc", "ccv", "ssn",
	"social security", "address", "phone number", "dob", "date of birth",
	"api key", "secret", "debit", "bank account",
}

// secretMarkers trigger an outright deny when present verbatim in a
// fill value (spec §4.3 rule 2).
var secretMarkers = []string{"SECRET.", "PASSWORD", "API_KEY"}

// Config is the policy's yaml.v3-loaded configuration surface
// (spec §4.3 inputs).
type Config struct {
	AllowedDomains    []string `yaml:"allowedDomains"`
	RequireConfirmFor []string `yaml:"requireConfirmFor"`
}

// Verdict is the three-way output of Policy.Evaluate.
type Verdict struct {
	Allowed             bool
	Reason              string
	RequiresConfirmation bool
}

// Policy is the Guardrails oracle.
type Policy struct {
	cfg Config
}

func New(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

func containsAny(haystack string, needles []string) (string, bool) {
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return n, true
		}
	}
	return "", false
}

// IsDomainAllowed reports whether hostname equals, or is a dot-suffix
// of, one of the configured allowedDomains (spec §4.3 rule 4).
func (p *Policy) IsDomainAllowed(hostname string) bool {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return false
	}
	for _, allowed := range p.cfg.AllowedDomains {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if hostname == allowed || strings.HasSuffix(hostname, "."+allowed) {
			return true
		}
	}
	return false
}
