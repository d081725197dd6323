package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoGuardrailsFile(t *testing.T) {
	os.Unsetenv("AGENT_GUARDRAILS_FILE")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxSteps)
	assert.NotEmpty(t, cfg.Guardrails.RequireConfirmFor)
}

func TestLoadGuardrailsFile_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allowedDomains:\n  - example.com\nrequireConfirmFor:\n  - delete\n"), 0o644))

	cfg, err := loadGuardrailsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, cfg.AllowedDomains)
	assert.Equal(t, []string{"delete"}, cfg.RequireConfirmFor)
}

func TestEnvIntOr_FallsBackOnInvalid(t *testing.T) {
	os.Setenv("TEST_INT_KEY", "not-a-number")
	defer os.Unsetenv("TEST_INT_KEY")
	assert.Equal(t, 7, envIntOr("TEST_INT_KEY", 7))
}
