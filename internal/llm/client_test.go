package llm

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs/zerolog"
)

func TestNewClientWithLogger_UnknownProviderErrors(t *testing.T) {
	t.Setenv(envProvider, "carrier-pigeon")
	_, err := NewClientWithLogger(zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")
}

func TestNewClientWithLogger_NoKeyIsNonFatal(t *testing.T) {
	os.Unsetenv(envProvider)
	os.Unsetenv(envGeminiAPIKey)
	client, err := NewClientWithLogger(zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, client)
}
