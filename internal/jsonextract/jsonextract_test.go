package jsonextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_StripsMarkdownFences(t *testing.T) {
	text := "sure, here it is:\n```json\n{\"a\": 1}\n```\nhope that helps"
	out, err := Extract(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, out)
}

func TestExtract_NestedBraces(t *testing.T) {
	text := `{"a": {"b": 2}, "c": "}"}`
	out, err := Extract(text)
	require.NoError(t, err)
	assert.JSONEq(t, text, out)
}

func TestExtract_StripsComments(t *testing.T) {
	text := "{\n  // a comment\n  \"a\": 1 /* inline */\n}"
	out, err := Extract(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, out)
}

func TestExtract_NoJSONReturnsError(t *testing.T) {
	_, err := Extract("no json here")
	assert.Error(t, err)
}
