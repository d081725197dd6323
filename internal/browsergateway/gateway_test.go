package browsergateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBoolEnv(t *testing.T) {
	t.Setenv(headlessEnv, "")
	assert.Equal(t, true, parseBoolEnv(headlessEnv, true))

	t.Setenv(headlessEnv, "true")
	assert.Equal(t, true, parseBoolEnv(headlessEnv, false))

	t.Setenv(headlessEnv, "0")
	assert.Equal(t, false, parseBoolEnv(headlessEnv, true))

	t.Setenv(headlessEnv, "not-a-bool")
	assert.Equal(t, true, parseBoolEnv(headlessEnv, true))
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, 3.5, toFloat(3.5))
	assert.Equal(t, float64(4), toFloat(4))
	assert.Equal(t, float64(0), toFloat("not a number"))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, wrap(nil))
	assert.Error(t, wrap(assert.AnError))
}
