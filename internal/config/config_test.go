// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessorsFallBackToDefaults(t *testing.T) {
	assert.Equal(t, "x", String("CHRUMMY_TEST_UNSET", "x"))
	assert.Equal(t, 7, Int("CHRUMMY_TEST_UNSET", 7))
	assert.Equal(t, time.Minute, Duration("CHRUMMY_TEST_UNSET", time.Minute))
	assert.False(t, Bool("CHRUMMY_TEST_UNSET", false))
}

func TestAccessorsParseEnv(t *testing.T) {
	t.Setenv("CHRUMMY_TEST_STR", "hello")
	t.Setenv("CHRUMMY_TEST_INT", "42")
	t.Setenv("CHRUMMY_TEST_DUR", "1500ms")
	t.Setenv("CHRUMMY_TEST_BOOL", "true")

	assert.Equal(t, "hello", String("CHRUMMY_TEST_STR", "x"))
	assert.Equal(t, 42, Int("CHRUMMY_TEST_INT", 7))
	assert.Equal(t, 1500*time.Millisecond, Duration("CHRUMMY_TEST_DUR", time.Minute))
	assert.True(t, Bool("CHRUMMY_TEST_BOOL", false))
}

func TestAccessorsRejectGarbage(t *testing.T) {
	t.Setenv("CHRUMMY_TEST_INT", "not-a-number")
	t.Setenv("CHRUMMY_TEST_DUR", "soon")
	t.Setenv("CHRUMMY_TEST_BOOL", "maybe")

	assert.Equal(t, 7, Int("CHRUMMY_TEST_INT", 7))
	assert.Equal(t, time.Minute, Duration("CHRUMMY_TEST_DUR", time.Minute))
	assert.True(t, Bool("CHRUMMY_TEST_BOOL", true))
}
