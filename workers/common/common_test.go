package common

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	g := NewGuard()

	assert.True(t, g.Acquire(10*time.Millisecond))
	// a second run while the first is going is skipped
	assert.False(t, g.Acquire(10*time.Millisecond))

	g.Release()
	assert.True(t, g.Acquire(10*time.Millisecond))
	g.Release()
}

func TestVars(t *testing.T) {
	os.Setenv("COMMON_TEST_INT", "7")
	os.Setenv("COMMON_TEST_BAD_INT", "-1")
	os.Setenv("COMMON_TEST_DURATION", "90m")
	defer func() {
		os.Unsetenv("COMMON_TEST_INT")
		os.Unsetenv("COMMON_TEST_BAD_INT")
		os.Unsetenv("COMMON_TEST_DURATION")
	}()

	assert.Equal(t, 7, IntVar("COMMON_TEST_INT", 3))
	assert.Equal(t, 3, IntVar("COMMON_TEST_BAD_INT", 3))
	assert.Equal(t, 3, IntVar("COMMON_TEST_MISSING", 3))
	assert.Equal(t, 90*time.Minute, DurationVar("COMMON_TEST_DURATION", time.Hour))
	assert.Equal(t, time.Hour, DurationVar("COMMON_TEST_MISSING", time.Hour))
}
