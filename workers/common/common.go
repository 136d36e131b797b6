package common

import (
	"strconv"
	"time"

	"github.com/alpacahq/gocaptable/utils/env"
	"github.com/alpacahq/gocaptable/utils/log"
)

func WaitTimeout(done chan struct{}, timeout time.Duration) bool {
	select {
	case <-done:
		return false // completed normally
	case <-time.After(timeout):
		return true // timed out
	}
}

// Guard keeps cron runs of a worker from overlapping.
type Guard struct {
	done chan struct{}
}

func NewGuard() *Guard {
	g := &Guard{done: make(chan struct{}, 1)}
	g.done <- struct{}{}
	return g
}

// Acquire returns false if the previous run is still going after
// timeout, in which case this run should be skipped.
func (g *Guard) Acquire(timeout time.Duration) bool {
	return !WaitTimeout(g.done, timeout)
}

func (g *Guard) Release() {
	g.done <- struct{}{}
}

// IntVar reads a positive integer setting, falling back when it is
// missing or invalid.
func IntVar(key string, fallback int) int {
	v := env.GetVar(key)
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		if v != "" {
			log.Warn("invalid worker setting", "name", key, "value", v)
		}
		return fallback
	}
	return n
}

// DurationVar is IntVar for durations such as "72h".
func DurationVar(key string, fallback time.Duration) time.Duration {
	v := env.GetVar(key)
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		if v != "" {
			log.Warn("invalid worker setting", "name", key, "value", v)
		}
		return fallback
	}
	return d
}
