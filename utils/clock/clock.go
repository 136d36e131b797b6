package clock

import (
	"sync"
	"time"

	"github.com/alpacahq/gocaptable/utils/env"
)

type Clock struct {
	start time.Time
}

var (
	once        sync.Once
	mu          sync.RWMutex
	systemClock *Clock
	startTime   time.Time
)

// Set pins the clock to the supplied start time, after which it keeps
// ticking at wall clock speed. Without arguments the START_TIME variable
// (2006-01-02 15:04, UTC) is honored, falling back to the wall clock.
func Set(startTimes ...time.Time) {
	if len(startTimes) != 0 {
		mu.Lock()
		defer mu.Unlock()
		startTime = time.Now().UTC()
		systemClock = &Clock{start: startTimes[0]}
		return
	}
	clock()
}

func clock() *Clock {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if systemClock != nil {
			return
		}
		startTime = time.Now().UTC()
		start, _ := time.ParseInLocation("2006-01-02 15:04", env.GetVar("START_TIME"), time.UTC)
		if start.IsZero() {
			start = time.Now()
		}
		systemClock = &Clock{start: start}
	})
	return systemClock
}

func Now() time.Time {
	c := clock()
	mu.RLock()
	defer mu.RUnlock()
	if systemClock != nil {
		c = systemClock
	}
	return c.start.Add(time.Now().Sub(startTime))
}

func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
