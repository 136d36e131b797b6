package metrics

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/alpacahq/gocaptable/utils/env"
	"github.com/alpacahq/gocaptable/utils/log"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

const (
	performanceTag = "performance"
	conversionTag  = "conversion"
)

// Reporter is the subset of the statsd client the engine reports with.
type Reporter interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Timing(name string, value time.Duration, tags []string, rate float64) error
	SimpleEvent(title, text string) error
}

type noop struct{}

func (noop) Gauge(string, float64, []string, float64) error        { return nil }
func (noop) Count(string, int64, []string, float64) error          { return nil }
func (noop) Timing(string, time.Duration, []string, float64) error { return nil }
func (noop) SimpleEvent(string, string) error                      { return nil }

var (
	once     sync.Once
	reporter Reporter
)

// Client returns the process wide statsd client. Without STATSD_ADDR
// every report is dropped.
func Client() Reporter {
	once.Do(func() {
		addr := env.GetVar("STATSD_ADDR")
		if addr == "" {
			reporter = noop{}
			return
		}

		c, err := statsd.New(addr, statsd.WithNamespace(env.GetVar("STATSD_NAMESPACE")))
		if err != nil {
			log.Error("failed to create statsd client", "addr", addr, "error", err)
			reporter = noop{}
			return
		}
		reporter = c
	})
	return reporter
}

// SetClient replaces the reporter, used by tests.
func SetClient(r Reporter) {
	once.Do(func() {})
	reporter = r
}

// SweepMetrics summarizes one conversion sweep.
type SweepMetrics struct {
	Rounds       int
	Processed    int
	Converted    int
	Eligible     int
	Disqualified int
	Errors       int
	Elapsed      time.Duration
}

// ReportSweep sends the counters of a finished sweep.
func ReportSweep(m SweepMetrics) {
	dd := Client()
	tags := []string{conversionTag}

	dd.Count("sweep.rounds", int64(m.Rounds), tags, 1)
	dd.Count("sweep.processed", int64(m.Processed), tags, 1)
	dd.Count("sweep.converted", int64(m.Converted), tags, 1)
	dd.Count("sweep.eligible", int64(m.Eligible), tags, 1)
	dd.Count("sweep.disqualified", int64(m.Disqualified), tags, 1)
	dd.Count("sweep.errors", int64(m.Errors), tags, 1)
	dd.Timing("sweep.elapsed", m.Elapsed, tags, 1)

	if m.Errors > 0 {
		dd.SimpleEvent("conversion sweep errors", fmt.Sprintf("%d securities failed to convert", m.Errors))
	}
}

// PerformanceMetrics includes all data relevant to
// the performance of the engine's host.
type PerformanceMetrics struct {
	DatabaseLatency    time.Duration `json:"db_latency"`
	MemoryUsageTotal   uint64        `json:"mem_usage_total"`
	MemoryUsagePercent float64       `json:"mem_usage_pct"`
	GoRoutines         int64         `json:"goroutines"`
	CPUUsagePercent    float64       `json:"cpu_usage_pct"`
}

// GetPerformanceMetrics returns performance related
// metrics for alerts and analysis.
func GetPerformanceMetrics() (*PerformanceMetrics, error) {
	// memory stats
	v, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}

	// cpu stats
	pct, err := cpu.Percent(time.Second, false)
	if err != nil {
		return nil, err
	}

	if len(pct) == 0 {
		return nil, fmt.Errorf("failed to retrieve cpu usage stats")
	}

	// database latency
	start := time.Now()
	if err := db.DB().DB().Ping(); err != nil {
		return nil, err
	}

	dbLatency := time.Now().Sub(start)

	return &PerformanceMetrics{
		MemoryUsageTotal:   v.Used,
		MemoryUsagePercent: v.UsedPercent,
		CPUUsagePercent:    pct[0],
		DatabaseLatency:    dbLatency,
		GoRoutines:         int64(runtime.NumGoroutine()),
	}, nil
}

// ReportPerformance sends the host's performance gauges.
func ReportPerformance() error {
	perf, err := GetPerformanceMetrics()
	if err != nil {
		return err
	}

	dd := Client()
	tags := []string{performanceTag}

	dd.Gauge("cpu_usage", perf.CPUUsagePercent, tags, 1)
	dd.Gauge("mem_usage", perf.MemoryUsagePercent, tags, 1)
	dd.Gauge("goroutines", float64(perf.GoRoutines), tags, 1)
	dd.Timing("db_latency", perf.DatabaseLatency, tags, 1)

	return nil
}
