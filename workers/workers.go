package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/alpacahq/gocaptable/metrics"
	"github.com/alpacahq/gocaptable/utils"
	"github.com/alpacahq/gocaptable/utils/clock"
	"github.com/alpacahq/gocaptable/utils/env"
	"github.com/alpacahq/gocaptable/utils/initializer"
	"github.com/alpacahq/gocaptable/utils/log"
	"github.com/alpacahq/gocaptable/utils/signalman"
	"github.com/alpacahq/gocaptable/workers/backup"
	"github.com/alpacahq/gocaptable/workers/conversion"
	"github.com/robfig/cron"
	"go.uber.org/zap/zapcore"
)

var (
	cronWg sync.WaitGroup
	c      *cron.Cron
)

func shutdown() error {

	// stop crons so no new ones start
	if c != nil {
		c.Stop()
	}

	// wait for existing crons to finish
	cronWg.Wait()

	// sleep a second to let things cleanup
	<-time.After(time.Second)
	return nil
}

func init() {
	rand.Seed(clock.Now().UTC().UnixNano())
	// set the clock
	clock.Set()

	// register env defaults
	initializer.Initialize()

	flag.Parse()

	// surface errors as statsd events
	log.Logger().AddCallback(
		"workers_error_events",
		zapcore.ErrorLevel,
		func(i interface{}) {
			metrics.Client().SimpleEvent("captable worker error", fmt.Sprintf("%v", i))
		},
	)

	// set deployment level on logger
	log.Logger().SetDeploymentLevel(env.GetVar("BROKER_MODE"))

	signalman.RegisterFunc("workers_shutdown", shutdown)
	signalman.Start()
}

func main() {
	if utils.StandBy() {
		log.Info("starting in standby mode - no crons will be run")
		signalman.Wait()
		return
	}

	loc, err := time.LoadLocation(env.GetVar("WORKERS_TIMEZONE"))
	if err != nil {
		log.Fatal("invalid workers timezone", "timezone", env.GetVar("WORKERS_TIMEZONE"), "error", err)
	}

	c = cron.NewWithLocation(loc)

	// conversion worker
	log.Info(
		"starting conversion worker",
		"interval",
		env.GetVar("CONVERSION_WORKER_INTERVAL"))

	c.AddFunc(fmt.Sprintf("@every %v", env.GetVar("CONVERSION_WORKER_INTERVAL")), func() {
		cronWg.Add(1)
		defer cronWg.Done()
		conversion.Work()
	})

	// daily backup (cap table versions + conversions + distributions) - just before midnight
	c.AddFunc("0 59 23 * * *", func() {
		cronWg.Add(1)
		defer cronWg.Done()

		asOf := clock.Now().In(loc)

		log.Info("cap table daily backup", "time", asOf)
		backup.WorkDaily(asOf)
	})

	// host and database health
	c.AddFunc(fmt.Sprintf("@every %v", env.GetVar("METRICS_INTERVAL")), func() {
		if err := metrics.ReportPerformance(); err != nil {
			log.Error("failed to report performance metrics", "error", err)
		}
	})

	// queue the crons
	c.Start()

	log.Info(
		"workers are live",
		"mode", env.GetVar("BROKER_MODE"),
		"clock", clock.Now())

	signalman.Wait()
}
