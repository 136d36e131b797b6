package conversion

import (
	"fmt"
	"sync"
	"time"

	"github.com/alpacahq/gocaptable/capreg"
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/mailer"
	"github.com/alpacahq/gocaptable/metrics"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/service/conversion"
	"github.com/alpacahq/gocaptable/service/pricing"
	"github.com/alpacahq/gocaptable/utils/clock"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/alpacahq/gocaptable/utils/log"
	"github.com/alpacahq/gocaptable/utils/pool"
	"github.com/alpacahq/gocaptable/workers/common"
	"github.com/shopspring/decimal"
)

// SecurityError is a failed (security, round) pair of a sweep.
type SecurityError struct {
	SecurityID string
	RoundID    string
	Err        error
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security %v in round %v: %v", e.SecurityID, e.RoundID, e.Err)
}

// BatchResult counts what one sweep did. Skipped pairs were settled
// by an earlier sweep or converted concurrently.
type BatchResult struct {
	Rounds       int
	Processed    int
	Converted    int
	Eligible     int
	Disqualified int
	Skipped      int
	Errors       []error

	mu sync.Mutex
}

func (r *BatchResult) add(out *conversion.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Processed++

	if out.Skipped {
		r.Skipped++
		return
	}

	switch out.State {
	case enum.EvalConverted:
		r.Converted++
	case enum.Eligible:
		r.Eligible++
	case enum.Disqualified:
		r.Disqualified++
	}
}

func (r *BatchResult) skip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Processed++
	r.Skipped++
}

func (r *BatchResult) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Processed++
	r.Errors = append(r.Errors, err)
}

type conversionWorker struct {
	guard       *common.Guard
	conversions conversion.ConversionService
}

var worker *conversionWorker

func newWorker(notify conversion.Notifier) *conversionWorker {
	return &conversionWorker{
		guard:       common.NewGuard(),
		conversions: conversion.Service(notify),
	}
}

// Work runs one sweep over recent rounds. It is a no-op while the
// previous sweep is still running.
func Work() {
	if worker == nil {
		worker = newWorker(mailer.SendConversion)
	}

	// make sure not to overlap if the work routine is taking long
	if !worker.guard.Acquire(time.Second) {
		return
	}

	defer worker.guard.Release()

	start := clock.Now()

	res, err := worker.Sweep(start)
	if err != nil {
		log.Error("conversion sweep failed", "error", err)
		return
	}

	log.Info(
		"conversion sweep finished",
		"rounds", res.Rounds,
		"processed", res.Processed,
		"converted", res.Converted,
		"eligible", res.Eligible,
		"disqualified", res.Disqualified,
		"skipped", res.Skipped,
		"errors", len(res.Errors),
		"elapsed", clock.Since(start))
}

// Run sweeps once outside the cron, e.g. from captool.
func Run(asOf time.Time) (*BatchResult, error) {
	return newWorker(mailer.SendConversion).Sweep(asOf)
}

// Sweep evaluates every active security against the rounds created
// within the lookback window of asOf. Startups run in parallel, the
// rounds of one startup in the order they were created.
func (w *conversionWorker) Sweep(asOf time.Time) (*BatchResult, error) {
	start := time.Now()

	lookback := common.DurationVar("CONVERSION_LOOKBACK", 72*time.Hour)
	roundLimit := common.IntVar("CONVERSION_ROUND_LIMIT", 100)
	parallelism := common.IntVar("CONVERSION_PARALLELISM", 4)

	rounds, err := capreg.Services.Round().WithTx(db.DB()).ListRecent(asOf.Add(-lookback), roundLimit)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{Rounds: len(rounds)}

	groups := groupByStartup(rounds)

	c := make(chan interface{}, len(groups))
	for _, g := range groups {
		c <- g
	}
	close(c)

	p := pool.NewPool(parallelism, func(v interface{}) {
		for _, rnd := range v.([]models.EquityRound) {
			w.sweepRound(rnd, res)
		}
	})
	p.Work(c)
	p.Wait()

	metrics.ReportSweep(metrics.SweepMetrics{
		Rounds:       res.Rounds,
		Processed:    res.Processed,
		Converted:    res.Converted,
		Eligible:     res.Eligible,
		Disqualified: res.Disqualified,
		Errors:       len(res.Errors),
		Elapsed:      time.Now().Sub(start),
	})

	return res, nil
}

// groupByStartup keeps the rounds of a startup in their original
// order.
func groupByStartup(rounds []models.EquityRound) [][]models.EquityRound {
	index := map[string]int{}
	groups := [][]models.EquityRound{}

	for _, rnd := range rounds {
		i, ok := index[rnd.StartupID]
		if !ok {
			i = len(groups)
			index[rnd.StartupID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rnd)
	}

	return groups
}

func (w *conversionWorker) sweepRound(rnd models.EquityRound, res *BatchResult) {
	limit := common.IntVar("CONVERSION_SECURITY_LIMIT", 500)

	secs, err := capreg.Services.Security().WithTx(db.DB()).ListActive(rnd.StartupID, limit)
	if err != nil {
		log.Error(
			"failed to list active securities",
			"startup", rnd.StartupID,
			"round", rnd.ID,
			"error", err)
		res.fail(&SecurityError{RoundID: rnd.ID, Err: err})
		return
	}

	// the whole batch is resolved before the first conversion
	// takes any security out of it
	terms, err := pricing.ResolveMFN(secs)
	if err != nil {
		log.Warn(
			"failed to resolve batch terms, pricing individually",
			"startup", rnd.StartupID,
			"round", rnd.ID,
			"error", err)
		terms = nil
	}

	// cap prices divide by the count from before this round, however
	// many of the batch have already converted
	var fdShares *decimal.Decimal
	snap, err := capreg.Services.CapTable().WithTx(db.DB()).Latest(rnd.StartupID)
	switch {
	case err == nil:
		fd := snap.FullyDilutedBefore(rnd.ID)
		fdShares = &fd
	case !gberrors.IsNotFound(err):
		log.Warn(
			"failed to pin fully diluted shares, deriving per security",
			"startup", rnd.StartupID,
			"round", rnd.ID,
			"error", err)
	}

	for i := range secs {
		sec := &secs[i]

		eval, err := w.conversions.Evaluation(sec.ID, rnd.ID)
		if err == nil && eval.Settled() {
			res.skip()
			continue
		}

		req := conversion.Request{
			SecurityID:         sec.ID,
			RoundID:            rnd.ID,
			FullyDilutedShares: fdShares,
		}
		if t, ok := terms[sec.ID]; ok {
			req.Terms = &t
		}

		out, err := w.conversions.Convert(req)
		if err != nil {
			if gberrors.Is(err, gberrors.AlreadyConverted) {
				res.skip()
				continue
			}

			log.Error(
				"failed to convert security",
				"security", sec.ID,
				"round", rnd.ID,
				"error", gberrors.Format(err))
			res.fail(&SecurityError{SecurityID: sec.ID, RoundID: rnd.ID, Err: err})
			continue
		}

		res.add(out)
	}
}
