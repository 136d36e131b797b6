package backup

import (
	"fmt"
	"time"

	"github.com/alpacahq/gocaptable/capreg"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/s3man"
	"github.com/alpacahq/gocaptable/service/report"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/alpacahq/gocaptable/utils/log"
	"github.com/alpacahq/gocaptable/utils/pool"
	"github.com/alpacahq/gocaptable/workers/common"
	"github.com/pkg/errors"
	"gopkg.in/matryer/try.v1"
	yaml "gopkg.in/yaml.v2"
)

const dateFormat = "2006-01-02"

type backupWorker struct {
	uploader    report.Uploader
	asOf        time.Time
	parallelism int
}

func newWorker(asOf time.Time) (*backupWorker, error) {
	s3, err := s3man.New()
	if err != nil {
		return nil, err
	}

	return &backupWorker{
		uploader:    s3,
		asOf:        asOf,
		parallelism: common.IntVar("BACKUP_PARALLELISM", 1),
	}, nil
}

// WorkDaily archives the cap table versions, conversions and exit
// distributions of every startup that changed on asOf's day to S3.
func WorkDaily(asOf time.Time, workers ...*backupWorker) {
	var worker *backupWorker

	if len(workers) > 0 {
		worker = workers[0]
	} else {
		w, err := newWorker(asOf)
		if err != nil {
			log.Error("failed to create backup worker", "error", err)
			return
		}
		worker = w
	}

	worker.runJobs([]func(startupID string) error{
		worker.backupCapTables,
		worker.backupConversions,
		worker.backupExits,
	})
}

func (w *backupWorker) window() (time.Time, time.Time) {
	start := w.asOf.Truncate(24 * time.Hour)
	return start, start.AddDate(0, 0, 1)
}

// changedStartups returns the startups with a new cap table version
// or a recorded exit within the worker's day.
func (w *backupWorker) changedStartups() ([]string, error) {
	start, end := w.window()

	ids := map[string]struct{}{}

	for _, table := range []interface{}{&models.CapTableSnapshot{}, &models.ExitEvent{}} {
		rows := []string{}
		if err := db.DB().Model(table).
			Where("created_at >= ? AND created_at < ?", start, end).
			Pluck("DISTINCT startup_id", &rows).Error; err != nil {
			return nil, err
		}
		for _, id := range rows {
			ids[id] = struct{}{}
		}
	}

	startups := make([]string, 0, len(ids))
	for id := range ids {
		startups = append(startups, id)
	}

	return startups, nil
}

func (w *backupWorker) runJobs(jobs []func(startupID string) error) {
	startups, err := w.changedStartups()
	if err != nil {
		log.Error("failed to query startups for backup", "error", err)
		return
	}

	jobRunner := func(v interface{}) {
		startupID := v.(string)
		for _, jobFunc := range jobs {
			if err := jobFunc(startupID); err != nil {
				log.Error(
					"backup job failed",
					"startup", startupID,
					"error", err)
			}
		}
	}

	c := make(chan interface{}, len(startups))
	for _, id := range startups {
		c <- id
	}
	close(c)

	p := pool.NewPool(w.parallelism, jobRunner)
	p.Work(c)
	p.Wait()

	log.Info("backup finished", "startups", len(startups), "as_of", w.asOf.Format(dateFormat))
}

func (w *backupWorker) upload(r *report.Report) error {
	return try.Do(func(attempt int) (bool, error) {
		err := report.Archive(w.uploader, r)
		return attempt < 3 && err != nil, err
	})
}

func (w *backupWorker) backupCapTables(startupID string) error {
	start, end := w.window()

	srv := capreg.Services.CapTable().WithTx(db.DB())

	history, err := srv.History(startupID)
	if err != nil {
		return err
	}

	for _, h := range history {
		if h.CreatedAt.Before(start) || !h.CreatedAt.Before(end) {
			continue
		}

		snap, err := srv.GetVersion(startupID, h.Version)
		if err != nil {
			return err
		}

		buf, err := yaml.Marshal(snap)
		if err != nil {
			return errors.Wrapf(err, "marshal cap table version %v", snap.Version)
		}

		if err = w.upload(&report.Report{
			Path: fmt.Sprintf("/cap_tables/%s/v%04d.yaml", startupID, snap.Version),
			Data: buf,
		}); err != nil {
			return errors.Wrapf(err, "upload cap table version %v", snap.Version)
		}
	}

	return nil
}

func (w *backupWorker) backupConversions(startupID string) error {
	convs, err := capreg.Services.Conversion().WithTx(db.DB()).ListByStartup(startupID)
	if err != nil {
		return err
	}

	if len(convs) == 0 {
		return nil
	}

	r, err := report.Conversions(startupID, convs)
	if err != nil {
		return err
	}
	r.Path = fmt.Sprintf("/conversions/%s/%s.csv", startupID, w.asOf.Format(dateFormat))

	return w.upload(r)
}

func (w *backupWorker) backupExits(startupID string) error {
	start, end := w.window()

	exits := []models.ExitEvent{}
	if err := db.DB().
		Where("startup_id = ? AND created_at >= ? AND created_at < ?", startupID, start, end).
		Find(&exits).Error; err != nil {
		return err
	}

	srv := capreg.Services.Waterfall().WithTx(db.DB())

	for _, e := range exits {
		exit, err := srv.GetExit(e.ID)
		if err != nil {
			return err
		}

		r, err := report.Distributions(exit)
		if err != nil {
			return err
		}

		if err = w.upload(r); err != nil {
			return errors.Wrapf(err, "upload distributions of exit %v", exit.ID)
		}
	}

	return nil
}
