package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"locagest/internal/ledger"
	"locagest/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type RentJobs interface {
	RefreshStatuses(ctx context.Context, today time.Time) (service.SweepResult, error)
	GenerateRents(ctx context.Context, month time.Time) (service.GenerateResult, error)
}

type ExportIndex interface {
	PruneIndex(ctx context.Context) (int, error)
}

type FileCleaner interface {
	CleanupOlderThan(d time.Duration) (int, error)
}

// Config holds cron specs in the standard five field format. An empty spec
// leaves the job unscheduled.
type Config struct {
	LateSweepSpec string
	GenerateSpec  string
	CleanupSpec   string
	FileMaxAge    time.Duration
	Location      *time.Location
	JobTimeout    time.Duration
}

type Scheduler struct {
	cron    *cron.Cron
	cfg     Config
	rents   RentJobs
	exports ExportIndex
	files   FileCleaner
	log     *logrus.Logger
	now     func() time.Time

	ctx context.Context
}

func New(cfg Config, rents RentJobs, exports ExportIndex, files FileCleaner, log *logrus.Logger) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	logger := cron.PrintfLogger(log.WithField("component", "scheduler"))
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		cfg:     cfg,
		rents:   rents,
		exports: exports,
		files:   files,
		log:     log,
		now:     time.Now,
		ctx:     context.Background(),
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"late_sweep", cfg.LateSweepSpec, s.SweepLate},
		{"generate_rents", cfg.GenerateSpec, s.GenerateMonth},
		{"export_cleanup", cfg.CleanupSpec, s.Cleanup},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, s.wrap(job.name, job.run)); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) wrap(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.JobTimeout)
		defer cancel()

		start := time.Now()
		err := run(ctx)
		entry := s.log.WithFields(logrus.Fields{"job": name, "took": time.Since(start).String()})
		if err != nil {
			entry.WithError(err).Error("scheduled job failed")
			return
		}
		entry.Debug("scheduled job done")
	}
}

// Start runs the scheduled jobs until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.log.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
}

// Stop prevents new runs and waits for running jobs, at most until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stopped with jobs still running")
	}
}

func (s *Scheduler) today() time.Time {
	return ledger.Day(s.now().In(s.cfg.Location))
}

// SweepLate refreshes the status of every unsettled rent as of today.
func (s *Scheduler) SweepLate(ctx context.Context) error {
	today := s.today()
	res, err := s.rents.RefreshStatuses(ctx, today)
	s.log.WithFields(logrus.Fields{
		"date":     today.Format("2006-01-02"),
		"checked":  res.Checked,
		"updated":  res.Updated,
		"late":     res.Late,
		"reminded": res.Reminded,
	}).Info("late sweep finished")
	return err
}

// GenerateMonth creates the rents of the current month.
func (s *Scheduler) GenerateMonth(ctx context.Context) error {
	today := s.today()
	month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	res, err := s.rents.GenerateRents(ctx, month)
	s.log.WithFields(logrus.Fields{
		"month":   month.Format("2006-01"),
		"created": res.Created,
		"skipped": res.Skipped,
		"failed":  res.Failed,
	}).Info("rent generation finished")
	return err
}

// Cleanup drops expired exports from the index and old files from disk.
func (s *Scheduler) Cleanup(ctx context.Context) error {
	var errs []error
	if s.exports != nil {
		n, err := s.exports.PruneIndex(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("prune export index: %w", err))
		} else if n > 0 {
			s.log.WithField("pruned", n).Info("export index pruned")
		}
	}
	if s.files != nil && s.cfg.FileMaxAge > 0 {
		n, err := s.files.CleanupOlderThan(s.cfg.FileMaxAge)
		if err != nil {
			errs = append(errs, fmt.Errorf("cleanup export files: %w", err))
		} else if n > 0 {
			s.log.WithField("removed", n).Info("old export files removed")
		}
	}
	return errors.Join(errs...)
}
