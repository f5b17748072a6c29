package catalog

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler reloads a Store on a cron schedule. Unlike Watcher it works
// for every Source, including S3.
type Scheduler struct {
	store    *Store
	spec     string
	schedule cron.Schedule
	log      *logrus.Logger
}

// NewScheduler parses spec (standard five-field cron or a descriptor such
// as "@every 5m") and returns a scheduler for store.
func NewScheduler(store *Store, spec string, log *logrus.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", spec, err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{store: store, spec: spec, schedule: schedule, log: log}, nil
}

// Run reloads on schedule until ctx is done, then waits for a running
// reload to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.store.Reload(ctx); err != nil {
			s.log.WithError(err).Warn("Scheduled catalog reload failed")
		}
	}))

	c.Start()
	s.log.WithFields(logrus.Fields{
		"schedule": s.spec,
		"source":   s.store.Source().String(),
	}).Info("Catalog reload scheduled")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
