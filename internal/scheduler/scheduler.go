package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/coffee-machine/internal/coffee"
	"github.com/i474232898/coffee-machine/internal/common"
)

// StatusSource is the read-only view of the machine the reporter polls.
type StatusSource interface {
	Status(ctx context.Context) (coffee.MachineStatus, error)
}

// Scheduler periodically logs the machine status.
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    StatusSource
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. An interval of zero disables reporting.
func New(source StatusSource, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// Start schedules the report job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Info("scheduler: status interval is zero; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.report(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// report logs one status snapshot; failures are logged and the next tick retries.
func (s *Scheduler) report(ctx context.Context) {
	st, err := s.source.Status(ctx)
	if err != nil {
		log.WithError(err).Warn("scheduler: status lookup failed")
		return
	}

	fields := log.Fields{
		"requests":           st.RequestCount,
		"brews_until_refill": st.BrewsUntilRefill,
	}
	if !st.LastRequestDate.IsZero() {
		fields["last_request"] = common.FormatDate(st.LastRequestDate)
	}
	log.WithFields(fields).Info("scheduler: machine status")
}
