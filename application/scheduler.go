package application

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// JobMeter records the outcome and duration of a scheduler pass
type JobMeter interface {
	MeasureJob(job string) func(errp *error)
}

// Job names, also used as metric labels
const (
	JobCreateRound      = "create_round"
	JobSettleRounds     = "settle_rounds"
	JobCreateHotPotato  = "create_hot_potato"
	JobResolveHotPotato = "resolve_hot_potato"

	schedulerJobTimeout = 2 * time.Minute
)

// Scheduler runs the round lifecycle passes on a fixed interval. A pass that
// overruns the interval is not overlapped in this process; overlap across
// processes is harmless because every pass is fenced in the store.
type Scheduler struct {
	scheduler gocron.Scheduler
	lifecycle RoundLifecycleHandler
	meter     JobMeter
	interval  time.Duration
}

// NewScheduler creates a scheduler for lifecycle. meter may be nil.
func NewScheduler(lifecycle RoundLifecycleHandler, meter JobMeter, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		lifecycle: lifecycle,
		meter:     meter,
		interval:  interval,
	}, nil
}

// Start registers the lifecycle jobs and starts running them. Jobs run once
// immediately, then every interval.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := map[string]func(context.Context, time.Time) error{
		JobCreateRound: func(ctx context.Context, now time.Time) error {
			admission, err := s.lifecycle.CheckAndCreateRound(ctx, now)
			if err == nil && admission.Created {
				log.WithField("roundID", admission.RoundID).Info("Scheduler opened a new round")
			}
			return err
		},
		JobSettleRounds: func(ctx context.Context, now time.Time) error {
			_, err := s.lifecycle.SettleDueRounds(ctx, now)
			return err
		},
		JobCreateHotPotato: func(ctx context.Context, now time.Time) error {
			admission, err := s.lifecycle.CheckAndCreateHotPotato(ctx, now)
			if err == nil && admission.Created {
				log.WithField("roundID", admission.RoundID).Info("Scheduler opened a new hot potato round")
			}
			return err
		},
		JobResolveHotPotato: func(ctx context.Context, now time.Time) error {
			_, err := s.lifecycle.ResolveHotPotatoRounds(ctx, now)
			return err
		},
	}

	for name, run := range jobs {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(s.interval),
			gocron.NewTask(s.runJob, ctx, name, run),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}
	}

	s.scheduler.Start()

	log.WithFields(log.Fields{
		"interval": s.interval,
		"jobs":     len(jobs),
	}).Info("Scheduler started")

	return nil
}

func (s *Scheduler) runJob(ctx context.Context, name string, run func(context.Context, time.Time) error) {
	var err error
	if s.meter != nil {
		done := s.meter.MeasureJob(name)
		defer done(&err)
	}

	jobCtx, cancel := context.WithTimeout(ctx, schedulerJobTimeout)
	defer cancel()

	if err = run(jobCtx, time.Now()); err != nil {
		log.WithFields(log.Fields{
			"job":   name,
			"error": err,
		}).Error("Scheduled job failed")
	}
}

// Shutdown stops the scheduler and waits for running jobs to return
func (s *Scheduler) Shutdown() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	log.Info("Scheduler stopped")
	return nil
}
