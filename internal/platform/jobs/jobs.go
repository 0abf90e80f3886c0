package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/metrics"
)

// Completer marks lapsed approved absences as done.
type Completer interface {
	MarkCompleted(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the nightly completion pass. The schedule uses a
// seconds-field cron expression.
type Scheduler struct {
	cron      *cron.Cron
	completer Completer
	metrics   *metrics.Metrics
}

func NewScheduler(completer Completer, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		completer: completer,
		metrics:   m,
	}
}

func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.RunCompletion(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("completion job scheduled", "schedule", schedule)
	return nil
}

// RunCompletion executes one completion pass. The admin run-now endpoint
// calls this directly.
func (s *Scheduler) RunCompletion(ctx context.Context) int64 {
	marked, err := s.completer.MarkCompleted(ctx, time.Now().UTC())
	if s.metrics != nil {
		s.metrics.CompletionRunsTotal.Inc()
	}
	if err != nil {
		slog.Warn("completion pass failed", "err", err)
		return 0
	}
	if s.metrics != nil {
		s.metrics.CompletionMarkedDone.Add(float64(marked))
	}
	slog.Info("completion pass finished", "marked", marked)
	return marked
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
