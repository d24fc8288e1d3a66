package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the dispatcher on a cron schedule.
type Scheduler struct {
	mu         sync.RWMutex
	dispatcher *Dispatcher
	schedule   cron.Schedule
	logger     *slog.Logger
	now        func() time.Time
	cron       *cron.Cron
	cancel     context.CancelFunc
}

// NewScheduler parses spec as a standard five-field cron expression.
func NewScheduler(d *Dispatcher, spec string, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse dispatch schedule %q: %w", spec, err)
	}
	return &Scheduler{
		dispatcher: d,
		schedule:   schedule,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Next returns the next run time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.dispatcher.RunOnce(ctx, s.now())
		s.logger.Debug("next dispatch", "at", s.Next(s.now()))
	}))
	s.cron.Start()
	s.logger.Info("dispatch scheduler started", "next", s.Next(s.now()))
}

// Stop cancels the current run and waits for it to finish.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	c := s.cron
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		<-c.Stop().Done()
	}
}
