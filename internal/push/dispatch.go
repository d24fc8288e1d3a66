package push

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/lovetoday/internal/model"
)

// Sender delivers one notification. *Service is the production Sender.
type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

// Result counts the outcome of one dispatch run.
type Result struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Bucket maps a time of day to its 5-minute slot.
func Bucket(hour, minute int) int {
	return hour*12 + minute/5
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithConcurrency bounds the number of sends in flight.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithDedupe skips subscribers already sent to on their local date.
func WithDedupe(on bool) DispatcherOption {
	return func(d *Dispatcher) { d.dedupe = on }
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher sends the daily notification to subscribers whose desired time
// falls in the current 5-minute bucket.
type Dispatcher struct {
	dir         *Directory
	sender      Sender
	logger      *slog.Logger
	concurrency int
	dedupe      bool
	metrics     *Metrics
}

func NewDispatcher(dir *Directory, sender Sender, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		dir:         dir,
		sender:      sender,
		logger:      logger,
		concurrency: 8,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

type counters struct {
	sent, skipped, errors atomic.Int64
}

// RunOnce evaluates every subscriber against now. Failures are counted and
// logged, never returned.
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) Result {
	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.Runs.Inc()
			d.metrics.RunDuration.Observe(time.Since(start).Seconds())
		}
	}()

	ids, err := d.dir.List(ctx)
	if err != nil {
		d.logger.Error("list subscribers", "error", err)
		return Result{}
	}

	var c counters
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			d.dispatchOne(ctx, now, id, &c)
			return nil
		})
	}
	g.Wait()

	res := Result{
		Sent:    int(c.sent.Load()),
		Skipped: int(c.skipped.Load()),
		Errors:  int(c.errors.Load()),
	}
	d.logger.Info("dispatch complete", "subscribers", len(ids), "sent", res.Sent, "skipped", res.Skipped, "errors", res.Errors)
	return res
}

func (d *Dispatcher) dispatchOne(ctx context.Context, now time.Time, id string, c *counters) {
	sub, err := d.dir.Get(ctx, id)
	if err != nil {
		d.logger.Error("load subscriber", "id", id, "error", err)
		d.count(c, OutcomeError)
		return
	}
	if sub == nil || !sub.Active {
		d.count(c, OutcomeSkipped)
		return
	}

	tz := sub.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		d.logger.Warn("unknown subscriber time zone", "id", id, "tz", tz)
		d.count(c, OutcomeError)
		return
	}
	local := now.In(loc)
	if Bucket(local.Hour(), local.Minute()) != Bucket(sub.Hour, sub.Minute) {
		d.count(c, OutcomeSkipped)
		return
	}

	today := local.Format("2006-01-02")
	if d.dedupe && sub.LastSentDate == today {
		d.count(c, OutcomeSkipped)
		return
	}

	if err := d.sender.Send(ctx, sub, DailyPayload); err != nil {
		if errors.Is(err, ErrGone) {
			d.logger.Info("removing gone subscriber", "id", id)
			if derr := d.dir.Deactivate(ctx, id); derr != nil {
				d.logger.Error("deactivate subscriber", "id", id, "error", derr)
			}
			d.count(c, OutcomeGone)
			return
		}
		d.logger.Warn("send notification", "id", id, "error", err)
		d.count(c, OutcomeError)
		return
	}

	d.count(c, OutcomeSent)
	if d.dedupe {
		if err := d.dir.MarkSent(ctx, id, today); err != nil {
			d.logger.Error("mark sent", "id", id, "error", err)
		}
	}
}

// count bumps the run counters. Gone subscribers count as errors.
func (d *Dispatcher) count(c *counters, outcome string) {
	switch outcome {
	case OutcomeSent:
		c.sent.Add(1)
	case OutcomeSkipped:
		c.skipped.Add(1)
	default:
		c.errors.Add(1)
	}
	if d.metrics != nil {
		d.metrics.Deliveries.WithLabelValues(outcome).Inc()
	}
}
