package services

import (
	"context"
	"time"

	"mindpulse-be/internal/models"

	"github.com/rs/zerolog/log"
)

// AggregationWorker periodically recomputes wellbeing buckets. Each tick
// rebuilds the current bucket and the one before it, so late-classified
// messages from a just-closed window still land in the right row.
type AggregationWorker struct {
	service    *AggregationService
	interval   time.Duration
	periodType models.PeriodType
	stop       chan struct{}
	done       chan struct{}
}

func NewAggregationWorker(service *AggregationService, interval time.Duration, periodType models.PeriodType) *AggregationWorker {
	return &AggregationWorker{
		service:    service,
		interval:   interval,
		periodType: periodType,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the worker loop. An immediate run happens on startup so a
// restarted instance does not wait a full interval for fresh aggregates.
func (w *AggregationWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)

		log.Info().
			Dur("interval", w.interval).
			Str("period_type", string(w.periodType)).
			Msg("Aggregation worker started")

		w.run(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				w.run(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the in-flight run to finish.
func (w *AggregationWorker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *AggregationWorker) run(ctx context.Context) {
	now := time.Now().UTC()

	currentStart, currentEnd := PeriodWindow(now, w.periodType)
	prevStart, prevEnd := PeriodWindow(currentStart.Add(-time.Second), w.periodType)

	for _, window := range []struct{ start, end time.Time }{
		{prevStart, prevEnd},
		{currentStart, currentEnd},
	} {
		if _, err := w.service.RecomputePeriod(ctx, window.start, window.end, w.periodType); err != nil {
			log.Error().
				Err(err).
				Time("period_start", window.start).
				Msg("Scheduled aggregation run failed")
		}
	}
}

// PeriodWindow returns the bucket [start, end) containing t for a period type.
// Weeks start on Monday; all boundaries are UTC.
func PeriodWindow(t time.Time, periodType models.PeriodType) (time.Time, time.Time) {
	t = t.UTC()
	switch periodType {
	case models.PeriodHourly:
		start := t.Truncate(time.Hour)
		return start, start.Add(time.Hour)
	case models.PeriodWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case models.PeriodMonthly:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	default: // daily
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 0, 1)
	}
}
