package services

import (
	"context"
	"sync"
	"time"

	"mindpulse-be/internal/apperrors"

	"github.com/rs/zerolog/log"
)

// AnalysisWorker consumes queued message ids and classifies them through the
// AnalysisService on a fixed pool of goroutines. Classifier failures are
// retried with exponential backoff up to MaxRetries, after which the message
// stays in its terminal failed status.
type AnalysisWorker struct {
	service    *AnalysisService
	queue      chan string
	workers    int
	maxRetries int
	retryBase  time.Duration
	timeout    time.Duration
	wg         sync.WaitGroup
}

func NewAnalysisWorker(service *AnalysisService, workers, queueSize, maxRetries int, retryBase, timeout time.Duration) *AnalysisWorker {
	if workers < 1 {
		workers = 1
	}
	return &AnalysisWorker{
		service:    service,
		queue:      make(chan string, queueSize),
		workers:    workers,
		maxRetries: maxRetries,
		retryBase:  retryBase,
		timeout:    timeout,
	}
}

// Enqueue schedules a message for classification without blocking. Returns
// false when the queue is saturated.
func (w *AnalysisWorker) Enqueue(messageID string) bool {
	select {
	case w.queue <- messageID:
		return true
	default:
		return false
	}
}

// QueueDepth reports pending jobs, for health output.
func (w *AnalysisWorker) QueueDepth() int {
	return len(w.queue)
}

// Start launches the worker pool. Workers stop when ctx is done.
func (w *AnalysisWorker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case messageID := <-w.queue:
					w.process(ctx, messageID)
				}
			}
		}()
	}
	log.Info().Int("workers", w.workers).Msg("Analysis worker pool started")
}

// Wait blocks until all workers have exited.
func (w *AnalysisWorker) Wait() {
	w.wg.Wait()
}

func (w *AnalysisWorker) process(ctx context.Context, messageID string) {
	for attempt := 0; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, w.timeout)
		err := w.service.ClassifyAndFinalize(callCtx, messageID)
		cancel()

		if err == nil {
			return
		}
		if !apperrors.Retryable(err) {
			log.Error().Err(err).Str("message_id", messageID).Msg("Analysis failed with non-retryable error")
			return
		}
		if attempt >= w.maxRetries {
			log.Error().
				Err(err).
				Str("message_id", messageID).
				Int("attempts", attempt+1).
				Msg("Analysis retries exhausted, resync will pick the message up")
			return
		}

		backoff := w.retryBase << uint(attempt)
		log.Warn().
			Err(err).
			Str("message_id", messageID).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Analysis failed, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}
