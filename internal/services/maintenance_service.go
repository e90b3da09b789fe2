package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type maintenanceMessageStore interface {
	ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	ResetForReprocessing(ctx context.Context, id string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type aggregatePruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// resyncBatchSize bounds one resync pass so the queue is never flooded past
// what the worker pool can absorb.
const resyncBatchSize = 500

// MaintenanceService handles the operational chores: re-queueing messages that
// never finished classification and enforcing retention windows.
type MaintenanceService struct {
	messages   maintenanceMessageStore
	aggregates aggregatePruner
	queue      analysisEnqueuer

	messageRetention   time.Duration
	aggregateRetention time.Duration
}

func NewMaintenanceService(messages maintenanceMessageStore, aggregates aggregatePruner, queue analysisEnqueuer, messageRetentionDays, aggregateRetentionDays int) *MaintenanceService {
	return &MaintenanceService{
		messages:           messages,
		aggregates:         aggregates,
		queue:              queue,
		messageRetention:   time.Duration(messageRetentionDays) * 24 * time.Hour,
		aggregateRetention: time.Duration(aggregateRetentionDays) * 24 * time.Hour,
	}
}

// ResyncPending finds messages stuck in pending or failed for longer than
// olderThan, resets them, and re-enqueues them for classification. With a nil
// queue (admin CLI runs out of process) messages are only reset; the server
// requeues them on its next resync pass. Returns how many were reset.
func (s *MaintenanceService) ResyncPending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	ids, err := s.messages.ListStuck(ctx, cutoff, resyncBatchSize)
	if err != nil {
		return 0, fmt.Errorf("listing stuck messages: %w", err)
	}

	requeued := 0
	for _, id := range ids {
		if err := s.messages.ResetForReprocessing(ctx, id); err != nil {
			log.Warn().Err(err).Str("message_id", id).Msg("Failed to reset message for reprocessing")
			continue
		}
		if s.queue != nil && !s.queue.Enqueue(id) {
			// Queue saturated: the message is back in pending and the next
			// resync pass will pick it up.
			log.Warn().Str("message_id", id).Msg("Analysis queue full during resync")
			break
		}
		requeued++
	}

	log.Info().Int("found", len(ids)).Int("requeued", requeued).Msg("Resync pass finished")
	return requeued, nil
}

// CleanupExpired deletes raw messages and aggregate rows past their retention
// windows. Returns deleted counts for messages and aggregates.
func (s *MaintenanceService) CleanupExpired(ctx context.Context) (int64, int64, error) {
	now := time.Now().UTC()

	deletedMessages, err := s.messages.DeleteOlderThan(ctx, now.Add(-s.messageRetention))
	if err != nil {
		return 0, 0, fmt.Errorf("deleting expired messages: %w", err)
	}

	deletedAggregates, err := s.aggregates.DeleteOlderThan(ctx, now.Add(-s.aggregateRetention))
	if err != nil {
		return deletedMessages, 0, fmt.Errorf("deleting expired aggregates: %w", err)
	}

	log.Info().
		Int64("messages", deletedMessages).
		Int64("aggregates", deletedAggregates).
		Msg("Retention cleanup finished")
	return deletedMessages, deletedAggregates, nil
}
