package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"mindpulse-be/internal/models"
)

type fakeMaintenanceStore struct {
	stuck           []string
	reset           []string
	deletedMessages int64
}

func (f *fakeMaintenanceStore) ListStuck(_ context.Context, _ time.Time, limit int) ([]string, error) {
	if len(f.stuck) > limit {
		return f.stuck[:limit], nil
	}
	return f.stuck, nil
}

func (f *fakeMaintenanceStore) ResetForReprocessing(_ context.Context, id string) error {
	f.reset = append(f.reset, id)
	return nil
}

func (f *fakeMaintenanceStore) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return f.deletedMessages, nil
}

type fakePruner struct {
	deleted int64
}

func (f *fakePruner) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return f.deleted, nil
}

// statusMessageStore mirrors the repository's stuck-message filter: anything
// short of completed is listable and resettable.
type statusMessageStore struct {
	ids      []string
	statuses map[string]models.ProcessingStatus
}

func (f *statusMessageStore) ListStuck(_ context.Context, _ time.Time, limit int) ([]string, error) {
	var stuck []string
	for _, id := range f.ids {
		if f.statuses[id] == models.StatusCompleted {
			continue
		}
		stuck = append(stuck, id)
		if len(stuck) == limit {
			break
		}
	}
	return stuck, nil
}

func (f *statusMessageStore) ResetForReprocessing(_ context.Context, id string) error {
	if f.statuses[id] == models.StatusCompleted {
		return errors.New("message already completed")
	}
	f.statuses[id] = models.StatusPending
	return nil
}

func (f *statusMessageStore) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func TestResyncPendingRequeues(t *testing.T) {
	store := &fakeMaintenanceStore{stuck: []string{"m1", "m2", "m3"}}
	queue := &fakeEnqueuer{}
	svc := NewMaintenanceService(store, &fakePruner{}, queue, 90, 365)

	n, err := svc.ResyncPending(context.Background(), 10*time.Minute)
	if err != nil {
		t.Fatalf("ResyncPending() error = %v", err)
	}
	if n != 3 {
		t.Errorf("requeued = %d, want 3", n)
	}
	if len(store.reset) != 3 || len(queue.enqueued) != 3 {
		t.Errorf("reset = %v, enqueued = %v, want all three", store.reset, queue.enqueued)
	}
}

func TestResyncPendingStopsWhenQueueFull(t *testing.T) {
	store := &fakeMaintenanceStore{stuck: []string{"m1", "m2"}}
	svc := NewMaintenanceService(store, &fakePruner{}, &fakeEnqueuer{full: true}, 90, 365)

	n, err := svc.ResyncPending(context.Background(), 0)
	if err != nil {
		t.Fatalf("ResyncPending() error = %v", err)
	}
	if n != 0 {
		t.Errorf("requeued = %d, want 0 with a saturated queue", n)
	}
	// The first message is reset before the queue rejects it; it stays pending
	// for the next pass.
	if len(store.reset) != 1 {
		t.Errorf("reset = %v, want exactly one before backing off", store.reset)
	}
}

func TestResyncPendingWithoutQueueOnlyResets(t *testing.T) {
	store := &fakeMaintenanceStore{stuck: []string{"m1", "m2"}}
	svc := NewMaintenanceService(store, &fakePruner{}, nil, 90, 365)

	n, err := svc.ResyncPending(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("ResyncPending() error = %v", err)
	}
	if n != 2 || len(store.reset) != 2 {
		t.Errorf("reset %d of %d stuck messages, want all", len(store.reset), 2)
	}
}

func TestResyncPendingRecoversOrphanedProcessing(t *testing.T) {
	// A worker crash between pending->processing and the analysis write leaves
	// the message in processing with no owner.
	store := &statusMessageStore{
		ids: []string{"m1", "m2", "m3"},
		statuses: map[string]models.ProcessingStatus{
			"m1": models.StatusProcessing,
			"m2": models.StatusCompleted,
			"m3": models.StatusFailed,
		},
	}
	queue := &fakeEnqueuer{}
	svc := NewMaintenanceService(store, &fakePruner{}, queue, 90, 365)

	n, err := svc.ResyncPending(context.Background(), 10*time.Minute)
	if err != nil {
		t.Fatalf("ResyncPending() error = %v", err)
	}
	if n != 2 {
		t.Errorf("requeued = %d, want the processing orphan and the failed message", n)
	}
	if store.statuses["m1"] != models.StatusPending {
		t.Errorf("m1 status = %s, want pending after crash recovery", store.statuses["m1"])
	}
	if store.statuses["m2"] != models.StatusCompleted {
		t.Errorf("m2 status = %s, completed messages must never be reset", store.statuses["m2"])
	}
	if len(queue.enqueued) != 2 || queue.enqueued[0] != "m1" || queue.enqueued[1] != "m3" {
		t.Errorf("enqueued = %v, want [m1 m3]", queue.enqueued)
	}
}

func TestCleanupExpired(t *testing.T) {
	store := &fakeMaintenanceStore{deletedMessages: 7}
	pruner := &fakePruner{deleted: 2}
	svc := NewMaintenanceService(store, pruner, nil, 90, 365)

	messages, aggregates, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpired() error = %v", err)
	}
	if messages != 7 || aggregates != 2 {
		t.Errorf("deleted = (%d, %d), want (7, 2)", messages, aggregates)
	}
}
