package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mindpulse-be/internal/apperrors"
	"mindpulse-be/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testUserHash = "1b671a64-40d5-491e-99b0-da01ff1f3341"

type fakeChannelResolver struct {
	channel *models.Channel
	err     error
}

func (f *fakeChannelResolver) GetActiveByID(_ context.Context, id string) (*models.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.channel, nil
}

type fakeMessageStore struct {
	inserted  []*models.Message
	insertErr error
	existing  *models.Message
}

func (f *fakeMessageStore) Insert(_ context.Context, msg *models.Message) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	msg.ID = primitive.NewObjectID()
	f.inserted = append(f.inserted, msg)
	return msg.ID.Hex(), nil
}

func (f *fakeMessageStore) FindByExternalRef(_ context.Context, _, _ string) (*models.Message, error) {
	if f.existing == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.existing, nil
}

type fakeToucher struct {
	touched []string
	err     error
}

func (f *fakeToucher) TouchActivity(_ context.Context, userHash string) error {
	f.touched = append(f.touched, userHash)
	return f.err
}

type fakeEnqueuer struct {
	enqueued []string
	full     bool
}

func (f *fakeEnqueuer) Enqueue(id string) bool {
	if f.full {
		return false
	}
	f.enqueued = append(f.enqueued, id)
	return true
}

func newTestIngestion() (*IngestionService, *fakeMessageStore, *fakeToucher, *fakeEnqueuer) {
	channels := &fakeChannelResolver{channel: &models.Channel{ID: "chan-1", Type: "discord", IsActive: true}}
	messages := &fakeMessageStore{}
	users := &fakeToucher{}
	queue := &fakeEnqueuer{}
	return NewIngestionService(channels, messages, users, queue), messages, users, queue
}

func TestIngestValidation(t *testing.T) {
	svc, _, _, _ := newTestIngestion()

	tests := []struct {
		name string
		req  models.IngestRequest
	}{
		{"empty message", models.IngestRequest{ChannelID: "chan-1", UserHash: testUserHash, Message: "   "}},
		{"html only message", models.IngestRequest{ChannelID: "chan-1", UserHash: testUserHash, Message: "<p></p>"}},
		{"too long message", models.IngestRequest{ChannelID: "chan-1", UserHash: testUserHash, Message: strings.Repeat("a", 10001)}},
		{"bad user hash", models.IngestRequest{ChannelID: "chan-1", UserHash: "not-a-uuid", Message: "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(context.Background(), tt.req)
			var validationErr *apperrors.ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("Ingest() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestIngestSuccess(t *testing.T) {
	svc, messages, users, queue := newTestIngestion()

	id, err := svc.Ingest(context.Background(), models.IngestRequest{
		ChannelID:   "chan-1",
		UserHash:    testUserHash,
		Message:     "  Feeling <b>great</b> about the   release!  ",
		ExternalRef: "discord-123",
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if id == "" {
		t.Fatal("Ingest() returned empty id")
	}

	if len(messages.inserted) != 1 {
		t.Fatalf("inserted %d messages, want 1", len(messages.inserted))
	}
	msg := messages.inserted[0]
	if msg.Text != "Feeling great about the release!" {
		t.Errorf("stored text = %q, want cleaned text", msg.Text)
	}
	if msg.ProcessingStatus != models.StatusPending {
		t.Errorf("status = %s, want pending", msg.ProcessingStatus)
	}
	if msg.ChannelType != "discord" {
		t.Errorf("channel type = %q, want discord", msg.ChannelType)
	}
	if len(users.touched) != 1 || users.touched[0] != testUserHash {
		t.Errorf("touched = %v, want one touch for the user", users.touched)
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != id {
		t.Errorf("enqueued = %v, want the new message id", queue.enqueued)
	}
}

func TestIngestInvalidChannel(t *testing.T) {
	channels := &fakeChannelResolver{err: &apperrors.InvalidChannelError{ChannelID: "nope"}}
	svc := NewIngestionService(channels, &fakeMessageStore{}, &fakeToucher{}, &fakeEnqueuer{})

	_, err := svc.Ingest(context.Background(), models.IngestRequest{
		ChannelID: "nope", UserHash: testUserHash, Message: "hello",
	})
	var channelErr *apperrors.InvalidChannelError
	if !errors.As(err, &channelErr) {
		t.Errorf("Ingest() error = %v, want InvalidChannelError", err)
	}
}

func TestIngestDuplicateIsIdempotent(t *testing.T) {
	existing := &models.Message{ID: primitive.NewObjectID()}
	channels := &fakeChannelResolver{channel: &models.Channel{ID: "chan-1", Type: "discord", IsActive: true}}
	messages := &fakeMessageStore{insertErr: apperrors.ErrDuplicateMessage, existing: existing}
	users := &fakeToucher{}
	queue := &fakeEnqueuer{}
	svc := NewIngestionService(channels, messages, users, queue)

	id, err := svc.Ingest(context.Background(), models.IngestRequest{
		ChannelID: "chan-1", UserHash: testUserHash, Message: "hello", ExternalRef: "ref-1",
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v, want idempotent success", err)
	}
	if id != existing.ID.Hex() {
		t.Errorf("id = %s, want the existing message id", id)
	}
	if len(users.touched) != 0 {
		t.Error("duplicate submission must not bump activity counters")
	}
	if len(queue.enqueued) != 0 {
		t.Error("duplicate submission must not re-enqueue classification")
	}
}

func TestIngestQueueFullLeavesMessagePending(t *testing.T) {
	channels := &fakeChannelResolver{channel: &models.Channel{ID: "chan-1", Type: "chat", IsActive: true}}
	messages := &fakeMessageStore{}
	svc := NewIngestionService(channels, messages, &fakeToucher{}, &fakeEnqueuer{full: true})

	id, err := svc.Ingest(context.Background(), models.IngestRequest{
		ChannelID: "chan-1", UserHash: testUserHash, Message: "hello",
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v, want success even with a full queue", err)
	}
	if id == "" {
		t.Fatal("Ingest() returned empty id")
	}
	if messages.inserted[0].ProcessingStatus != models.StatusPending {
		t.Error("message should stay pending for a later resync")
	}
}

func TestIngestTouchFailureIsBestEffort(t *testing.T) {
	channels := &fakeChannelResolver{channel: &models.Channel{ID: "chan-1", Type: "chat", IsActive: true}}
	users := &fakeToucher{err: &apperrors.InvalidUserError{UserHash: testUserHash}}
	svc := NewIngestionService(channels, &fakeMessageStore{}, users, &fakeEnqueuer{})

	if _, err := svc.Ingest(context.Background(), models.IngestRequest{
		ChannelID: "chan-1", UserHash: testUserHash, Message: "hello",
	}); err != nil {
		t.Fatalf("Ingest() error = %v, counter failures must not fail ingestion", err)
	}
}
