package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openvenue/settlement/pkg/config"
	"github.com/openvenue/settlement/pkg/db/models"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/journal"
	"github.com/openvenue/settlement/pkg/logger"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		entries: []models.JournalEntry{
			{
				ID:            uuid.New(),
				EventType:     enums.EventTicketsPurchased,
				AggregateType: enums.AggregateEvent,
				AggregateID:   "12",
				Payload:       mustEnvelopePayload(t, "entry-one"),
			},
			{
				ID:            uuid.New(),
				EventType:     enums.EventTicketsPurchased,
				AggregateType: enums.AggregateEvent,
				AggregateID:   "12",
				Payload:       mustEnvelopePayload(t, "entry-two"),
			},
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, pub, dlqRepo, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.entries[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.entries[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestServiceProcessBatchWritesDLQOnBadEnvelope(t *testing.T) {
	entry := models.JournalEntry{
		ID:            uuid.New(),
		EventType:     enums.EventTipReceived,
		AggregateType: enums.AggregateTreasury,
		AggregateID:   "7",
		Payload:       json.RawMessage(`{"version":1}`),
	}
	repo := &fakeRepo{entries: []models.JournalEntry{entry}}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, &fakePublisher{}, dlqRepo, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	row := dlqRepo.entries[0]
	if row.EntryID != entry.ID {
		t.Fatalf("dlq entry_id mismatch: %s", row.EntryID)
	}
	if row.Payload == nil || !bytes.Equal(row.Payload, entry.Payload) {
		t.Fatalf("dlq payload mismatch")
	}
	if got := len(repo.terminal); got != 1 {
		t.Fatalf("expected entry marked terminal, got %d", got)
	}
}

func TestServiceProcessBatchWritesDLQOnMaxAttempts(t *testing.T) {
	entry := models.JournalEntry{
		ID:            uuid.New(),
		EventType:     enums.EventTicketsPurchased,
		AggregateType: enums.AggregateEvent,
		AggregateID:   "3",
		Payload:       mustEnvelopePayload(t, "max-attempts"),
		AttemptCount:  1,
	}
	repo := &fakeRepo{entries: []models.JournalEntry{entry}}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
		},
	}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, pub, dlqRepo, &config.JournalConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	row := dlqRepo.entries[0]
	if row.EntryID != entry.ID {
		t.Fatalf("dlq entry_id mismatch: %s", row.EntryID)
	}
	if got := len(repo.terminal); got != 1 {
		t.Fatalf("expected entry marked terminal, got %d", got)
	}
	if got := len(repo.published); got != 0 {
		t.Fatalf("expected no published rows, got %d", got)
	}
}

func TestServiceProcessBatchPublishesAttributes(t *testing.T) {
	entry := models.JournalEntry{
		ID:            uuid.New(),
		EventType:     enums.EventEventCreated,
		AggregateType: enums.AggregateEvent,
		AggregateID:   "42",
		Payload:       mustEnvelopePayload(t, "attrs"),
		CreatedAt:     time.Now(),
	}
	repo := &fakeRepo{entries: []models.JournalEntry{entry}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub, &fakeDLQRepo{}, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one published message, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Attributes["event_id"] != "attrs" {
		t.Fatalf("unexpected event_id attribute: %q", msg.Attributes["event_id"])
	}
	if msg.Attributes["event_type"] != "event_created" {
		t.Fatalf("unexpected event_type attribute: %q", msg.Attributes["event_type"])
	}
	if msg.Attributes["aggregate_id"] != "42" {
		t.Fatalf("unexpected aggregate_id attribute: %q", msg.Attributes["aggregate_id"])
	}
	if !bytes.Equal(msg.Data, entry.Payload) {
		t.Fatalf("published data differs from stored payload")
	}
}

func newTestService(t *testing.T, repo journalRepository, pub publisher, dlq dlqRepository, journalCfgOverride *config.JournalConfig) *Service {
	journalCfg := config.JournalConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if journalCfgOverride != nil {
		journalCfg = *journalCfgOverride
	}
	cfg := &config.Config{
		Journal: journalCfg,
	}
	logg := logger.New(logger.Options{
		ServiceName: "journal-publisher-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            &fakeDB{},
		PubSub:        &fakePubSubClient{},
		Repository:    repo,
		DLQRepository: dlq,
		Publisher:     pub,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func mustEnvelopePayload(tb testing.TB, eventID string) json.RawMessage {
	tb.Helper()
	env := journal.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type fakeRepo struct {
	entries   []models.JournalEntry
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.JournalEntry, error) {
	return f.entries, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDLQRepo struct {
	entries []models.JournalDLQ
}

func (f *fakeDLQRepo) InsertTx(tx *gorm.DB, entry models.JournalDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error {
	return nil
}

func (f *fakePubSubClient) JournalPublisher() *gcppubsub.Publisher {
	return nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}
