package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openvenue/settlement/pkg/config"
	"github.com/openvenue/settlement/pkg/db/models"
	"github.com/openvenue/settlement/pkg/journal"
	"github.com/openvenue/settlement/pkg/logger"
	"github.com/openvenue/settlement/pkg/metrics"
)

const jobName = "journal-publisher"

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	JournalPublisher() *gcppubsub.Publisher
}

type journalRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.JournalEntry, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.JournalDLQ) error
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbClient
	PubSub        pubSubClient
	Repository    journalRepository
	DLQRepository dlqRepository
	Publisher     publisher
	Metrics       *metrics.JobMetrics
}

type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dbClient
	repo         journalRepository
	pubsub       pubSubClient
	dlq          dlqRepository
	pub          publisher
	jobMetrics   *metrics.JobMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("journal repository is required")
	}
	if params.DLQRepository == nil {
		return nil, errors.New("dlq repository is required")
	}

	pub := params.Publisher
	if pub == nil {
		if handle := params.PubSub.JournalPublisher(); handle != nil {
			pub = newGCPPublisher(handle)
		}
	}
	if pub == nil {
		return nil, errors.New("journal topic publisher is not configured")
	}

	batch := params.Config.Journal.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Journal.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Journal.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		pubsub:       params.PubSub,
		dlq:          params.DLQRepository,
		pub:          pub,
		jobMetrics:   params.Metrics,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	if interval <= 0 {
		interval = time.Duration(defaultPollMs) * time.Millisecond
	}
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "journal publisher context canceled")
			return ctx.Err()
		default:
		}

		started := time.Now()
		processed, err := s.processBatch(ctx)
		s.jobMetrics.ObserveDuration(jobName, time.Since(started))
		if err != nil {
			s.jobMetrics.IncFailure(jobName)
			s.logg.Error(ctx, "journal publisher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval
		s.jobMetrics.IncSuccess(jobName)

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		entries, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		processed = true
		for _, entry := range entries {
			envelope, envErr := decodeEnvelope(entry.Payload)
			if envErr != nil {
				// A payload the engine wrote but we cannot decode will never
				// publish, so it goes straight to the DLQ.
				if markErr := s.handleTerminal(tx, ctx, entry, envErr); markErr != nil {
					return markErr
				}
				continue
			}

			fields := s.entryFields(entry, envelope)
			if err := s.publishEntry(ctx, entry, envelope); err != nil {
				nextAttempt := entry.AttemptCount + 1
				fields["attempt_count"] = nextAttempt

				if nextAttempt >= s.maxAttempts {
					fields["terminal_reason"] = "max_attempts"
					terminalErr := fmt.Errorf("max publish attempts reached: %w", err)
					ctxWithFields := s.logg.WithFields(ctx, fields)
					if markErr := s.handleTerminal(tx, ctxWithFields, entry, terminalErr); markErr != nil {
						return markErr
					}
					continue
				}

				ctxWithFields := s.logg.WithFields(ctx, fields)
				ctxWithFields = s.logg.WithField(ctxWithFields, "error", err.Error())
				s.logg.Warn(ctxWithFields, "journal publish failed")
				if markErr := s.repo.MarkFailedTx(tx, entry.ID, err); markErr != nil {
					return fmt.Errorf("mark failure %s: %w", entry.ID, markErr)
				}
				continue
			}

			if markErr := s.repo.MarkPublishedTx(tx, entry.ID); markErr != nil {
				return fmt.Errorf("mark published %s: %w", entry.ID, markErr)
			}
			s.logg.Info(s.logg.WithFields(ctx, fields), "journal entry published")
		}
		return nil
	})
	return processed, err
}

func (s *Service) handleTerminal(tx *gorm.DB, ctx context.Context, entry models.JournalEntry, err error) error {
	ctxWithError := s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctxWithError, "journal entry will not be retried")

	dlqEntry := models.JournalDLQ{
		EntryID:       entry.ID,
		EventType:     entry.EventType,
		AggregateType: entry.AggregateType,
		AggregateID:   entry.AggregateID,
		Payload:       entry.Payload,
		ErrorMessage:  dlqErrorMessage(err),
		AttemptCount:  entry.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if dlqErr := s.dlq.InsertTx(tx, dlqEntry); dlqErr != nil {
		return fmt.Errorf("insert dlq %s: %w", entry.ID, dlqErr)
	}
	if markErr := s.repo.MarkTerminalTx(tx, entry.ID, err, s.maxAttempts); markErr != nil {
		return fmt.Errorf("mark terminal %s: %w", entry.ID, markErr)
	}
	return nil
}

func dlqErrorMessage(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}

func decodeEnvelope(payload json.RawMessage) (journal.PayloadEnvelope, error) {
	var envelope journal.PayloadEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return journal.PayloadEnvelope{}, fmt.Errorf("decoding journal envelope: %w", err)
	}
	if envelope.EventID == "" {
		return journal.PayloadEnvelope{}, errors.New("journal envelope missing event id")
	}
	return envelope, nil
}

func (s *Service) publishEntry(ctx context.Context, entry models.JournalEntry, envelope journal.PayloadEnvelope) error {
	msg := &gcppubsub.Message{
		Data: entry.Payload,
		Attributes: map[string]string{
			"event_id":       envelope.EventID,
			"event_type":     string(entry.EventType),
			"aggregate_type": string(entry.AggregateType),
			"aggregate_id":   entry.AggregateID,
			"created_at":     entry.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := s.pub.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return err
	}
	return nil
}

func (s *Service) entryFields(entry models.JournalEntry, envelope journal.PayloadEnvelope) map[string]any {
	fields := map[string]any{
		"journal_id":     entry.ID.String(),
		"event_type":     entry.EventType,
		"aggregate_type": entry.AggregateType,
		"aggregate_id":   entry.AggregateID,
		"batch_size":     s.batchSize,
		"attempt_count":  entry.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if entry.LastError != nil {
		fields["last_error"] = *entry.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
