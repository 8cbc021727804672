// Package journal persists one append-only entry per settlement transition
// and hands them to the publisher for relay. The entry stream is the only
// way to reconstruct history externally.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/openvenue/settlement/pkg/db"
	"github.com/openvenue/settlement/pkg/db/models"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/logger"
)

// Entry is one settlement transition to record.
type Entry struct {
	EventType     enums.JournalEventType
	AggregateType enums.JournalAggregateType
	AggregateID   string
	Actor         *ActorRef
	Data          interface{}
	Version       int
	OccurredAt    time.Time
}

type Service struct {
	db   *dbpkg.Client
	repo *Repository
	logg *logger.Logger
}

func NewService(db *dbpkg.Client, repo *Repository, logg *logger.Logger) *Service {
	return &Service{db: db, repo: repo, logg: logg}
}

// Emit stores one entry inside the caller's transaction.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(entry.Data)
	if err != nil {
		return err
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	envelope := PayloadEnvelope{
		Version:    entry.Version,
		EventID:    uuid.NewString(),
		OccurredAt: entry.OccurredAt,
		Actor:      entry.Actor,
		Data:       payload,
	}
	payloadJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := models.JournalEntry{
		EventType:     entry.EventType,
		AggregateType: entry.AggregateType,
		AggregateID:   entry.AggregateID,
		Payload:       json.RawMessage(payloadJSON),
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return err
	}
	if s.logg != nil {
		fields := map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     entry.EventType,
			"aggregate_id":   entry.AggregateID,
			"aggregate_type": entry.AggregateType,
		}
		logCtx := s.logg.WithFields(ctx, fields)
		s.logg.Info(logCtx, "journal entry queued")
	}
	return nil
}

// AppendAll stores a batch of entries in one transaction. The engine flushes
// a completed operation's entries through this after its state transition.
func (s *Service) AppendAll(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if s.db == nil {
		return errors.New("db client required")
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, entry := range entries {
			if err := s.Emit(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}
