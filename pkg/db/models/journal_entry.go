package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/pkg/enums"
)

// JournalEntry is one append-only record of a settlement transition, written
// in the same transaction as the snapshot bookkeeping and relayed to the
// journal topic by the publisher.
type JournalEntry struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.JournalEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.JournalAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   string                     `gorm:"column:aggregate_id;not null"`
	Payload       json.RawMessage            `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time                 `gorm:"column:published_at"`
	AttemptCount  int                        `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                    `gorm:"column:last_error"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}
