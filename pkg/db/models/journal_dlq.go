package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/pkg/enums"
)

// JournalDLQ captures journal entries the publisher gave up on, kept for
// auditing and manual replay.
type JournalDLQ struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntryID       uuid.UUID                  `gorm:"column:entry_id;type:uuid;not null"`
	EventType     enums.JournalEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.JournalAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   string                     `gorm:"column:aggregate_id;not null"`
	Payload       json.RawMessage            `gorm:"column:payload;type:jsonb;not null"`
	ErrorMessage  *string                    `gorm:"column:error_message"`
	AttemptCount  int                        `gorm:"column:attempt_count;not null;default:0"`
	FailedAt      time.Time                  `gorm:"column:failed_at;autoCreateTime"`
}

func (JournalDLQ) TableName() string {
	return "journal_dlq"
}
