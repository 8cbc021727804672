package models

import (
	"encoding/json"
	"time"
)

// EngineSnapshot is a full serialized copy of the in-memory settlement
// state. Boot restores the newest row; older rows are retained for audit.
type EngineSnapshot struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	State     json.RawMessage `gorm:"column:state;type:jsonb;not null"`
	TakenAt   time.Time       `gorm:"column:taken_at;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (EngineSnapshot) TableName() string {
	return "engine_snapshots"
}
