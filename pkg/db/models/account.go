package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is one participant's spendable balance in one currency, used by
// the database-backed funds gateway. Custody funds live under a reserved
// participant id.
type Account struct {
	ParticipantID uuid.UUID `gorm:"column:participant_id;type:uuid;primaryKey"`
	Currency      string    `gorm:"column:currency;primaryKey"`
	Balance       int64     `gorm:"column:balance;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}
