package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EnergyTransaction rows are append-only: created by the engine inside the
// same database transaction as the balance mutation, never updated or
// deleted afterwards.
type EnergyTransaction struct {
	Id             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID         `gorm:"type:uuid;not null;index:idx_energy_tx_user_created,priority:1"`
	Type           string            `gorm:"type:varchar(20);not null;index"`
	Amount         int64             `gorm:"not null"`
	BalanceAfter   int64             `gorm:"not null"`
	Reason         string            `gorm:"type:text;not null"`
	ToolName       *string           `gorm:"type:varchar(100);index"`
	AdminId        *uuid.UUID        `gorm:"type:uuid"`
	IdempotencyKey *string           `gorm:"type:varchar(100);uniqueIndex"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"default:now();not null;index:idx_energy_tx_user_created,priority:2"`
}

func (EnergyTransaction) TableName() string {
	return "energy_transactions"
}
