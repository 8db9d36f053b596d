package model

import (
	"time"

	"github.com/google/uuid"
)

type EnergyBalance struct {
	UserId          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Balance         int64      `gorm:"not null;default:0;check:balance >= 0"`
	TotalEarned     int64      `gorm:"not null;default:0"`
	TotalSpent      int64      `gorm:"not null;default:0"`
	LastRechargedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (EnergyBalance) TableName() string {
	return "energy_balances"
}
