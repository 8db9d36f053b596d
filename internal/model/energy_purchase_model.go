package model

import (
	"time"

	"github.com/google/uuid"
)

// EnergyPurchase tracks one checkout attempt against a credit package.
// Its id doubles as the gateway order id; the webhook resolves it back
// and executes the resulting purchase/bonus credits through the engine.
type EnergyPurchase struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID `gorm:"type:uuid;not null;index"`
	PackageId     uuid.UUID `gorm:"type:uuid;not null"`
	GrossAmount   int64     `gorm:"not null"`
	PaymentStatus string    `gorm:"type:varchar(50);not null;default:'pending'"`
	PaidAt        *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (EnergyPurchase) TableName() string {
	return "energy_purchases"
}
