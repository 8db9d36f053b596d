package entity

import (
	"time"

	"github.com/google/uuid"
)

// CreditPackage is read-only reference data: a purchasable energy bundle.
// The ledger never mutates packages, it only executes the purchase/bonus
// credits that result from a completed checkout.
type CreditPackage struct {
	Id           uuid.UUID
	Name         string
	Slug         string
	Credits      int64
	BonusCredits int64
	Price        int64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
