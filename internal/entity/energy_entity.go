package entity

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeGrant    TransactionType = "grant"
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeUsage    TransactionType = "usage"
	TransactionTypeRefund   TransactionType = "refund"
	TransactionTypeBonus    TransactionType = "bonus"
)

// IsCredit reports whether the type increases the balance.
func (t TransactionType) IsCredit() bool {
	return t != TransactionTypeUsage
}

// IsRecharge reports whether the type counts as a recharge event
// (updates LastRechargedAt on the balance).
func (t TransactionType) IsRecharge() bool {
	return t == TransactionTypeGrant || t == TransactionTypePurchase || t == TransactionTypeBonus
}

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeGrant, TransactionTypePurchase, TransactionTypeUsage,
		TransactionTypeRefund, TransactionTypeBonus:
		return true
	}
	return false
}

// EnergyBalance is the per-user balance record. The balance column is a
// cached projection of the transaction log; TotalEarned - TotalSpent must
// equal Balance at rest.
type EnergyBalance struct {
	UserId          uuid.UUID
	Balance         int64
	TotalEarned     int64
	TotalSpent      int64
	LastRechargedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EnergyTransaction is one immutable entry of the append-only ledger log.
// Amount is signed: negative for usage, positive for every credit type.
type EnergyTransaction struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	Type           TransactionType
	Amount         int64
	BalanceAfter   int64
	Reason         string
	ToolName       *string
	AdminId        *uuid.UUID
	IdempotencyKey *string
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}

// EnergyStats is the derived, read-only view served to clients.
type EnergyStats struct {
	UserId              uuid.UUID
	Balance             int64
	TotalEarned         int64
	TotalSpent          int64
	PercentageRemaining float64
	LastRechargedAt     *time.Time
}
