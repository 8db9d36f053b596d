package dto

import (
	"time"

	"github.com/google/uuid"
)

// EnergyStatsResponse is returned by GET /api/energy
type EnergyStatsResponse struct {
	UserId              uuid.UUID  `json:"user_id"`
	Balance             int64      `json:"balance"`
	TotalEarned         int64      `json:"total_earned"`
	TotalSpent          int64      `json:"total_spent"`
	PercentageRemaining float64    `json:"percentage_remaining"`
	LastRechargedAt     *time.Time `json:"last_recharged_at,omitempty"`
}

// DebitRequest triggers a usage debit for a tool invocation.
type DebitRequest struct {
	UserId         uuid.UUID `json:"user_id" validate:"required"`
	ToolName       string    `json:"tool_name" validate:"required"`
	Reason         string    `json:"reason,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty" validate:"omitempty,max=100"`
}

// DebitResponse reports a committed debit.
type DebitResponse struct {
	TransactionId uuid.UUID `json:"transaction_id"`
	Amount        int64     `json:"amount_deducted"`
	NewBalance    int64     `json:"new_balance"`
	Duplicate     bool      `json:"duplicate,omitempty"`
}

// InsufficientEnergyResponse carries the shortfall so the client can
// render "need N more energy".
type InsufficientEnergyResponse struct {
	Balance   int64 `json:"balance"`
	Required  int64 `json:"required"`
	Shortfall int64 `json:"shortfall"`
}

// TransactionResponse is one row of the ledger log.
type TransactionResponse struct {
	Id           uuid.UUID  `json:"id"`
	UserId       uuid.UUID  `json:"user_id"`
	Type         string     `json:"type"`
	Amount       int64      `json:"amount"`
	BalanceAfter int64      `json:"balance_after"`
	Reason       string     `json:"reason"`
	ToolName     *string    `json:"tool_name,omitempty"`
	AdminId      *uuid.UUID `json:"admin_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TransactionPageResponse is an ordered page of the log.
type TransactionPageResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
	Page         int                    `json:"page"`
	Limit        int                    `json:"limit"`
}

// PublishEnergyDebitedMessage goes on the internal bus after a committed
// debit; the consumer decides whether a low-energy alert is due.
type PublishEnergyDebitedMessage struct {
	UserId     uuid.UUID `json:"user_id"`
	NewBalance int64     `json:"new_balance"`
	Amount     int64     `json:"amount"`
	ToolName   string    `json:"tool_name,omitempty"`
}

// ToolResponse is one catalog entry.
type ToolResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Cost        int64  `json:"cost"`
}
