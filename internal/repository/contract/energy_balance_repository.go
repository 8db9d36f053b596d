package contract

import (
	"context"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/repository/specification"

	"github.com/google/uuid"
)

// EnergyBalanceRepository is the ledger store for current balances.
//
// ApplyDebit and ApplyCredit are single conditional UPDATE statements: the
// insufficient-funds (and overflow) guard lives in the WHERE clause, so two
// concurrent mutations of the same user cannot both pass a stale check.
// Both return entity.ErrUserNotFound when no balance row exists, and
// ApplyDebit returns *entity.InsufficientEnergyError when the guard fails.
type EnergyBalanceRepository interface {
	Create(ctx context.Context, balance *entity.EnergyBalance) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnergyBalance, error)
	FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.EnergyBalance, error)
	Delete(ctx context.Context, userId uuid.UUID) error

	// ApplyDebit atomically subtracts amount from balance and adds it to
	// total_spent, guarded by balance >= amount. Returns the post-mutation row.
	ApplyDebit(ctx context.Context, userId uuid.UUID, amount int64) (*entity.EnergyBalance, error)

	// ApplyCredit atomically adds amount to balance and total_earned, guarded
	// against int64 overflow. markRecharged also stamps last_recharged_at.
	ApplyCredit(ctx context.Context, userId uuid.UUID, amount int64, markRecharged bool) (*entity.EnergyBalance, error)
}
