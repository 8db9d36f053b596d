package contract

import (
	"context"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/repository/specification"
)

// EnergyTransactionRepository is the append-only ledger log. Rows are never
// updated or deleted; replaying a user's log in commit order from zero must
// reproduce the stored balance.
type EnergyTransactionRepository interface {
	Append(ctx context.Context, tx *entity.EnergyTransaction) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnergyTransaction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EnergyTransaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
