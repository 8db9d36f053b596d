package unitofwork

import (
	"context"

	"ai-toolkit-be/internal/repository/contract"
)

// UnitOfWork scopes repository access to one logical operation. After
// Begin, every repository it hands out runs inside the same database
// transaction, which is what makes the (balance mutation, log append)
// pair indivisible.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	EnergyBalanceRepository() contract.EnergyBalanceRepository
	EnergyTransactionRepository() contract.EnergyTransactionRepository
	CreditPackageRepository() contract.CreditPackageRepository
	EnergyPurchaseRepository() contract.EnergyPurchaseRepository
}
