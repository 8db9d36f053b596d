package unitofwork

import "context"

// RepositoryFactory opens fresh units of work. The ledger engine holds one
// so every balance mutation and its log append share a transaction.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
