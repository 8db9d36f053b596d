package engine

import (
	"context"
	"time"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/pkg/logger"
	"ai-toolkit-be/internal/repository/specification"
	"ai-toolkit-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Engine applies every balance mutation in the system. It is mechanism,
// not policy: authorization decisions happen in the callers (via the
// guard) before the engine is invoked.
//
// Each operation runs inside one unit of work, so the conditional balance
// update and the ledger append commit or roll back together. There is no
// partial state: a recorded transaction always has its balance mutation
// and vice versa.
type Engine struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func New(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger) *Engine {
	return &Engine{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

// Result is the outcome of a committed mutation.
type Result struct {
	TransactionId uuid.UUID
	UserId        uuid.UUID
	Type          entity.TransactionType
	Amount        int64 // magnitude as applied
	NewBalance    int64
	Duplicate     bool // true when an idempotency key replayed a prior commit
}

type DebitParams struct {
	UserId         uuid.UUID
	Amount         int64
	ToolName       string
	Reason         string
	IdempotencyKey string
	Metadata       map[string]interface{}
}

type CreditParams struct {
	UserId         uuid.UUID
	Amount         int64
	Type           entity.TransactionType
	Reason         string
	AdminId        *uuid.UUID
	IdempotencyKey string
	Metadata       map[string]interface{}
}

// Debit atomically removes energy from a user's balance and appends one
// `usage` transaction. A balance short of the amount aborts with
// *entity.InsufficientEnergyError carrying balance and required, and no
// state change. A repeated idempotency key returns the original outcome
// instead of charging twice.
func (e *Engine) Debit(ctx context.Context, p DebitParams) (*Result, error) {
	if p.Amount <= 0 {
		return nil, entity.ErrInvalidAmount
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if p.IdempotencyKey != "" {
		prior, err := uow.EnergyTransactionRepository().FindOne(ctx,
			specification.ByIdempotencyKey{Key: p.IdempotencyKey},
		)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			return replayResult(prior), nil
		}
	}

	balance, err := uow.EnergyBalanceRepository().ApplyDebit(ctx, p.UserId, p.Amount)
	if err != nil {
		return nil, err
	}

	tx := &entity.EnergyTransaction{
		Id:           uuid.New(),
		UserId:       p.UserId,
		Type:         entity.TransactionTypeUsage,
		Amount:       -p.Amount,
		BalanceAfter: balance.Balance,
		Reason:       p.Reason,
		Metadata:     p.Metadata,
		CreatedAt:    time.Now(),
	}
	if p.ToolName != "" {
		tx.ToolName = &p.ToolName
	}
	if p.IdempotencyKey != "" {
		key := p.IdempotencyKey
		tx.IdempotencyKey = &key
	}

	if err := uow.EnergyTransactionRepository().Append(ctx, tx); err != nil {
		// A unique-key violation here means a concurrent retry with the
		// same idempotency key won the race. Our mutation rolls back via
		// the deferred Rollback; surface the winner's committed outcome.
		if p.IdempotencyKey != "" {
			if prior := e.lookupCommitted(ctx, p.IdempotencyKey); prior != nil {
				return replayResult(prior), nil
			}
		}
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	e.logger.Info("EnergyEngine", "Debit committed", map[string]interface{}{
		"user_id":     p.UserId,
		"amount":      p.Amount,
		"tool":        p.ToolName,
		"new_balance": balance.Balance,
	})

	return &Result{
		TransactionId: tx.Id,
		UserId:        p.UserId,
		Type:          entity.TransactionTypeUsage,
		Amount:        p.Amount,
		NewBalance:    balance.Balance,
	}, nil
}

// Credit atomically adds energy and appends one transaction of the given
// type. Grants carry the acting admin for attribution; grant, purchase
// and bonus stamp last_recharged_at. A repeated idempotency key returns
// the original outcome instead of crediting twice, which lets payment
// webhooks re-drive a settlement safely.
func (e *Engine) Credit(ctx context.Context, p CreditParams) (*Result, error) {
	if p.Amount <= 0 {
		return nil, entity.ErrInvalidAmount
	}
	if !p.Type.Valid() || !p.Type.IsCredit() {
		return nil, entity.ErrInvalidTxType
	}
	if p.Type == entity.TransactionTypeGrant && p.AdminId == nil {
		return nil, entity.ErrGrantNeedsAdmin
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if p.IdempotencyKey != "" {
		prior, err := uow.EnergyTransactionRepository().FindOne(ctx,
			specification.ByIdempotencyKey{Key: p.IdempotencyKey},
		)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			return replayResult(prior), nil
		}
	}

	balance, err := uow.EnergyBalanceRepository().ApplyCredit(ctx, p.UserId, p.Amount, p.Type.IsRecharge())
	if err != nil {
		return nil, err
	}

	tx := &entity.EnergyTransaction{
		Id:           uuid.New(),
		UserId:       p.UserId,
		Type:         p.Type,
		Amount:       p.Amount,
		BalanceAfter: balance.Balance,
		Reason:       p.Reason,
		AdminId:      p.AdminId,
		Metadata:     p.Metadata,
		CreatedAt:    time.Now(),
	}
	if p.IdempotencyKey != "" {
		key := p.IdempotencyKey
		tx.IdempotencyKey = &key
	}

	if err := uow.EnergyTransactionRepository().Append(ctx, tx); err != nil {
		if p.IdempotencyKey != "" {
			if prior := e.lookupCommitted(ctx, p.IdempotencyKey); prior != nil {
				return replayResult(prior), nil
			}
		}
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	e.logger.Info("EnergyEngine", "Credit committed", map[string]interface{}{
		"user_id":     p.UserId,
		"amount":      p.Amount,
		"type":        string(p.Type),
		"new_balance": balance.Balance,
	})

	return &Result{
		TransactionId: tx.Id,
		UserId:        p.UserId,
		Type:          p.Type,
		Amount:        p.Amount,
		NewBalance:    balance.Balance,
	}, nil
}

// Provision creates the balance record for a new account and credits the
// starting allotment as a `bonus` transaction, so that replaying the log
// from zero reconciles with the stored balance from the very first row.
func (e *Engine) Provision(ctx context.Context, userId uuid.UUID, allotment int64) (*Result, error) {
	if allotment < 0 {
		return nil, entity.ErrInvalidAmount
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	balance := &entity.EnergyBalance{
		UserId:    userId,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uow.EnergyBalanceRepository().Create(ctx, balance); err != nil {
		return nil, err
	}

	result := &Result{
		UserId:     userId,
		Type:       entity.TransactionTypeBonus,
		NewBalance: 0,
	}

	if allotment > 0 {
		updated, err := uow.EnergyBalanceRepository().ApplyCredit(ctx, userId, allotment, true)
		if err != nil {
			return nil, err
		}
		tx := &entity.EnergyTransaction{
			Id:           uuid.New(),
			UserId:       userId,
			Type:         entity.TransactionTypeBonus,
			Amount:       allotment,
			BalanceAfter: updated.Balance,
			Reason:       "Starting energy allotment",
			CreatedAt:    now,
		}
		if err := uow.EnergyTransactionRepository().Append(ctx, tx); err != nil {
			return nil, err
		}
		result.TransactionId = tx.Id
		result.Amount = allotment
		result.NewBalance = updated.Balance
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	e.logger.Info("EnergyEngine", "Account provisioned", map[string]interface{}{
		"user_id":   userId,
		"allotment": allotment,
	})

	return result, nil
}

// lookupCommitted reads a committed transaction outside the failed unit of
// work. Best effort: returns nil when nothing is visible.
func (e *Engine) lookupCommitted(ctx context.Context, key string) *entity.EnergyTransaction {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	prior, err := uow.EnergyTransactionRepository().FindOne(ctx,
		specification.ByIdempotencyKey{Key: key},
	)
	if err != nil {
		return nil
	}
	return prior
}

func replayResult(tx *entity.EnergyTransaction) *Result {
	amount := tx.Amount
	if amount < 0 {
		amount = -amount
	}
	return &Result{
		TransactionId: tx.Id,
		UserId:        tx.UserId,
		Type:          tx.Type,
		Amount:        amount,
		NewBalance:    tx.BalanceAfter,
		Duplicate:     true,
	}
}
