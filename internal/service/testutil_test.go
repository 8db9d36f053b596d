package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/repository/contract"
	"ai-toolkit-be/internal/repository/specification"
	"ai-toolkit-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// In-memory repository doubles. They mirror the conditional-update
// behavior of the real implementations closely enough for the service
// policy paths under test.
type memStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*entity.User
	balances  map[uuid.UUID]*entity.EnergyBalance
	txs       []*entity.EnergyTransaction
	packages  map[uuid.UUID]*entity.CreditPackage
	purchases map[uuid.UUID]*entity.EnergyPurchase

	// One-shot failure injection for partial-failure scenarios.
	failNextBalanceCreate bool
	failNextStatusUpdate  bool
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uuid.UUID]*entity.User),
		balances:  make(map[uuid.UUID]*entity.EnergyBalance),
		packages:  make(map[uuid.UUID]*entity.CreditPackage),
		purchases: make(map[uuid.UUID]*entity.EnergyPurchase),
	}
}

type memFactory struct{ store *memStore }

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{store: f.store}
}

type memUow struct{ store *memStore }

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error                   { return nil }
func (u *memUow) Rollback() error                 { return nil }

func (u *memUow) UserRepository() contract.UserRepository {
	return &memUserRepo{store: u.store}
}
func (u *memUow) EnergyBalanceRepository() contract.EnergyBalanceRepository {
	return &memBalanceRepo{store: u.store}
}
func (u *memUow) EnergyTransactionRepository() contract.EnergyTransactionRepository {
	return &memTxRepo{store: u.store}
}
func (u *memUow) CreditPackageRepository() contract.CreditPackageRepository {
	return &memPackageRepo{store: u.store}
}
func (u *memUow) EnergyPurchaseRepository() contract.EnergyPurchaseRepository {
	return &memPurchaseRepo{store: u.store}
}

type memUserRepo struct{ store *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *user
	r.store.users[user.Id] = &cp
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *memUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.users, id)
	return nil
}

func (r *memUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u, ok := r.store.users[s.ID]; ok {
				cp := *u
				return &cp, nil
			}
			return nil, nil
		case specification.ByEmail:
			for _, u := range r.store.users {
				if u.Email == s.Email {
					cp := *u
					return &cp, nil
				}
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*entity.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.users)), nil
}

func (r *memUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return entity.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *memUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.UserStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return entity.ErrUserNotFound
	}
	u.Status = status
	return nil
}

type memBalanceRepo struct{ store *memStore }

func (r *memBalanceRepo) Create(ctx context.Context, balance *entity.EnergyBalance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failNextBalanceCreate {
		r.store.failNextBalanceCreate = false
		return errors.New("balance insert failed")
	}
	cp := *balance
	r.store.balances[balance.UserId] = &cp
	return nil
}

func (r *memBalanceRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnergyBalance, error) {
	return nil, nil
}

func (r *memBalanceRepo) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.EnergyBalance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.balances[userId]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBalanceRepo) Delete(ctx context.Context, userId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.balances, userId)
	return nil
}

func (r *memBalanceRepo) ApplyDebit(ctx context.Context, userId uuid.UUID, amount int64) (*entity.EnergyBalance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.balances[userId]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	if b.Balance < amount {
		return nil, &entity.InsufficientEnergyError{Balance: b.Balance, Required: amount}
	}
	b.Balance -= amount
	b.TotalSpent += amount
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memBalanceRepo) ApplyCredit(ctx context.Context, userId uuid.UUID, amount int64, markRecharged bool) (*entity.EnergyBalance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.balances[userId]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	b.Balance += amount
	b.TotalEarned += amount
	now := time.Now()
	if markRecharged {
		b.LastRechargedAt = &now
	}
	b.UpdatedAt = now
	cp := *b
	return &cp, nil
}

type memTxRepo struct{ store *memStore }

func (r *memTxRepo) Append(ctx context.Context, tx *entity.EnergyTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if tx.IdempotencyKey != nil {
		for _, existing := range r.store.txs {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *tx.IdempotencyKey {
				return errors.New("duplicate key value violates unique constraint")
			}
		}
	}
	cp := *tx
	r.store.txs = append(r.store.txs, &cp)
	return nil
}

func (r *memTxRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnergyTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, spec := range specs {
		if byKey, ok := spec.(specification.ByIdempotencyKey); ok {
			for _, tx := range r.store.txs {
				if tx.IdempotencyKey != nil && *tx.IdempotencyKey == byKey.Key {
					cp := *tx
					return &cp, nil
				}
			}
		}
	}
	return nil, nil
}

func (r *memTxRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EnergyTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var userId *uuid.UUID
	var txType string
	var descending bool
	var page *specification.Pagination
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByUserID:
			id := s.UserID
			userId = &id
		case specification.ByTransactionType:
			txType = s.Type
		case specification.OrderBy:
			descending = s.Desc
		case specification.Pagination:
			p := s
			page = &p
		}
	}
	var out []*entity.EnergyTransaction
	for _, tx := range r.store.txs {
		if userId != nil && tx.UserId != *userId {
			continue
		}
		if txType != "" && string(tx.Type) != txType {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	if descending {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	if page != nil {
		if page.Offset >= len(out) {
			return nil, nil
		}
		out = out[page.Offset:]
		if page.Limit > 0 && page.Limit < len(out) {
			out = out[:page.Limit]
		}
	}
	return out, nil
}

func (r *memTxRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	txs, err := r.FindAll(ctx, specs...)
	return int64(len(txs)), err
}

type memPackageRepo struct{ store *memStore }

func (r *memPackageRepo) Create(ctx context.Context, pkg *entity.CreditPackage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *pkg
	r.store.packages[pkg.Id] = &cp
	return nil
}

func (r *memPackageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CreditPackage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			if p, ok := r.store.packages[byId.ID]; ok {
				cp := *p
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *memPackageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditPackage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*entity.CreditPackage, 0, len(r.store.packages))
	for _, p := range r.store.packages {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type memPurchaseRepo struct{ store *memStore }

func (r *memPurchaseRepo) Create(ctx context.Context, purchase *entity.EnergyPurchase) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *purchase
	r.store.purchases[purchase.Id] = &cp
	return nil
}

func (r *memPurchaseRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnergyPurchase, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			if p, ok := r.store.purchases[byId.ID]; ok {
				cp := *p
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *memPurchaseRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failNextStatusUpdate {
		r.store.failNextStatusUpdate = false
		return errors.New("status update failed")
	}
	p, ok := r.store.purchases[id]
	if !ok {
		return errors.New("purchase not found")
	}
	p.PaymentStatus = status
	if status == entity.PaymentStatusPaid {
		now := time.Now()
		p.PaidAt = &now
	}
	p.UpdatedAt = time.Now()
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
