package stats

import (
	"context"
	"time"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Aggregator derives display metrics from the ledger store. It never
// mutates anything; a short-lived cache means a snapshot can trail the
// balance by a few seconds, which is fine for a display metric and never
// used for debit decisions.
type Aggregator struct {
	uowFactory   unitofwork.RepositoryFactory
	referenceCap int64
	cache        *gocache.Cache
}

const cacheTTL = 5 * time.Second

// New creates an aggregator. referenceCap is the nominal "full tank" used
// for percentage_remaining; it is a presentation constant, not a stored cap.
func New(uowFactory unitofwork.RepositoryFactory, referenceCap int64) *Aggregator {
	return &Aggregator{
		uowFactory:   uowFactory,
		referenceCap: referenceCap,
		cache:        gocache.New(cacheTTL, time.Minute),
	}
}

func (a *Aggregator) GetStats(ctx context.Context, userId uuid.UUID) (*entity.EnergyStats, error) {
	if cached, ok := a.cache.Get(userId.String()); ok {
		return cached.(*entity.EnergyStats), nil
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	balance, err := uow.EnergyBalanceRepository().FindByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, entity.ErrUserNotFound
	}

	stats := &entity.EnergyStats{
		UserId:              balance.UserId,
		Balance:             balance.Balance,
		TotalEarned:         balance.TotalEarned,
		TotalSpent:          balance.TotalSpent,
		PercentageRemaining: Percentage(balance.Balance, a.referenceCap),
		LastRechargedAt:     balance.LastRechargedAt,
	}

	a.cache.Set(userId.String(), stats, cacheTTL)
	return stats, nil
}

// Invalidate drops the cached snapshot so the next read reflects a fresh
// mutation immediately.
func (a *Aggregator) Invalidate(userId uuid.UUID) {
	a.cache.Delete(userId.String())
}

// Percentage computes balance relative to the reference cap. Not clamped:
// a freshly topped-up account can legitimately sit above 100%.
func Percentage(balance, referenceCap int64) float64 {
	if referenceCap <= 0 {
		return 0
	}
	return float64(balance) / float64(referenceCap) * 100
}
