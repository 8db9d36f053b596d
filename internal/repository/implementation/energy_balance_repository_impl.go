package implementation

import (
	"context"
	"errors"
	"math"
	"time"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/mapper"
	"ai-toolkit-be/internal/model"
	"ai-toolkit-be/internal/repository/contract"
	"ai-toolkit-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnergyBalanceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EnergyMapper
}

func NewEnergyBalanceRepository(db *gorm.DB) contract.EnergyBalanceRepository {
	return &EnergyBalanceRepositoryImpl{
		db:     db,
		mapper: mapper.NewEnergyMapper(),
	}
}

func (r *EnergyBalanceRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EnergyBalanceRepositoryImpl) Create(ctx context.Context, balance *entity.EnergyBalance) error {
	modelBalance := r.mapper.BalanceToModel(balance)
	if err := r.db.WithContext(ctx).Create(modelBalance).Error; err != nil {
		return err
	}
	*balance = *r.mapper.BalanceToEntity(modelBalance)
	return nil
}

func (r *EnergyBalanceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnergyBalance, error) {
	var modelBalance model.EnergyBalance
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelBalance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.BalanceToEntity(&modelBalance), nil
}

func (r *EnergyBalanceRepositoryImpl) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.EnergyBalance, error) {
	return r.FindOne(ctx, specification.ByUserID{UserID: userId})
}

func (r *EnergyBalanceRepositoryImpl) Delete(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.EnergyBalance{}).Error
}

// ApplyDebit runs the insufficient-funds guard inside a single UPDATE.
// Two concurrent debits against the same row serialize on the row lock;
// the second sees the post-first balance in its WHERE evaluation, so a
// stale application-level read can never double-spend.
func (r *EnergyBalanceRepositoryImpl) ApplyDebit(ctx context.Context, userId uuid.UUID, amount int64) (*entity.EnergyBalance, error) {
	res := r.db.WithContext(ctx).Model(&model.EnergyBalance{}).
		Where("user_id = ? AND balance >= ?", userId, amount).
		Updates(map[string]interface{}{
			"balance":     gorm.Expr("balance - ?", amount),
			"total_spent": gorm.Expr("total_spent + ?", amount),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Guard failed: distinguish a missing account from a short balance.
		current, err := r.FindByUserId(ctx, userId)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, entity.ErrUserNotFound
		}
		return nil, &entity.InsufficientEnergyError{Balance: current.Balance, Required: amount}
	}

	return r.reload(ctx, userId)
}

func (r *EnergyBalanceRepositoryImpl) ApplyCredit(ctx context.Context, userId uuid.UUID, amount int64, markRecharged bool) (*entity.EnergyBalance, error) {
	updates := map[string]interface{}{
		"balance":      gorm.Expr("balance + ?", amount),
		"total_earned": gorm.Expr("total_earned + ?", amount),
		"updated_at":   time.Now(),
	}
	if markRecharged {
		updates["last_recharged_at"] = time.Now()
	}

	res := r.db.WithContext(ctx).Model(&model.EnergyBalance{}).
		Where("user_id = ? AND balance <= ?", userId, math.MaxInt64-amount).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		current, err := r.FindByUserId(ctx, userId)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, entity.ErrUserNotFound
		}
		// Only the overflow guard can fail for an existing row. Treated as a
		// fatal configuration error, never silently wrapped.
		return nil, entity.ErrBalanceOverflow
	}

	return r.reload(ctx, userId)
}

// reload reads the post-mutation row. Inside a unit of work this reads the
// transaction's own write, so BalanceAfter snapshots are exact.
func (r *EnergyBalanceRepositoryImpl) reload(ctx context.Context, userId uuid.UUID) (*entity.EnergyBalance, error) {
	balance, err := r.FindByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, entity.ErrUserNotFound
	}
	return balance, nil
}
