package implementation

import (
	"context"
	"errors"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/mapper"
	"ai-toolkit-be/internal/model"
	"ai-toolkit-be/internal/repository/contract"
	"ai-toolkit-be/internal/repository/specification"

	"gorm.io/gorm"
)

type EnergyTransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EnergyMapper
}

func NewEnergyTransactionRepository(db *gorm.DB) contract.EnergyTransactionRepository {
	return &EnergyTransactionRepositoryImpl{
		db:     db,
		mapper: mapper.NewEnergyMapper(),
	}
}

func (r *EnergyTransactionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Append is the only write path. There is no Update or Delete on this
// repository; the log is immutable once committed.
func (r *EnergyTransactionRepositoryImpl) Append(ctx context.Context, tx *entity.EnergyTransaction) error {
	modelTx := r.mapper.TransactionToModel(tx)
	if err := r.db.WithContext(ctx).Create(modelTx).Error; err != nil {
		return err
	}
	*tx = *r.mapper.TransactionToEntity(modelTx)
	return nil
}

func (r *EnergyTransactionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnergyTransaction, error) {
	var modelTx model.EnergyTransaction
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelTx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.TransactionToEntity(&modelTx), nil
}

func (r *EnergyTransactionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EnergyTransaction, error) {
	var modelTxs []*model.EnergyTransaction
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&modelTxs).Error; err != nil {
		return nil, err
	}

	return r.mapper.TransactionsToEntities(modelTxs), nil
}

func (r *EnergyTransactionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.EnergyTransaction{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
