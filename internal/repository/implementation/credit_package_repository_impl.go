package implementation

import (
	"context"
	"errors"
	"time"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/mapper"
	"ai-toolkit-be/internal/model"
	"ai-toolkit-be/internal/repository/contract"
	"ai-toolkit-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreditPackageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CreditPackageMapper
}

func NewCreditPackageRepository(db *gorm.DB) contract.CreditPackageRepository {
	return &CreditPackageRepositoryImpl{
		db:     db,
		mapper: mapper.NewCreditPackageMapper(),
	}
}

func (r *CreditPackageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CreditPackageRepositoryImpl) Create(ctx context.Context, pkg *entity.CreditPackage) error {
	modelPkg := r.mapper.ToModel(pkg)
	if err := r.db.WithContext(ctx).Create(modelPkg).Error; err != nil {
		return err
	}
	*pkg = *r.mapper.ToEntity(modelPkg)
	return nil
}

func (r *CreditPackageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CreditPackage, error) {
	var modelPkg model.CreditPackage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelPkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelPkg), nil
}

func (r *CreditPackageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditPackage, error) {
	var modelPkgs []*model.CreditPackage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&modelPkgs).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(modelPkgs), nil
}

type EnergyPurchaseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EnergyPurchaseMapper
}

func NewEnergyPurchaseRepository(db *gorm.DB) contract.EnergyPurchaseRepository {
	return &EnergyPurchaseRepositoryImpl{
		db:     db,
		mapper: mapper.NewEnergyPurchaseMapper(),
	}
}

func (r *EnergyPurchaseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EnergyPurchaseRepositoryImpl) Create(ctx context.Context, purchase *entity.EnergyPurchase) error {
	modelPurchase := r.mapper.ToModel(purchase)
	if err := r.db.WithContext(ctx).Create(modelPurchase).Error; err != nil {
		return err
	}
	*purchase = *r.mapper.ToEntity(modelPurchase)
	return nil
}

func (r *EnergyPurchaseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnergyPurchase, error) {
	var modelPurchase model.EnergyPurchase
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelPurchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelPurchase), nil
}

func (r *EnergyPurchaseRepositoryImpl) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	updates := map[string]interface{}{
		"payment_status": string(status),
		"updated_at":     time.Now(),
	}
	if status == entity.PaymentStatusPaid {
		updates["paid_at"] = time.Now()
	}
	return r.db.WithContext(ctx).Model(&model.EnergyPurchase{}).
		Where("id = ?", id).
		Updates(updates).Error
}
