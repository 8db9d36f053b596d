package contract

import (
	"context"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/repository/specification"

	"github.com/google/uuid"
)

type CreditPackageRepository interface {
	Create(ctx context.Context, pkg *entity.CreditPackage) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CreditPackage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditPackage, error)
}

type EnergyPurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.EnergyPurchase) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnergyPurchase, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error
}
