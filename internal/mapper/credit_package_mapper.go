package mapper

import (
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/model"
)

type CreditPackageMapper struct{}

func NewCreditPackageMapper() *CreditPackageMapper {
	return &CreditPackageMapper{}
}

func (m *CreditPackageMapper) ToEntity(p *model.CreditPackage) *entity.CreditPackage {
	if p == nil {
		return nil
	}
	return &entity.CreditPackage{
		Id:           p.Id,
		Name:         p.Name,
		Slug:         p.Slug,
		Credits:      p.Credits,
		BonusCredits: p.BonusCredits,
		Price:        p.Price,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (m *CreditPackageMapper) ToModel(p *entity.CreditPackage) *model.CreditPackage {
	if p == nil {
		return nil
	}
	return &model.CreditPackage{
		Id:           p.Id,
		Name:         p.Name,
		Slug:         p.Slug,
		Credits:      p.Credits,
		BonusCredits: p.BonusCredits,
		Price:        p.Price,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (m *CreditPackageMapper) ToEntities(models []*model.CreditPackage) []*entity.CreditPackage {
	entities := make([]*entity.CreditPackage, 0, len(models))
	for _, p := range models {
		entities = append(entities, m.ToEntity(p))
	}
	return entities
}

type EnergyPurchaseMapper struct{}

func NewEnergyPurchaseMapper() *EnergyPurchaseMapper {
	return &EnergyPurchaseMapper{}
}

func (m *EnergyPurchaseMapper) ToEntity(p *model.EnergyPurchase) *entity.EnergyPurchase {
	if p == nil {
		return nil
	}
	return &entity.EnergyPurchase{
		Id:            p.Id,
		UserId:        p.UserId,
		PackageId:     p.PackageId,
		GrossAmount:   p.GrossAmount,
		PaymentStatus: entity.PaymentStatus(p.PaymentStatus),
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (m *EnergyPurchaseMapper) ToModel(p *entity.EnergyPurchase) *model.EnergyPurchase {
	if p == nil {
		return nil
	}
	return &model.EnergyPurchase{
		Id:            p.Id,
		UserId:        p.UserId,
		PackageId:     p.PackageId,
		GrossAmount:   p.GrossAmount,
		PaymentStatus: string(p.PaymentStatus),
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
