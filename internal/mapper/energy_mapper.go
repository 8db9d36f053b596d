package mapper

import (
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/model"

	"gorm.io/datatypes"
)

type EnergyMapper struct{}

func NewEnergyMapper() *EnergyMapper {
	return &EnergyMapper{}
}

func (m *EnergyMapper) BalanceToEntity(b *model.EnergyBalance) *entity.EnergyBalance {
	if b == nil {
		return nil
	}
	return &entity.EnergyBalance{
		UserId:          b.UserId,
		Balance:         b.Balance,
		TotalEarned:     b.TotalEarned,
		TotalSpent:      b.TotalSpent,
		LastRechargedAt: b.LastRechargedAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (m *EnergyMapper) BalanceToModel(b *entity.EnergyBalance) *model.EnergyBalance {
	if b == nil {
		return nil
	}
	return &model.EnergyBalance{
		UserId:          b.UserId,
		Balance:         b.Balance,
		TotalEarned:     b.TotalEarned,
		TotalSpent:      b.TotalSpent,
		LastRechargedAt: b.LastRechargedAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (m *EnergyMapper) TransactionToEntity(t *model.EnergyTransaction) *entity.EnergyTransaction {
	if t == nil {
		return nil
	}
	return &entity.EnergyTransaction{
		Id:             t.Id,
		UserId:         t.UserId,
		Type:           entity.TransactionType(t.Type),
		Amount:         t.Amount,
		BalanceAfter:   t.BalanceAfter,
		Reason:         t.Reason,
		ToolName:       t.ToolName,
		AdminId:        t.AdminId,
		IdempotencyKey: t.IdempotencyKey,
		Metadata:       t.Metadata,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *EnergyMapper) TransactionToModel(t *entity.EnergyTransaction) *model.EnergyTransaction {
	if t == nil {
		return nil
	}
	return &model.EnergyTransaction{
		Id:             t.Id,
		UserId:         t.UserId,
		Type:           string(t.Type),
		Amount:         t.Amount,
		BalanceAfter:   t.BalanceAfter,
		Reason:         t.Reason,
		ToolName:       t.ToolName,
		AdminId:        t.AdminId,
		IdempotencyKey: t.IdempotencyKey,
		Metadata:       datatypes.JSONMap(t.Metadata),
		CreatedAt:      t.CreatedAt,
	}
}

func (m *EnergyMapper) TransactionsToEntities(models []*model.EnergyTransaction) []*entity.EnergyTransaction {
	entities := make([]*entity.EnergyTransaction, 0, len(models))
	for _, t := range models {
		entities = append(entities, m.TransactionToEntity(t))
	}
	return entities
}
