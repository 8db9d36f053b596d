package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/repository/specification"
	"ai-toolkit-be/internal/repository/unitofwork"
	"ai-toolkit-be/internal/websocket"
	"ai-toolkit-be/pkg/energy/catalog"
	"ai-toolkit-be/pkg/energy/engine"
	"ai-toolkit-be/pkg/energy/guard"
	"ai-toolkit-be/pkg/energy/stats"
	"ai-toolkit-be/pkg/events"
	pktNats "ai-toolkit-be/pkg/nats"

	"github.com/google/uuid"
)

type IEnergyService interface {
	GetStats(ctx context.Context, userId uuid.UUID) (*dto.EnergyStatsResponse, error)
	Debit(ctx context.Context, callerId uuid.UUID, req *dto.DebitRequest) (*dto.DebitResponse, error)
	GetTransactions(ctx context.Context, userId uuid.UUID, page, limit int) (*dto.TransactionPageResponse, error)
	GetTools(ctx context.Context) []*dto.ToolResponse
}

type energyService struct {
	uowFactory       unitofwork.RepositoryFactory
	engine           *engine.Engine
	guard            *guard.Guard
	catalog          *catalog.Catalog
	aggregator       *stats.Aggregator
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	hub              *websocket.Hub
	referenceCap     int64
}

func NewEnergyService(
	uowFactory unitofwork.RepositoryFactory,
	eng *engine.Engine,
	grd *guard.Guard,
	cat *catalog.Catalog,
	aggregator *stats.Aggregator,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	hub *websocket.Hub,
	referenceCap int64,
) IEnergyService {
	return &energyService{
		uowFactory:       uowFactory,
		engine:           eng,
		guard:            grd,
		catalog:          cat,
		aggregator:       aggregator,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		hub:              hub,
		referenceCap:     referenceCap,
	}
}

func (s *energyService) GetStats(ctx context.Context, userId uuid.UUID) (*dto.EnergyStatsResponse, error) {
	st, err := s.aggregator.GetStats(ctx, userId)
	if err != nil {
		return nil, err
	}

	return &dto.EnergyStatsResponse{
		UserId:              st.UserId,
		Balance:             st.Balance,
		TotalEarned:         st.TotalEarned,
		TotalSpent:          st.TotalSpent,
		PercentageRemaining: st.PercentageRemaining,
		LastRechargedAt:     st.LastRechargedAt,
	}, nil
}

func (s *energyService) Debit(ctx context.Context, callerId uuid.UUID, req *dto.DebitRequest) (*dto.DebitResponse, error) {
	if !s.guard.CanDebit(callerId, req.UserId) {
		return nil, entity.ErrForbidden
	}

	cost, err := s.catalog.Cost(req.ToolName)
	if err != nil {
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = fmt.Sprintf("Used %s", req.ToolName)
	}

	result, err := s.engine.Debit(ctx, engine.DebitParams{
		UserId:         req.UserId,
		Amount:         cost,
		ToolName:       req.ToolName,
		Reason:         reason,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	if !result.Duplicate {
		s.aggregator.Invalidate(req.UserId)
		s.notifyDebit(ctx, req.UserId, req.ToolName, cost, result.NewBalance)
	}

	return &dto.DebitResponse{
		TransactionId: result.TransactionId,
		Amount:        result.Amount,
		NewBalance:    result.NewBalance,
		Duplicate:     result.Duplicate,
	}, nil
}

// notifyDebit fans the committed debit out to live clients, the internal
// bus and the external event stream. All best effort: the debit is
// already committed and none of these may undo it.
func (s *energyService) notifyDebit(ctx context.Context, userId uuid.UUID, toolName string, amount, newBalance int64) {
	if s.hub != nil {
		s.hub.SendBalanceUpdate(websocket.BalanceUpdate{
			UserId:              userId,
			Balance:             newBalance,
			Delta:               -amount,
			TransactionType:     string(entity.TransactionTypeUsage),
			PercentageRemaining: stats.Percentage(newBalance, s.referenceCap),
		})
	}

	if s.publisherService != nil {
		payload, err := json.Marshal(dto.PublishEnergyDebitedMessage{
			UserId:     userId,
			NewBalance: newBalance,
			Amount:     amount,
			ToolName:   toolName,
		})
		if err == nil {
			if err := s.publisherService.Publish(ctx, payload); err != nil {
				fmt.Printf("[WARN] Failed to publish debit message: %v\n", err)
			}
		}
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeEnergyDebited,
			Data: map[string]interface{}{
				"user_id":     userId,
				"tool_name":   toolName,
				"amount":      amount,
				"new_balance": newBalance,
				"occurred_at": time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeEnergyDebited, err)
		}
	}
}

func (s *energyService) GetTransactions(ctx context.Context, userId uuid.UUID, page, limit int) (*dto.TransactionPageResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	total, err := uow.EnergyTransactionRepository().Count(ctx, specification.ByUserID{UserID: userId})
	if err != nil {
		return nil, err
	}

	txs, err := uow.EnergyTransactionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	if err != nil {
		return nil, err
	}

	return &dto.TransactionPageResponse{
		Transactions: toTransactionResponses(txs),
		Total:        total,
		Page:         page,
		Limit:        limit,
	}, nil
}

func (s *energyService) GetTools(ctx context.Context) []*dto.ToolResponse {
	tools := s.catalog.List()
	res := make([]*dto.ToolResponse, 0, len(tools))
	for _, t := range tools {
		res = append(res, &dto.ToolResponse{
			Name:        t.Name,
			DisplayName: t.DisplayName,
			Cost:        t.Cost,
		})
	}
	return res
}

func toTransactionResponses(txs []*entity.EnergyTransaction) []*dto.TransactionResponse {
	res := make([]*dto.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		res = append(res, &dto.TransactionResponse{
			Id:           tx.Id,
			UserId:       tx.UserId,
			Type:         string(tx.Type),
			Amount:       tx.Amount,
			BalanceAfter: tx.BalanceAfter,
			Reason:       tx.Reason,
			ToolName:     tx.ToolName,
			AdminId:      tx.AdminId,
			CreatedAt:    tx.CreatedAt,
		})
	}
	return res
}
