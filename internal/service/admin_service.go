package service

import (
	"context"
	"fmt"
	"time"

	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/repository/specification"
	"ai-toolkit-be/internal/repository/unitofwork"
	"ai-toolkit-be/internal/websocket"
	"ai-toolkit-be/pkg/energy/engine"
	"ai-toolkit-be/pkg/energy/guard"
	"ai-toolkit-be/pkg/energy/stats"
	"ai-toolkit-be/pkg/events"
	pktNats "ai-toolkit-be/pkg/nats"

	"github.com/google/uuid"
)

type IAdminService interface {
	GrantEnergy(ctx context.Context, adminId uuid.UUID, adminRole entity.UserRole, req *dto.GrantRequest) (*dto.GrantResponse, error)
	ListTransactions(ctx context.Context, filter *dto.TransactionFilterRequest) (*dto.TransactionPageResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]*dto.UserListResponse, error)
	GetUserEnergy(ctx context.Context, userId uuid.UUID) (*dto.EnergyStatsResponse, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserListResponse, error)
	UpdateUserRole(ctx context.Context, callerId uuid.UUID, targetId uuid.UUID, req *dto.UpdateUserRoleRequest) error
	DeleteUser(ctx context.Context, callerId uuid.UUID, targetId uuid.UUID) error
}

type adminService struct {
	uowFactory        unitofwork.RepositoryFactory
	engine            *engine.Engine
	guard             *guard.Guard
	aggregator        *stats.Aggregator
	eventPublisher    *pktNats.Publisher
	hub               *websocket.Hub
	startingAllotment int64
	referenceCap      int64
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	eng *engine.Engine,
	grd *guard.Guard,
	aggregator *stats.Aggregator,
	eventPublisher *pktNats.Publisher,
	hub *websocket.Hub,
	startingAllotment int64,
	referenceCap int64,
) IAdminService {
	return &adminService{
		uowFactory:        uowFactory,
		engine:            eng,
		guard:             grd,
		aggregator:        aggregator,
		eventPublisher:    eventPublisher,
		hub:               hub,
		startingAllotment: startingAllotment,
		referenceCap:      referenceCap,
	}
}

// GrantEnergy credits a user by administrative decision. The role check
// runs here as well as in the route middleware, so the policy holds even
// if a future caller bypasses HTTP.
func (s *adminService) GrantEnergy(ctx context.Context, adminId uuid.UUID, adminRole entity.UserRole, req *dto.GrantRequest) (*dto.GrantResponse, error) {
	if !s.guard.CanGrant(adminRole) {
		return nil, entity.ErrForbidden
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	target, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: req.TargetUserId})
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, entity.ErrUserNotFound
	}
	if !s.guard.CanMutateProtected(target.Email) {
		return nil, entity.ErrProtectedAccount
	}

	result, err := s.engine.Credit(ctx, engine.CreditParams{
		UserId:  req.TargetUserId,
		Amount:  req.Amount,
		Type:    entity.TransactionTypeGrant,
		Reason:  req.Reason,
		AdminId: &adminId,
	})
	if err != nil {
		return nil, err
	}

	s.aggregator.Invalidate(req.TargetUserId)

	if s.hub != nil {
		s.hub.SendBalanceUpdate(websocket.BalanceUpdate{
			UserId:              req.TargetUserId,
			Balance:             result.NewBalance,
			Delta:               result.Amount,
			TransactionType:     string(entity.TransactionTypeGrant),
			PercentageRemaining: stats.Percentage(result.NewBalance, s.referenceCap),
		})
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeEnergyGranted,
			Data: map[string]interface{}{
				"user_id":     req.TargetUserId,
				"admin_id":    adminId,
				"amount":      result.Amount,
				"new_balance": result.NewBalance,
				"reason":      req.Reason,
				"occurred_at": time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeEnergyGranted, err)
		}
	}

	return &dto.GrantResponse{
		TransactionId: result.TransactionId,
		Amount:        result.Amount,
		NewBalance:    result.NewBalance,
	}, nil
}

func (s *adminService) ListTransactions(ctx context.Context, filter *dto.TransactionFilterRequest) (*dto.TransactionPageResponse, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var specs []specification.Specification
	if filter.UserId != nil {
		specs = append(specs, specification.ByUserID{UserID: *filter.UserId})
	}
	if filter.Type != "" {
		if !entity.TransactionType(filter.Type).Valid() {
			return nil, entity.ErrInvalidTxType
		}
		specs = append(specs, specification.ByTransactionType{Type: filter.Type})
	}
	if filter.From != nil || filter.To != nil {
		between := specification.CreatedBetween{}
		if filter.From != nil {
			between.From = *filter.From
		}
		if filter.To != nil {
			between.To = *filter.To
		}
		specs = append(specs, between)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	total, err := uow.EnergyTransactionRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	listSpecs := append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	txs, err := uow.EnergyTransactionRepository().FindAll(ctx, listSpecs...)
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

func (s *adminService) ListUsers(ctx context.Context, page, limit int) ([]*dto.UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	users, err := uow.UserRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.UserListResponse, 0, len(users))
	for _, u := range users {
		item := &dto.UserListResponse{
			Id:        u.Id,
			Email:     u.Email,
			FullName:  u.FullName,
			Role:      string(u.Role),
			Status:    string(u.Status),
			CreatedAt: u.CreatedAt,
		}
		balance, err := uow.EnergyBalanceRepository().FindByUserId(ctx, u.Id)
		if err != nil {
			return nil, err
		}
		if balance != nil {
			item.Balance = balance.Balance
		}
		res = append(res, item)
	}
	return res, nil
}

func (s *adminService) GetUserEnergy(ctx context.Context, userId uuid.UUID) (*dto.EnergyStatsResponse, error) {
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

// CreateUser registers an account and provisions its energy balance with
// the starting allotment in the same call.
func (s *adminService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("email %s already registered", req.Email)
	}

	role := entity.UserRoleUser
	if req.Role == string(entity.UserRoleAdmin) {
		role = entity.UserRoleAdmin
	}

	now := time.Now()
	user := &entity.User{
		Id:        uuid.New(),
		Email:     req.Email,
		FullName:  req.FullName,
		Role:      role,
		Status:    entity.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	result, err := s.engine.Provision(ctx, user.Id, s.startingAllotment)
	if err != nil {
		// Roll the user row back so a failed provision never strands an
		// account without a balance.
		if delErr := uow.UserRepository().Delete(ctx, user.Id); delErr != nil {
			fmt.Printf("[ERROR] Failed to remove user %s after provision failure: %v\n", user.Id, delErr)
		}
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeUserProvisioned,
			Data: map[string]interface{}{
				"user_id":     user.Id,
				"email":       user.Email,
				"allotment":   s.startingAllotment,
				"occurred_at": time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeUserProvisioned, err)
		}
	}

	return &dto.UserListResponse{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		Status:    string(user.Status),
		Balance:   result.NewBalance,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *adminService) UpdateUserRole(ctx context.Context, callerId uuid.UUID, targetId uuid.UUID, req *dto.UpdateUserRoleRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	target, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: targetId})
	if err != nil {
		return err
	}
	if target == nil {
		return entity.ErrUserNotFound
	}
	if !s.guard.CanMutateProtected(target.Email) {
		return entity.ErrProtectedAccount
	}

	requested := entity.UserRole(req.Role)
	if !s.guard.CanSelfModifyPrivilege(callerId, targetId, target.Role, requested) {
		return entity.ErrSelfDemotion
	}

	return uow.UserRepository().UpdateRole(ctx, targetId, requested)
}

// DeleteUser removes the account and its balance row together. The
// transaction log keeps its rows for audit.
func (s *adminService) DeleteUser(ctx context.Context, callerId uuid.UUID, targetId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	target, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: targetId})
	if err != nil {
		return err
	}
	if target == nil {
		return entity.ErrUserNotFound
	}
	if !s.guard.CanMutateProtected(target.Email) {
		return entity.ErrProtectedAccount
	}
	if callerId == targetId {
		return entity.ErrForbidden
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.EnergyBalanceRepository().Delete(ctx, targetId); err != nil {
		return err
	}
	if err := uow.UserRepository().Delete(ctx, targetId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.aggregator.Invalidate(targetId)
	return nil
}
