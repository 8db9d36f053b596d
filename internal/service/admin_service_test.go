package service

import (
	"context"
	"testing"
	"time"

	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/pkg/energy/engine"
	"ai-toolkit-be/pkg/energy/guard"
	"ai-toolkit-be/pkg/energy/stats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const protectedEmail = "owner@ai-toolkit.app"

func newAdminFixture(t *testing.T) (IAdminService, *memStore, *engine.Engine) {
	t.Helper()
	store := newMemStore()
	factory := &memFactory{store: store}
	eng := engine.New(factory, nopLogger{})
	grd := guard.New(guard.Config{ProtectedEmails: []string{protectedEmail}})
	aggregator := stats.New(factory, 100)

	svc := NewAdminService(factory, eng, grd, aggregator, nil, nil, 100, 100)
	return svc, store, eng
}

func seedUser(t *testing.T, store *memStore, eng *engine.Engine, email string, role entity.UserRole, balance int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now()
	store.users[id] = &entity.User{
		Id:        id,
		Email:     email,
		FullName:  "Test User",
		Role:      role,
		Status:    entity.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := eng.Provision(context.Background(), id, balance)
	require.NoError(t, err)
	return id
}

func TestGrantEnergyHappyPath(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	adminId := seedUser(t, store, eng, "admin@example.com", entity.UserRoleAdmin, 0)
	targetId := seedUser(t, store, eng, "user@example.com", entity.UserRoleUser, 5)

	res, err := svc.GrantEnergy(context.Background(), adminId, entity.UserRoleAdmin, &dto.GrantRequest{
		TargetUserId: targetId,
		Amount:       50,
		Reason:       "beta tester compensation",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(55), res.NewBalance)
	assert.Equal(t, int64(55), store.balances[targetId].Balance)
	assert.NotNil(t, store.balances[targetId].LastRechargedAt)

	// The grant transaction carries the acting admin.
	last := store.txs[len(store.txs)-1]
	assert.Equal(t, entity.TransactionTypeGrant, last.Type)
	require.NotNil(t, last.AdminId)
	assert.Equal(t, adminId, *last.AdminId)
}

func TestGrantEnergyForbiddenForNonAdmin(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	callerId := seedUser(t, store, eng, "user1@example.com", entity.UserRoleUser, 0)
	targetId := seedUser(t, store, eng, "user2@example.com", entity.UserRoleUser, 5)
	txCountBefore := len(store.txs)

	_, err := svc.GrantEnergy(context.Background(), callerId, entity.UserRoleUser, &dto.GrantRequest{
		TargetUserId: targetId,
		Amount:       50,
		Reason:       "nice try",
	})
	assert.ErrorIs(t, err, entity.ErrForbidden)

	// No state change.
	assert.Equal(t, int64(5), store.balances[targetId].Balance)
	assert.Len(t, store.txs, txCountBefore)
}

func TestGrantEnergyRejectsProtectedAccount(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	adminId := seedUser(t, store, eng, "admin@example.com", entity.UserRoleAdmin, 0)
	ownerId := seedUser(t, store, eng, protectedEmail, entity.UserRoleAdmin, 100)

	_, err := svc.GrantEnergy(context.Background(), adminId, entity.UserRoleAdmin, &dto.GrantRequest{
		TargetUserId: ownerId,
		Amount:       50,
		Reason:       "should not land",
	})
	assert.ErrorIs(t, err, entity.ErrProtectedAccount)
	assert.Equal(t, int64(100), store.balances[ownerId].Balance)
}

func TestGrantEnergyUnknownTarget(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	adminId := seedUser(t, store, eng, "admin@example.com", entity.UserRoleAdmin, 0)

	_, err := svc.GrantEnergy(context.Background(), adminId, entity.UserRoleAdmin, &dto.GrantRequest{
		TargetUserId: uuid.New(),
		Amount:       10,
		Reason:       "ghost",
	})
	assert.ErrorIs(t, err, entity.ErrUserNotFound)
}

func TestUpdateUserRoleSelfDemotionBlocked(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	adminId := seedUser(t, store, eng, "admin@example.com", entity.UserRoleAdmin, 0)

	err := svc.UpdateUserRole(context.Background(), adminId, adminId, &dto.UpdateUserRoleRequest{Role: "user"})
	assert.ErrorIs(t, err, entity.ErrSelfDemotion)
	assert.Equal(t, entity.UserRoleAdmin, store.users[adminId].Role)
}

func TestUpdateUserRolePromotesOther(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	adminId := seedUser(t, store, eng, "admin@example.com", entity.UserRoleAdmin, 0)
	targetId := seedUser(t, store, eng, "user@example.com", entity.UserRoleUser, 0)

	err := svc.UpdateUserRole(context.Background(), adminId, targetId, &dto.UpdateUserRoleRequest{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, entity.UserRoleAdmin, store.users[targetId].Role)
}

func TestUpdateUserRoleProtectedAccount(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	adminId := seedUser(t, store, eng, "admin@example.com", entity.UserRoleAdmin, 0)
	ownerId := seedUser(t, store, eng, protectedEmail, entity.UserRoleAdmin, 0)

	err := svc.UpdateUserRole(context.Background(), adminId, ownerId, &dto.UpdateUserRoleRequest{Role: "user"})
	assert.ErrorIs(t, err, entity.ErrProtectedAccount)
	assert.Equal(t, entity.UserRoleAdmin, store.users[ownerId].Role)
}

func TestDeleteUserProtectedAndSelf(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	adminId := seedUser(t, store, eng, "admin@example.com", entity.UserRoleAdmin, 0)
	ownerId := seedUser(t, store, eng, protectedEmail, entity.UserRoleAdmin, 0)

	err := svc.DeleteUser(context.Background(), adminId, ownerId)
	assert.ErrorIs(t, err, entity.ErrProtectedAccount)

	err = svc.DeleteUser(context.Background(), adminId, adminId)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	assert.Contains(t, store.users, ownerId)
	assert.Contains(t, store.users, adminId)
}

func TestDeleteUserRemovesBalance(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	adminId := seedUser(t, store, eng, "admin@example.com", entity.UserRoleAdmin, 0)
	targetId := seedUser(t, store, eng, "user@example.com", entity.UserRoleUser, 10)

	err := svc.DeleteUser(context.Background(), adminId, targetId)
	require.NoError(t, err)
	assert.NotContains(t, store.users, targetId)
	assert.NotContains(t, store.balances, targetId)
}

func TestCreateUserProvisionsAllotment(t *testing.T) {
	svc, store, _ := newAdminFixture(t)

	res, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Email:    "fresh@example.com",
		FullName: "Fresh User",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Balance)
	assert.Equal(t, "user", res.Role)

	b := store.balances[res.Id]
	require.NotNil(t, b)
	assert.Equal(t, int64(100), b.Balance)
	assert.Equal(t, b.Balance, b.TotalEarned-b.TotalSpent)

	// The starting allotment is in the log, so replay reconciles.
	require.Len(t, store.txs, 1)
	assert.Equal(t, entity.TransactionTypeBonus, store.txs[0].Type)

	// Duplicate email is refused.
	_, err = svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Email:    "fresh@example.com",
		FullName: "Impostor",
	})
	assert.Error(t, err)
}

func TestCreateUserRolledBackWhenProvisionFails(t *testing.T) {
	svc, store, _ := newAdminFixture(t)
	store.failNextBalanceCreate = true

	_, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Email:    "unlucky@example.com",
		FullName: "Unlucky User",
	})
	require.Error(t, err)

	// No half-created account: the user row is removed when the balance
	// cannot be provisioned, so the email stays free for a retry.
	assert.Empty(t, store.users)
	assert.Empty(t, store.balances)

	_, err = svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Email:    "unlucky@example.com",
		FullName: "Unlucky User",
	})
	require.NoError(t, err)
}

func TestListTransactionsFiltersByType(t *testing.T) {
	svc, store, eng := newAdminFixture(t)
	adminId := seedUser(t, store, eng, "admin@example.com", entity.UserRoleAdmin, 0)
	targetId := seedUser(t, store, eng, "user@example.com", entity.UserRoleUser, 50)

	_, err := svc.GrantEnergy(context.Background(), adminId, entity.UserRoleAdmin, &dto.GrantRequest{
		TargetUserId: targetId,
		Amount:       25,
		Reason:       "promo",
	})
	require.NoError(t, err)

	res, err := svc.ListTransactions(context.Background(), &dto.TransactionFilterRequest{
		Type: string(entity.TransactionTypeGrant),
	})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, string(entity.TransactionTypeGrant), res.Transactions[0].Type)
	assert.Equal(t, int64(1), res.Total)
}

func TestListTransactionsRejectsUnknownType(t *testing.T) {
	svc, _, _ := newAdminFixture(t)

	_, err := svc.ListTransactions(context.Background(), &dto.TransactionFilterRequest{
		Type: "teleport",
	})
	assert.ErrorIs(t, err, entity.ErrInvalidTxType)
}
