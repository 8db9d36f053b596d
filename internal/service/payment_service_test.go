package service

import (
	"context"
	"crypto/sha512"
	"fmt"
	"testing"
	"time"

	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/pkg/energy/engine"
	"ai-toolkit-be/pkg/energy/stats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-testkey"

func newPaymentFixture(t *testing.T) (IPaymentService, *memStore, *engine.Engine) {
	t.Helper()
	store := newMemStore()
	factory := &memFactory{store: store}
	eng := engine.New(factory, nopLogger{})
	aggregator := stats.New(factory, 100)

	svc := NewPaymentService(factory, eng, aggregator, nil, nil, nil, PaymentConfig{
		ServerKey: testServerKey,
	}, 100)
	return svc, store, eng
}

func seedPackage(store *memStore, credits, bonus, price int64) *entity.CreditPackage {
	pkg := &entity.CreditPackage{
		Id:           uuid.New(),
		Name:         "Builder Pack",
		Slug:         "builder",
		Credits:      credits,
		BonusCredits: bonus,
		Price:        price,
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	store.packages[pkg.Id] = pkg
	return pkg
}

func seedPurchase(store *memStore, userId, packageId uuid.UUID, gross int64) *entity.EnergyPurchase {
	p := &entity.EnergyPurchase{
		Id:            uuid.New(),
		UserId:        userId,
		PackageId:     packageId,
		GrossAmount:   gross,
		PaymentStatus: entity.PaymentStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	store.purchases[p.Id] = p
	return p
}

func signWebhook(orderId, statusCode, grossAmount string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(orderId+statusCode+grossAmount+testServerKey)))
}

func TestHandleNotificationSettlesPurchase(t *testing.T) {
	svc, store, eng := newPaymentFixture(t)
	userId := seedUser(t, store, eng, "buyer@example.com", entity.UserRoleUser, 5)
	pkg := seedPackage(store, 200, 20, 50000)
	purchase := seedPurchase(store, userId, pkg.Id, pkg.Price)

	req := &dto.MidtransWebhookRequest{
		OrderId:           purchase.Id.String(),
		StatusCode:        "200",
		GrossAmount:       "50000.00",
		TransactionStatus: "settlement",
	}
	req.SignatureKey = signWebhook(req.OrderId, req.StatusCode, req.GrossAmount)

	require.NoError(t, svc.HandleNotification(context.Background(), req))

	assert.Equal(t, entity.PaymentStatusPaid, store.purchases[purchase.Id].PaymentStatus)
	assert.NotNil(t, store.purchases[purchase.Id].PaidAt)

	// 5 + 200 purchase + 20 bonus
	assert.Equal(t, int64(225), store.balances[userId].Balance)
	assert.NotNil(t, store.balances[userId].LastRechargedAt)

	// Two separate ledger entries: the purchase and its bonus.
	var purchaseTx, bonusTx int
	for _, tx := range store.txs {
		switch tx.Type {
		case entity.TransactionTypePurchase:
			purchaseTx++
			assert.Equal(t, int64(200), tx.Amount)
		case entity.TransactionTypeBonus:
			bonusTx++
		}
	}
	assert.Equal(t, 1, purchaseTx)
	assert.Equal(t, 2, bonusTx) // provision allotment + package bonus
}

func TestHandleNotificationReplayDoesNotDoubleCredit(t *testing.T) {
	svc, store, eng := newPaymentFixture(t)
	userId := seedUser(t, store, eng, "buyer@example.com", entity.UserRoleUser, 0)
	pkg := seedPackage(store, 100, 0, 25000)
	purchase := seedPurchase(store, userId, pkg.Id, pkg.Price)

	req := &dto.MidtransWebhookRequest{
		OrderId:           purchase.Id.String(),
		StatusCode:        "200",
		GrossAmount:       "25000.00",
		TransactionStatus: "settlement",
	}
	req.SignatureKey = signWebhook(req.OrderId, req.StatusCode, req.GrossAmount)

	require.NoError(t, svc.HandleNotification(context.Background(), req))
	require.NoError(t, svc.HandleNotification(context.Background(), req))

	assert.Equal(t, int64(100), store.balances[userId].Balance)
}

func TestHandleNotificationRejectsBadSignature(t *testing.T) {
	svc, store, eng := newPaymentFixture(t)
	userId := seedUser(t, store, eng, "buyer@example.com", entity.UserRoleUser, 0)
	pkg := seedPackage(store, 100, 0, 25000)
	purchase := seedPurchase(store, userId, pkg.Id, pkg.Price)

	req := &dto.MidtransWebhookRequest{
		OrderId:           purchase.Id.String(),
		StatusCode:        "200",
		GrossAmount:       "25000.00",
		TransactionStatus: "settlement",
		SignatureKey:      "forged",
	}

	err := svc.HandleNotification(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, entity.PaymentStatusPending, store.purchases[purchase.Id].PaymentStatus)
	assert.Equal(t, int64(0), store.balances[userId].Balance)
}

func TestHandleNotificationFailureStatuses(t *testing.T) {
	svc, store, eng := newPaymentFixture(t)
	userId := seedUser(t, store, eng, "buyer@example.com", entity.UserRoleUser, 0)
	pkg := seedPackage(store, 100, 0, 25000)

	cases := []struct {
		gatewayStatus string
		want          entity.PaymentStatus
	}{
		{"deny", entity.PaymentStatusFailed},
		{"cancel", entity.PaymentStatusFailed},
		{"expire", entity.PaymentStatusExpired},
	}

	for _, tc := range cases {
		purchase := seedPurchase(store, userId, pkg.Id, pkg.Price)
		req := &dto.MidtransWebhookRequest{
			OrderId:           purchase.Id.String(),
			StatusCode:        "202",
			GrossAmount:       "25000.00",
			TransactionStatus: tc.gatewayStatus,
		}
		req.SignatureKey = signWebhook(req.OrderId, req.StatusCode, req.GrossAmount)

		require.NoError(t, svc.HandleNotification(context.Background(), req))
		assert.Equal(t, tc.want, store.purchases[purchase.Id].PaymentStatus, "status %s", tc.gatewayStatus)
	}

	// No credit on any failure path.
	assert.Equal(t, int64(0), store.balances[userId].Balance)
}

func TestGetPurchaseStatusScopedToOwner(t *testing.T) {
	svc, store, eng := newPaymentFixture(t)
	userId := seedUser(t, store, eng, "buyer@example.com", entity.UserRoleUser, 0)
	otherId := seedUser(t, store, eng, "other@example.com", entity.UserRoleUser, 0)
	pkg := seedPackage(store, 100, 0, 25000)
	purchase := seedPurchase(store, userId, pkg.Id, pkg.Price)

	res, err := svc.GetPurchaseStatus(context.Background(), userId, purchase.Id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.PaymentStatusPending), res.PaymentStatus)

	_, err = svc.GetPurchaseStatus(context.Background(), otherId, purchase.Id)
	assert.Error(t, err)
}

func TestHandleNotificationRetryAfterStatusFailure(t *testing.T) {
	svc, store, eng := newPaymentFixture(t)
	userId := seedUser(t, store, eng, "buyer@example.com", entity.UserRoleUser, 5)
	pkg := seedPackage(store, 200, 20, 50000)
	purchase := seedPurchase(store, userId, pkg.Id, pkg.Price)

	req := &dto.MidtransWebhookRequest{
		OrderId:           purchase.Id.String(),
		StatusCode:        "200",
		GrossAmount:       "50000.00",
		TransactionStatus: "settlement",
	}
	req.SignatureKey = signWebhook(req.OrderId, req.StatusCode, req.GrossAmount)

	// The credits commit but the paid flip fails: the purchase must stay
	// pending so the gateway retry can finish the settlement.
	store.failNextStatusUpdate = true
	require.Error(t, svc.HandleNotification(context.Background(), req))
	assert.Equal(t, entity.PaymentStatusPending, store.purchases[purchase.Id].PaymentStatus)

	require.NoError(t, svc.HandleNotification(context.Background(), req))
	assert.Equal(t, entity.PaymentStatusPaid, store.purchases[purchase.Id].PaymentStatus)

	// Credited exactly once across both deliveries.
	assert.Equal(t, int64(225), store.balances[userId].Balance)
	var purchaseTx int
	for _, tx := range store.txs {
		if tx.Type == entity.TransactionTypePurchase {
			purchaseTx++
		}
	}
	assert.Equal(t, 1, purchaseTx)
}
