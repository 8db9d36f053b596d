package service

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"time"

	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/pkg/mailer"
	"ai-toolkit-be/internal/repository/specification"
	"ai-toolkit-be/internal/repository/unitofwork"
	"ai-toolkit-be/internal/websocket"
	"ai-toolkit-be/pkg/energy/engine"
	"ai-toolkit-be/pkg/energy/stats"
	"ai-toolkit-be/pkg/events"
	pktNats "ai-toolkit-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

type IPaymentService interface {
	GetPackages(ctx context.Context) ([]*dto.CreditPackageResponse, error)
	Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
	GetPurchaseStatus(ctx context.Context, userId uuid.UUID, orderId uuid.UUID) (*dto.PurchaseStatusResponse, error)
}

type PaymentConfig struct {
	ServerKey    string
	IsProduction bool
	FrontendURL  string
}

type paymentService struct {
	uowFactory     unitofwork.RepositoryFactory
	engine         *engine.Engine
	aggregator     *stats.Aggregator
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	hub            *websocket.Hub
	cfg            PaymentConfig
	referenceCap   int64
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	eng *engine.Engine,
	aggregator *stats.Aggregator,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	hub *websocket.Hub,
	cfg PaymentConfig,
	referenceCap int64,
) IPaymentService {
	return &paymentService{
		uowFactory:     uowFactory,
		engine:         eng,
		aggregator:     aggregator,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		hub:            hub,
		cfg:            cfg,
		referenceCap:   referenceCap,
	}
}

func (s *paymentService) GetPackages(ctx context.Context) ([]*dto.CreditPackageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	pkgs, err := uow.CreditPackageRepository().FindAll(ctx,
		specification.ActivePackages{},
		specification.OrderBy{Field: "price", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	var res []*dto.CreditPackageResponse
	for _, p := range pkgs {
		res = append(res, &dto.CreditPackageResponse{
			Id:           p.Id,
			Name:         p.Name,
			Slug:         p.Slug,
			Credits:      p.Credits,
			BonusCredits: p.BonusCredits,
			Price:        p.Price,
		})
	}
	return res, nil
}

func (s *paymentService) Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	pkg, err := uow.CreditPackageRepository().FindOne(ctx, specification.ByID{ID: req.PackageId})
	if err != nil {
		return nil, err
	}
	if pkg == nil || !pkg.Active {
		return nil, errors.New("package not found")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, entity.ErrUserNotFound
	}

	// The purchase id doubles as the gateway order id, so the webhook can
	// find the pending row from order_id alone.
	orderId := uuid.New()
	purchase := &entity.EnergyPurchase{
		Id:            orderId,
		UserId:        userId,
		PackageId:     pkg.Id,
		GrossAmount:   pkg.Price,
		PaymentStatus: entity.PaymentStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.EnergyPurchaseRepository().Create(ctx, purchase); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// External gateway call happens after the pending row is committed.
	var sClient snap.Client
	env := midtrans.Sandbox
	if s.cfg.IsProduction {
		env = midtrans.Production
	}
	sClient.New(s.cfg.ServerKey, env)

	finishRedirectURL := fmt.Sprintf("%s/app?payment=success", s.cfg.FrontendURL)

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderId.String(),
			GrossAmt: pkg.Price,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: finishRedirectURL,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.FirstName,
			LName: req.LastName,
			Email: req.Email,
			Phone: req.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    pkg.Id.String(),
				Price: pkg.Price,
				Qty:   1,
				Name:  pkg.Name,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := sClient.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("midtrans error: %v", midErr.GetMessage())
	}

	return &dto.CheckoutResponse{
		OrderId:     orderId,
		SnapToken:   snapResp.Token,
		RedirectURL: snapResp.RedirectURL,
	}, nil
}

// HandleNotification processes the gateway's payment webhook. Settlement
// credits the package (and its bonus, as a separate bonus transaction);
// failure marks the purchase without touching the balance. Replayed
// settlement notifications are ignored via the paid-status check.
func (s *paymentService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	fmt.Printf("[WEBHOOK] OrderId: %s | Status: %s\n", req.OrderId, req.TransactionStatus)

	if s.cfg.ServerKey == "" {
		fmt.Println("[WEBHOOK ERROR] MIDTRANS_SERVER_KEY not configured")
		return fmt.Errorf("server configuration error")
	}

	// Midtrans signature = SHA512(order_id + status_code + gross_amount + server_key)
	signatureInput := req.OrderId + req.StatusCode + req.GrossAmount + s.cfg.ServerKey
	expectedSignature := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))

	if req.SignatureKey != expectedSignature {
		fmt.Printf("[WEBHOOK ERROR] Signature mismatch for OrderId=%s\n", req.OrderId)
		return fmt.Errorf("invalid signature")
	}

	orderId, err := uuid.Parse(req.OrderId)
	if err != nil {
		fmt.Printf("[WEBHOOK ERROR] Invalid order_id format: %s\n", req.OrderId)
		return fmt.Errorf("invalid order id format")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	purchase, err := uow.EnergyPurchaseRepository().FindOne(ctx, specification.ByID{ID: orderId})
	if err != nil {
		return err
	}
	if purchase == nil {
		fmt.Printf("[WEBHOOK ERROR] Purchase not found: %s\n", req.OrderId)
		return fmt.Errorf("purchase not found")
	}

	switch req.TransactionStatus {
	case "capture", "settlement":
		if purchase.PaymentStatus == entity.PaymentStatusPaid {
			fmt.Printf("[WEBHOOK] Purchase %s already settled, skipping\n", orderId)
			return nil
		}
		return s.settlePurchase(ctx, purchase)
	case "deny", "cancel":
		return uow.EnergyPurchaseRepository().UpdatePaymentStatus(ctx, orderId, entity.PaymentStatusFailed)
	case "expire":
		return uow.EnergyPurchaseRepository().UpdatePaymentStatus(ctx, orderId, entity.PaymentStatusExpired)
	case "pending":
		return nil
	default:
		fmt.Printf("[WEBHOOK] Unknown status '%s', no action taken\n", req.TransactionStatus)
		return nil
	}
}

func (s *paymentService) settlePurchase(ctx context.Context, purchase *entity.EnergyPurchase) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	pkg, err := uow.CreditPackageRepository().FindOne(ctx, specification.ByID{ID: purchase.PackageId})
	if err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("package %s not found for purchase %s", purchase.PackageId, purchase.Id)
	}

	// Credits run first, keyed by order id so a webhook replay never
	// double-credits. The status flips to paid last: if anything fails
	// in between, the purchase stays pending and the gateway's retry
	// re-drives the whole settlement, with the keys replaying whatever
	// already committed.
	result, err := s.engine.Credit(ctx, engine.CreditParams{
		UserId:         purchase.UserId,
		Amount:         pkg.Credits,
		Type:           entity.TransactionTypePurchase,
		Reason:         fmt.Sprintf("Purchased %s package", pkg.Name),
		IdempotencyKey: fmt.Sprintf("purchase:%s", purchase.Id),
		Metadata: map[string]interface{}{
			"order_id":   purchase.Id.String(),
			"package_id": pkg.Id.String(),
		},
	})
	if err != nil {
		return err
	}

	newBalance := result.NewBalance
	if pkg.BonusCredits > 0 {
		bonusResult, err := s.engine.Credit(ctx, engine.CreditParams{
			UserId:         purchase.UserId,
			Amount:         pkg.BonusCredits,
			Type:           entity.TransactionTypeBonus,
			Reason:         fmt.Sprintf("Bonus for %s package", pkg.Name),
			IdempotencyKey: fmt.Sprintf("purchase-bonus:%s", purchase.Id),
			Metadata: map[string]interface{}{
				"order_id": purchase.Id.String(),
			},
		})
		if err != nil {
			return err
		}
		newBalance = bonusResult.NewBalance
	}

	if err := uow.EnergyPurchaseRepository().UpdatePaymentStatus(ctx, purchase.Id, entity.PaymentStatusPaid); err != nil {
		return err
	}

	s.aggregator.Invalidate(purchase.UserId)

	if s.hub != nil {
		s.hub.SendBalanceUpdate(websocket.BalanceUpdate{
			UserId:              purchase.UserId,
			Balance:             newBalance,
			Delta:               pkg.Credits + pkg.BonusCredits,
			TransactionType:     string(entity.TransactionTypePurchase),
			PercentageRemaining: stats.Percentage(newBalance, s.referenceCap),
		})
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeEnergyPurchased,
			Data: map[string]interface{}{
				"user_id":     purchase.UserId,
				"order_id":    purchase.Id,
				"package":     pkg.Slug,
				"credits":     pkg.Credits,
				"bonus":       pkg.BonusCredits,
				"new_balance": newBalance,
				"occurred_at": time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeEnergyPurchased, err)
		}
	}

	if s.emailService != nil {
		user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: purchase.UserId})
		if err == nil && user != nil {
			if err := s.emailService.SendPurchaseReceipt(user.Email, pkg.Name, pkg.Credits, pkg.BonusCredits, newBalance); err != nil {
				fmt.Printf("[WARN] Failed to send purchase receipt: %v\n", err)
			}
		}
	}

	fmt.Printf("[WEBHOOK] Purchase %s settled, credited %d+%d energy\n", purchase.Id, pkg.Credits, pkg.BonusCredits)
	return nil
}

func (s *paymentService) GetPurchaseStatus(ctx context.Context, userId uuid.UUID, orderId uuid.UUID) (*dto.PurchaseStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	purchase, err := uow.EnergyPurchaseRepository().FindOne(ctx, specification.ByID{ID: orderId})
	if err != nil {
		return nil, err
	}
	if purchase == nil || purchase.UserId != userId {
		return nil, errors.New("purchase not found")
	}

	return &dto.PurchaseStatusResponse{
		OrderId:       purchase.Id,
		PackageId:     purchase.PackageId,
		PaymentStatus: string(purchase.PaymentStatus),
		PaidAt:        purchase.PaidAt,
	}, nil
}
