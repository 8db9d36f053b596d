package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreditPackageResponse is one purchasable energy bundle.
type CreditPackageResponse struct {
	Id           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Credits      int64     `json:"credits"`
	BonusCredits int64     `json:"bonus_credits"`
	Price        int64     `json:"price"`
}

// CheckoutRequest initiates a package purchase.
type CheckoutRequest struct {
	PackageId uuid.UUID `json:"package_id" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	FirstName string    `json:"first_name" validate:"required"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
}

// CheckoutResponse carries the gateway redirect for the client.
type CheckoutResponse struct {
	OrderId     uuid.UUID `json:"order_id"`
	SnapToken   string    `json:"snap_token"`
	RedirectURL string    `json:"redirect_url"`
}

// MidtransWebhookRequest is the gateway's payment notification payload.
type MidtransWebhookRequest struct {
	OrderId           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
}

type PurchaseStatusResponse struct {
	OrderId       uuid.UUID  `json:"order_id"`
	PackageId     uuid.UUID  `json:"package_id"`
	PaymentStatus string     `json:"payment_status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}
