package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByTransactionType filters the transaction log by reason class
type ByTransactionType struct {
	Type string
}

func (s ByTransactionType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", s.Type)
}

// ByToolName filters usage transactions for one tool
type ByToolName struct {
	ToolName string
}

func (s ByToolName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tool_name = ?", s.ToolName)
}

// ByIdempotencyKey looks up the committed outcome of a retried debit
type ByIdempotencyKey struct {
	Key string
}

func (s ByIdempotencyKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("idempotency_key = ?", s.Key)
}

// CreatedBetween bounds rows by creation time. Zero bounds are skipped.
type CreatedBetween struct {
	From time.Time
	To   time.Time
}

func (s CreatedBetween) Apply(db *gorm.DB) *gorm.DB {
	if !s.From.IsZero() {
		db = db.Where("created_at >= ?", s.From)
	}
	if !s.To.IsZero() {
		db = db.Where("created_at <= ?", s.To)
	}
	return db
}

// ActivePackages filters credit packages available for purchase
type ActivePackages struct{}

func (s ActivePackages) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}
