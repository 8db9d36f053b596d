package model

import (
	"time"

	"github.com/google/uuid"
)

type CreditPackage struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"type:varchar(100);not null"`
	Slug         string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Credits      int64     `gorm:"not null"`
	BonusCredits int64     `gorm:"not null;default:0"`
	Price        int64     `gorm:"not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (CreditPackage) TableName() string {
	return "credit_packages"
}
