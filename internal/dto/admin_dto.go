package dto

import (
	"time"

	"github.com/google/uuid"
)

// GrantRequest is an administrator-initiated credit increase.
type GrantRequest struct {
	TargetUserId uuid.UUID `json:"target_user_id" validate:"required"`
	Amount       int64     `json:"amount" validate:"required,gt=0"`
	Reason       string    `json:"reason" validate:"required"`
}

type GrantResponse struct {
	TransactionId uuid.UUID `json:"transaction_id"`
	Amount        int64     `json:"amount_added"`
	NewBalance    int64     `json:"new_balance"`
}

// TransactionFilterRequest narrows the admin transaction listing.
type TransactionFilterRequest struct {
	UserId *uuid.UUID `query:"user_id"`
	Type   string     `query:"type"`
	From   *time.Time `query:"from"`
	To     *time.Time `query:"to"`
	Page   int        `query:"page"`
	Limit  int        `query:"limit"`
}

type UserListResponse struct {
	Id        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}
