package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for the energy ledger. Authorization failures are decided
// before any store access; store failures roll back fully, so callers may
// retry the whole operation with the same idempotency key.
var (
	ErrInvalidAmount    = errors.New("amount must be a positive whole number")
	ErrForbidden        = errors.New("caller is not allowed to perform this operation")
	ErrProtectedAccount = errors.New("target account is protected and cannot be modified")
	ErrSelfDemotion     = errors.New("an admin cannot remove their own admin role")
	ErrUserNotFound     = errors.New("user not found")
	ErrUnknownTool      = errors.New("unknown tool")
	ErrBalanceOverflow  = errors.New("balance overflow")
	ErrInvalidTxType    = errors.New("invalid transaction type")
	ErrGrantNeedsAdmin  = errors.New("grant transactions require an admin id")
)

// InsufficientEnergyError carries the current balance and the required
// amount so the caller can render the shortfall.
type InsufficientEnergyError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientEnergyError) Error() string {
	return fmt.Sprintf("insufficient energy: have %d, need %d", e.Balance, e.Required)
}

// Shortfall returns how much energy is missing.
func (e *InsufficientEnergyError) Shortfall() int64 {
	return e.Required - e.Balance
}

// IsInsufficientEnergy unwraps err into an InsufficientEnergyError if it is one.
func IsInsufficientEnergy(err error) (*InsufficientEnergyError, bool) {
	var ie *InsufficientEnergyError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
