package guard

import (
	"strings"

	"ai-toolkit-be/internal/entity"

	"github.com/google/uuid"
)

// Guard is the ledger's authorization policy. It is stateless and decides
// only; the engine is mechanism and never consults it directly. Callers
// (services) check the guard before touching the store.
type Guard struct {
	protectedEmails map[string]struct{}
	systemCallers   map[uuid.UUID]struct{}
}

type Config struct {
	// ProtectedEmails is the hard allow-list carve-out: identities listed
	// here cannot be granted to, demoted or deleted by anyone.
	ProtectedEmails []string

	// SystemCallers are trusted internal identities (the tool-invocation
	// pipeline) allowed to debit on behalf of an authenticated session.
	SystemCallers []uuid.UUID
}

func New(cfg Config) *Guard {
	g := &Guard{
		protectedEmails: make(map[string]struct{}, len(cfg.ProtectedEmails)),
		systemCallers:   make(map[uuid.UUID]struct{}, len(cfg.SystemCallers)),
	}
	for _, email := range cfg.ProtectedEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			g.protectedEmails[email] = struct{}{}
		}
	}
	for _, id := range cfg.SystemCallers {
		g.systemCallers[id] = struct{}{}
	}
	return g
}

// CanDebit allows a debit only for the account owner or a trusted system
// caller acting on behalf of an already-authenticated session.
func (g *Guard) CanDebit(caller, target uuid.UUID) bool {
	if caller == target {
		return true
	}
	_, ok := g.systemCallers[caller]
	return ok
}

// CanGrant allows grants for admins only.
func (g *Guard) CanGrant(role entity.UserRole) bool {
	return role == entity.UserRoleAdmin
}

// CanMutateProtected reports whether the target identity may be modified
// at all. Protection is independent of the caller's own privilege.
func (g *Guard) CanMutateProtected(targetEmail string) bool {
	_, protected := g.protectedEmails[strings.ToLower(strings.TrimSpace(targetEmail))]
	return !protected
}

// IsProtected reports membership in the protected-identity set.
func (g *Guard) IsProtected(targetEmail string) bool {
	return !g.CanMutateProtected(targetEmail)
}

// CanSelfModifyPrivilege rejects an identity stripping its own admin role,
// which would otherwise allow an irrecoverable lockout.
func (g *Guard) CanSelfModifyPrivilege(caller, target uuid.UUID, currentRole, requestedRole entity.UserRole) bool {
	if caller != target {
		return true
	}
	if currentRole == entity.UserRoleAdmin && requestedRole != entity.UserRoleAdmin {
		return false
	}
	return true
}
