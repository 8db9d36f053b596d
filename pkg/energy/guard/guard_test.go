package guard

import (
	"testing"

	"ai-toolkit-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanDebit(t *testing.T) {
	system := uuid.New()
	g := New(Config{SystemCallers: []uuid.UUID{system}})

	owner := uuid.New()
	stranger := uuid.New()

	assert.True(t, g.CanDebit(owner, owner), "owner may debit themselves")
	assert.True(t, g.CanDebit(system, owner), "system caller may debit on behalf of a session")
	assert.False(t, g.CanDebit(stranger, owner), "another user may not debit someone else")
}

func TestCanGrant(t *testing.T) {
	g := New(Config{})

	assert.True(t, g.CanGrant(entity.UserRoleAdmin))
	assert.False(t, g.CanGrant(entity.UserRoleUser))
	assert.False(t, g.CanGrant(entity.UserRole("moderator")))
}

func TestCanMutateProtected(t *testing.T) {
	g := New(Config{ProtectedEmails: []string{"Owner@Ai-Toolkit.app", "  root@example.com  "}})

	// Matching is case-insensitive and whitespace-tolerant.
	assert.False(t, g.CanMutateProtected("owner@ai-toolkit.app"))
	assert.False(t, g.CanMutateProtected("OWNER@AI-TOOLKIT.APP"))
	assert.False(t, g.CanMutateProtected("root@example.com"))
	assert.True(t, g.CanMutateProtected("someone@else.com"))

	assert.True(t, g.IsProtected("owner@ai-toolkit.app"))
	assert.False(t, g.IsProtected("someone@else.com"))
}

func TestCanSelfModifyPrivilege(t *testing.T) {
	g := New(Config{})
	admin := uuid.New()
	other := uuid.New()

	// Self-demotion from admin is the locked-out case.
	assert.False(t, g.CanSelfModifyPrivilege(admin, admin, entity.UserRoleAdmin, entity.UserRoleUser))

	// Keeping one's own admin role is fine.
	assert.True(t, g.CanSelfModifyPrivilege(admin, admin, entity.UserRoleAdmin, entity.UserRoleAdmin))

	// Changing someone else is a protected-account / role question, not this one.
	assert.True(t, g.CanSelfModifyPrivilege(admin, other, entity.UserRoleAdmin, entity.UserRoleUser))

	// A non-admin "demoting" themselves is a no-op role-wise, allowed here.
	assert.True(t, g.CanSelfModifyPrivilege(other, other, entity.UserRoleUser, entity.UserRoleUser))
}
