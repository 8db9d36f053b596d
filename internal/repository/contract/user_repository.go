package contract

import (
	"context"

	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	UpdateRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.UserStatus) error
}
