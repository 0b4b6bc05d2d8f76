package roles

import (
	"context"

	"accountd/internal/server/models"
)

// Repository stores roles and their assignment to users. Permissions are
// opaque here; no policy is evaluated in this service.
type Repository interface {
	Create(ctx context.Context, role *models.Role) (*models.Role, error)
	GetByID(ctx context.Context, id string) (*models.Role, error)
	AssignToUser(ctx context.Context, userID, roleID string) error
	ListForUser(ctx context.Context, userID string) ([]models.Role, error)
}
