package users

import (
	"context"

	"accountd/internal/server/models"
)

// Repository is the account directory contract. Implementations translate
// driver errors into common sentinels; nothing above this layer sees a raw
// database error.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
	Update(ctx context.Context, id string, email, passwordHash *string) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
