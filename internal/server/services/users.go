package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"accountd/internal/common"
	"accountd/internal/dbx"
	"accountd/internal/server/auth"
	"accountd/internal/server/models"
	"accountd/internal/server/repositories/repomanager"
	"accountd/internal/server/repositories/roles"
)

// UserService provides directory operations over existing accounts: listing,
// lookup, explicit-field updates, deletion, and role management.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	repo := s.repomanager.Users(s.db)

	list, err := repo.List(ctx, offset, limit)
	if err != nil {
		return nil, common.ErrorInternal
	}

	rolesRepo := s.repomanager.Roles(s.db)
	for _, user := range list {
		if err := loadRoles(ctx, rolesRepo, user); err != nil {
			return nil, common.ErrorInternal
		}
	}

	return list, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if err := loadRoles(ctx, s.repomanager.Roles(s.db), user); err != nil {
		return nil, common.ErrorInternal
	}

	return user, nil
}

// Update applies an explicit update struct: only the fields it names change.
// A plaintext password is hashed here; repositories never see it.
func (s *UserService) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	var hash *string
	if upd.Password != nil {
		h, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return nil, common.ErrorInternal
		}
		hash = &h
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.GetByID(ctx, id); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorNotFound
			}
			return common.ErrorInternal
		}

		if err := repo.Update(ctx, id, upd.Email, hash); err != nil {
			if errors.Is(err, common.ErrorDuplicateAccount) {
				return common.ErrorDuplicateAccount
			}
			return common.ErrorInternal
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// Delete removes an account. Only the account holder may delete themselves.
func (s *UserService) Delete(ctx context.Context, id, currentUserID string) error {
	if id != currentUserID {
		return common.ErrorForbidden
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	return nil
}

func (s *UserService) CreateRole(ctx context.Context, name, permissions string) (*models.Role, error) {
	repo := s.repomanager.Roles(s.db)

	role := &models.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Permissions: permissions,
	}

	role, err := repo.Create(ctx, role)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateRole) {
			return nil, common.ErrorDuplicateRole
		}
		return nil, common.ErrorInternal
	}

	return role, nil
}

// AssignRole attaches an existing role to an existing user.
func (s *UserService) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	rolesRepo := s.repomanager.Roles(s.db)
	if _, err := rolesRepo.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	if err := rolesRepo.AssignToUser(ctx, userID, roleID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	return nil
}

// loadRoles attaches the user's roles in place.
func loadRoles(ctx context.Context, repo roles.Repository, user *models.User) error {
	list, err := repo.ListForUser(ctx, user.ID)
	if err != nil {
		return err
	}
	user.Roles = list
	return nil
}
