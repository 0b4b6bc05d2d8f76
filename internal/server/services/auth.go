// Package services contains server-side business logic. This file implements
// AuthService, which composes the credential hasher, the token codecs, the
// account directory and the notifier into the register, login and
// forgot/reset-password flows.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"accountd/internal/common"
	"accountd/internal/dbx"
	"accountd/internal/server/auth"
	"accountd/internal/server/config"
	"accountd/internal/server/models"
	"accountd/internal/server/notify"
	"accountd/internal/server/repositories/repomanager"
)

// AuthService provides authentication-related operations:
// - Register: create accounts
// - Login: verify credentials and mint a session token
// - ForgotPassword / ResetPassword: the email-driven credential recovery flow
// - Authenticate: resolve a bearer token to an account
type AuthService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	notifier                    notify.Notifier
	secretKey                   []byte
	signingMethod               jwt.SigningMethod
	accessTokenValidityDuration time.Duration
	resetTokenValidityDuration  time.Duration
	frontendURL                 string
}

// NewAuthService constructs an AuthService using repositories and server
// config. The signing method is resolved once here; an unknown algorithm is a
// startup error.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, n notify.Notifier, cfg *config.Config) (*AuthService, error) {
	method, err := auth.MethodFromName(cfg.SigningAlgorithm)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		db:                          db,
		repomanager:                 m,
		notifier:                    n,
		secretKey:                   []byte(cfg.SecretKey),
		signingMethod:               method,
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		resetTokenValidityDuration:  cfg.ResetTokenValidityDuration,
		frontendURL:                 cfg.FrontendURL,
	}, nil
}

// Register creates a new account with the given email and password. The
// returned user carries the stored hash; transport layers must not expose it.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrorDuplicateAccount
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorInternal
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}

	// The unique index still guards against a concurrent registration racing
	// past the lookup above.
	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateAccount) {
			return nil, common.ErrorDuplicateAccount
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and, on success, returns a session token.
// An unknown email and a wrong password produce the same error so callers
// cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorInvalidCredentials
		}
		return "", common.ErrorInternal
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", common.ErrorInvalidCredentials
	}

	token, err := auth.GenerateToken(user.Email, s.secretKey, s.signingMethod, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// ForgotPassword issues a reset token for the account behind email, builds
// the reset link and sends it through the notifier. A delivery failure is
// reported distinctly: the token was already minted, the problem is
// operational. The token is returned so the handler can echo it.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", common.ErrorInternal
	}

	token, err := auth.GenerateResetToken(user.ID, s.secretKey, s.signingMethod, s.resetTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s",
		strings.TrimRight(s.frontendURL, "/"), url.QueryEscape(token))

	plainText, html, err := notify.RenderResetEmail(user.Email, resetURL)
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := s.notifier.Send(ctx, user.Email, notify.ResetEmailSubject, plainText, html); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorNotificationFailure, err)
	}

	return token, nil
}

// ResetPassword verifies the reset token and stores a new credential hash.
// Lookup and update run in one transaction so a concurrent password change
// cannot be silently overwritten. Reset tokens are stateless: nothing records
// consumption, so an unexpired token verifies again on a second call.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, ok := auth.GetUserIDFromResetToken(token, s.secretKey, s.signingMethod)
	if !ok {
		return common.ErrInvalidToken
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.GetByID(ctx, userID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorNotFound
			}
			return common.ErrorInternal
		}

		if err := repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
			return common.ErrorInternal
		}

		return nil
	})
}

// Authenticate resolves a bearer session token to the account it names.
// Every failure collapses to ErrorUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	subject, err := auth.GetSubjectFromToken(token, s.secretKey, s.signingMethod)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, subject)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	if err := loadRoles(ctx, s.repomanager.Roles(s.db), user); err != nil {
		return nil, common.ErrorInternal
	}

	return user, nil
}
