// Package httpapi exposes the account service over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accountd/internal/logging"
	"accountd/internal/server/models"
)

// AuthService is the slice of the auth orchestrator the handlers need.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// UserService is the slice of the directory service the handlers need.
type UserService interface {
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id, currentUserID string) error
	CreateRole(ctx context.Context, name, permissions string) (*models.Role, error)
	AssignRole(ctx context.Context, userID, roleID string) error
}

type HTTPServer struct {
	address string
	logger  logging.Logger
	auth    AuthService
	users   UserService
}

func NewHTTPServer(address string, l logging.Logger, as AuthService, us UserService) *HTTPServer {
	return &HTTPServer{
		address: address,
		logger:  l.With("module", "http_server"),
		auth:    as,
		users:   us,
	}
}

// Router builds the gin engine with all routes wired.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		// Kept as an alias for OAuth2-style clients; same handler.
		authGroup.POST("/token", s.login)
		authGroup.POST("/forgot-password", s.forgotPassword)
		authGroup.POST("/reset-password", s.resetPassword)
	}

	protected := r.Group("/", s.accessTokenMiddleware())
	{
		protected.POST("/users", s.createUser)
		protected.GET("/users", s.listUsers)
		protected.GET("/users/me", s.getCurrentUser)
		protected.GET("/users/:id", s.getUser)
		protected.PUT("/users/:id", s.updateUser)
		protected.DELETE("/users/:id", s.deleteUser)
		protected.POST("/roles", s.createRole)
		protected.POST("/users/:id/roles", s.assignRole)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down draining in-flight
// requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
