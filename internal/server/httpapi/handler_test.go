package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountd/internal/common"
	"accountd/internal/logging"
	"accountd/internal/server/models"
)

type stubAuthService struct {
	registerUser  *models.User
	registerErr   error
	loginToken    string
	loginErr      error
	forgotToken   string
	forgotErr     error
	resetErr      error
	authUser      *models.User
	authErr       error
	lastEmail     string
	lastPassword  string
	lastToken     string
	lastNewPasswd string
}

func (s *stubAuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	s.lastEmail, s.lastPassword = email, password
	return s.registerUser, s.registerErr
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, error) {
	s.lastEmail, s.lastPassword = email, password
	return s.loginToken, s.loginErr
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	s.lastEmail = email
	return s.forgotToken, s.forgotErr
}

func (s *stubAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	s.lastToken, s.lastNewPasswd = token, newPassword
	return s.resetErr
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	s.lastToken = token
	return s.authUser, s.authErr
}

type stubUserService struct {
	listUsers  []*models.User
	listErr    error
	getUser    *models.User
	getErr     error
	updated    *models.User
	updateErr  error
	deleteErr  error
	role       *models.Role
	roleErr    error
	assignErr  error
	lastID     string
	lastSelfID string
	lastUpd    models.UserUpdate
	lastRoleID string
}

func (s *stubUserService) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	return s.listUsers, s.listErr
}

func (s *stubUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.lastID = id
	return s.getUser, s.getErr
}

func (s *stubUserService) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	s.lastID, s.lastUpd = id, upd
	return s.updated, s.updateErr
}

func (s *stubUserService) Delete(ctx context.Context, id, currentUserID string) error {
	s.lastID, s.lastSelfID = id, currentUserID
	return s.deleteErr
}

func (s *stubUserService) CreateRole(ctx context.Context, name, permissions string) (*models.Role, error) {
	return s.role, s.roleErr
}

func (s *stubUserService) AssignRole(ctx context.Context, userID, roleID string) error {
	s.lastID, s.lastRoleID = userID, roleID
	return s.assignErr
}

func newTestServer(as *stubAuthService, us *stubUserService) *HTTPServer {
	gin.SetMode(gin.TestMode)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewHTTPServer("127.0.0.1:0", logger, as, us)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestRequestLogging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	s := NewHTTPServer("127.0.0.1:0", logger, &stubAuthService{}, &stubUserService{})

	w := doJSON(t, s.Router(), http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "msg=\"request handled\"")
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/healthz")
	assert.Contains(t, out, "status=200")
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&stubAuthService{}, &stubUserService{})
	w := doJSON(t, s.Router(), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister(t *testing.T) {
	as := &stubAuthService{registerUser: &models.User{ID: "u-1", Email: "a@x.com", IsActive: true}}
	s := newTestServer(as, &stubUserService{})

	w := doJSON(t, s.Router(), http.MethodPost, "/auth/register",
		`{"email":"a@x.com","password":"pw"}`, "")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "a@x.com", as.lastEmail)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_Duplicate(t *testing.T) {
	as := &stubAuthService{registerErr: common.ErrorDuplicateAccount}
	s := newTestServer(as, &stubUserService{})

	w := doJSON(t, s.Router(), http.MethodPost, "/auth/register",
		`{"email":"a@x.com","password":"pw"}`, "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_ACCOUNT", errorCode(t, w))
}

func TestRegister_InvalidBody(t *testing.T) {
	s := newTestServer(&stubAuthService{}, &stubUserService{})

	for _, body := range []string{"", `{"email":"not-an-email","password":"pw"}`, `{"email":"a@x.com"}`} {
		w := doJSON(t, s.Router(), http.MethodPost, "/auth/register", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestLogin_AndTokenAlias(t *testing.T) {
	as := &stubAuthService{loginToken: "tok-123"}
	s := newTestServer(as, &stubUserService{})
	router := s.Router()

	for _, path := range []string{"/auth/login", "/auth/token"} {
		w := doJSON(t, router, http.MethodPost, path, `{"email":"a@x.com","password":"pw"}`, "")
		require.Equal(t, http.StatusOK, w.Code, path)

		var resp struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tok-123", resp.AccessToken)
		assert.Equal(t, "bearer", resp.TokenType)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	as := &stubAuthService{loginErr: common.ErrorInvalidCredentials}
	s := newTestServer(as, &stubUserService{})

	w := doJSON(t, s.Router(), http.MethodPost, "/auth/login",
		`{"email":"a@x.com","password":"wrong"}`, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
}

func TestForgotPassword(t *testing.T) {
	as := &stubAuthService{forgotToken: "reset-tok"}
	s := newTestServer(as, &stubUserService{})

	w := doJSON(t, s.Router(), http.MethodPost, "/auth/forgot-password",
		`{"email":"a@x.com"}`, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reset-tok")
}

func TestForgotPassword_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantTag  string
	}{
		{"unknown email", common.ErrorNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"delivery failed", common.ErrorNotificationFailure, http.StatusBadGateway, "NOTIFICATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := &stubAuthService{forgotErr: tt.err}
			s := newTestServer(as, &stubUserService{})

			w := doJSON(t, s.Router(), http.MethodPost, "/auth/forgot-password",
				`{"email":"a@x.com"}`, "")

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantTag, errorCode(t, w))
		})
	}
}

func TestResetPassword(t *testing.T) {
	as := &stubAuthService{}
	s := newTestServer(as, &stubUserService{})

	w := doJSON(t, s.Router(), http.MethodPost, "/auth/reset-password",
		`{"token":"t","new_password":"pw2"}`, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t", as.lastToken)
	assert.Equal(t, "pw2", as.lastNewPasswd)
}

func TestResetPassword_BadToken(t *testing.T) {
	as := &stubAuthService{resetErr: common.ErrInvalidToken}
	s := newTestServer(as, &stubUserService{})

	w := doJSON(t, s.Router(), http.MethodPost, "/auth/reset-password",
		`{"token":"bad","new_password":"pw2"}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	as := &stubAuthService{authErr: common.ErrorUnauthorized}
	s := newTestServer(as, &stubUserService{})
	router := s.Router()

	// No Authorization header.
	w := doJSON(t, router, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Bad token.
	w = doJSON(t, router, http.MethodGet, "/users", "", "bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetCurrentUser(t *testing.T) {
	me := &models.User{ID: "u-1", Email: "a@x.com", IsActive: true,
		Roles: []models.Role{{ID: "r-1", Name: "admin", Permissions: "users:*"}}}
	as := &stubAuthService{authUser: me}
	s := newTestServer(as, &stubUserService{})

	w := doJSON(t, s.Router(), http.MethodGet, "/users/me", "", "tok")

	require.Equal(t, http.StatusOK, w.Code)

	var resp userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u-1", resp.ID)
	require.Len(t, resp.Roles, 1)
	assert.Equal(t, "admin", resp.Roles[0].Name)
}

func TestListUsers(t *testing.T) {
	as := &stubAuthService{authUser: &models.User{ID: "u-1"}}
	us := &stubUserService{listUsers: []*models.User{
		{ID: "u-1", Email: "a@x.com"},
		{ID: "u-2", Email: "b@x.com"},
	}}
	s := newTestServer(as, us)

	w := doJSON(t, s.Router(), http.MethodGet, "/users?offset=0&limit=10", "", "tok")

	require.Equal(t, http.StatusOK, w.Code)

	var resp []userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
	assert.False(t, strings.Contains(w.Body.String(), "hash"))
}

func TestGetUser_NotFound(t *testing.T) {
	as := &stubAuthService{authUser: &models.User{ID: "u-1"}}
	us := &stubUserService{getErr: common.ErrorNotFound}
	s := newTestServer(as, us)

	w := doJSON(t, s.Router(), http.MethodGet, "/users/ghost", "", "tok")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestUpdateUser(t *testing.T) {
	as := &stubAuthService{authUser: &models.User{ID: "u-1"}}
	us := &stubUserService{updated: &models.User{ID: "u-1", Email: "b@x.com"}}
	s := newTestServer(as, us)

	w := doJSON(t, s.Router(), http.MethodPut, "/users/u-1",
		`{"email":"b@x.com"}`, "tok")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", us.lastID)
	require.NotNil(t, us.lastUpd.Email)
	assert.Equal(t, "b@x.com", *us.lastUpd.Email)
	assert.Nil(t, us.lastUpd.Password)
}

func TestDeleteUser(t *testing.T) {
	as := &stubAuthService{authUser: &models.User{ID: "u-1"}}
	us := &stubUserService{}
	s := newTestServer(as, us)

	w := doJSON(t, s.Router(), http.MethodDelete, "/users/u-1", "", "tok")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "u-1", us.lastID)
	assert.Equal(t, "u-1", us.lastSelfID)
}

func TestDeleteUser_OtherAccount(t *testing.T) {
	as := &stubAuthService{authUser: &models.User{ID: "u-1"}}
	us := &stubUserService{deleteErr: common.ErrorForbidden}
	s := newTestServer(as, us)

	w := doJSON(t, s.Router(), http.MethodDelete, "/users/u-2", "", "tok")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestCreateRole(t *testing.T) {
	as := &stubAuthService{authUser: &models.User{ID: "u-1"}}
	us := &stubUserService{role: &models.Role{ID: "r-1", Name: "admin", Permissions: "users:*"}}
	s := newTestServer(as, us)

	w := doJSON(t, s.Router(), http.MethodPost, "/roles",
		`{"name":"admin","permissions":"users:*"}`, "tok")

	require.Equal(t, http.StatusCreated, w.Code)

	var resp roleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "admin", resp.Name)
}

func TestAssignRole(t *testing.T) {
	as := &stubAuthService{authUser: &models.User{ID: "u-1"}}
	us := &stubUserService{}
	s := newTestServer(as, us)

	w := doJSON(t, s.Router(), http.MethodPost, "/users/u-2/roles",
		`{"role_id":"r-1"}`, "tok")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-2", us.lastID)
	assert.Equal(t, "r-1", us.lastRoleID)
}
