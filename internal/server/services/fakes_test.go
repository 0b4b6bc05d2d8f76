package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"accountd/internal/common"
	"accountd/internal/dbx"
	"accountd/internal/server/config"
	"accountd/internal/server/models"
	rolesrepo "accountd/internal/server/repositories/roles"
	usersrepo "accountd/internal/server/repositories/users"
)

// --- in-memory repositories ---

type memUsersRepo struct {
	byID map[string]*models.User

	// forced errors, checked before the map
	createErr error
	getErr    error
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{byID: map[string]*models.User{}}
}

func (f *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorDuplicateAccount
		}
	}
	stored := *u
	stored.CreatedAt = time.Now()
	f.byID[u.ID] = &stored
	out := stored
	return &out, nil
}

func (f *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *memUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (f *memUsersRepo) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.byID {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (f *memUsersRepo) Update(ctx context.Context, id string, email, passwordHash *string) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if email != nil {
		u.Email = *email
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return nil
}

func (f *memUsersRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *memUsersRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

type memRolesRepo struct {
	byID        map[string]*models.Role
	assignments map[string][]string // user id -> role ids
}

func newMemRolesRepo() *memRolesRepo {
	return &memRolesRepo{byID: map[string]*models.Role{}, assignments: map[string][]string{}}
}

func (f *memRolesRepo) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	for _, existing := range f.byID {
		if existing.Name == role.Name {
			return nil, common.ErrorDuplicateRole
		}
	}
	stored := *role
	f.byID[role.ID] = &stored
	out := stored
	return &out, nil
}

func (f *memRolesRepo) GetByID(ctx context.Context, id string) (*models.Role, error) {
	role, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *role
	return &out, nil
}

func (f *memRolesRepo) AssignToUser(ctx context.Context, userID, roleID string) error {
	for _, id := range f.assignments[userID] {
		if id == roleID {
			return nil
		}
	}
	f.assignments[userID] = append(f.assignments[userID], roleID)
	return nil
}

func (f *memRolesRepo) ListForUser(ctx context.Context, userID string) ([]models.Role, error) {
	var out []models.Role
	for _, id := range f.assignments[userID] {
		if role, ok := f.byID[id]; ok {
			out = append(out, *role)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u *memUsersRepo
	r *memRolesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newMemUsersRepo(), r: newMemRolesRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.u }
func (m *fakeRepoManager) Roles(db dbx.DBTX) rolesrepo.Repository { return m.r }

// --- notifier ---

type fakeNotifier struct {
	err error

	to        string
	subject   string
	plainText string
	html      string
	calls     int
}

func (f *fakeNotifier) Send(ctx context.Context, to, subject, plainText, html string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.to, f.subject, f.plainText, f.html = to, subject, plainText, html
	return nil
}

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.AccessTokenValidityDuration = time.Hour
	cfg.ResetTokenValidityDuration = 2 * time.Hour
	cfg.FrontendURL = "https://app.example.com"
	return cfg
}

func newAuthService(t *testing.T, db *sql.DB, rm *fakeRepoManager, n *fakeNotifier) *AuthService {
	t.Helper()
	s, err := NewAuthService(db, rm, n, testConfig())
	if err != nil {
		t.Fatalf("NewAuthService error: %v", err)
	}
	return s
}
