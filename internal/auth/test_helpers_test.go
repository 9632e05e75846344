package auth

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

// memStore keeps accounts in insertion order and sessions keyed by the
// stored (hashed) refresh token, mirroring the unique indexes of the schema.
type memStore struct {
	mu       sync.Mutex
	users    []dbgen.User
	sessions map[string]dbgen.Session
	resets   map[string]dbgen.PasswordReset
}

var _ Queries = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		sessions: map[string]dbgen.Session{},
		resets:   map[string]dbgen.PasswordReset{},
	}
}

func stamp() pgtype.Timestamptz { return pgtype.Timestamptz{Time: time.Now(), Valid: true} }

func newID() pgtype.UUID { return pgtype.UUID{Bytes: uuid.New(), Valid: true} }

func (m *memStore) find(match func(dbgen.User) bool) int {
	return slices.IndexFunc(m.users, match)
}

func (m *memStore) byID(id pgtype.UUID) int {
	return m.find(func(u dbgen.User) bool { return u.ID == id })
}

// addUser stores an active account whose password is already hashed.
func (m *memStore) addUser(t *testing.T, name, email, password string, roles ...string) dbgen.User {
	t.Helper()
	hash, err := hashPassword(password)
	require.NoError(t, err)
	if len(roles) == 0 {
		roles = []string{RoleUser}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u := dbgen.User{ID: newID(), Name: name, Email: email, PasswordHash: hash, Roles: roles, Active: true, CreatedAt: stamp(), UpdatedAt: stamp()}
	m.users = append(m.users, u)
	return u
}

func (m *memStore) setActive(id pgtype.UUID, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[m.byID(id)].Active = active
}

func (m *memStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memStore) hasSession(hashed string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[hashed]
	return ok
}

func (m *memStore) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memStore) CreateUser(_ context.Context, arg dbgen.CreateUserParams) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(func(u dbgen.User) bool { return strings.EqualFold(u.Email, arg.Email) }) >= 0 {
		return dbgen.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	u := dbgen.User{ID: newID(), Name: arg.Name, Email: arg.Email, PasswordHash: arg.PasswordHash, Roles: arg.Roles, Active: true, CreatedAt: stamp(), UpdatedAt: stamp()}
	m.users = append(m.users, u)
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(func(u dbgen.User) bool { return strings.EqualFold(u.Email, email) }); i >= 0 {
		return m.users[i], nil
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func (m *memStore) GetUserByID(_ context.Context, id pgtype.UUID) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.byID(id); i >= 0 {
		return m.users[i], nil
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func (m *memStore) update(id pgtype.UUID, edit func(*dbgen.User)) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.byID(id)
	if i < 0 {
		return dbgen.User{}, pgx.ErrNoRows
	}
	edit(&m.users[i])
	m.users[i].UpdatedAt = stamp()
	return m.users[i], nil
}

func (m *memStore) UpdateUserPassword(_ context.Context, arg dbgen.UpdateUserPasswordParams) (dbgen.User, error) {
	return m.update(arg.ID, func(u *dbgen.User) { u.PasswordHash = arg.PasswordHash })
}

func (m *memStore) UpdateUserProfile(_ context.Context, arg dbgen.UpdateUserProfileParams) (dbgen.User, error) {
	return m.update(arg.ID, func(u *dbgen.User) {
		u.Name, u.CompanyName, u.CompanyAddress = arg.Name, arg.CompanyName, arg.CompanyAddress
	})
}

func (m *memStore) CreateSession(_ context.Context, arg dbgen.CreateSessionParams) (dbgen.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := dbgen.Session{ID: newID(), UserID: arg.UserID, RefreshToken: arg.RefreshToken, UserAgent: arg.UserAgent, Ip: arg.Ip, ExpiresAt: arg.ExpiresAt, CreatedAt: stamp()}
	m.sessions[arg.RefreshToken] = s
	return s, nil
}

func (m *memStore) GetSessionByToken(_ context.Context, token string) (dbgen.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[token]; ok {
		return s, nil
	}
	return dbgen.Session{}, pgx.ErrNoRows
}

func (m *memStore) RotateSessionToken(_ context.Context, arg dbgen.RotateSessionTokenParams) (dbgen.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		if s.ID != arg.ID {
			continue
		}
		delete(m.sessions, key)
		s.RefreshToken, s.ExpiresAt, s.UpdatedAt = arg.RefreshToken, arg.ExpiresAt, stamp()
		m.sessions[arg.RefreshToken] = s
		return s, nil
	}
	return dbgen.Session{}, pgx.ErrNoRows
}

func (m *memStore) DeleteSessionByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memStore) DeleteSessionsByUser(_ context.Context, userID pgtype.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, key)
		}
	}
	return nil
}

func (m *memStore) CreatePasswordReset(_ context.Context, arg dbgen.CreatePasswordResetParams) (dbgen.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := dbgen.PasswordReset{ID: newID(), UserID: arg.UserID, Token: arg.Token, ExpiresAt: arg.ExpiresAt, CreatedAt: stamp()}
	m.resets[arg.Token] = r
	return r, nil
}

func (m *memStore) GetPasswordResetByToken(_ context.Context, token string) (dbgen.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resets[token]; ok {
		return r, nil
	}
	return dbgen.PasswordReset{}, pgx.ErrNoRows
}

func (m *memStore) UsePasswordReset(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resets[token]
	if !ok {
		return pgx.ErrNoRows
	}
	r.UsedAt = stamp()
	m.resets[token] = r
	return nil
}

func (m *memStore) DeletePasswordResetsByUser(_ context.Context, userID pgtype.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, r := range m.resets {
		if r.UserID == userID {
			delete(m.resets, key)
		}
	}
	return nil
}

func newTestService(t *testing.T, q Queries) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Queries:         q,
		Secret:          "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		ResetTokenTTL:   time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func mustSign(t *testing.T, svc *Service, userID string) string {
	t.Helper()
	token, _, err := svc.tokens.Sign(userID, svc.now())
	require.NoError(t, err)
	return token
}
