package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	minPasswordLen = 8
)

// Queries is the subset of the generated querier the auth service needs.
type Queries interface {
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, arg dbgen.CreateUserParams) (dbgen.User, error)
	GetUserByEmail(ctx context.Context, email string) (dbgen.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
	UpdateUserPassword(ctx context.Context, arg dbgen.UpdateUserPasswordParams) (dbgen.User, error)
	UpdateUserProfile(ctx context.Context, arg dbgen.UpdateUserProfileParams) (dbgen.User, error)
	CreateSession(ctx context.Context, arg dbgen.CreateSessionParams) (dbgen.Session, error)
	GetSessionByToken(ctx context.Context, refreshToken string) (dbgen.Session, error)
	DeleteSessionByToken(ctx context.Context, refreshToken string) error
	DeleteSessionsByUser(ctx context.Context, userID pgtype.UUID) error
	RotateSessionToken(ctx context.Context, arg dbgen.RotateSessionTokenParams) (dbgen.Session, error)
	CreatePasswordReset(ctx context.Context, arg dbgen.CreatePasswordResetParams) (dbgen.PasswordReset, error)
	GetPasswordResetByToken(ctx context.Context, token string) (dbgen.PasswordReset, error)
	UsePasswordReset(ctx context.Context, token string) error
	DeletePasswordResetsByUser(ctx context.Context, userID pgtype.UUID) error
}

// Config configures the auth service. Zero durations fall back to 15m access
// tokens, 24h sessions and 24h reset links.
type Config struct {
	Queries         Queries
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// Service owns accounts, sessions and password resets.
type Service struct {
	queries    Queries
	tokens     AccessTokens
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	return &Service{
		queries: cfg.Queries,
		tokens: AccessTokens{
			Secret:   []byte(secret),
			Issuer:   orDefault(cfg.Issuer, "backend-invoice"),
			Audience: orDefault(cfg.Audience, "invoice-app"),
			TTL:      positive(cfg.AccessTokenTTL, 15*time.Minute),
			Skew:     max(cfg.ClockSkew, 0),
		},
		refreshTTL: positive(cfg.RefreshTokenTTL, 24*time.Hour),
		resetTTL:   positive(cfg.ResetTokenTTL, 24*time.Hour),
		now:        time.Now,
	}, nil
}

// WithNow overrides the clock used for token lifetimes.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// User is the client-facing view of an account.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	Active         bool      `json:"active"`
	CompanyName    *string   `json:"company_name"`
	CompanyAddress *string   `json:"company_address"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// ToUser maps a stored account onto its client-facing view.
func ToUser(u dbgen.User) User {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return User{
		ID:             common.UUIDString(u.ID),
		Name:           u.Name,
		Email:          u.Email,
		Roles:          roles,
		Active:         u.Active,
		CompanyName:    common.TextValuePtr(u.CompanyName),
		CompanyAddress: common.TextValuePtr(u.CompanyAddress),
		CreatedAt:      common.TimeValue(u.CreatedAt),
		UpdatedAt:      common.TimeValue(u.UpdatedAt),
	}
}

// ProfileInput carries the editable profile fields. Nil pointers keep the
// stored value.
type ProfileInput struct {
	Name           *string
	CompanyName    *string
	CompanyAddress *string
}

// Register creates an account. The first account of an empty database is the
// admin; everyone after that starts as a plain user.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	switch {
	case name == "":
		return User{}, common.ErrValidation("name is required", nil)
	case email == "":
		return User{}, common.ErrValidation("email is required", nil)
	case len(password) < minPasswordLen:
		return User{}, common.ErrValidation(fmt.Sprintf("password must be at least %d characters", minPasswordLen), nil)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return User{}, err
	}
	existing, err := s.queries.CountUsers(ctx)
	if err != nil {
		return User{}, fmt.Errorf("count users: %w", err)
	}
	role := RoleUser
	if existing == 0 {
		role = RoleAdmin
	}

	created, err := s.queries.CreateUser(ctx, dbgen.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{role},
	})
	switch {
	case common.IsUniqueViolation(err):
		return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
	case err != nil:
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return ToUser(created), nil
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string, client ClientInfo) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, errInvalidCredentials()
	}
	account, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil || !checkPassword(password, account.PasswordHash) {
		return Session{}, errInvalidCredentials()
	}
	if !account.Active {
		return Session{}, common.NewAppError("ACCOUNT_DISABLED", "account is disabled", http.StatusForbidden, nil)
	}
	return s.openSession(ctx, account, client)
}

// Me returns the account behind userID.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	account, err := s.loadUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return ToUser(account), nil
}

// UpdateProfile edits the caller's display name and company details. The
// company fields appear as the biller block on rendered invoices.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (User, error) {
	current, err := s.loadUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	params := dbgen.UpdateUserProfileParams{
		ID:             current.ID,
		Name:           current.Name,
		CompanyName:    current.CompanyName,
		CompanyAddress: current.CompanyAddress,
	}
	if in.Name != nil {
		if params.Name = strings.TrimSpace(*in.Name); params.Name == "" {
			return User{}, common.ErrValidation("name cannot be empty", nil)
		}
	}
	if in.CompanyName != nil {
		params.CompanyName = common.Text(*in.CompanyName)
	}
	if in.CompanyAddress != nil {
		params.CompanyAddress = common.Text(*in.CompanyAddress)
	}
	updated, err := s.queries.UpdateUserProfile(ctx, params)
	if err != nil {
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return ToUser(updated), nil
}

// ParseAccessToken validates a bearer token and returns its user id.
func (s *Service) ParseAccessToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	userID, err := s.tokens.Verify(token, s.now())
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return userID, nil
}

func (s *Service) loadUser(ctx context.Context, userID string) (dbgen.User, error) {
	id, err := common.ParseUUID(userID)
	if err != nil {
		return dbgen.User{}, common.ErrUnauthorized()
	}
	account, err := s.queries.GetUserByID(ctx, id)
	switch {
	case common.IsNoRows(err):
		return dbgen.User{}, common.ErrUnauthorized()
	case err != nil:
		return dbgen.User{}, fmt.Errorf("load user: %w", err)
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}

func positive(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func errInvalidCredentials() *common.AppError {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}
