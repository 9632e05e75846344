package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

// ClientInfo identifies the device a session was opened from.
type ClientInfo struct {
	UserAgent string
	IP        string
}

// Session is the token material handed to a client after login or refresh.
// Only the SHA-256 of RefreshToken is stored.
type Session struct {
	User          User
	AccessToken   string
	AccessExpiry  time.Time
	RefreshToken  string
	RefreshExpiry time.Time
}

func (s *Service) openSession(ctx context.Context, account dbgen.User, client ClientInfo) (Session, error) {
	out, err := s.withAccessToken(account)
	if err != nil {
		return Session{}, err
	}
	refresh, err := randomToken(48)
	if err != nil {
		return Session{}, err
	}
	out.RefreshToken = refresh
	out.RefreshExpiry = s.now().Add(s.refreshTTL)

	if _, err := s.queries.CreateSession(ctx, dbgen.CreateSessionParams{
		UserID:       account.ID,
		RefreshToken: common.Sha256Hex(refresh),
		UserAgent:    common.Text(client.UserAgent),
		Ip:           common.Text(client.IP),
		ExpiresAt:    common.Timestamptz(out.RefreshExpiry),
	}); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return out, nil
}

// Refresh trades a live refresh token for a new access token and rotates the
// refresh token in place. Expired sessions and sessions of deactivated
// accounts are deleted on sight.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Session{}, errInvalidRefresh()
	}
	stored := common.Sha256Hex(refreshToken)
	current, err := s.queries.GetSessionByToken(ctx, stored)
	if err != nil {
		return Session{}, errInvalidRefresh()
	}
	revoke := func() { _ = s.queries.DeleteSessionByToken(ctx, stored) }

	if !current.ExpiresAt.Valid || !s.now().Before(current.ExpiresAt.Time) {
		revoke()
		return Session{}, errInvalidRefresh()
	}
	account, err := s.queries.GetUserByID(ctx, current.UserID)
	if err != nil || !account.Active {
		revoke()
		return Session{}, errInvalidRefresh()
	}

	out, err := s.withAccessToken(account)
	if err != nil {
		return Session{}, err
	}
	next, err := randomToken(48)
	if err != nil {
		return Session{}, err
	}
	out.RefreshToken = next
	out.RefreshExpiry = s.now().Add(s.refreshTTL)
	if _, err := s.queries.RotateSessionToken(ctx, dbgen.RotateSessionTokenParams{
		ID:           current.ID,
		RefreshToken: common.Sha256Hex(next),
		ExpiresAt:    common.Timestamptz(out.RefreshExpiry),
	}); err != nil {
		revoke()
		return Session{}, fmt.Errorf("rotate session: %w", err)
	}
	return out, nil
}

// Logout deletes the session behind refreshToken. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken == "" {
		return nil
	}
	return s.queries.DeleteSessionByToken(ctx, common.Sha256Hex(refreshToken))
}

func (s *Service) withAccessToken(account dbgen.User) (Session, error) {
	token, expiry, err := s.tokens.Sign(common.UUIDString(account.ID), s.now())
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}
	return Session{User: ToUser(account), AccessToken: token, AccessExpiry: expiry}, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func errInvalidRefresh() *common.AppError {
	return common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
}
