package auth

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

var resetMail = template.Must(template.New("reset").Parse(
	`<p>Hi {{.Name}},</p>` +
		`<p>Use the link below to choose a new password. It expires at {{.Expires}}.</p>` +
		`<p><a href="{{.Link}}">{{.Link}}</a></p>`,
))

func hashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func checkPassword(password, hash string) bool {
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	return err == nil && ok
}

// Forgot stores a single-use reset token and mails a link to
// baseURL/reset-password. Unknown or disabled accounts succeed silently.
func (s *Service) Forgot(ctx context.Context, email, baseURL string, sender common.EmailSender) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	account, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil || !account.Active {
		return nil
	}

	token, err := randomToken(32)
	if err != nil {
		return err
	}
	expires := s.now().Add(s.resetTTL)
	if _, err := s.queries.CreatePasswordReset(ctx, dbgen.CreatePasswordResetParams{
		UserID:    account.ID,
		Token:     token,
		ExpiresAt: common.Timestamptz(expires),
	}); err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	if sender == nil {
		return nil
	}

	var body bytes.Buffer
	err = resetMail.Execute(&body, map[string]string{
		"Name":    account.Name,
		"Expires": expires.UTC().Format(time.RFC1123),
		"Link":    strings.TrimRight(baseURL, "/") + "/reset-password?token=" + url.QueryEscape(token),
	})
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	if err := sender.Send(ctx, common.Email{To: account.Email, Subject: "Reset your password", HTML: body.String()}); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// Reset consumes a reset token and sets a new password. Every session and
// outstanding reset of the account is revoked afterwards.
func (s *Service) Reset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errInvalidResetToken()
	}
	if len(newPassword) < minPasswordLen {
		return common.NewAppError("WEAK_PASSWORD", fmt.Sprintf("password must be at least %d characters", minPasswordLen), http.StatusBadRequest, nil)
	}

	pending, err := s.queries.GetPasswordResetByToken(ctx, token)
	if err != nil || pending.UsedAt.Valid || !pending.ExpiresAt.Valid || !s.now().Before(pending.ExpiresAt.Time) {
		return errInvalidResetToken()
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	userID := pending.UserID
	steps := []struct {
		name string
		run  func() error
	}{
		{"update password", func() error {
			_, err := s.queries.UpdateUserPassword(ctx, dbgen.UpdateUserPasswordParams{ID: userID, PasswordHash: hash})
			return err
		}},
		{"mark reset used", func() error { return s.queries.UsePasswordReset(ctx, token) }},
		{"revoke sessions", func() error { return s.queries.DeleteSessionsByUser(ctx, userID) }},
		{"drop resets", func() error { return s.queries.DeletePasswordResetsByUser(ctx, userID) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func errInvalidResetToken() *common.AppError {
	return common.NewAppError("INVALID_TOKEN", "invalid or expired token", http.StatusBadRequest, nil)
}
