package auth

import (
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// accessUse marks tokens minted for API calls, so a token signed with the
// same secret for another purpose never authenticates a request.
const (
	useClaim  = "use"
	accessUse = "access"
)

// AccessTokens mints and verifies HS256 bearer tokens whose subject is the
// user id.
type AccessTokens struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	Skew     time.Duration
}

// Sign returns a token for userID valid from now until now+TTL.
func (a AccessTokens) Sign(userID string, now time.Time) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("auth: empty subject")
	}
	expiresAt := now.Add(a.TTL)
	tok, err := jwt.NewBuilder().
		Subject(userID).
		Issuer(a.Issuer).
		Audience([]string{a.Audience}).
		IssuedAt(now).
		NotBefore(now.Add(-a.Skew)).
		Expiration(expiresAt).
		Claim(useClaim, accessUse).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, a.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// Verify checks signature, algorithm, issuer, audience, lifetime and purpose
// and returns the subject. The key is bound to HS256, so tokens signed with
// any other algorithm (including "none") fail verification.
func (a AccessTokens) Verify(raw string, now time.Time) (string, error) {
	tok, err := jwt.ParseString(raw,
		jwt.WithKey(jwa.HS256, a.Secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(a.Skew),
		jwt.WithIssuer(a.Issuer),
		jwt.WithAudience(a.Audience),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithClaimValue(useClaim, accessUse),
	)
	if err != nil {
		return "", err
	}
	return tok.Subject(), nil
}
