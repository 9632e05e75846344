package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-invoice/internal/common"
)

type authFixture struct {
	store   *memStore
	mailer  *common.InMemoryEmail
	handler *Handler
}

func newAuthFixture(t *testing.T) authFixture {
	store := newMemStore()
	mailer := &common.InMemoryEmail{}
	return authFixture{
		store:  store,
		mailer: mailer,
		handler: &Handler{
			Service:       newTestService(t, store),
			Mailer:        mailer,
			Cookie:        RefreshCookie{Name: "rt", SameSite: http.SameSiteLaxMode},
			PublicBaseURL: "https://app.invoices.test/",
		},
	}
}

func (f authFixture) do(h http.HandlerFunc, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func refreshCookieOf(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "rt" {
			return c
		}
	}
	t.Fatalf("no refresh cookie in response")
	return nil
}

func accessTokenOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Data tokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NotEmpty(t, env.Data.AccessToken)
	return env.Data.AccessToken
}

func TestSessionLifecycle(t *testing.T) {
	f := newAuthFixture(t)
	f.store.addUser(t, "Ada", "ada@studio.test", "password123")

	login := f.do(f.handler.Login, "/api/v1/auth/login", `{"email":"ADA@studio.test","password":"password123"}`)
	require.Equal(t, http.StatusOK, login.Code)
	require.Contains(t, login.Body.String(), `"email":"ada@studio.test"`)
	accessTokenOf(t, login)
	first := refreshCookieOf(t, login)
	require.True(t, first.HttpOnly)
	require.Equal(t, "/api/v1/auth", first.Path)
	require.True(t, f.store.hasSession(common.Sha256Hex(first.Value)))

	refreshed := f.do(f.handler.Refresh, "/api/v1/auth/refresh", "", first)
	require.Equal(t, http.StatusOK, refreshed.Code)
	require.NotContains(t, refreshed.Body.String(), `"user"`)
	accessTokenOf(t, refreshed)
	second := refreshCookieOf(t, refreshed)
	require.NotEqual(t, first.Value, second.Value)
	require.False(t, f.store.hasSession(common.Sha256Hex(first.Value)))
	require.Equal(t, 1, f.store.sessionCount())

	replay := f.do(f.handler.Refresh, "/api/v1/auth/refresh", "", first)
	require.Equal(t, http.StatusUnauthorized, replay.Code)
	require.Equal(t, -1, refreshCookieOf(t, replay).MaxAge)

	logout := f.do(f.handler.Logout, "/api/v1/auth/logout", "", second)
	require.Equal(t, http.StatusNoContent, logout.Code)
	require.Equal(t, -1, refreshCookieOf(t, logout).MaxAge)
	require.Zero(t, f.store.sessionCount())
}

func TestRefreshRejections(t *testing.T) {
	f := newAuthFixture(t)
	user := f.store.addUser(t, "Ada", "ada@studio.test", "password123")

	require.Equal(t, http.StatusUnauthorized, f.do(f.handler.Refresh, "/api/v1/auth/refresh", "").Code)

	login := f.do(f.handler.Login, "/api/v1/auth/login", `{"email":"ada@studio.test","password":"password123"}`)
	cookie := refreshCookieOf(t, login)
	f.store.setActive(user.ID, false)

	rr := f.do(f.handler.Refresh, "/api/v1/auth/refresh", "", cookie)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Zero(t, f.store.sessionCount(), "sessions of deactivated accounts are dropped")
}

var resetLink = regexp.MustCompile(`https://app\.invoices\.test/reset-password\?token=([A-Za-z0-9_-]+)`)

func TestPasswordResetRevokesSessions(t *testing.T) {
	f := newAuthFixture(t)
	f.store.addUser(t, "Ada", "ada@studio.test", "hunter2!!")

	require.Equal(t, http.StatusOK, f.do(f.handler.Login, "/api/v1/auth/login", `{"email":"ada@studio.test","password":"hunter2!!"}`).Code)
	require.Equal(t, 1, f.store.sessionCount())

	rr := f.do(f.handler.Forgot, "/api/v1/auth/password/forgot", `{"email":"ada@studio.test"}`)
	require.Equal(t, http.StatusNoContent, rr.Code)
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "ada@studio.test", sent[0].To)
	match := resetLink.FindStringSubmatch(sent[0].HTML)
	require.Len(t, match, 2, sent[0].HTML)

	body := `{"token":"` + match[1] + `","newPassword":"newPassw0rd!"}`
	require.Equal(t, http.StatusNoContent, f.do(f.handler.Reset, "/api/v1/auth/password/reset", body).Code)
	require.Zero(t, f.store.sessionCount())
	require.Empty(t, f.store.resets)

	require.Equal(t, http.StatusBadRequest, f.do(f.handler.Reset, "/api/v1/auth/password/reset", body).Code)
	require.Equal(t, http.StatusUnauthorized, f.do(f.handler.Login, "/api/v1/auth/login", `{"email":"ada@studio.test","password":"hunter2!!"}`).Code)
	require.Equal(t, http.StatusOK, f.do(f.handler.Login, "/api/v1/auth/login", `{"email":"ada@studio.test","password":"newPassw0rd!"}`).Code)
}

func TestForgotUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)
	rr := f.do(f.handler.Forgot, "/api/v1/auth/password/forgot", `{"email":"nobody@studio.test"}`)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, f.mailer.Sent())
	require.Empty(t, f.store.resets)
}

func TestResetRejectsWeakPassword(t *testing.T) {
	f := newAuthFixture(t)
	rr := f.do(f.handler.Reset, "/api/v1/auth/password/reset", `{"token":"abc","newPassword":"short"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
}
