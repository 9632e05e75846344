package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-invoice/internal/common"
)

func TestParseAccessTokenUsesServiceClock(t *testing.T) {
	svc := newTestService(t, newMemStore())
	issued := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return issued })

	token, expires, err := svc.tokens.Sign("user-id", svc.now())
	require.NoError(t, err)
	require.Equal(t, issued.Add(time.Minute), expires)

	subject, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-id", subject)

	svc.WithNow(func() time.Time { return issued.Add(2 * time.Minute) })
	_, err = svc.ParseAccessToken(token)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}

func TestParseAccessTokenRejectsForeignSecret(t *testing.T) {
	svc := newTestService(t, newMemStore())
	other := newTestService(t, newMemStore())
	other.tokens.Secret = []byte("another-secret")

	_, err := svc.ParseAccessToken(mustSign(t, other, "user-id"))
	require.Error(t, err)
}

func TestRequireAuthAttachesUserID(t *testing.T) {
	svc := newTestService(t, newMemStore())
	token := mustSign(t, svc, "user-42")

	var seen string
	h := Middleware{Service: svc}.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "user-42", seen)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
