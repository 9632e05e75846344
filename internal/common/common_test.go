package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestIdemRejectsReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	idem := Idem{R: client}

	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", nil)
		req.Header.Set("Idempotency-Key", "abc")
		req = req.WithContext(WithUserID(req.Context(), "u1"))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusCreated, send().Code)
	rr := send()
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, 1, calls)
}

func TestIdemReleasesKeyOnServerError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	idem := Idem{R: client}

	status := http.StatusBadGateway
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	req := func() int {
		r := httptest.NewRequest(http.MethodPost, "/x", nil)
		r.Header.Set("Idempotency-Key", "k")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr.Code
	}
	require.Equal(t, http.StatusBadGateway, req())
	status = http.StatusOK
	require.Equal(t, http.StatusOK, req())
	require.Equal(t, http.StatusConflict, req())
}

func TestWriteErrorMapsAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	err := fmt.Errorf("wrap: %w", ErrValidation("bad input", nil).WithDetails(map[string]string{"items[0].name": "is required"}))
	WriteError(rr, httptest.NewRequest(http.MethodGet, "/", nil), err)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"VALIDATION_ERROR"`)
	require.Contains(t, rr.Body.String(), `items[0].name`)
}

func TestWriteErrorNoRowsAndUnknown(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, nil, pgx.ErrNoRows)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	WriteError(rr, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "boom")
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	require.Equal(t, "a", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
	err := DecodeJSON(req, &dst)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	require.ErrorAs(t, DecodeJSON(req, &dst), &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&per_page=500", nil)
	page, perPage := ParsePagination(req, 20)
	require.Equal(t, 3, page)
	require.Equal(t, 100, perPage)

	limit, offset := LimitOffset(page, 20)
	require.Equal(t, int32(20), limit)
	require.Equal(t, int32(40), offset)

	require.Equal(t, 3, NewPagination(1, 20, 41).TotalPages)
}

func TestUUIDRoundTrip(t *testing.T) {
	id, err := ParseUUID("6f1c1c1e-2d0b-4f7e-9a51-3f3c2b1a0d9e")
	require.NoError(t, err)
	require.Equal(t, "6f1c1c1e-2d0b-4f7e-9a51-3f3c2b1a0d9e", UUIDString(id))

	_, err = ParseUUID("not-a-uuid")
	require.Error(t, err)
	require.False(t, Text("  ").Valid)
}

func TestInMemoryEmail(t *testing.T) {
	var mail InMemoryEmail
	require.NoError(t, mail.Send(context.Background(), Email{To: "a@example.com", Subject: "hi"}))
	require.Len(t, mail.Sent(), 1)
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required,max=5"`
	}
	err := ValidateStruct(payload{Email: "nope", Name: "toolong"})
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be a valid email", details["email"])
	require.Equal(t, "must be at most 5", details["name"])

	require.NoError(t, ValidateStruct(payload{Email: "a@b.co", Name: "ok"}))
}
