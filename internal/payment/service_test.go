package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/lock"
)

type countingProvider struct {
	CloverMock
	calls int
	fail  error
}

func (p *countingProvider) CreateLink(ctx context.Context, req LinkRequest) (LinkResponse, error) {
	p.calls++
	if p.fail != nil {
		return LinkResponse{}, p.fail
	}
	return p.CloverMock.CreateLink(ctx, req)
}

type serviceFixture struct {
	svc      *Service
	q        *fakeQueries
	invoices *fakeInvoices
	provider *countingProvider
	owner    string
	now      time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &serviceFixture{
		q:        newFakeQueries(),
		provider: &countingProvider{CloverMock: CloverMock{BaseURL: "http://pay.test"}},
		owner:    uuid.NewString(),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.invoices = newFakeInvoices(f.owner)
	f.svc = &Service{
		Q:               f.q,
		Invoices:        f.invoices,
		Provider:        f.provider,
		Locker:          lock.Locker{Client: client, RetryBackoff: time.Millisecond},
		LinkTTL:         time.Hour,
		RedirectBaseURL: "https://app.test",
		Now:             func() time.Time { return f.now },
	}
	return f
}

func TestCreateLinkPersistsAndReuses(t *testing.T) {
	f := newServiceFixture(t)
	inv := f.invoices.add(invoice.StatusSent, 129.245)
	ctx := context.Background()

	first, err := f.svc.CreateLink(ctx, f.owner, inv.ID)
	require.NoError(t, err)
	require.False(t, first.Reused)
	require.EqualValues(t, 12925, first.AmountMinor)
	require.Equal(t, StatusPending, first.Status)
	require.Equal(t, "clover-mock", first.Provider)
	require.Equal(t, first.URL, f.q.invoiceURLs[mustParse(t, inv.ID)])

	second, err := f.svc.CreateLink(ctx, f.owner, inv.ID)
	require.NoError(t, err)
	require.True(t, second.Reused)
	require.Equal(t, first.ExternalID, second.ExternalID)
	require.Equal(t, 1, f.provider.calls)
	require.Equal(t, 1, f.q.linkCount())
}

func TestCreateLinkReplacesStaleLinks(t *testing.T) {
	f := newServiceFixture(t)
	inv := f.invoices.add(invoice.StatusDraft, 50)
	ctx := context.Background()

	first, err := f.svc.CreateLink(ctx, f.owner, inv.ID)
	require.NoError(t, err)

	f.invoices.setTotal(inv.ID, 75)
	changed, err := f.svc.CreateLink(ctx, f.owner, inv.ID)
	require.NoError(t, err)
	require.False(t, changed.Reused)
	require.NotEqual(t, first.ExternalID, changed.ExternalID)
	require.EqualValues(t, 7500, changed.AmountMinor)

	f.now = f.now.Add(2 * time.Hour)
	expired, err := f.svc.CreateLink(ctx, f.owner, inv.ID)
	require.NoError(t, err)
	require.False(t, expired.Reused)
	require.Equal(t, 3, f.q.linkCount())
}

func TestCreateLinkRefusesUnpayableInvoices(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		status invoice.Status
		total  float64
		code   string
		http   int
	}{
		{"paid", invoice.StatusPaid, 10, "INVOICE_ALREADY_PAID", http.StatusConflict},
		{"void", invoice.StatusVoid, 10, "INVOICE_LOCKED", http.StatusConflict},
		{"zero draft", invoice.StatusDraft, 0, "INVOICE_NOT_PAYABLE", http.StatusUnprocessableEntity},
		{"sub cent", invoice.StatusSent, 0.004, "INVOICE_NOT_PAYABLE", http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := f.invoices.add(tc.status, tc.total)
			_, err := f.svc.CreateLink(ctx, f.owner, inv.ID)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, tc.code, appErr.Code)
			require.Equal(t, tc.http, appErr.HTTPStatus)
		})
	}
	require.Zero(t, f.provider.calls)

	_, err := f.svc.CreateLink(ctx, uuid.NewString(), f.invoices.add(invoice.StatusSent, 10).ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestCreateLinkProviderFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.provider.fail = errors.New("upstream down")
	inv := f.invoices.add(invoice.StatusSent, 10)

	_, err := f.svc.CreateLink(context.Background(), f.owner, inv.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "PAYMENT_PROVIDER_ERROR", appErr.Code)
	require.Zero(t, f.q.linkCount())
}

func mustParse(t *testing.T, id string) pgtype.UUID {
	t.Helper()
	u, err := common.ParseUUID(id)
	require.NoError(t, err)
	return u
}
