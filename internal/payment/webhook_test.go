package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/invoice"
)

type webhookFixture struct {
	router   http.Handler
	svc      *Service
	invoices *fakeInvoices
	q        *fakeQueries
	audit    *recordingAuditor
	redis    *miniredis.Miniredis
	owner    string
}

const testSecret = "whsec_test"

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	owner := uuid.NewString()
	q := newFakeQueries()
	invoices := newFakeInvoices(owner)
	provider := Clover{WebhookSecret: testSecret}
	f := &webhookFixture{
		svc:      &Service{Q: q, Invoices: invoices, Provider: CloverMock{BaseURL: "http://pay.test"}},
		invoices: invoices,
		q:        q,
		audit:    &recordingAuditor{},
		redis:    mr,
		owner:    owner,
	}
	wh := Webhook{
		Q:         q,
		Invoices:  invoices,
		Providers: map[string]Provider{"clover-mock": CloverMock{WebhookSecret: testSecret}, "clover": provider},
		Replay:    client,
		ReplayTTL: time.Hour,
		Audit:     f.audit,
	}
	r := chi.NewRouter()
	r.Post("/webhooks/payment/{provider}", wh.Handle)
	f.router = r
	return f
}

func (f *webhookFixture) deliver(provider, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment/"+provider, strings.NewReader(body))
	if signature != "" {
		req.Header.Set(CloverSignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func approvedBody(externalID string, amount int64) string {
	return `{"type":"PAYMENT","id":"pay_` + externalID + `","status":"APPROVED","data":"` + externalID + `","amount":` + strconv.FormatInt(amount, 10) + `}`
}

func getByExternal(provider, externalID string) dbgen.GetPaymentLinkByExternalIDParams {
	return dbgen.GetPaymentLinkByExternalIDParams{Provider: provider, ExternalID: externalID}
}

func TestWebhookSettlesInvoiceOnce(t *testing.T) {
	f := newWebhookFixture(t)
	inv := f.invoices.add(invoice.StatusSent, 42)
	link, err := f.svc.CreateLink(context.Background(), f.owner, inv.ID)
	require.NoError(t, err)

	body := approvedBody(link.ExternalID, 4200)
	sig := SignWebhook(testSecret, []byte(body), time.Now())

	rec := f.deliver("clover-mock", body, sig)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	require.Equal(t, []string{inv.ID}, f.invoices.paidIDs())
	require.Equal(t, []string{"invoice.paid:" + inv.ID}, f.audit.entries)

	stored, err := f.q.GetPaymentLinkByExternalID(context.Background(), getByExternal("clover-mock", link.ExternalID))
	require.NoError(t, err)
	require.Equal(t, string(StatusApproved), stored.Status)

	rec = f.deliver("clover-mock", body, sig)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "duplicate")
	require.Len(t, f.invoices.paidIDs(), 1)
}

func TestWebhookRejectsBadRequests(t *testing.T) {
	f := newWebhookFixture(t)
	inv := f.invoices.add(invoice.StatusSent, 42)
	link, err := f.svc.CreateLink(context.Background(), f.owner, inv.ID)
	require.NoError(t, err)
	body := approvedBody(link.ExternalID, 4200)

	rec := f.deliver("stripe", body, SignWebhook(testSecret, []byte(body), time.Now()))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.deliver("clover-mock", body, SignWebhook("wrong", []byte(body), time.Now()))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	mismatch := approvedBody(link.ExternalID, 1)
	rec = f.deliver("clover-mock", mismatch, SignWebhook(testSecret, []byte(mismatch), time.Now()))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "AMOUNT_MISMATCH")

	rec = f.deliver("clover-mock", `{"status":"APPROVED"}`, SignWebhook(testSecret, []byte(`{"status":"APPROVED"}`), time.Now()))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, f.invoices.paidIDs())
}

func TestWebhookUnknownLinkCanBeRetried(t *testing.T) {
	f := newWebhookFixture(t)
	body := approvedBody("missing", 100)
	sig := SignWebhook(testSecret, []byte(body), time.Now())

	rec := f.deliver("clover-mock", body, sig)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "PAYMENT_LINK_NOT_FOUND")
	require.Empty(t, f.redis.Keys())

	rec = f.deliver("clover-mock", body, sig)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookRefusesLinkForChangedTotal(t *testing.T) {
	f := newWebhookFixture(t)
	inv := f.invoices.add(invoice.StatusSent, 42)
	link, err := f.svc.CreateLink(context.Background(), f.owner, inv.ID)
	require.NoError(t, err)
	f.invoices.setTotal(inv.ID, 75)

	body := approvedBody(link.ExternalID, 4200)
	rec := f.deliver("clover-mock", body, SignWebhook(testSecret, []byte(body), time.Now()))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "AMOUNT_MISMATCH")
	require.Contains(t, rec.Body.String(), `"invoice_amount_minor":7500`)
	require.Empty(t, f.invoices.paidIDs())
	require.Empty(t, f.audit.entries)

	stored, err := f.q.GetPaymentLinkByExternalID(context.Background(), getByExternal("clover-mock", link.ExternalID))
	require.NoError(t, err)
	require.Equal(t, string(StatusSuperseded), stored.Status)

	// a superseded link never settles, even once the total matches again
	f.invoices.setTotal(inv.ID, 42)
	rec = f.deliver("clover-mock", body, SignWebhook(testSecret, []byte(body), time.Now()))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, f.invoices.paidIDs())

	fresh, err := f.svc.CreateLink(context.Background(), f.owner, inv.ID)
	require.NoError(t, err)
	require.NotEqual(t, link.ExternalID, fresh.ExternalID)
}

func TestWebhookDeclinedKeepsInvoiceOpen(t *testing.T) {
	f := newWebhookFixture(t)
	inv := f.invoices.add(invoice.StatusSent, 42)
	link, err := f.svc.CreateLink(context.Background(), f.owner, inv.ID)
	require.NoError(t, err)

	body := `{"type":"PAYMENT","status":"DECLINED","data":"` + link.ExternalID + `"}`
	rec := f.deliver("clover-mock", body, SignWebhook(testSecret, []byte(body), time.Now()))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, f.invoices.paidIDs())

	stored, err := f.q.GetPaymentLinkByExternalID(context.Background(), getByExternal("clover-mock", link.ExternalID))
	require.NoError(t, err)
	require.Equal(t, string(StatusDeclined), stored.Status)
}
