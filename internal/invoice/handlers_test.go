package invoice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-invoice/internal/common"
)

func mustUUID(t *testing.T, id string) pgtype.UUID {
	t.Helper()
	u, err := common.ParseUUID(id)
	require.NoError(t, err)
	return u
}

func newRouter(f fixture) http.Handler {
	h := &Handler{Service: f.svc}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(common.WithUserID(req.Context(), f.owner)))
		})
	})
	r.Get("/invoices", h.List)
	r.Post("/invoices", h.Create)
	r.Post("/invoices/preview", h.Preview)
	r.Get("/invoices/{id}", h.Get)
	r.Put("/invoices/{id}", h.Update)
	r.Delete("/invoices/{id}", h.Delete)
	r.Patch("/invoices/{id}/status", h.UpdateStatus)
	return r
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndFetchOverHTTP(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	body := `{
		"customer_id": "` + f.customer + `",
		"currency": "eur",
		"issue_date": "2024-03-01",
		"due_date": "2024-03-31",
		"items": [{"name": "Audit", "quantity": 3, "rate": 100, "amount": 1}],
		"discount": {"type": "amount", "value": 50},
		"tax": {"type": "percentage", "value": 20},
		"shipping": {"type": "fixed", "value": 0}
	}`
	rec := send(router, http.MethodPost, "/invoices", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data Invoice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "EUR", created.Data.Currency)
	require.Equal(t, "2024-03-31", *created.Data.DueDate)
	require.Equal(t, 300.0, created.Data.Totals.Subtotal)
	require.Equal(t, 50.0, created.Data.Totals.DiscountAmount)
	require.Equal(t, 50.0, created.Data.Totals.TaxAmount)
	require.Equal(t, 300.0, created.Data.Totals.Total)
	require.Equal(t, "/api/v1/invoices/"+created.Data.ID, rec.Header().Get("Location"))

	rec = send(router, http.MethodGet, "/invoices/"+created.Data.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"number":"INV-00001"`)

	rec = send(router, http.MethodGet, "/invoices?status=draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_items":1`)

	rec = send(router, http.MethodGet, "/invoices?status=overdue", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewOverHTTP(t *testing.T) {
	router := newRouter(newFixture(t))
	rec := send(router, http.MethodPost, "/invoices/preview",
		`{"items":[{"name":"A","quantity":1,"rate":100}],"discount":{"type":"percentage","value":10},"tax":{"type":"percentage","value":10},"shipping":{"type":"percentage","value":10}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data previewResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.InDelta(t, 10.0, resp.Data.Totals.DiscountAmount, 1e-9)
	require.InDelta(t, 9.0, resp.Data.Totals.TaxAmount, 1e-9)
	require.InDelta(t, 9.9, resp.Data.Totals.ShippingAmount, 1e-9)
	require.InDelta(t, 108.9, resp.Data.Totals.Total, 1e-9)
}

func TestRequestValidationOverHTTP(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	rec := send(router, http.MethodPost, "/invoices", `{"customer_id":"`+f.customer+`","issue_date":"2024-03-10","due_date":"2024-03-01"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "due_date")

	rec = send(router, http.MethodPost, "/invoices", `{"customer_id":"`+f.customer+`","issue_date":"10/03/2024"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "issue_date")

	rec = send(router, http.MethodPost, "/invoices", `{"customer_id":"`+f.customer+`","items":[{"name":"","quantity":1,"rate":1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "items[0].name")

	rec = send(router, http.MethodPost, "/invoices", `{"customer_id":"`+f.customer+`","unknown":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	inv, err := f.svc.Create(t.Context(), f.owner, f.input())
	require.NoError(t, err)

	rec := send(router, http.MethodPatch, "/invoices/"+inv.ID+"/status", `{"status":"paid"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = send(router, http.MethodPatch, "/invoices/"+inv.ID+"/status", `{"status":"void"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"status":"void"`)

	rec = send(router, http.MethodPut, "/invoices/"+inv.ID, `{"customer_id":"`+f.customer+`"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "INVOICE_LOCKED")

	rec = send(router, http.MethodPatch, "/invoices/"+inv.ID+"/status", `{"status":"archived"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
