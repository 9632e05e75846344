package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// CloverMock issues deterministic links without a network call. Webhooks use
// the Clover body and signature format; with no secret every body is accepted.
type CloverMock struct {
	BaseURL       string
	WebhookSecret string
}

// Name implements Provider.
func (m CloverMock) Name() string { return "clover-mock" }

// CreateLink derives the session id from the invoice, amount and expiry so
// repeated identical requests yield the same link while a reissued link for
// an unchanged total still gets a fresh id.
func (m CloverMock) CreateLink(_ context.Context, req LinkRequest) (LinkResponse, error) {
	if strings.TrimSpace(req.InvoiceID) == "" {
		return LinkResponse{}, errors.New("invoice id is required")
	}
	session := "mock_" + common.Sha256Hex(fmt.Sprintf("%s:%d:%s:%d", req.InvoiceID, req.AmountMinor, req.Currency, req.ExpiresAt.UnixNano()))[:16]
	base := strings.TrimRight(m.BaseURL, "/")
	if base == "" {
		base = "http://localhost:8080"
	}
	expires := req.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(24 * time.Hour)
	}
	return LinkResponse{
		Provider:   m.Name(),
		ExternalID: session,
		URL:        base + "/pay/mock/" + session,
		ExpiresAt:  expires,
	}, nil
}

// VerifyWebhook implements Provider.
func (m CloverMock) VerifyWebhook(r *http.Request, body []byte) (WebhookResult, error) {
	if m.WebhookSecret != "" {
		if err := verifySignature(r.Header.Get(CloverSignatureHeader), body, m.WebhookSecret, time.Now(), 0); err != nil {
			return WebhookResult{Valid: false, Err: err}, nil
		}
	}
	return parseCloverWebhook(body)
}
