package payment

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// LinkStatus is the provider-neutral state of a payment link.
type LinkStatus string

const (
	StatusPending  LinkStatus = "PENDING"
	StatusApproved LinkStatus = "APPROVED"
	StatusDeclined LinkStatus = "DECLINED"
	StatusExpired  LinkStatus = "EXPIRED"

	// StatusSuperseded marks a link whose invoice changed after it was issued.
	StatusSuperseded LinkStatus = "SUPERSEDED"
)

// LinkRequest captures what a provider needs to open a hosted checkout for an invoice.
type LinkRequest struct {
	InvoiceID     string
	Number        string
	AmountMinor   int64
	Currency      string
	CustomerName  string
	CustomerEmail string
	ExpiresAt     time.Time
	RedirectURL   string
}

// LinkResponse is the minimal information a provider returns for a new link.
type LinkResponse struct {
	Provider   string
	ExternalID string
	URL        string
	ExpiresAt  time.Time
	Payload    []byte
}

// WebhookResult contains the normalised data extracted from a notification
// after signature verification.
type WebhookResult struct {
	Valid       bool
	ExternalID  string
	Status      LinkStatus
	AmountMinor int64
	Payload     []byte
	Err         error
}

// Provider abstracts the operations required from a hosted payment page provider.
type Provider interface {
	Name() string
	CreateLink(ctx context.Context, req LinkRequest) (LinkResponse, error)
	VerifyWebhook(r *http.Request, body []byte) (WebhookResult, error)
}

func normaliseStatus(status string) LinkStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "APPROVED", "PAID", "SUCCESS":
		return StatusApproved
	case "DECLINED", "FAILED", "CANCELED":
		return StatusDeclined
	case "EXPIRED":
		return StatusExpired
	default:
		return StatusPending
	}
}

func normaliseLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
