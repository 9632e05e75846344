package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/backend-invoice/internal/resilience"
)

// CloverSignatureHeader carries "t=<unix>,v1=<hex hmac>" on Clover webhooks.
const CloverSignatureHeader = "Clover-Signature"

const checkoutPath = "/invoicingcheckoutservice/v1/checkouts"

// Clover creates hosted checkout sessions through the Clover ecommerce API.
type Clover struct {
	BaseURL       string
	MerchantID    string
	PrivateKey    string
	WebhookSecret string
	HTTP          resilience.HTTPClient
	// Tolerance bounds the accepted webhook timestamp skew. Zero means five minutes.
	Tolerance time.Duration
	Now       func() time.Time
}

type cloverCheckoutRequest struct {
	Customer     cloverCustomer     `json:"customer"`
	ShoppingCart cloverShoppingCart `json:"shoppingCart"`
	RedirectURLs *cloverRedirects   `json:"redirectUrls,omitempty"`
}

type cloverCustomer struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
}

type cloverShoppingCart struct {
	LineItems []cloverLineItem `json:"lineItems"`
}

type cloverLineItem struct {
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	UnitQty int    `json:"unitQty"`
	Note    string `json:"note,omitempty"`
}

type cloverRedirects struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
}

type cloverCheckoutResponse struct {
	Href              string `json:"href"`
	CheckoutSessionID string `json:"checkoutSessionId"`
	ExpirationTime    string `json:"expirationTime"`
}

type cloverWebhook struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Status     string `json:"status"`
	Data       string `json:"data"`
	MerchantID string `json:"merchantId"`
	Amount     int64  `json:"amount"`
}

// Name implements Provider.
func (c Clover) Name() string { return "clover" }

// CreateLink opens a checkout session with a single cart line for the invoice total.
func (c Clover) CreateLink(ctx context.Context, req LinkRequest) (LinkResponse, error) {
	if strings.TrimSpace(c.MerchantID) == "" || strings.TrimSpace(c.PrivateKey) == "" {
		return LinkResponse{}, errors.New("clover: merchant credentials not configured")
	}
	if req.AmountMinor <= 0 {
		return LinkResponse{}, errors.New("clover: amount must be positive")
	}
	payload := cloverCheckoutRequest{
		Customer: cloverCustomer{Email: req.CustomerEmail, FirstName: req.CustomerName},
		ShoppingCart: cloverShoppingCart{LineItems: []cloverLineItem{{
			Name:    "Invoice " + req.Number,
			Price:   req.AmountMinor,
			UnitQty: 1,
			Note:    req.InvoiceID,
		}}},
	}
	if req.RedirectURL != "" {
		payload.RedirectURLs = &cloverRedirects{Success: req.RedirectURL, Failure: req.RedirectURL}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return LinkResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+checkoutPath, bytes.NewReader(body))
	if err != nil {
		return LinkResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.PrivateKey)
	httpReq.Header.Set("X-Clover-Merchant-Id", c.MerchantID)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(ctx, httpReq)
	if err != nil {
		return LinkResponse{}, fmt.Errorf("clover: create checkout: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return LinkResponse{}, fmt.Errorf("clover: read checkout: %w", err)
	}
	if resp.StatusCode >= 300 {
		return LinkResponse{}, fmt.Errorf("clover: create checkout: status %d", resp.StatusCode)
	}
	var out cloverCheckoutResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return LinkResponse{}, fmt.Errorf("clover: decode checkout: %w", err)
	}
	if out.Href == "" || out.CheckoutSessionID == "" {
		return LinkResponse{}, errors.New("clover: checkout response missing href or session id")
	}
	expires := req.ExpiresAt
	if t, err := time.Parse(time.RFC3339, out.ExpirationTime); err == nil {
		expires = t
	}
	return LinkResponse{
		Provider:   c.Name(),
		ExternalID: out.CheckoutSessionID,
		URL:        out.Href,
		ExpiresAt:  expires,
		Payload:    raw,
	}, nil
}

// VerifyWebhook checks the Clover-Signature header and normalises the body.
func (c Clover) VerifyWebhook(r *http.Request, body []byte) (WebhookResult, error) {
	if err := verifySignature(r.Header.Get(CloverSignatureHeader), body, c.WebhookSecret, c.now(), c.Tolerance); err != nil {
		return WebhookResult{Valid: false, Err: err}, nil
	}
	return parseCloverWebhook(body)
}

func (c Clover) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func parseCloverWebhook(body []byte) (WebhookResult, error) {
	var payload cloverWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookResult{}, fmt.Errorf("decode webhook: %w", err)
	}
	if strings.TrimSpace(payload.Data) == "" {
		return WebhookResult{}, errors.New("webhook missing checkout session id")
	}
	return WebhookResult{
		Valid:       true,
		ExternalID:  strings.TrimSpace(payload.Data),
		Status:      normaliseStatus(payload.Status),
		AmountMinor: payload.Amount,
		Payload:     body,
	}, nil
}

// SignWebhook produces a Clover-Signature header value for body.
func SignWebhook(secret string, body []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + signature(secret, ts, body)
}

func signature(secret, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(header string, body []byte, secret string, now time.Time, tolerance time.Duration) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("webhook secret not configured")
	}
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			sig = value
		}
	}
	if ts == "" || sig == "" {
		return errors.New("malformed signature header")
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return errors.New("malformed signature timestamp")
	}
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	if skew := now.Sub(time.Unix(unix, 0)).Abs(); skew > tolerance {
		return errors.New("signature timestamp outside tolerance")
	}
	if !hmac.Equal([]byte(signature(secret, ts, body)), []byte(sig)) {
		return errors.New("invalid signature")
	}
	return nil
}
