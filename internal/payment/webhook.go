package payment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/audit"
	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/obs"
	"github.com/noah-isme/backend-invoice/internal/totals"
)

// Settler loads and settles invoices; invoice.Service satisfies it.
type Settler interface {
	GetByID(ctx context.Context, id string) (invoice.Invoice, error)
	MarkPaid(ctx context.Context, id pgtype.UUID) (invoice.Invoice, bool, error)
}

// Auditor records system initiated changes; audit.Service satisfies it.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Webhook handles payment provider callbacks: signature verification, replay
// protection, link status updates and invoice settlement.
type Webhook struct {
	Q         Queries
	Invoices  Settler
	Providers map[string]Provider
	Replay    *redis.Client
	ReplayTTL time.Duration
	Audit     Auditor
}

const maxWebhookBody = 1 << 20

// Handle processes POST /api/v1/webhooks/payment/{provider}.
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	providerKey := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "provider")))
	result := "error"
	defer func() { obs.Inc(obs.PaymentWebhookTotal, normaliseLabel(providerKey), result) }()

	if h.Q == nil || h.Providers == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	provider, ok := h.Providers[providerKey]
	if !ok {
		result = "unknown_provider"
		common.JSONError(w, http.StatusNotFound, "PROVIDER_NOT_SUPPORTED", "unknown provider", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}
	verified, err := provider.VerifyWebhook(r, body)
	if err != nil {
		result = "invalid_payload"
		common.JSONError(w, http.StatusBadRequest, "WEBHOOK_INVALID", err.Error(), nil)
		return
	}
	if !verified.Valid {
		result = "invalid_signature"
		zerolog.Ctx(r.Context()).Warn().Err(verified.Err).Str("provider", providerKey).Msg("payment webhook rejected")
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed", nil)
		return
	}

	ctx := r.Context()
	replayKey := fmt.Sprintf("wh:%s:%s", providerKey, common.Sha256Hex(string(body)))
	if h.Replay != nil && h.ReplayTTL > 0 {
		fresh, err := h.Replay.SetNX(ctx, replayKey, "1", h.ReplayTTL).Result()
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "REPLAY_STORE_ERROR", "replay store unavailable", nil)
			return
		}
		if !fresh {
			result = "duplicate"
			common.JSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
			return
		}
	}

	outcome, err := h.apply(ctx, provider.Name(), verified)
	if err != nil {
		// let the provider retry the same delivery
		if h.Replay != nil && h.ReplayTTL > 0 {
			_ = h.Replay.Del(context.WithoutCancel(ctx), replayKey).Err()
		}
		common.WriteError(w, r, err)
		return
	}
	result = outcome
	w.WriteHeader(http.StatusNoContent)
}

func (h Webhook) apply(ctx context.Context, providerName string, verified WebhookResult) (string, error) {
	link, err := h.Q.GetPaymentLinkByExternalID(ctx, dbgen.GetPaymentLinkByExternalIDParams{
		Provider:   providerName,
		ExternalID: verified.ExternalID,
	})
	if err != nil {
		if common.IsNoRows(err) {
			return "", common.NewAppError("PAYMENT_LINK_NOT_FOUND", "payment link not found", http.StatusNotFound, nil)
		}
		return "", fmt.Errorf("get payment link: %w", err)
	}
	if verified.AmountMinor > 0 && verified.AmountMinor != link.AmountMinor {
		return "", common.NewAppError("AMOUNT_MISMATCH", "provider amount mismatch", http.StatusBadRequest, nil).
			WithDetails(map[string]int64{"expected": link.AmountMinor, "received": verified.AmountMinor})
	}
	if LinkStatus(link.Status) == StatusApproved && verified.Status != StatusApproved {
		return "ignored", nil
	}
	if verified.Status == StatusApproved {
		if err := h.checkInvoiceAmount(ctx, link, verified.Payload); err != nil {
			return "", err
		}
	}
	if _, err := h.Q.UpdatePaymentLinkStatus(ctx, dbgen.UpdatePaymentLinkStatusParams{
		ID:      link.ID,
		Status:  string(verified.Status),
		Payload: verified.Payload,
	}); err != nil {
		return "", fmt.Errorf("update payment link: %w", err)
	}
	if verified.Status != StatusApproved {
		return "status_" + strings.ToLower(string(verified.Status)), nil
	}

	inv, changed, err := h.Invoices.MarkPaid(ctx, link.InvoiceID)
	if err != nil {
		return "", err
	}
	if !changed {
		return "already_paid", nil
	}
	if h.Audit != nil {
		if err := h.Audit.Record(ctx, audit.Entry{
			Actor:        audit.SystemActor,
			Action:       "invoice.paid",
			ResourceType: "invoice",
			ResourceID:   inv.ID,
			Metadata: map[string]any{
				"provider":     providerName,
				"external_id":  link.ExternalID,
				"amount_minor": link.AmountMinor,
			},
		}); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("audit payment settlement")
		}
	}
	zerolog.Ctx(ctx).Info().Str("invoice", inv.Number).Str("provider", providerName).Msg("invoice settled by payment webhook")
	return "paid", nil
}

// checkInvoiceAmount refuses to settle through a superseded link or one whose
// amount or currency no longer matches the invoice. The link is marked
// superseded either way.
func (h Webhook) checkInvoiceAmount(ctx context.Context, link dbgen.PaymentLink, payload []byte) error {
	inv, err := h.Invoices.GetByID(ctx, common.UUIDString(link.InvoiceID))
	if err != nil {
		return err
	}
	due := totals.MinorUnits(inv.Totals.Total)
	superseded := LinkStatus(link.Status) == StatusSuperseded
	if !superseded && due == link.AmountMinor && strings.EqualFold(inv.Currency, link.Currency) {
		return nil
	}
	if !superseded {
		if _, err := h.Q.UpdatePaymentLinkStatus(ctx, dbgen.UpdatePaymentLinkStatusParams{
			ID:      link.ID,
			Status:  string(StatusSuperseded),
			Payload: payload,
		}); err != nil {
			return fmt.Errorf("supersede payment link: %w", err)
		}
	}
	zerolog.Ctx(ctx).Warn().
		Str("invoice", inv.Number).
		Int64("link_amount_minor", link.AmountMinor).
		Int64("invoice_amount_minor", due).
		Msg("payment link no longer matches invoice")
	return common.NewAppError("AMOUNT_MISMATCH", "payment link no longer matches the invoice", http.StatusConflict, nil).
		WithDetails(map[string]any{
			"link_amount_minor":    link.AmountMinor,
			"link_currency":        link.Currency,
			"invoice_amount_minor": due,
			"invoice_currency":     inv.Currency,
		})
}
