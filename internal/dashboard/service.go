// Package dashboard serves per-owner invoice aggregates from a short lived
// Redis cache.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/totals"
)

// Querier defines the database access required for the dashboard.
type Querier interface {
	InvoiceStatusSummary(ctx context.Context, ownerID pgtype.UUID) ([]dbgen.InvoiceStatusSummaryRow, error)
	CountCustomers(ctx context.Context, ownerID pgtype.UUID) (int64, error)
}

// Service provides cached access to dashboard aggregates.
type Service struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
	Now func() time.Time
}

// StatusBucket is the count and summed persisted total for one status.
type StatusBucket struct {
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

// Summary is the dashboard payload.
type Summary struct {
	ByStatus          map[invoice.Status]StatusBucket `json:"by_status"`
	InvoiceCount      int64                           `json:"invoice_count"`
	OutstandingAmount float64                         `json:"outstanding_amount"`
	PaidAmount        float64                         `json:"paid_amount"`
	CustomerCount     int64                           `json:"customer_count"`
	GeneratedAt       time.Time                       `json:"generated_at"`
}

var _ invoice.Invalidator = (*Service)(nil)

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

func summaryKey(ownerID string) string { return cacheKey("dash", "summary", ownerID) }

// Summary returns aggregates over the owner's invoices. Outstanding is the
// sum of sent invoices; drafts are not yet owed.
func (s *Service) Summary(ctx context.Context, ownerID string) (Summary, error) {
	if s == nil || s.Q == nil {
		return Summary{}, fmt.Errorf("dashboard service not configured")
	}
	owner, err := common.ParseUUID(ownerID)
	if err != nil {
		return Summary{}, common.ErrUnauthorized()
	}
	key := summaryKey(ownerID)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}
	rows, err := s.Q.InvoiceStatusSummary(ctx, owner)
	if err != nil {
		return Summary{}, fmt.Errorf("invoice status summary: %w", err)
	}
	customers, err := s.Q.CountCustomers(ctx, owner)
	if err != nil {
		return Summary{}, fmt.Errorf("count customers: %w", err)
	}
	out := Summary{
		ByStatus: map[invoice.Status]StatusBucket{
			invoice.StatusDraft: {},
			invoice.StatusSent:  {},
			invoice.StatusPaid:  {},
			invoice.StatusVoid:  {},
		},
		CustomerCount: customers,
		GeneratedAt:   s.now().UTC(),
	}
	for _, row := range rows {
		status, ok := invoice.ParseStatus(row.Status)
		if !ok {
			continue
		}
		out.ByStatus[status] = StatusBucket{Count: row.InvoiceCount, Amount: totals.Round2(row.TotalAmount)}
		out.InvoiceCount += row.InvoiceCount
	}
	out.OutstandingAmount = out.ByStatus[invoice.StatusSent].Amount
	out.PaidAmount = out.ByStatus[invoice.StatusPaid].Amount
	s.store(ctx, key, out)
	return out, nil
}

// Invalidate drops the cached summary for an owner.
func (s *Service) Invalidate(ctx context.Context, ownerID string) {
	if s == nil || s.R == nil {
		return
	}
	if err := s.R.Del(ctx, summaryKey(ownerID)).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("invalidate dashboard cache")
	}
}

func (s *Service) fromCache(ctx context.Context, key string) (Summary, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Summary{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return Summary{}, false
	}
	var out Summary
	if err := json.Unmarshal(data, &out); err != nil {
		return Summary{}, false
	}
	return out, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
