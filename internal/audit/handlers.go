package audit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

// Handler exposes HTTP endpoints for working with audit logs.
type Handler struct {
	Store Store
}

type logView struct {
	ID           string         `json:"id"`
	ActorKind    string         `json:"actor_kind"`
	ActorUserID  string         `json:"actor_user_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Method       string         `json:"method"`
	Path         string         `json:"path"`
	Status       int32          `json:"status"`
	IP           string         `json:"ip,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    string         `json:"created_at"`
}

// List handles GET /api/v1/admin/audit-logs.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 50)
	limit, offset := common.LimitOffset(page, perPage)

	rows, err := h.Store.ListAuditLogs(r.Context(), dbgen.ListAuditLogsParams{Limit: limit, Offset: offset})
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	views := make([]logView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toView(row))
	}
	common.Data(w, http.StatusOK, views)
}

func toView(row dbgen.AuditLog) logView {
	v := logView{
		ID:           common.UUIDString(row.ID),
		ActorKind:    row.ActorKind,
		ActorUserID:  common.UUIDString(row.ActorUserID),
		Action:       row.Action,
		ResourceType: row.ResourceType,
		ResourceID:   common.TextValue(row.ResourceID),
		Method:       row.Method,
		Path:         row.Path,
		Status:       row.Status,
		IP:           common.TextValue(row.Ip),
		RequestID:    common.TextValue(row.RequestID),
	}
	if row.CreatedAt.Valid {
		v.CreatedAt = row.CreatedAt.Time.UTC().Format(time.RFC3339)
	}
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &v.Metadata)
	}
	return v
}
