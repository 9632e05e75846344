package dashboard

import (
	"net/http"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// Handler exposes dashboard read endpoints.
type Handler struct {
	Svc *Service
}

// Summary handles GET /api/v1/dashboard/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "DASHBOARD_NOT_CONFIGURED", "dashboard service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	summary, err := h.Svc.Summary(r.Context(), userID)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, summary)
}
