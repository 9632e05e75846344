package render

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/invoice"
)

// Handler serves rendered documents.
type Handler struct {
	Service *Service
}

// PDF handles GET /api/v1/invoices/{id}/pdf. ?inline=1 asks browsers to
// display instead of download.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	data, rendered, err := h.Service.PDF(r.Context(), ownerID, invoice.PathID(r))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	disposition := "attachment"
	if inline, _ := strconv.ParseBool(r.URL.Query().Get("inline")); inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, rendered.Invoice.Number+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
