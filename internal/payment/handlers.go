package payment

import (
	"net/http"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/invoice"
)

// Handler exposes the payment link endpoint.
type Handler struct {
	Service *Service
}

// CreateLink handles POST /api/v1/invoices/{id}/payment-link. A reused link
// answers 200, a new one 201.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	link, err := h.Service.CreateLink(r.Context(), userID, invoice.PathID(r))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	status := http.StatusCreated
	if link.Reused {
		status = http.StatusOK
	}
	common.Data(w, status, link)
}
