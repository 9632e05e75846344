package tasks

import (
	"errors"
	"io"
	"net/http"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/invoice"
)

// Handler exposes the send endpoint.
type Handler struct {
	Sender *Sender
}

type sendRequest struct {
	To string `json:"to" validate:"omitempty,email"`
}

// Send handles POST /api/v1/invoices/{id}/send. The body is optional.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	var req sendRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := common.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			common.WriteError(w, r, err)
			return
		}
	}
	if err := common.ValidateStruct(&req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	queued, err := h.Sender.Send(r.Context(), userID, invoice.PathID(r), req.To)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusAccepted, queued)
}
