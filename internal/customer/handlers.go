package customer

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// Handler exposes the customer endpoints.
type Handler struct {
	Service *Service
}

type customerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,max=50"`
	Address string `json:"address" validate:"omitempty,max=1000"`
}

// List handles GET /api/v1/customers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	items, total, err := h.Service.List(r.Context(), ownerID, page, perPage)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

// Get handles GET /api/v1/customers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	c, err := h.Service.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Create handles POST /api/v1/customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	in, ok := decode(w, r)
	if !ok {
		return
	}
	c, err := h.Service.Create(r.Context(), ownerID, in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, c)
}

// Update handles PUT /api/v1/customers/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	in, ok := decode(w, r)
	if !ok {
		return
	}
	c, err := h.Service.Update(r.Context(), ownerID, chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/customers/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	if err := h.Service.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var req customerRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return Input{}, false
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, r, err)
		return Input{}, false
	}
	return Input(req), true
}
