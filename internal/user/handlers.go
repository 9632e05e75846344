package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// Handler exposes the admin account endpoints.
type Handler struct {
	Service *Service
}

type accessRequest struct {
	Roles  []string `json:"roles" validate:"omitempty,min=1,dive,oneof=admin user"`
	Active *bool    `json:"active"`
}

// List handles GET /api/v1/admin/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	users, total, err := h.Service.List(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       users,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

// Update handles PATCH /api/v1/admin/users/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	var req accessRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	user, err := h.Service.UpdateAccess(r.Context(), actorID, chi.URLParam(r, "id"), AccessInput(req))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/admin/users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	if err := h.Service.Delete(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
