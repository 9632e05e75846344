package invoice

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/obs"
	"github.com/noah-isme/backend-invoice/internal/totals"
)

// PathID returns the {id} URL parameter and tags the request log with it.
func PathID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	obs.Annotate(r.Context(), "invoice_id", id)
	return id
}

// Handler exposes the invoice endpoints.
type Handler struct {
	Service *Service
}

type itemRequest struct {
	Name        string  `json:"name" validate:"max=300"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

type adjustmentRequest struct {
	Type  string  `json:"type" validate:"max=20"`
	Value float64 `json:"value"`
}

type invoiceRequest struct {
	CustomerID string            `json:"customer_id" validate:"omitempty,uuid"`
	Currency   string            `json:"currency" validate:"omitempty,len=3"`
	IssueDate  string            `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate    string            `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes      *string           `json:"notes" validate:"omitempty,max=5000"`
	Items      []itemRequest     `json:"items" validate:"max=500,dive"`
	Discount   adjustmentRequest `json:"discount"`
	Tax        adjustmentRequest `json:"tax"`
	Shipping   adjustmentRequest `json:"shipping"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent paid void"`
}

type previewResponse struct {
	Items  []Item        `json:"items"`
	Totals totals.Totals `json:"totals"`
}

// List handles GET /api/v1/invoices?status=&customer_id=&page=&per_page=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	filter := ListFilter{CustomerID: r.URL.Query().Get("customer_id")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			common.WriteError(w, r, common.ErrValidation("invalid status filter", nil).
				WithDetails(map[string]string{"status": "must be one of draft sent paid void"}))
			return
		}
		filter.Status = status
	}
	filter.Page, filter.PerPage = common.ParsePagination(r, 20)
	items, total, err := h.Service.List(r.Context(), ownerID, filter)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.NewPagination(filter.Page, filter.PerPage, total),
	})
}

// Create handles POST /api/v1/invoices.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	inv, err := h.Service.Create(r.Context(), ownerID, in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/invoices/"+inv.ID)
	common.Data(w, http.StatusCreated, inv)
}

// Preview handles POST /api/v1/invoices/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	t, items, err := h.Service.Preview(in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, previewResponse{Items: items, Totals: t})
}

// Get handles GET /api/v1/invoices/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	inv, err := h.Service.Get(r.Context(), ownerID, PathID(r))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, inv)
}

// Update handles PUT /api/v1/invoices/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	inv, err := h.Service.Update(r.Context(), ownerID, PathID(r), in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, inv)
}

// Delete handles DELETE /api/v1/invoices/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	if err := h.Service.Delete(r.Context(), ownerID, PathID(r)); err != nil {
		common.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus handles PATCH /api/v1/invoices/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	var req statusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	inv, err := h.Service.UpdateStatus(r.Context(), ownerID, PathID(r), Status(req.Status))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, inv)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var req invoiceRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return Input{}, false
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, r, err)
		return Input{}, false
	}
	// both dates already passed the datetime rule
	issue, _ := ParseDate(req.IssueDate)
	due, _ := ParseDate(req.DueDate)
	if issue != nil && due != nil && due.Before(*issue) {
		common.WriteError(w, r, common.ErrValidation("due date precedes issue date", nil).
			WithDetails(map[string]string{"due_date": "must not be before issue_date"}))
		return Input{}, false
	}
	return Input{
		CustomerID: req.CustomerID,
		Currency:   req.Currency,
		IssueDate:  issue,
		DueDate:    due,
		Notes:      req.Notes,
		Items:      lo.Map(req.Items, func(it itemRequest, _ int) ItemInput { return ItemInput(it) }),
		Discount:   AdjustmentInput(req.Discount),
		Tax:        AdjustmentInput(req.Tax),
		Shipping:   AdjustmentInput(req.Shipping),
	}, true
}
