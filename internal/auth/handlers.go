package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/common"
)

const refreshCookiePath = "/api/v1/auth"

// RefreshCookie describes the httpOnly cookie carrying the refresh token. An
// empty Name disables cookie handling, which makes refresh always fail.
type RefreshCookie struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (c RefreshCookie) set(w http.ResponseWriter, value string, expires time.Time) {
	if c.Name == "" {
		return
	}
	cookie := c.base(value)
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = expires
	}
	http.SetCookie(w, cookie)
}

func (c RefreshCookie) clear(w http.ResponseWriter) { c.set(w, "", time.Time{}) }

func (c RefreshCookie) base(value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Domain:   c.Domain,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

func (c RefreshCookie) read(r *http.Request) string {
	if c.Name == "" {
		return ""
	}
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

// Handler serves /api/v1/auth.
type Handler struct {
	Service       *Service
	Mailer        common.EmailSender
	Cookie        RefreshCookie
	PublicBaseURL string
}

type credentials struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	User        *User     `json:"user,omitempty"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !bind(w, r, &req) {
		return
	}
	user, err := h.Service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, user)
}

// Login handles POST /login and sets the refresh cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bind(w, r, &req) {
		return
	}
	session, err := h.Service.Login(r.Context(), req.Email, req.Password, ClientInfo{UserAgent: r.UserAgent(), IP: common.ClientIP(r)})
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	h.respondWithSession(w, session, true)
}

// Refresh handles POST /refresh. The refresh token is only accepted from the
// cookie; a rejected token also clears it.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.Refresh(r.Context(), h.Cookie.read(r))
	if err != nil {
		h.Cookie.clear(w)
		common.WriteError(w, r, err)
		return
	}
	h.respondWithSession(w, session, false)
}

// Logout handles POST /logout. It always answers 204.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context(), h.Cookie.read(r)); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("revoke session")
	}
	h.Cookie.clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	user, err := h.Service.Me(r.Context(), userID)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, r, common.ErrUnauthorized())
		return
	}
	var req struct {
		Name           *string `json:"name" validate:"omitempty,max=120"`
		CompanyName    *string `json:"company_name" validate:"omitempty,max=200"`
		CompanyAddress *string `json:"company_address" validate:"omitempty,max=500"`
	}
	if !bind(w, r, &req) {
		return
	}
	user, err := h.Service.UpdateProfile(r.Context(), userID, ProfileInput(req))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, user)
}

// Forgot handles POST /password/forgot. It answers 204 whether or not the
// address is registered.
func (h *Handler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if !bind(w, r, &req) {
		return
	}
	if err := h.Service.Forgot(r.Context(), req.Email, h.PublicBaseURL, h.Mailer); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("password reset request")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /password/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
	if !bind(w, r, &req) {
		return
	}
	if err := h.Service.Reset(r.Context(), req.Token, req.NewPassword); err != nil {
		common.WriteError(w, r, err)
		return
	}
	h.Cookie.clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondWithSession(w http.ResponseWriter, s Session, withUser bool) {
	h.Cookie.set(w, s.RefreshToken, s.RefreshExpiry)
	resp := tokenResponse{AccessToken: s.AccessToken, ExpiresAt: s.AccessExpiry}
	if withUser {
		resp.User = &s.User
	}
	common.Data(w, http.StatusOK, resp)
}

func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := common.DecodeJSON(r, dst)
	if err == nil {
		err = common.ValidateStruct(dst)
	}
	if err != nil {
		common.WriteError(w, r, err)
		return false
	}
	return true
}
