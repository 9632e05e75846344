package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// Audited records one entry per request once the wrapped handler has
// answered. The resource id is read from the {id} route parameter and
// rejected requests are kept; the stored status tells them apart.
func (s *Service) Audited(action, resourceType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if s == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !s.Enabled {
				next.ServeHTTP(w, req)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			actor := Actor{Kind: ActorKindAnonymous}
			if userID, ok := common.UserID(req.Context()); ok {
				actor = Actor{Kind: ActorKindUser, UserID: userID}
			}
			err := s.Record(req.Context(), Entry{
				Actor:        actor,
				Action:       action,
				ResourceType: resourceType,
				ResourceID:   chi.URLParam(req, "id"),
				Request:      req,
				Status:       status,
			})
			if err != nil {
				zerolog.Ctx(req.Context()).Warn().Err(err).Str("action", action).Msg("audit record failed")
			}
		})
	}
}
