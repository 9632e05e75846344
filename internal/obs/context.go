package obs

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

// RequestInfo travels down the handler chain. Handlers record what they learn
// (the authenticated user, the invoice touched) and the outer middlewares read
// it back after the handler returns.
type RequestInfo struct {
	mu     sync.Mutex
	userID string
	fields []field
}

type field struct{ key, value string }

type requestInfoKey struct{}

// Track installs a RequestInfo unless an outer middleware already did.
func Track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if infoFrom(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), requestInfoKey{}, &RequestInfo{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetUser records the authenticated caller. No-op outside Track.
func SetUser(ctx context.Context, userID string) {
	if info := infoFrom(ctx); info != nil {
		info.mu.Lock()
		info.userID = userID
		info.mu.Unlock()
	}
}

// Annotate attaches a key/value to the request log line.
func Annotate(ctx context.Context, key, value string) {
	if info := infoFrom(ctx); info != nil && value != "" {
		info.mu.Lock()
		info.fields = append(info.fields, field{key, value})
		info.mu.Unlock()
	}
}

// RoutePattern returns the chi pattern matched so far, e.g.
// "/api/v1/invoices/{id}". It is complete once the handler has run.
func RoutePattern(ctx context.Context) string {
	if rc := chi.RouteContext(ctx); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

func infoFrom(ctx context.Context) *RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*RequestInfo)
	return info
}

func (i *RequestInfo) snapshot() (string, []field) {
	if i == nil {
		return "", nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.userID, append([]field(nil), i.fields...)
}
