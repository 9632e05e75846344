package security

import (
	"bytes"
	"io"
	"net/http"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// LimitBody rejects request bodies larger than max bytes with 413. Accepted
// bodies are buffered and replayed because webhook signature checks hash the
// raw payload before the handler decodes it. A non-positive max disables it.
func LimitBody(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if max <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > max {
				payloadTooLarge(w, max)
				return
			}
			raw, err := io.ReadAll(io.LimitReader(r.Body, max+1))
			_ = r.Body.Close()
			switch {
			case err != nil:
				common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
				return
			case int64(len(raw)) > max:
				payloadTooLarge(w, max)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))
			r.ContentLength = int64(len(raw))
			next.ServeHTTP(w, r)
		})
	}
}

func payloadTooLarge(w http.ResponseWriter, max int64) {
	w.Header().Set("Connection", "close")
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", map[string]int64{"max_bytes": max})
}
