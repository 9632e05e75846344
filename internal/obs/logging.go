package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// NewLogger configures a zerolog logger using the provided format and level.
// Any extra writers (for example a RingSink) receive the JSON form of every
// event regardless of the console format.
func NewLogger(format, level string, extra ...io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	if len(extra) > 0 {
		writers := append([]io.Writer{out}, extra...)
		out = zerolog.MultiLevelWriter(writers...)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// RequestLogger writes one line per request and puts a request scoped
// logger on the context for handlers (zerolog.Ctx).
type RequestLogger struct {
	Logger zerolog.Logger
}

// Middleware must run inside Track so the user id set by auth is visible.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped := l.Logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		r = r.WithContext(scoped.WithContext(r.Context()))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := statusOf(ww)
		var evt *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			evt = scoped.Error()
		case status >= http.StatusBadRequest:
			evt = scoped.Warn()
		default:
			evt = scoped.Info()
		}
		evt = evt.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int("bytes", ww.BytesWritten())
		if route := RoutePattern(r.Context()); route != "" {
			evt = evt.Str("route", route)
		}
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			evt = evt.Str("trace_id", sc.TraceID().String())
		}
		userID, fields := infoFrom(r.Context()).snapshot()
		if userID != "" {
			evt = evt.Str("user_id", userID)
		}
		for _, f := range fields {
			evt = evt.Str(f.key, f.value)
		}
		if ip := common.ClientIP(r); ip != "" {
			evt = evt.Str("remote_addr", ip)
		}
		evt.Msg("http request")
	})
}
