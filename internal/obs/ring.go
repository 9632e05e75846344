package obs

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/noah-isme/backend-invoice/internal/common"
)

const defaultRingSize = 500

// RingSink is an io.Writer that keeps the most recent log lines in memory.
// Older lines are overwritten once the capacity is reached.
type RingSink struct {
	mu    sync.Mutex
	lines [][]byte
	next  int
	full  bool
}

// NewRingSink allocates a sink holding up to size lines.
func NewRingSink(size int) *RingSink {
	if size <= 0 {
		size = defaultRingSize
	}
	return &RingSink{lines: make([][]byte, size)}
}

// Write stores a copy of p. zerolog emits one event per call.
func (s *RingSink) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}

	s.mu.Lock()
	s.lines[s.next] = line
	s.next = (s.next + 1) % len(s.lines)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()
	return len(p), nil
}

// Snapshot returns up to limit of the newest lines, oldest first.
func (s *RingSink) Snapshot(limit int) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.next
	if s.full {
		count = len(s.lines)
	}
	if limit <= 0 || limit > count {
		limit = count
	}
	out := make([][]byte, 0, limit)
	start := s.next - limit
	for i := 0; i < limit; i++ {
		idx := (start + i + len(s.lines)) % len(s.lines)
		out = append(out, s.lines[idx])
	}
	return out
}

// Cap returns the configured capacity.
func (s *RingSink) Cap() int { return len(s.lines) }

// LogsHandler serves the sink contents to administrators.
type LogsHandler struct {
	Sink *RingSink
}

// List renders the buffered log events as JSON. Lines that are not valid JSON
// (console format) are returned as strings.
func (h LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Sink == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "LOGS_DISABLED", "log buffer not configured", nil)
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 100)
	lines := h.Sink.Snapshot(limit)
	entries := make([]any, 0, len(lines))
	for _, line := range lines {
		if json.Valid(line) {
			entries = append(entries, json.RawMessage(line))
			continue
		}
		entries = append(entries, string(line))
	}
	common.Data(w, http.StatusOK, map[string]any{
		"entries":  entries,
		"capacity": h.Sink.Cap(),
	})
}
