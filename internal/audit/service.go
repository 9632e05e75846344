package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/obs"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindUser represents an authenticated end-user.
	ActorKindUser ActorKind = "user"
	// ActorKindSystem represents internal automated actions such as
	// payment webhooks and background deliveries.
	ActorKindSystem ActorKind = "system"
	// ActorKindAnonymous represents unauthenticated actors.
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor describes the entity performing the action.
type Actor struct {
	Kind   ActorKind
	UserID string
}

// SystemActor is used for state changes that no user initiated directly.
var SystemActor = Actor{Kind: ActorKindSystem}

// Entry is one audited action. Request is optional; without it the entry is
// recorded with method SYSTEM.
type Entry struct {
	Actor        Actor
	Action       string
	ResourceType string
	ResourceID   string
	Request      *http.Request
	Status       int
	Metadata     map[string]any
}

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg dbgen.InsertAuditLogParams) (dbgen.InsertAuditLogRow, error)
	ListAuditLogs(ctx context.Context, arg dbgen.ListAuditLogsParams) ([]dbgen.AuditLog, error)
}

// Service persists audit logs for admin and billing flows.
type Service struct {
	Store   Store
	Enabled bool
}

// Record persists an audit log entry when auditing is enabled.
func (s Service) Record(ctx context.Context, e Entry) error {
	if !s.Enabled {
		return nil
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	params := dbgen.InsertAuditLogParams{
		ActorKind:    string(normalizeActorKind(e.Actor.Kind)),
		ActorUserID:  nullUUID(e.Actor.UserID),
		ResourceID:   common.Text(e.ResourceID),
		Method:       "SYSTEM",
		Status:       int32(e.Status),
		Metadata:     encodeMetadata(e.Metadata, ""),
		ResourceType: strings.TrimSpace(e.ResourceType),
		Action:       strings.TrimSpace(e.Action),
	}
	if params.Status == 0 {
		params.Status = http.StatusOK
	}

	route := ""
	if req := e.Request; req != nil {
		route = obs.RoutePattern(req.Context())
		if route == "" {
			route = strings.TrimSpace(req.URL.Path)
		}
		params.Method = req.Method
		params.Path = req.URL.Path
		params.Route = common.Text(route)
		params.Ip = common.Text(common.ClientIP(req))
		params.UserAgent = common.Text(req.Header.Get("User-Agent"))
		params.RequestID = common.Text(requestID(req))
		params.Metadata = encodeMetadata(e.Metadata, req.URL.RawQuery)
	}
	if params.Action == "" {
		params.Action = buildAction(params.Method, route)
	}
	if params.ResourceType == "" {
		params.ResourceType = buildResource(route)
	}

	_, err := s.Store.InsertAuditLog(ctx, params)
	return err
}

func requestID(req *http.Request) string {
	if id := strings.TrimSpace(req.Header.Get("X-Request-ID")); id != "" {
		return id
	}
	return middleware.GetReqID(req.Context())
}

func buildAction(method, route string) string {
	if route == "" {
		route = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + route
}

func buildResource(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "unknown"
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "v1" {
		return strings.Join(segments[2:], ".")
	}
	return strings.ReplaceAll(strings.Trim(route, "/"), "/", ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindUser, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}

func nullUUID(value string) pgtype.UUID {
	parsed, err := common.ParseUUID(value)
	if err != nil {
		return pgtype.UUID{}
	}
	return parsed
}

func encodeMetadata(metadata map[string]any, query string) []byte {
	payload := metadata
	if len(payload) == 0 {
		if strings.TrimSpace(query) == "" {
			return nil
		}
		payload = map[string]any{"query": query}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}
