package common

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ParseUUID converts a textual id into a pgtype.UUID.
func ParseUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

// UUIDString renders a pgtype.UUID, returning "" when it is NULL.
func UUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// Text trims value and maps the empty string to NULL.
func Text(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

// TextPtr is Text for optional input.
func TextPtr(value *string) pgtype.Text {
	if value == nil {
		return pgtype.Text{}
	}
	return Text(*value)
}

// TextValue returns the string or "" for NULL.
func TextValue(value pgtype.Text) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

// TextValuePtr returns nil for NULL.
func TextValuePtr(value pgtype.Text) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

// Timestamptz wraps t, mapping the zero time to NULL.
func Timestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// TimeValue returns the zero time for NULL.
func TimeValue(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

// TimeValuePtr returns nil for NULL.
func TimeValuePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

// Date converts a calendar date; the zero time maps to NULL.
func Date(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// DateValuePtr returns nil for NULL.
func DateValuePtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
