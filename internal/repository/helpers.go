package repository

import (
	"database/sql"
	"time"
)

// timeLayout is fixed-width so that created_at compares correctly as text.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// nullableBoolToValue converts a *bool to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil, otherwise 0 or 1.
func nullableBoolToValue(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}

// parseNullableBool converts a nullable SQLite integer into a *bool.
func parseNullableBool(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Int64 != 0
	return &b
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
