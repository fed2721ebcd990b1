package postgres

import (
	"encoding/json"
	"time"
)

// marshalJSON renders a value for a JSONB column, nil when empty.
func marshalJSON(v any) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

func pageOffset(page, limit int) int {
	return (clampPage(page) - 1) * clampLimit(limit)
}
