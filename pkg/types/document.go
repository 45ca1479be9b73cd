package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout is the fixed-width UTC layout used for stored timestamps.
// Fixed width keeps lexical and chronological order identical.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Document is a stored record: its ID and the JSON object it holds.
type Document struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// String returns the field as display text. Numbers are formatted without
// trailing zeros; missing or null fields yield "".
func (d Document) String(key string) string {
	return FormatValue(d.Data[key])
}

// Float returns the numeric value of the field and whether it was a number.
func (d Document) Float(key string) (float64, bool) {
	switch v := d.Data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// FormatValue renders a document value as text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// DecodeDocument converts a document into a typed entity through its JSON
// representation.
func DecodeDocument[T any](d Document) (T, error) {
	var out T
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return out, fmt.Errorf("encoding document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding document %s: %w", d.ID, err)
	}
	return out, nil
}

type serverTimestamp struct{}

// MarshalJSON keeps an unresolved sentinel from leaking into storage as {}.
func (serverTimestamp) MarshalJSON() ([]byte, error) {
	return nil, fmt.Errorf("%w: unresolved server timestamp", ErrInvalidData)
}

// ServerTimestamp marks a field the backend fills with its own clock when the
// write is applied.
var ServerTimestamp any = serverTimestamp{}

// ResolveTimestamps returns a copy of data with every ServerTimestamp value
// replaced by now in TimestampLayout.
func ResolveTimestamps(data map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(data))
	stamp := now.UTC().Format(TimestampLayout)
	for k, v := range data {
		if v == ServerTimestamp {
			out[k] = stamp
			continue
		}
		out[k] = v
	}
	return out
}

// ParseTimestamp parses a stored timestamp value. It accepts TimestampLayout
// and plain RFC 3339.
func ParseTimestamp(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
