package docstore

import "time"

// Field coercion helpers. The firestore backend returns typed values
// (time.Time, int64, []any); the local backend round-trips through JSON and
// returns strings and float64s. Readers go through these so both agree.

// String returns fields[key] as a string, empty when absent or mistyped.
func String(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// Time returns fields[key] as a UTC time. Accepts time.Time and RFC3339
// strings; zero time otherwise.
func Time(fields map[string]any, key string) time.Time {
	switch v := fields[key].(type) {
	case time.Time:
		return v.UTC()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Int64s returns fields[key] as an int64 slice. Accepts []int64 and []any
// holding int64 or float64 elements.
func Int64s(fields map[string]any, key string) []int64 {
	switch v := fields[key].(type) {
	case []int64:
		return v
	case []any:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case int64:
				out = append(out, n)
			case float64:
				out = append(out, int64(n))
			case int:
				out = append(out, int64(n))
			}
		}
		return out
	}
	return nil
}
