package config

import (
	"time"
)

// values wraps a decoded document for type-safe extraction.
// Accessors fall back to the given default when the key is missing
// or holds a value of the wrong type.
type values map[string]any

func (v values) stringOr(key, def string) string {
	if s, ok := v[key].(string); ok {
		return s
	}
	return def
}

func (v values) boolOr(key string, def bool) bool {
	if b, ok := v[key].(bool); ok {
		return b
	}
	return def
}

// intOr accepts int, int64, and float64 without a fractional part.
func (v values) intOr(key string, def int) int {
	switch val := v[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return def
}

// durationOr accepts strings for time.ParseDuration and bare numbers as milliseconds.
func (v values) durationOr(key string, def time.Duration) time.Duration {
	switch val := v[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case int:
		return time.Duration(val) * time.Millisecond
	case int64:
		return time.Duration(val) * time.Millisecond
	case float64:
		return time.Duration(val * float64(time.Millisecond))
	case time.Duration:
		return val
	}
	return def
}

// section returns a nested mapping, or an empty one.
func (v values) section(key string) values {
	switch val := v[key].(type) {
	case map[string]any:
		return values(val)
	case values:
		return val
	}
	return values{}
}
