package config

import (
	"time"
)

// Values wraps a map[string]any for type-safe value extraction, such as a
// node's property bag. All accessor methods return the default if the key
// is missing or the value cannot be converted to the requested type.
type Values struct {
	data map[string]any
}

// NewValues wraps data. A nil map yields empty Values.
func NewValues(data map[string]any) Values {
	if data == nil {
		data = make(map[string]any)
	}
	return Values{data: data}
}

// String returns the string value for key, or defaultVal.
func (v Values) String(key, defaultVal string) string {
	if s, ok := v.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
//   - time.Duration: used directly
func (v Values) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := v.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal.
func (v Values) Bool(key string, defaultVal bool) bool {
	if b, ok := v.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal. Floats convert only
// when they have no fractional part.
func (v Values) Int(key string, defaultVal int) int {
	switch val := v.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal.
func (v Values) Float(key string, defaultVal float64) float64 {
	switch val := v.data[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// StringSlice returns the string slice for key, or defaultVal if missing or
// if any element is not a string.
func (v Values) StringSlice(key string, defaultVal []string) []string {
	switch val := v.data[key].(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v.data[key]
	return ok
}
