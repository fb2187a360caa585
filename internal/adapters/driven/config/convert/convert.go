// Package convert turns loosely typed configuration values into Go types.
// TOML decoding yields int64 and float64; environment overrides and
// values set from the command line arrive as strings.
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// String formats any scalar as a string.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Duration:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Int converts v to an int.
func Int(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case int32:
		return int(x), true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}

// Float converts v to a float64.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Bool converts v to a bool.
func Bool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	default:
		return false, false
	}
}

// Duration converts v to a time.Duration. Bare integers are seconds.
func Duration(v any) (time.Duration, bool) {
	switch x := v.(type) {
	case time.Duration:
		return x, true
	case int64:
		return time.Duration(x) * time.Second, true
	case int:
		return time.Duration(x) * time.Second, true
	case string:
		s := strings.TrimSpace(x)
		if d, err := time.ParseDuration(s); err == nil {
			return d, true
		}
		if n, err := strconv.Atoi(s); err == nil {
			return time.Duration(n) * time.Second, true
		}
		return 0, false
	default:
		return 0, false
	}
}
