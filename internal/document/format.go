package document

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatValue renders a document value as MicroPython source text.
// Strings are emitted verbatim: a document that wants a string literal in the
// generated code quotes it itself (value = '"hello"').
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return formatFloat(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Mapping:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = strconv.Quote(e.Key) + ": " + FormatValue(e.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// formatFloat keeps a trailing ".0" on integral floats so they stay floats
// in the generated code.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "float('inf')"
	case math.IsInf(f, -1):
		return "float('-inf')"
	case math.IsNaN(f):
		return "float('nan')"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// AsInt reports whether v is a plain integer. Booleans are not integers.
func AsInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
