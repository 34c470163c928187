package configfile

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/kotatut/scaffolder/value"
)

// normalize rewrites decoder output into the canonical tree types.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = e
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, _ := x.Float64()
		return f
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	case float32:
		return float64(x)
	case time.Time:
		return x
	default:
		return v
	}
}

// mapTimes replaces every time.Time leaf of v with fn's result. v must be
// normalized.
func mapTimes(v any, fn func(time.Time) any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = mapTimes(e, fn)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = mapTimes(e, fn)
		}
		return out
	case time.Time:
		return fn(x)
	default:
		return v
	}
}

// timesAsText renders times for formats without a date type.
func timesAsText(t time.Time) any {
	return value.FormatTime(t)
}

// integralFloats turns float64 values without a fractional part into ints.
// Formats that only know text (XML) cast every number to float64.
func integralFloats(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = integralFloats(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = integralFloats(e)
		}
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int(x)
		}
		return x
	default:
		return v
	}
}
