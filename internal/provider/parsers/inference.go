package parsers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"dataframe-gateway/internal/model"
)

// dateLayouts are tried in order when a string is read as a date
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
}

// typePriority breaks ties between equally frequent types
var typePriority = []model.ColumnType{
	model.ColumnTypeString,
	model.ColumnTypeNumeric,
	model.ColumnTypeBoolean,
	model.ColumnTypeDate,
	model.ColumnTypeUnknown,
}

// inferOptions controls how raw values are classified
type inferOptions struct {
	// sniffStrings reads numbers and booleans out of string values.
	// Text formats need it; JSON strings stay strings unless they hold a date.
	sniffStrings bool
}

// detectValueType classifies a single non-null value. ok is false for nulls.
func detectValueType(value interface{}, opts inferOptions) (model.ColumnType, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case bool:
		return model.ColumnTypeBoolean, true
	case json.Number, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return model.ColumnTypeNumeric, true
	case time.Time:
		return model.ColumnTypeDate, true
	case string:
		if opts.sniffStrings {
			s := strings.TrimSpace(v)
			if _, ok := parseNumber(s); ok {
				return model.ColumnTypeNumeric, true
			}
			if _, ok := parseBool(s); ok {
				return model.ColumnTypeBoolean, true
			}
		}
		if _, ok := parseDate(v); ok {
			return model.ColumnTypeDate, true
		}
		return model.ColumnTypeString, true
	case *orderedObject, []interface{}, map[string]interface{}:
		return model.ColumnTypeString, true
	default:
		return model.ColumnTypeUnknown, true
	}
}

// dominantType picks the most frequent type among the observed values.
// A column with no non-null value is a STRING column.
func dominantType(values []interface{}, opts inferOptions) model.ColumnType {
	counts := make(map[model.ColumnType]int)
	for _, value := range values {
		if t, ok := detectValueType(value, opts); ok {
			counts[t]++
		}
	}

	best := model.ColumnTypeString
	bestCount := 0
	for _, t := range typePriority {
		if counts[t] > bestCount {
			best = t
			bestCount = counts[t]
		}
	}
	return best
}

// coerceValue converts value to the representation of columnType. Values that
// do not fit keep their plain form.
func coerceValue(value interface{}, columnType model.ColumnType) interface{} {
	if value == nil {
		return nil
	}

	switch columnType {
	case model.ColumnTypeNumeric:
		if n, ok := toNumber(value); ok {
			return n
		}
	case model.ColumnTypeBoolean:
		switch v := value.(type) {
		case bool:
			return v
		case string:
			if b, ok := parseBool(strings.TrimSpace(v)); ok {
				return b
			}
		}
	case model.ColumnTypeDate:
		switch v := value.(type) {
		case time.Time:
			return v
		case string:
			if t, ok := parseDate(v); ok {
				return t
			}
		}
	case model.ColumnTypeString:
		return toString(value)
	}

	return plainValue(value)
}

func toNumber(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case json.Number:
		return parseNumber(v.String())
	case string:
		return parseNumber(strings.TrimSpace(v))
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uint64ToNumber(uint64(v)), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uint64ToNumber(v), true
	case float32:
		return normalizeFloat(float64(v)), true
	case float64:
		return normalizeFloat(v), true
	default:
		return nil, false
	}
}

func uint64ToNumber(v uint64) interface{} {
	if v > math.MaxInt64 {
		return float64(v)
	}
	return int64(v)
}

// normalizeFloat returns integral floats as int64
func normalizeFloat(f float64) interface{} {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// parseNumber reads an integer or a decimal number
func parseNumber(s string) (interface{}, bool) {
	if s == "" {
		return nil, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return normalizeFloat(f), true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	default:
		return false, false
	}
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	// shortest layout is 2006-01-02
	if len(s) < 10 {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case []byte:
		return string(v)
	case *orderedObject, []interface{}, map[string]interface{}:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	default:
		return fmt.Sprint(v)
	}
}

// plainValue strips decoder-specific representations so callers only see
// standard Go values.
func plainValue(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if n, ok := parseNumber(v.String()); ok {
			return n
		}
		return v.String()
	case *orderedObject:
		out := make(map[string]interface{}, len(v.keys))
		for _, key := range v.keys {
			out[key] = plainValue(v.values[key])
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}
		return out
	default:
		return v
	}
}
