package rowstore

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var listSeparator = regexp.MustCompile(`\r?\n|\s*\|\s*`)

// ParseList decodes a list-valued cell. It accepts a native list, a
// JSON-encoded array, or a newline/pipe delimited string. Anything else
// decodes to an empty list.
func ParseList(v any) []string {
	switch val := v.(type) {
	case []string:
		return compact(val)
	case []any:
		return fromAny(val)
	case string:
		return parseListString(val)
	default:
		return []string{}
	}
}

func parseListString(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}

	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err == nil {
		if items, ok := decoded.([]any); ok {
			return fromAny(items)
		}
		return []string{}
	}

	return compact(listSeparator.Split(s, -1))
}

func fromAny(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(item))
	}
	return out
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// EncodeList is the inverse of ParseList for storage: a JSON array.
func EncodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return string(data)
}

// NumberOr parses a numeric cell, returning fallback for blank, non-numeric
// or non-finite values.
func NumberOr(s string, fallback float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return n
}

// IntOr is NumberOr rounded to the nearest integer.
func IntOr(s string, fallback int) int {
	return int(math.Round(NumberOr(s, float64(fallback))))
}

// FormatNumber renders n without a trailing ".0" for whole values.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
