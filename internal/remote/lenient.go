package remote

import (
	"math"
	"strconv"
	"strings"
)

var (
	statusTimestamps = []string{"viewedAt", "acceptedAt"}
	statusText       = []string{"clientName", "clientEmail"}
)

// sanitizeQuoteStatus coerces the optional status fields in place so a loosely
// typed response still decodes. Timestamps sent as epoch numbers become their
// decimal string, amounts sent as strings are parsed, and values that cannot
// be coerced are dropped. accepted is never touched.
func sanitizeQuoteStatus(m map[string]any) []string {
	var dropped []string
	for _, k := range statusTimestamps {
		if !coerceString(m, k) {
			dropped = append(dropped, k)
		}
	}
	for _, k := range statusText {
		if !coerceString(m, k) {
			dropped = append(dropped, k)
		}
	}
	if !coerceNumber(m, "totalAmount") {
		dropped = append(dropped, "totalAmount")
	}
	return dropped
}

// sanitizeUploadResponse accepts a numeric quoteId.
func sanitizeUploadResponse(m map[string]any) []string {
	if !coerceString(m, "quoteId") {
		return []string{"quoteId"}
	}
	return nil
}

// coerceString leaves m[k] as a non-empty string or removes it. It reports
// false only when a present, non-null value had to be removed.
func coerceString(m map[string]any, k string) bool {
	v, ok := m[k]
	if !ok {
		return true
	}
	switch t := v.(type) {
	case nil:
		delete(m, k)
		return true
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			return true
		}
		m[k] = s
		return true
	case float64:
		m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		return true
	default:
		delete(m, k)
		return false
	}
}

// coerceNumber leaves m[k] as a float64 or removes it.
func coerceNumber(m map[string]any, k string) bool {
	v, ok := m[k]
	if !ok {
		return true
	}
	switch t := v.(type) {
	case nil:
		delete(m, k)
		return true
	case float64:
		return true
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			return true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			delete(m, k)
			return false
		}
		m[k] = f
		return true
	default:
		delete(m, k)
		return false
	}
}
