// Package bytesize parses upload size limits such as "100M" or "1.5GB".
package bytesize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// unitMultipliers maps unit suffixes to their byte values. Both the short
// form used by echo's body limit ("M") and the long form ("MB") are
// accepted, all 1024-based.
var unitMultipliers = map[string]int64{
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
	"G":  1 << 30,
	"GB": 1 << 30,
	"T":  1 << 40,
	"TB": 1 << 40,
}

// units is ordered longest first so "MB" wins over "B".
var units = []string{"TB", "GB", "MB", "KB", "T", "G", "M", "K", "B"}

// Parse returns the number of bytes in s.
//
//	Parse("100M")   // 104857600
//	Parse("512KB")  // 524288
//	Parse("1.5G")   // 1610612736
func Parse(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var unit, valueStr string
	for _, u := range units {
		if strings.HasSuffix(s, u) {
			unit = u
			valueStr = strings.TrimSuffix(s, u)
			break
		}
	}
	if unit == "" {
		return 0, fmt.Errorf("invalid size %q: missing unit (supported: B, K, M, G, T with optional B)", s)
	}
	if valueStr == "" {
		return 0, fmt.Errorf("invalid size %q: missing numeric value", s)
	}
	if strings.ContainsAny(valueStr, " \t") {
		return 0, fmt.Errorf("invalid size %q: unexpected whitespace", s)
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q in %q: %w", valueStr, s, err)
	}
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid size %q: must be positive", s)
	}

	result := value * float64(unitMultipliers[unit])
	if result > math.MaxInt64 {
		return 0, fmt.Errorf("size %q exceeds maximum allowed value", s)
	}
	return int64(result), nil
}
