package importer

// coerce.go provides total, side-effect-free parsers from raw cells to typed values.
// None of them fail: unusable input yields the zero value of the target type.

import (
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/catalog-import/internal/catalog"
)

// truthy holds the accepted true spellings, compared lower-case and trimmed.
var truthy = map[string]bool{
	"true":   true,
	"yes":    true,
	"1":      true,
	"active": true,
}

// ParseBoolean is true for a boolean true or a truthy spelling, false otherwise.
func ParseBoolean(v Value) bool {
	if v.Kind == KindBool {
		return v.Bool
	}
	return truthy[strings.ToLower(strings.TrimSpace(v.Text()))]
}

// ParseNumber returns the numeric value of v, or 0 when v is empty or not a
// finite decimal number. Hexadecimal forms such as "0x10" or "0x1p4" and
// spelled-out infinities are 0.
func ParseNumber(v Value) float64 {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0
		}
		return v.Num
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" || strings.ContainsAny(s, "xX") {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ParseArray returns lists unchanged and splits strings on commas, trimming
// each piece and dropping empty ones. Anything else yields an empty list.
func ParseArray(v Value) []string {
	switch v.Kind {
	case KindList:
		if v.List == nil {
			return []string{}
		}
		return v.List
	case KindString:
		parts := strings.Split(v.Str, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return []string{}
	}
}

// maxNecklaceLayers is the highest layer number scanned for.
const maxNecklaceLayers = 5

// ParseNecklaceLayers collects layer prices from raw headers. For each N in
// 1..5 the first header containing N and either "layer" or "price" is read;
// a price above zero yields {"N-layer", price}. Output is in layer order
// regardless of column order.
func ParseNecklaceLayers(row SourceRow) []catalog.NecklaceLayer {
	layers := []catalog.NecklaceLayer{}
	for n := 1; n <= maxNecklaceLayers; n++ {
		digit := strconv.Itoa(n)
		for _, c := range row.Cells {
			key := normalizeHeader(c.Header)
			if !strings.Contains(key, digit) {
				continue
			}
			if !strings.Contains(key, "layer") && !strings.Contains(key, "price") {
				continue
			}
			if price := ParseNumber(c.Value); price > 0 {
				layers = append(layers, catalog.NecklaceLayer{
					Layer: digit + "-layer",
					Price: price,
				})
			}
			break
		}
	}
	return layers
}
