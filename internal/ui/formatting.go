package ui

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

func FormatWithThousands(val float64) string {
	return FormatNumber(val, 0)
}

// FormatMoney rounds to the cent.
func FormatMoney(val float64) string {
	return FormatNumber(val, 2)
}

// FormatNumber rounds val to places decimals and groups the integer digits
// in threes.
func FormatNumber(val float64, places int32) string {
	switch {
	case math.IsNaN(val):
		return "NaN"
	case math.IsInf(val, 1):
		return "inf"
	case math.IsInf(val, -1):
		return "-inf"
	}
	s := decimal.NewFromFloat(val).StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	var out []byte
	pre := len(whole) % 3
	if pre == 0 {
		pre = 3
	}
	out = append(out, whole[:pre]...)
	for i := pre; i < len(whole); i += 3 {
		out = append(out, ',')
		out = append(out, whole[i:i+3]...)
	}
	if hasFrac {
		out = append(append(out, '.'), frac...)
	}
	return sign + string(out)
}

// FormatPercent shows a rate such as 0.0525 as "5.2500%".
func FormatPercent(val float64) string {
	return FormatNumber(val*100, 4) + "%"
}
