package utils

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RupeeSymbol prefixes formatted prices
const RupeeSymbol = "₹"

// FormatINR formats a price in whole rupees using Indian digit grouping,
// e.g. 12345678 → "₹1,23,45,678"
func FormatINR(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return RupeeSymbol + "0"
	}

	d := decimal.NewFromFloat(price).Round(0)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	return sign + RupeeSymbol + groupIndian(d.String())
}

// groupIndian inserts separators after the last three digits and then every two
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}

	return strings.Join(append(groups, tail), ",")
}
