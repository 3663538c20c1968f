package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Placeholders rendered instead of an amount
const (
	NotAvailable = "N/A"
	Invalid      = "Invalid"
)

// FormatINR renders a raw cell value in Indian digit grouping, e.g.
// "1234567" -> "₹12,34,567". Fractions are truncated.
func FormatINR(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NotAvailable
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid
	}
	return FormatINRValue(v)
}

// FormatINRValue formats an amount in rupees.
func FormatINRValue(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "₹" + groupIndian(strconv.FormatInt(int64(v), 10))
}

// groupIndian groups the last three digits, then pairs: 1234567 -> 12,34,567
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var b strings.Builder
	lead := len(head) % 2
	if lead > 0 {
		b.WriteString(head[:lead])
	}
	for i := lead; i < len(head); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
