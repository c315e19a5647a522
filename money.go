package main

import (
	"strings"

	"github.com/shopspring/decimal"
)

// roundCents rounds a dollar amount half away from zero to the nearest cent
func roundCents(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// FormatMoney formats dollars compactly ($1.25M, $350k, $940)
func FormatMoney(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	d := decimal.NewFromFloat(amount)
	switch {
	case amount >= 1000000:
		return sign + "$" + d.Div(decimal.NewFromInt(1000000)).StringFixed(2) + "M"
	case amount >= 1000:
		return sign + "$" + d.Div(decimal.NewFromInt(1000)).StringFixed(0) + "k"
	}
	return sign + "$" + d.StringFixed(0)
}

// FormatMoneyFull formats dollars with thousands separators and no abbreviation
func FormatMoneyFull(amount float64) string {
	s := decimal.NewFromFloat(amount).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FormatPercent formats a decimal rate as a percentage with one decimal place
func FormatPercent(rate float64) string {
	return decimal.NewFromFloat(rate*100).StringFixed(1) + "%"
}
