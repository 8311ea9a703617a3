// Package pricing implements the integer price arithmetic shared by catalog
// display and checkout. Amounts are in the smallest currency unit.
package pricing

import "github.com/shopspring/decimal"

// MaxAmount is the largest amount a price, line or order total may reach.
// It matches the NUMERIC(14,0) money columns.
const MaxAmount int64 = 99_999_999_999_999

var hundred = decimal.NewFromInt(100)

// ClampPercent limits p to [0, 100].
func ClampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// DiscountedPrice returns base reduced by percent, rounded half away from
// zero. A zero percent returns base untouched. Negative bases count as 0.
func DiscountedPrice(base int64, percent int) int64 {
	if base < 0 {
		base = 0
	}
	p := ClampPercent(percent)
	if p == 0 {
		return base
	}
	return max(0, scale(base, 100-p))
}

// AddLine returns acc + unit*qty. It reports false when a negative input is
// given or the result would exceed MaxAmount.
func AddLine(acc, unit, qty int64) (int64, bool) {
	if acc < 0 || unit < 0 || qty < 0 || acc > MaxAmount {
		return 0, false
	}
	if qty == 0 || unit == 0 {
		return acc, true
	}
	if unit > (MaxAmount-acc)/qty {
		return 0, false
	}
	return acc + unit*qty, true
}

// PercentOf returns percent of amount, rounded half away from zero.
func PercentOf(amount int64, percent int) int64 {
	p := ClampPercent(percent)
	if p == 0 || amount <= 0 {
		return 0
	}
	return scale(amount, p)
}

func scale(amount int64, percent int) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(hundred).
		Round(0).
		IntPart()
}
