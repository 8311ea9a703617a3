package product

import (
	"time"

	"github.com/xenking/wildgarden/internal/domain/pricing"
)

// ActiveDiscountPercent returns the product discount in effect at now, or 0
// when the discount is disabled, zero, or outside its window.
func ActiveDiscountPercent(p Product, now time.Time) int {
	if !p.Discount.Enabled {
		return 0
	}
	pct := pricing.ClampPercent(p.Discount.Percent)
	if pct == 0 || !p.Discount.Window.Contains(now) {
		return 0
	}
	return pct
}

// EffectivePrice is the unit price a customer pays at now, before any
// order-level discount code.
func EffectivePrice(p Product, now time.Time) int64 {
	return pricing.DiscountedPrice(p.Price, ActiveDiscountPercent(p, now))
}
