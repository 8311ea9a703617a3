package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xenking/wildgarden/internal/domain/window"
)

func TestActiveDiscountPercent(t *testing.T) {
	now := time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)
	before := now.Add(-time.Millisecond)
	after := now.Add(time.Millisecond)

	tests := []struct {
		name     string
		discount Discount
		want     int
	}{
		{name: "no discount", discount: Discount{}, want: 0},
		{name: "enabled without window", discount: Discount{Percent: 20, Enabled: true}, want: 20},
		{name: "zero percent", discount: Discount{Percent: 0, Enabled: true}, want: 0},
		{name: "negative percent", discount: Discount{Percent: -15, Enabled: true}, want: 0},
		{name: "percent over 100 clamps", discount: Discount{Percent: 130, Enabled: true}, want: 100},
		{
			name:     "starts 1ms from now",
			discount: Discount{Percent: 20, Enabled: true, Window: window.Window{Start: &after}},
			want:     0,
		},
		{
			name:     "started 1ms ago",
			discount: Discount{Percent: 20, Enabled: true, Window: window.Window{Start: &before}},
			want:     20,
		},
		{
			name:     "ended 1ms ago",
			discount: Discount{Percent: 20, Enabled: true, Window: window.Window{End: &before}},
			want:     0,
		},
		{
			name:     "ends 1ms from now",
			discount: Discount{Percent: 20, Enabled: true, Window: window.Window{End: &after}},
			want:     20,
		},
		{
			name:     "ends exactly now",
			discount: Discount{Percent: 20, Enabled: true, Window: window.Window{End: &now}},
			want:     20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{ID: "P1", Price: 10000, Discount: tt.discount}
			assert.Equal(t, tt.want, ActiveDiscountPercent(p, now))
			assert.Equal(t, tt.want, ActiveDiscountPercent(p, now), "must be deterministic")
		})
	}
}

func TestActiveDiscountPercent_DisabledIgnoresWindow(t *testing.T) {
	now := time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)

	windows := []window.Window{
		{},
		{Start: &start},
		{End: &end},
		{Start: &start, End: &end},
	}
	for _, w := range windows {
		for _, pct := range []int{0, 1, 50, 100} {
			p := Product{Discount: Discount{Percent: pct, Enabled: false, Window: w}}
			assert.Zero(t, ActiveDiscountPercent(p, now))
		}
	}
}

func TestEffectivePrice(t *testing.T) {
	now := time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)

	p := Product{ID: "P1", Price: 10000, Discount: Discount{Percent: 20, Enabled: true}}
	assert.Equal(t, int64(8000), EffectivePrice(p, now))

	p.Discount.Enabled = false
	assert.Equal(t, int64(10000), EffectivePrice(p, now))
}
