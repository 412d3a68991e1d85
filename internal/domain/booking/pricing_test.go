package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHourlyPricingStrategy_Quote(t *testing.T) {
	s := NewHourlyPricingStrategy()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		duration  time.Duration
		rate      int64
		wantHours int
		wantCents int64
	}{
		{"exact two hours", 2 * time.Hour, 2000, 2, 4000},
		{"partial hour rounds up", 90 * time.Minute, 2000, 2, 4000},
		{"one minute bills one hour", time.Minute, 2000, 1, 2000},
		{"exact one hour", time.Hour, 5000, 1, 5000},
		{"just over a day", 24*time.Hour + time.Second, 100, 25, 2500},
		{"free spot", 3 * time.Hour, 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hours, cents := s.Quote(tt.rate, base, base.Add(tt.duration))
			assert.Equal(t, tt.wantHours, hours)
			assert.Equal(t, tt.wantCents, cents)
		})
	}
}
