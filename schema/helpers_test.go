package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthStart(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid month", time.Date(2024, 1, 20, 13, 4, 5, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"already first", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"offset crosses month", time.Date(2024, 2, 1, 3, 0, 0, 0, loc), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(MonthStart(tt.in)))
			assert.Equal(t, time.UTC, MonthStart(tt.in).Location())
		})
	}
}

func TestAddMonths(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC), AddMonths(jan, -4))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), AddMonths(jan, 4))
	assert.Equal(t, jan, AddMonths(jan, 0))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), 2))
}

func TestGroupOf(t *testing.T) {
	assert.Equal(t, TreatedGroup, GroupOf(1))
	assert.Equal(t, ControlGroup, GroupOf(0))
}

func TestAppIDKey(t *testing.T) {
	assert.Equal(t, "730", AppIDKey(730))
}

func TestPanelGeometry(t *testing.T) {
	assert.Equal(t, 9, RowsPerGame)
}
