package reconciliation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1,5", "1.5"},
		{"1,500", "1500"},
		{"1,234,567", "1234567"},
		{"1.234.567", "1234567"},
		{"$ 1.500.000", "1500000"},
		{"USD 100", "100"},
		{"US$ 99.90", "99.9"},
		{"€1.234,5", "1234.5"},
		{" 250 ", "250"},
		{"1 000,00", "1000"},
		{"0", "0"},
		{"-50", "-50"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(amt(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "$", "abc", "12a", "1,2,3.4.5"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseAmount(in)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestParseDate(t *testing.T) {
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15", jan15},
		{"2024-01-15 10:30:00", jan15},
		{"2024-01-15T10:30:00", jan15},
		{"2024/01/15", jan15},
		{"15/01/2024", jan15},
		{"15-01-2024", jan15},
		{"15.01.2024", jan15},
		{"15/1/2024", jan15},
		{"15/01/24", jan15},
		{"20240115", jan15},
		{"45292", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"45306.75", jan15},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, in := range []string{"", "mañana", "31/02/2024", "2024-13-01", "0"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDate(in)
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", formatDate(nil))
	assert.Equal(t, "2024-03-09", formatDate(day("2024-03-09")))
}
