package nodefilter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDate(t *testing.T) {
	valid := []string{
		"2021",
		"2021-05",
		"2021-05-01",
		"20210501",
		"2021-05-01T10",
		"2021-05-01T10:20",
		"2021-05-01T1020",
		"2021-05-01T10:20:30",
		"2021-05-01T102030",
		"2021-05-01T10:20:30.123",
		"2021-05-01T102030.123",
		"2021-05-01T10Z",
		"2021-05-01T10:20+02:00",
		"2021-05-01T1020-0130",
		"2021-05-01T10:20:30+02",
		"2021-05-01T102030Z",
		"2021-05-01T10:20:30.123Z",
		"2021-05-01T102030.123+05:30",
		"2021-W05",
		"2021W05",
		"2021-W05-3",
		"2021W053",
		"2021-123",
		"2021123",
		"2020-02-29",
		"2020-366",
		"2020-W53",
		"2021-05-01T24:00:00.000",
	}
	for _, s := range valid {
		t.Run(s, func(t *testing.T) {
			assert.True(t, IsDate(s))
		})
	}

	invalid := []string{
		"",
		"hello",
		"21-05-01",
		"2021-13",
		"2021-00-10",
		"2021-02-29",
		"2021-04-31",
		"2021-05-01T25",
		"2021-05-01T10:60",
		"2021-05-01T10:20:61",
		"2021-05-01T24:00:01",
		"2021-W00",
		"2021-W53",
		"2021-W05-8",
		"2021-W05-0",
		"2021-000",
		"2021-366",
		"2021-05-01 10:20",
		"2021-05-01T10:20:30.12",
		"2021-05-01T10:20+0260",
		"2021-05-01T10:20:30Zjunk",
		"May 1, 2021",
	}
	for _, s := range invalid {
		t.Run("not "+s, func(t *testing.T) {
			assert.False(t, IsDate(s))
		})
	}

	t.Run("time values", func(t *testing.T) {
		assert.True(t, IsDate(time.Now()))
		now := time.Now()
		assert.True(t, IsDate(&now))
		var missing *time.Time
		assert.False(t, IsDate(missing))
		assert.False(t, IsDate(20210501))
	})
}

func TestISODateFormatsCount(t *testing.T) {
	assert.Len(t, isoDateFormats, 24)
	assert.Len(t, dateLayouts, 24)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2021", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2021-05", time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"20210501", time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2021-05-01T10:20:30.250Z", time.Date(2021, 5, 1, 10, 20, 30, 250_000_000, time.UTC)},
		{"2021-05-01T10:20+02:00", time.Date(2021, 5, 1, 8, 20, 0, 0, time.UTC)},
		{"2021-05-01T24:00:00.000", time.Date(2021, 5, 2, 0, 0, 0, 0, time.UTC)},
		{"2021-W01", time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)},
		{"2021-W05-3", time.Date(2021, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"2020-W53-7", time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC)},
		{"2021-032", time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}
