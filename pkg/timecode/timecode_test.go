package timecode

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00:05:30", "5m30s"},
		{"01:05:30", "1h05m30s"},
		{"05:30", "05m30s"},
		{"5:3", "5m3s"},
		{"1:05:30", "1h05m30s"},
		{"12:00:07", "12h00m07s"},
		{"00:00:50", "0m50s"},
		{"0:00", "0m00s"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Format(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_SingleDigitHourKeepsLiteralDigits(t *testing.T) {
	got, err := Format("1:05:30")
	require.NoError(t, err)
	assert.Equal(t, "1h05m30s", got)

	got, err = Format("9:5:3")
	require.NoError(t, err)
	assert.Equal(t, "9h5m3s", got)
}

func TestFormat_Invalid(t *testing.T) {
	for _, in := range []string{"bad", "", "1:2:3:4", "30", "aa:bb", "01::30", "1:-2"} {
		t.Run(in, func(t *testing.T) {
			_, err := Format(in)
			require.Error(t, err)
			var fe *FormatError
			assert.True(t, errors.As(err, &fe))
		})
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "00:00:00", Canonical(0))
	assert.Equal(t, "00:00:50", Canonical(50*time.Second))
	assert.Equal(t, "00:01:30", Canonical(90*time.Second+400*time.Millisecond))
	assert.Equal(t, "01:05:30", Canonical(time.Hour+5*time.Minute+30*time.Second))
	assert.Equal(t, "00:00:00", Canonical(-time.Second))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"00:00:50", 50 * time.Second},
		{"01:30", 90 * time.Second},
		{"1:05:30", time.Hour + 5*time.Minute + 30*time.Second},
		{"00:00:01,830", 1830 * time.Millisecond},
		{"00:00:01.5", 1500 * time.Millisecond},
		{"42", 42 * time.Second},
		{"3.25", 3250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "x", "1:2:3:4", "00:61", "01:75:00", "a:10"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{0, 59 * time.Second, 61 * time.Minute, 10*time.Hour + 1} {
		parsed, err := Parse(Canonical(d))
		require.NoError(t, err)
		assert.Equal(t, d.Truncate(time.Second), parsed)
	}
}
