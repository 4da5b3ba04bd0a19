package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"yandex-team.ru/candydelivery/pkg/gorm/types"
)

func TestTimeScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"text", "09:30:00", "09:30:00"},
		{"text with fraction", "23:59:00.000000", "23:59:00"},
		{"bytes", []byte("07:05:01"), "07:05:01"},
		{"time", time.Date(2023, 5, 1, 12, 15, 0, 0, time.UTC), "12:15:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v types.Time
			require.NoError(t, v.Scan(tt.value))

			got, err := v.Value()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 0, v.Clock().Year())
		})
	}
}

func TestTimeScanRejectsGarbage(t *testing.T) {
	var v types.Time
	assert.Error(t, v.Scan("noon"))
	assert.Error(t, v.Scan(42))
}

func TestFromClockRoundTrip(t *testing.T) {
	at := time.Date(2021, 1, 10, 10, 33, 0, 0, time.FixedZone("x", 3600))
	c := types.FromClock(at).Clock()

	assert.Equal(t, 10, c.Hour())
	assert.Equal(t, 33, c.Minute())
	assert.Equal(t, time.UTC, c.Location())
}
