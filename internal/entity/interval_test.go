package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
)

func TestParseInterval(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		i, err := entity.ParseInterval("09:00-11:30")
		require.NoError(t, err)

		assert.Equal(t, 9, i.StartTime.Hour())
		assert.Equal(t, 0, i.StartTime.Minute())
		assert.Equal(t, 11, i.EndTime.Hour())
		assert.Equal(t, 30, i.EndTime.Minute())
		assert.Equal(t, "09:00-11:30", i.String())
	})

	for _, s := range []string{"", "09:00", "09:00-", "9-10", "25:00-26:00", "10:00-09:00", "10:00-10:00", "09:00-10:00-11:00"} {
		t.Run("invalid "+s, func(t *testing.T) {
			_, err := entity.ParseInterval(s)
			require.Error(t, err)
			assert.Equal(t, candydelivery.EINVALID, candydelivery.ErrorCode(err))
		})
	}
}

func TestParseIntervals(t *testing.T) {
	intervals, err := entity.ParseIntervals([]string{"09:00-11:00", "14:00-18:00"})
	require.NoError(t, err)
	assert.Len(t, intervals, 2)
	assert.Equal(t, []string{"09:00-11:00", "14:00-18:00"}, entity.FormatIntervals(intervals))

	_, err = entity.ParseIntervals([]string{"09:00-11:00", "oops"})
	require.Error(t, err)
}

func TestIntervalOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b entity.Interval
		want bool
	}{
		{"same", entity.NewInterval(9, 0, 11, 0), entity.NewInterval(9, 0, 11, 0), true},
		{"partial", entity.NewInterval(9, 0, 11, 0), entity.NewInterval(10, 0, 12, 0), true},
		{"nested", entity.NewInterval(9, 0, 18, 0), entity.NewInterval(10, 0, 11, 0), true},
		{"touching end", entity.NewInterval(9, 0, 11, 0), entity.NewInterval(11, 0, 12, 0), false},
		{"touching start", entity.NewInterval(11, 0, 12, 0), entity.NewInterval(9, 0, 11, 0), false},
		{"disjoint", entity.NewInterval(9, 0, 10, 0), entity.NewInterval(12, 0, 13, 0), false},
		{"one minute", entity.NewInterval(9, 0, 11, 1), entity.NewInterval(11, 0, 12, 0), true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.a.Overlaps(c.b))
			assert.Equal(t, c.a.Overlaps(c.b), c.b.Overlaps(c.a), "overlap must be symmetric")
		})
	}
}

func TestAnyOverlap(t *testing.T) {
	working := []entity.Interval{entity.NewInterval(9, 0, 11, 0), entity.NewInterval(18, 0, 20, 0)}

	assert.True(t, entity.AnyOverlap(working, []entity.Interval{entity.NewInterval(19, 0, 21, 0)}))
	assert.False(t, entity.AnyOverlap(working, []entity.Interval{entity.NewInterval(11, 0, 18, 0)}))
	assert.False(t, entity.AnyOverlap(working, nil))
	assert.False(t, entity.AnyOverlap(nil, working))
}

func TestIntervalOverlapsIgnoresDate(t *testing.T) {
	parsed, err := entity.ParseInterval("09:00-11:00")
	require.NoError(t, err)

	assert.True(t, parsed.Overlaps(entity.NewInterval(10, 0, 10, 30)))
}
