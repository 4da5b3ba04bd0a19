package entity

import (
	"strings"
	"time"

	"yandex-team.ru/candydelivery"
)

const TimeOfDayFormat = "15:04"

// Interval is a half-open time-of-day range [StartTime, EndTime).
// Only the clock part of both bounds is meaningful.
type Interval struct {
	StartTime time.Time
	EndTime   time.Time
}

func NewInterval(startHour, startMin, endHour, endMin int) Interval {
	return Interval{
		StartTime: time.Date(0, time.January, 1, startHour, startMin, 0, 0, time.UTC),
		EndTime:   time.Date(0, time.January, 1, endHour, endMin, 0, 0, time.UTC),
	}
}

// ParseInterval parses "HH:MM-HH:MM".
func ParseInterval(s string) (Interval, error) {
	spl := strings.Split(s, "-")
	if len(spl) != 2 {
		return Interval{}, candydelivery.Errorf(candydelivery.EINVALID, "interval %q must be HH:MM-HH:MM", s)
	}

	startTime, err := time.Parse(TimeOfDayFormat, spl[0])
	if err != nil {
		return Interval{}, candydelivery.ErrorWithCode(err, candydelivery.EINVALID)
	}

	endTime, err := time.Parse(TimeOfDayFormat, spl[1])
	if err != nil {
		return Interval{}, candydelivery.ErrorWithCode(err, candydelivery.EINVALID)
	}

	if !startTime.Before(endTime) {
		return Interval{}, candydelivery.Errorf(candydelivery.EINVALID, "interval %q ends before it starts", s)
	}

	return Interval{StartTime: startTime, EndTime: endTime}, nil
}

func ParseIntervals(ss []string) ([]Interval, error) {
	res := make([]Interval, 0, len(ss))
	for _, s := range ss {
		i, err := ParseInterval(s)
		if err != nil {
			return nil, err
		}
		res = append(res, i)
	}

	return res, nil
}

func (i Interval) String() string {
	return i.StartTime.Format(TimeOfDayFormat) + "-" + i.EndTime.Format(TimeOfDayFormat)
}

func FormatIntervals(intervals []Interval) []string {
	res := make([]string, 0, len(intervals))
	for _, i := range intervals {
		res = append(res, i.String())
	}

	return res
}

// Overlaps reports whether the two ranges share any instant.
// Touching bounds do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return clock(i.StartTime) < clock(other.EndTime) && clock(i.EndTime) > clock(other.StartTime)
}

// AnyOverlap reports whether at least one pair from a and b overlaps.
func AnyOverlap(a, b []Interval) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Overlaps(y) {
				return true
			}
		}
	}
	return false
}

// clock drops the date part so intervals built from different days compare.
func clock(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}
