package types

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const TimeFormat = "15:04:05"

// Time maps a PostgreSQL TIME column. Only the clock part is kept,
// anchored to 0000-01-01 UTC.
type Time time.Time

func NewTime(hour, min, sec int) Time {
	t := time.Date(0, time.January, 1, hour, min, sec, 0, time.UTC)
	return Time(t)
}

// FromClock drops the date part of t.
func FromClock(t time.Time) Time {
	return NewTime(t.Hour(), t.Minute(), t.Second())
}

// Clock returns the value as a time on 0000-01-01 UTC.
func (t Time) Clock() time.Time {
	tt := time.Time(t)
	return time.Date(0, time.January, 1, tt.Hour(), tt.Minute(), tt.Second(), 0, time.UTC)
}

func (t *Time) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return t.UnmarshalText(string(v))
	case string:
		return t.UnmarshalText(v)
	case time.Time:
		*t = FromClock(v)
	case nil:
		*t = Time{}
	default:
		return fmt.Errorf("cannot scan Time from: %#v", v)
	}

	return nil
}

// UnmarshalText accepts an optional fractional second, as sent by the server.
func (t *Time) UnmarshalText(value string) error {
	dd, err := time.Parse(TimeFormat, value)
	if err != nil {
		return err
	}

	*t = FromClock(dd)

	return nil
}

func (t Time) Value() (driver.Value, error) {
	return driver.Value(time.Time(t).Format(TimeFormat)), nil
}

func (Time) GormDataType() string {
	return "TIME"
}
