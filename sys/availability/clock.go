package availability

import (
	"fmt"
	"time"

	"cleanbuddy-fulfillment/res/store"
)

// Clock is a time of day with minute precision. 24:00 denotes the end of the day.
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(s string) (Clock, error) {
	if s == "24:00" {
		return Clock{Hour: 24}, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return ClockOf(t), nil
}

func ClockOf(t time.Time) Clock {
	t = t.UTC()
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On places the clock on a calendar date in UTC
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, time.UTC)
}

// WindowOf returns the times of day a slot spans. A slot running to midnight ends at 24:00.
func WindowOf(slot *store.AvailabilitySlot) (start, end Clock) {
	start, end = ClockOf(slot.StartTime), ClockOf(slot.EndTime)
	if slot.EndTime.After(slot.StartTime) && end == (Clock{}) {
		end = Clock{Hour: 24}
	}
	return start, end
}
