// README: Ride schedule value type; parsing is kept apart from elapsed-time comparison.
package ride

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSchedule   = errors.New("ride schedule missing")
	ErrMalformedSchedule = errors.New("ride schedule malformed")
)

// Schedule is a naive local departure: calendar date and wall-clock time with
// no zone attached.
type Schedule struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
}

// ParseSchedule parses a "DD/MM/YYYY" date and an "HH:mm" time. Invalid
// calendar values such as 31/02 are rejected rather than normalized.
func ParseSchedule(date, clock string) (Schedule, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return Schedule{}, ErrMissingSchedule
	}

	dp := strings.Split(date, "/")
	if len(dp) != 3 {
		return Schedule{}, fmt.Errorf("%w: date %q", ErrMalformedSchedule, date)
	}
	tp := strings.Split(clock, ":")
	if len(tp) != 2 {
		return Schedule{}, fmt.Errorf("%w: time %q", ErrMalformedSchedule, clock)
	}

	day, err1 := field(dp[0], 2)
	month, err2 := field(dp[1], 2)
	year, err3 := field(dp[2], 4)
	hour, err4 := field(tp[0], 2)
	minute, err5 := field(tp[1], 2)
	if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
		return Schedule{}, fmt.Errorf("%w: %q %q", ErrMalformedSchedule, date, clock)
	}

	s := Schedule{Year: year, Month: time.Month(month), Day: day, Hour: hour, Minute: minute}
	if err := s.validate(); err != nil {
		return Schedule{}, fmt.Errorf("%w: %v", ErrMalformedSchedule, err)
	}
	return s, nil
}

// In resolves the schedule to an instant in loc.
func (s Schedule) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(s.Year, s.Month, s.Day, s.Hour, s.Minute, 0, 0, loc)
}

func (s Schedule) String() string {
	return fmt.Sprintf("%02d/%02d/%04d %02d:%02d", s.Day, int(s.Month), s.Year, s.Hour, s.Minute)
}

func (s Schedule) validate() error {
	if s.Month < time.January || s.Month > time.December {
		return fmt.Errorf("month %d out of range", s.Month)
	}
	if s.Day < 1 || s.Day > daysIn(s.Year, s.Month) {
		return fmt.Errorf("day %d out of range", s.Day)
	}
	if s.Hour > 23 {
		return fmt.Errorf("hour %d out of range", s.Hour)
	}
	if s.Minute > 59 {
		return fmt.Errorf("minute %d out of range", s.Minute)
	}
	return nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// field parses a non-negative decimal of at most maxDigits digits.
func field(v string, maxDigits int) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxDigits {
		return 0, fmt.Errorf("bad field %q", v)
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("bad field %q", v)
		}
	}
	return strconv.Atoi(v)
}
