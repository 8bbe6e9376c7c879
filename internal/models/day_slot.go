package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/noah-isme/sma-proxy-api/pkg/errors"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// DaySlot indexes the six teaching days of the weekly timetable (Monday=0 … Saturday=5).
type DaySlot int

const (
	Monday DaySlot = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DaysPerWeek is the number of teaching days in the weekly timetable.
const DaysPerWeek = 6

var daySlotNames = [DaysPerWeek]string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

// Valid reports whether d is one of the six teaching days.
func (d DaySlot) Valid() bool {
	return d >= Monday && d <= Saturday
}

// String returns the upper-case weekday name.
func (d DaySlot) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DaySlot(%d)", int(d))
	}
	return daySlotNames[d]
}

// Weekday converts the slot back to the calendar weekday.
func (d DaySlot) Weekday() time.Weekday {
	return time.Weekday(int(d) + 1)
}

// DaySlotFromWeekday maps a calendar weekday to its slot. Sunday has no slot.
func DaySlotFromWeekday(w time.Weekday) (DaySlot, error) {
	if w == time.Sunday || w < time.Sunday || w > time.Saturday {
		return 0, appErrors.Clone(appErrors.ErrUnschedulableDay, fmt.Sprintf("%s is not a teaching day", w))
	}
	return DaySlot(int(w) - 1), nil
}

// ResolveDaySlot maps a calendar date to its day slot, failing with UNSCHEDULABLE_DAY on Sunday.
func ResolveDaySlot(date time.Time) (DaySlot, error) {
	slot, err := DaySlotFromWeekday(date.Weekday())
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrUnschedulableDay, fmt.Sprintf("%s falls on a non-teaching day", date.Format(DateLayout)))
	}
	return slot, nil
}

// ParseDaySlot accepts either the numeric slot ("0".."5") or the weekday name.
func ParseDaySlot(raw string) (DaySlot, error) {
	value := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(value); err == nil {
		slot := DaySlot(n)
		if !slot.Valid() {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day slot %d out of range", n))
		}
		return slot, nil
	}
	upper := strings.ToUpper(value)
	for i, name := range daySlotNames {
		if name == upper {
			return DaySlot(i), nil
		}
	}
	if upper == "SUNDAY" {
		return 0, appErrors.Clone(appErrors.ErrUnschedulableDay, "SUNDAY is not a teaching day")
	}
	return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", raw))
}

// ParseDate parses a YYYY-MM-DD date into UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must use YYYY-MM-DD")
	}
	return date, nil
}
