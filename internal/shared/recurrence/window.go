// Package recurrence derives the bounded date windows a recurring poll collects
// responses in. Drafts, statuses, and reports are partitioned per window.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	TypeNone    Type = "NONE"
	TypeDaily   Type = "DAILY"
	TypeWeekly  Type = "WEEKLY"
	TypeMonthly Type = "MONTHLY"
)

const dateLayout = "2006-01-02"

var (
	ErrUnknownType   = errors.New("unknown recurrence type")
	ErrInvalidWindow = errors.New("invalid recurrence window")
)

// ValidType reports whether raw names a supported recurrence type.
func ValidType(raw string) bool {
	switch Type(strings.TrimSpace(raw)) {
	case TypeNone, TypeDaily, TypeWeekly, TypeMonthly:
		return true
	default:
		return false
	}
}

// Window is one recurrence instance, inclusive on both ends.
type Window struct {
	StartDate string
	EndDate   string
}

// WindowAt computes the window that contains at for the given recurrence type.
// Weekly windows run Monday through Sunday; monthly windows cover the calendar
// month. Non-recurring polls collapse to the single day they went live.
func WindowAt(kind Type, at time.Time) (Window, error) {
	day := at.UTC().Truncate(24 * time.Hour)
	switch kind {
	case TypeNone, TypeDaily:
		return Window{
			StartDate: day.Format(dateLayout),
			EndDate:   day.Format(dateLayout),
		}, nil
	case TypeWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return Window{
			StartDate: start.Format(dateLayout),
			EndDate:   start.AddDate(0, 0, 6).Format(dateLayout),
		}, nil
	case TypeMonthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{
			StartDate: start.Format(dateLayout),
			EndDate:   start.AddDate(0, 1, -1).Format(dateLayout),
		}, nil
	default:
		return Window{}, ErrUnknownType
	}
}

// Validate checks both dates parse and the window is not inverted.
func (w Window) Validate() error {
	start, err := time.Parse(dateLayout, strings.TrimSpace(w.StartDate))
	if err != nil {
		return ErrInvalidWindow
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(w.EndDate))
	if err != nil {
		return ErrInvalidWindow
	}
	if end.Before(start) {
		return ErrInvalidWindow
	}
	return nil
}

// Key is the window's identity wherever a single recurrence string is needed.
func (w Window) Key() string {
	return fmt.Sprintf("%s_%s", strings.TrimSpace(w.StartDate), strings.TrimSpace(w.EndDate))
}

// ParseKey inverts Key.
func ParseKey(key string) (Window, error) {
	parts := strings.Split(strings.TrimSpace(key), "_")
	if len(parts) != 2 {
		return Window{}, ErrInvalidWindow
	}
	window := Window{StartDate: parts[0], EndDate: parts[1]}
	if err := window.Validate(); err != nil {
		return Window{}, err
	}
	return window, nil
}
