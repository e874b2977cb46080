package recurrence

import (
	"testing"
	"time"
)

func TestWindowAtDaily(t *testing.T) {
	at := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)
	window, err := WindowAt(TypeDaily, at)
	if err != nil {
		t.Fatalf("window failed: %v", err)
	}
	if window.StartDate != "2024-01-03" || window.EndDate != "2024-01-03" {
		t.Fatalf("unexpected daily window: %+v", window)
	}
}

func TestWindowAtWeeklyStartsMonday(t *testing.T) {
	// 2024-01-03 is a Wednesday.
	at := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	window, err := WindowAt(TypeWeekly, at)
	if err != nil {
		t.Fatalf("window failed: %v", err)
	}
	if window.StartDate != "2024-01-01" || window.EndDate != "2024-01-07" {
		t.Fatalf("unexpected weekly window: %+v", window)
	}
}

func TestWindowAtMonthly(t *testing.T) {
	at := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	window, err := WindowAt(TypeMonthly, at)
	if err != nil {
		t.Fatalf("window failed: %v", err)
	}
	if window.StartDate != "2024-02-01" || window.EndDate != "2024-02-29" {
		t.Fatalf("unexpected monthly window: %+v", window)
	}
}

func TestWindowKeyRoundTrip(t *testing.T) {
	window := Window{StartDate: "2024-01-01", EndDate: "2024-01-07"}
	parsed, err := ParseKey(window.Key())
	if err != nil {
		t.Fatalf("parse key failed: %v", err)
	}
	if parsed != window {
		t.Fatalf("expected %+v, got %+v", window, parsed)
	}
}

func TestValidateRejectsInvertedWindow(t *testing.T) {
	window := Window{StartDate: "2024-01-07", EndDate: "2024-01-01"}
	if err := window.Validate(); err != ErrInvalidWindow {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestWindowAtUnknownType(t *testing.T) {
	if _, err := WindowAt(Type("YEARLY"), time.Now()); err != ErrUnknownType {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}
