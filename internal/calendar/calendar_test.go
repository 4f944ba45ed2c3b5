package calendar

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseEventsAllDaySingleDay(t *testing.T) {
	in := "Summary,Start Date,End Date,Description\nPatch Tuesday,2024-01-01,2024-01-01,Apply updates\n"

	events, err := ParseEvents(strings.NewReader(in), time.UTC)
	if err != nil {
		t.Fatalf("ParseEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	ev := events[0]
	if !ev.AllDay {
		t.Error("event without time columns should be all-day")
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !ev.Start.Equal(want) {
		t.Errorf("Start = %s, want %s", ev.Start, want)
	}
	if got := ev.End.Sub(ev.Start); got != 24*time.Hour {
		t.Errorf("End - Start = %s, want 24h", got)
	}
	if ev.Reminder != nil {
		t.Errorf("Reminder = %v, want nil", ev.Reminder)
	}
}

func TestRenderAllDay(t *testing.T) {
	ev := Event{
		Summary:     "Patch Tuesday",
		Description: "Apply updates",
		Start:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		AllDay:      true,
	}
	out := Render(ev, time.Date(2023, 12, 1, 8, 30, 0, 0, time.UTC))

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"SUMMARY:Patch Tuesday",
		"DESCRIPTION:Apply updates",
		"DTSTART;VALUE=DATE:20240101",
		"DTEND;VALUE=DATE:20240102",
		"DTSTAMP:20231201T083000Z",
		"X-APPLE-DEFAULT-ALARM:FALSE",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"DESCRIPTION:Reminder: Patch Tuesday",
		"TRIGGER:PT0S",
		"DURATION:PT0S",
		"REPEAT:0",
		"END:VALARM",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("calendar missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "BEGIN:VALARM"); n != 1 {
		t.Errorf("alarms = %d, want 1", n)
	}
}

func TestParseEventsReminderAndMultiDay(t *testing.T) {
	in := "Summary,Start Date,End Date,Description,Reminder Date\n" +
		"Conference: Day 1-3,2024-03-04,2024-03-06,Talks,2024-3-1\n"

	events, err := ParseEvents(strings.NewReader(in), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	ev := events[0]
	if want := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC); !ev.End.Equal(want) {
		t.Errorf("End = %s, want %s", ev.End, want)
	}
	if ev.Reminder == nil || !ev.Reminder.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Reminder = %v", ev.Reminder)
	}

	out := Render(ev, time.Now())
	if !strings.Contains(out, "TRIGGER;VALUE=DATE-TIME:20240301T000000Z") {
		t.Errorf("absolute trigger missing:\n%s", out)
	}
}

func TestParseEventsTimed(t *testing.T) {
	in := "Summary,Start Date,End Date,Description,Start Time,End Time\n" +
		"Standup,2024-05-01,2024-05-01,Daily,09:00,09:15\n" +
		"Review,2024-05-01,2024-05-01,Weekly,14:00,\n"

	events, err := ParseEvents(strings.NewReader(in), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].AllDay {
		t.Error("timed row parsed as all-day")
	}
	if got := events[0].End.Sub(events[0].Start); got != 15*time.Minute {
		t.Errorf("standup duration = %s", got)
	}
	if got := events[1].End.Sub(events[1].Start); got != time.Hour {
		t.Errorf("open-ended duration = %s, want 1h", got)
	}

	out := Render(events[0], time.Now())
	if !strings.Contains(out, "DTSTART:20240501T090000Z") {
		t.Errorf("timed DTSTART missing:\n%s", out)
	}
}

func TestParseEventsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing column", "Summary,Start Date,End Date\nx,2024-01-01,2024-01-01\n"},
		{"bad date", "Summary,Start Date,End Date,Description\nx,01/02/2024,2024-01-01,d\n"},
		{"end before start", "Summary,Start Date,End Date,Description\nx,2024-01-05,2024-01-01,d\n"},
		{"empty summary", "Summary,Start Date,End Date,Description\n,2024-01-01,2024-01-01,d\n"},
		{"bad reminder", "Summary,Start Date,End Date,Description,Reminder Date\nx,2024-01-01,2024-01-01,d,soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEvents(strings.NewReader(tt.in), time.UTC); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := ParseEvents(strings.NewReader("Summary\nx\n"), time.UTC)
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("error = %v, want ErrMissingColumn", err)
	}
}

func TestUIDStable(t *testing.T) {
	ev := Event{Summary: "A", Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if ev.UID() != ev.UID() {
		t.Error("UID not deterministic")
	}
	other := ev
	other.Summary = "B"
	if ev.UID() == other.UID() {
		t.Error("different events share a UID")
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"Patch Tuesday":       "Patch_Tuesday.ics",
		"Conference: Day 1-3": "Conference__Day_1-3.ics",
		"a/b":                 "a_b.ics",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}
