// Package calendar turns a CSV of dated entries into iCalendar files, one event per file.
package calendar

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const (
	colSummary      = "Summary"
	colStartDate    = "Start Date"
	colEndDate      = "End Date"
	colDescription  = "Description"
	colReminderDate = "Reminder Date"
	colStartTime    = "Start Time"
	colEndTime      = "End Time"

	dateLayout = "2006-1-2"
	timeLayout = "15:04"
)

var ErrMissingColumn = errors.New("missing required column")

// uidNamespace keeps event UIDs stable across runs for the same row
var uidNamespace = uuid.MustParse("3f0c5c1e-8f60-4c8e-9a55-6b0d7a1f2c44")

// Event is one calendar row. End is exclusive: for all-day events it is the
// day after the last day.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Reminder    *time.Time
}

// UID derives a stable identifier from the summary and start
func (e Event) UID() string {
	return uuid.NewSHA1(uidNamespace, []byte(e.Summary+"|"+e.Start.Format(time.RFC3339))).String()
}

// ParseEvents reads rows with Summary, Start Date, End Date and Description
// columns, plus optional Reminder Date, Start Time and End Time. Rows without
// times become all-day events ending the day after End Date. Dates and times
// are read in loc.
func ParseEvents(r io.Reader, loc *time.Location) ([]Event, error) {
	if loc == nil {
		loc = time.Local
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range []string{colSummary, colStartDate, colEndDate, colDescription} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}

	var events []Event
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		event, err := eventFromRow(get, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func eventFromRow(get func(string) string, loc *time.Location) (Event, error) {
	event := Event{
		Summary:     get(colSummary),
		Description: get(colDescription),
	}
	if event.Summary == "" {
		return Event{}, fmt.Errorf("empty %s", colSummary)
	}

	startDay, err := time.ParseInLocation(dateLayout, get(colStartDate), loc)
	if err != nil {
		return Event{}, fmt.Errorf("invalid %s: %w", colStartDate, err)
	}
	endDay, err := time.ParseInLocation(dateLayout, get(colEndDate), loc)
	if err != nil {
		return Event{}, fmt.Errorf("invalid %s: %w", colEndDate, err)
	}

	startTime, endTime := get(colStartTime), get(colEndTime)
	if startTime == "" && endTime == "" {
		event.AllDay = true
		event.Start = startDay
		event.End = endDay.AddDate(0, 0, 1)
	} else {
		if event.Start, err = atTime(startDay, startTime, loc); err != nil {
			return Event{}, fmt.Errorf("invalid %s: %w", colStartTime, err)
		}
		if endTime == "" {
			event.End = event.Start.Add(time.Hour)
		} else if event.End, err = atTime(endDay, endTime, loc); err != nil {
			return Event{}, fmt.Errorf("invalid %s: %w", colEndTime, err)
		}
	}
	if event.End.Before(event.Start) {
		return Event{}, fmt.Errorf("event %q ends before it starts", event.Summary)
	}

	if reminder := get(colReminderDate); reminder != "" {
		at, err := time.ParseInLocation(dateLayout, reminder, loc)
		if err != nil {
			return Event{}, fmt.Errorf("invalid %s: %w", colReminderDate, err)
		}
		event.Reminder = &at
	}
	return event, nil
}

func atTime(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	t, err := time.ParseInLocation(timeLayout, clock, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// Render builds a single-event calendar. now stamps DTSTAMP.
// The event always carries one DISPLAY alarm: at the reminder date when set,
// otherwise at the event start.
func Render(event Event, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	vevent := cal.AddEvent(event.UID())
	vevent.AddProperty(ics.ComponentProperty("X-APPLE-DEFAULT-ALARM"), "FALSE")
	vevent.SetSummary(event.Summary)
	vevent.SetDescription(event.Description)
	if event.AllDay {
		vevent.SetAllDayStartAt(event.Start)
		vevent.SetAllDayEndAt(event.End)
	} else {
		vevent.SetStartAt(event.Start)
		vevent.SetEndAt(event.End)
	}
	vevent.SetDtStampTime(now)

	alarm := vevent.AddAlarm()
	alarm.AddProperty(ics.ComponentPropertyAction, string(ics.ActionDisplay))
	alarm.AddProperty(ics.ComponentPropertyDescription, "Reminder: "+event.Summary)
	if event.Reminder != nil {
		alarm.AddProperty(ics.ComponentPropertyTrigger, event.Reminder.UTC().Format("20060102T150405Z"),
			&ics.KeyValues{Key: "VALUE", Value: []string{"DATE-TIME"}})
	} else {
		alarm.AddProperty(ics.ComponentPropertyTrigger, "PT0S")
	}
	alarm.AddProperty(ics.ComponentProperty(ics.PropertyDuration), "PT0S")
	alarm.AddProperty(ics.ComponentProperty("REPEAT"), "0")

	return cal.Serialize()
}

var fileNameReplacer = strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_")

// FileName maps a summary to its .ics file name
func FileName(summary string) string {
	return fileNameReplacer.Replace(summary) + ".ics"
}
