package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"threatkit/internal/calendar"
	"threatkit/internal/logging"
	"threatkit/internal/storage"
)

func newCalendarCmd(c *cli) *cobra.Command {
	var (
		outDir string
		tz     string
	)

	cmd := &cobra.Command{
		Use:   "calendar <csv>",
		Short: "Generate one .ics file per row of a CSV",
		Long:  "Reads Summary, Start Date, End Date and Description columns (plus optional Reminder Date, Start Time and End Time) and writes one iCalendar file per row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = c.toolkit.Config().Calendar.OutDir
			}
			return c.runCalendar(args[0], outDir, tz)
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory or s3://bucket/prefix (default from config: calendar_files)")
	cmd.Flags().StringVar(&tz, "tz", "Local", "IANA time zone the CSV dates are written in")
	return cmd
}

func (c *cli) runCalendar(csvPath, outDir, tz string) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", tz, err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer f.Close()

	start := time.Now()
	logging.LogOperationStart("calendar", map[string]interface{}{"path": csvPath})

	events, err := calendar.ParseEvents(f, loc)
	if err != nil {
		logging.LogOperationEnd("calendar", time.Since(start), false, 0, 0, err)
		return fmt.Errorf("failed to read %s: %w", csvPath, err)
	}

	now := time.Now()
	written := 0
	for _, event := range events {
		dest := storage.Join(outDir, calendar.FileName(event.Summary))
		saved, err := c.toolkit.Store().Save(c.ctx, dest, []byte(calendar.Render(event, now)))
		if err != nil {
			logging.LogOperationEnd("calendar", time.Since(start), false, len(events), written, err)
			return err
		}
		written++
		fmt.Fprintf(c.out, "Created %s\n", saved)
	}
	logging.LogOperationEnd("calendar", time.Since(start), true, len(events), written, nil)

	fmt.Fprintf(c.out, "ICS files have been saved to the '%s' directory.\n", outDir)
	return nil
}
