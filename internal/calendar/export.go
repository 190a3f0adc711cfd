// Package calendar bridges catalog events into the local desktop calendar:
// .ics file export always works, while same-day entry lookup and URL
// retargeting need a native event store and degrade to unavailable where
// there is none.
package calendar

import (
	"fmt"
	"os"

	ics "github.com/arran4/golang-ical"

	"indigo/internal/model"
)

// ExportEvent writes ev as a single-VEVENT .ics file into the temp
// directory and returns its path. Each call produces a fresh artifact, so
// repeated exports are safe.
func ExportEvent(ev model.Event) (string, error) {
	cal := ics.NewCalendar()
	cal.SetProductId("-//indigo//indigo//EN")
	cal.SetVersion("2.0")

	vevent := cal.AddEvent(fmt.Sprintf("indico-event-%d@indigo", ev.ID))
	vevent.SetSummary(ev.Title)
	vevent.SetStartAt(ev.Start)
	vevent.SetEndAt(ev.End)
	if ev.URL != "" {
		vevent.SetURL(ev.URL)
	}
	if ev.Location != "" {
		vevent.SetLocation(ev.Location)
	}
	vevent.SetDescription(exportDescription(ev))

	f, err := os.CreateTemp("", fmt.Sprintf("indigo-%d-*.ics", ev.ID))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(cal.Serialize()); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// exportDescription prefixes the description with the event URL so the link
// survives calendar clients that drop the URL property.
func exportDescription(ev model.Event) string {
	switch {
	case ev.URL == "":
		return ev.Description
	case ev.Description == "":
		return ev.URL
	default:
		return ev.URL + "\n\n" + ev.Description
	}
}
