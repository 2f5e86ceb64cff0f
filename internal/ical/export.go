// Package ical exports the built schedule as an iCalendar file so
// attendees can pull the programme into their own calendar apps.
package ical

import (
	"fmt"

	ics "github.com/arran4/golang-ical"

	"contabile/internal/model"
)

const (
	productID = "-//contabile//programme//EN"

	// Floating local date-time: programme times are wall-clock times at
	// the venue, not instants to be shifted by the subscriber's timezone.
	stampLayout = "20060102T150405"
)

// Export serializes the schedule as a VCALENDAR. Event order follows the
// schedule's own deterministic ordering, so output is byte-stable for a
// given input.
func Export(s model.Schedule) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(s.Convention)

	for _, day := range s.Days {
		for _, item := range day.Items {
			ev := cal.AddEvent(fmt.Sprintf("%s@contabile", item.ID))
			ev.SetProperty(ics.ComponentPropertyDtstamp, item.Start.Format(stampLayout))
			ev.SetProperty(ics.ComponentPropertyDtStart, item.Start.Format(stampLayout))
			ev.SetProperty(ics.ComponentPropertyDtEnd, item.End.Format(stampLayout))
			ev.SetSummary(item.Title)
			ev.SetLocation(item.Room)
		}
	}

	return []byte(cal.Serialize())
}
