// Package schedule turns a flat list of validated programme items into the
// day-grouped, display-ready structure the renderer consumes.
package schedule

import (
	"sort"
	"strings"
	"time"

	"contabile/internal/model"
)

// labelLayout is the 24-hour rendering used when a row carries no
// explicit Start/End label.
const labelLayout = "15:04"

// dayNameLayout renders "Saturday 7 June"; the date part keeps multi-week
// programmes unambiguous where a bare weekday name would not be.
const dayNameLayout = "Monday 2 January"

// Options controls grouping and presentation.
type Options struct {
	// Location is the timezone items are grouped and displayed in.
	// Nil means time.Local.
	Location *time.Location

	// Highlight lists keywords; items whose title contains one
	// (case-insensitive) are flagged for highlighted rendering.
	Highlight []string
}

// Build groups items by calendar day and resolves display labels. It is a
// pure function of its inputs: days are ordered by date, items within a day
// by start time, tie-broken by room then ID so output is stable across runs.
func Build(convention string, items []model.Item, opts Options) model.Schedule {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	byDate := make(map[time.Time][]model.Item)
	for _, it := range items {
		it.Start = it.Start.In(loc)
		it.End = it.End.In(loc)

		if it.StartLabel == "" {
			it.StartLabel = it.Start.Format(labelLayout)
		}
		if it.EndLabel == "" {
			it.EndLabel = it.End.Format(labelLayout)
		}
		it.Highlight = titleMatches(it.Title, opts.Highlight)

		date := time.Date(it.Start.Year(), it.Start.Month(), it.Start.Day(), 0, 0, 0, 0, loc)
		byDate[date] = append(byDate[date], it)
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	days := make([]model.Day, 0, len(dates))
	for _, date := range dates {
		dayItems := byDate[date]
		sort.Slice(dayItems, func(i, j int) bool {
			a, b := dayItems[i], dayItems[j]
			if !a.Start.Equal(b.Start) {
				return a.Start.Before(b.Start)
			}
			if a.Room != b.Room {
				return a.Room < b.Room
			}
			return a.ID < b.ID
		})
		days = append(days, model.Day{
			Name:  date.Format(dayNameLayout),
			Date:  date,
			Items: dayItems,
		})
	}

	return model.Schedule{Convention: convention, Days: days}
}

func titleMatches(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
