package model

import "time"

// Item is a single programme entry after CSV validation (and, for rows with
// a Repeat rule, after expansion into concrete occurrences).
type Item struct {
	ID    string // unique, [A-Za-z0-9_-]+
	Title string
	Room  string

	Start time.Time
	End   time.Time // strictly after Start

	// StartLabel / EndLabel are the human-facing time strings. The parser
	// carries over any CSV override; the schedule builder fills in a
	// 24-hour hh:mm rendering of Start/End where no override was given.
	StartLabel string
	EndLabel   string

	// Highlight marks items whose title matched a configured keyword.
	Highlight bool
}

// Day groups the items sharing a calendar date, in display order.
type Day struct {
	Name  string // e.g. "Saturday 7 June"
	Date  time.Time
	Items []Item
}

// Schedule is the complete programme as rendered. Built once per
// generation run and not mutated afterwards.
type Schedule struct {
	Convention string
	Days       []Day
}

// NumItems returns the total item count across all days.
func (s Schedule) NumItems() int {
	n := 0
	for _, d := range s.Days {
		n += len(d.Items)
	}
	return n
}
