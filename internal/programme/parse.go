package programme

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	appLog "contabile/internal/log"
	"contabile/internal/model"
)

// CSV column names. Header matching is by name, not position; unknown
// extra columns are ignored.
const (
	colID         = "ID"
	colStart      = "Start"
	colEnd        = "End"
	colTitle      = "Title"
	colRoom       = "Room"
	colStartLabel = "Start label"
	colEndLabel   = "End label"
	colRepeat     = "Repeat"
)

var requiredColumns = []string{colID, colStart, colEnd, colTitle, colRoom}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Accepted timestamp layouts: ISO first, then the day-first slash form.
const (
	layoutISO   = "2006-01-02 15:04"
	layoutSlash = "02/01/2006 15:04"
)

// Parse reads the programme CSV and returns the validated items.
//
// Error contract:
//   - Structural problems (empty file, missing required columns, ragged
//     rows) return an ordinary error immediately.
//   - Per-row data problems are collected across the whole file and
//     returned together as a ValidationErrors value; no items are returned
//     in that case.
//
// Times are parsed in loc (nil means time.Local).
func Parse(r io.Reader, loc *time.Location) ([]model.Item, error) {
	if loc == nil {
		loc = time.Local
	}

	cr := csv.NewReader(r)
	// FieldsPerRecord defaults to the header width, so ragged rows surface
	// as a csv.ErrFieldCount read error below.

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("CSV file is empty or has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("CSV is missing required columns: %s", strings.Join(missing, ", "))
	}

	cell := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		items    []model.Item
		errs     ValidationErrors
		firstRow = make(map[string]int) // ID -> data row where first used
	)

	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged rows are a structural problem with the file, not a
			// data problem in one field.
			return nil, fmt.Errorf("malformed CSV on data row %d: %w", row, err)
		}

		rowErrs := len(errs)

		id := cell(rec, colID)
		switch {
		case id == "":
			errs = append(errs, RowError{Row: row, Field: colID, Msg: "required field is empty"})
		case !idPattern.MatchString(id):
			errs = append(errs, RowError{Row: row, Field: colID,
				Msg: fmt.Sprintf("invalid ID %q: IDs must contain only letters, digits, hyphens and underscores", id)})
		}

		title := cell(rec, colTitle)
		if title == "" {
			errs = append(errs, RowError{Row: row, Field: colTitle, Msg: "required field is empty"})
		}
		room := cell(rec, colRoom)
		if room == "" {
			errs = append(errs, RowError{Row: row, Field: colRoom, Msg: "required field is empty"})
		}

		start, err := parseWhen(cell(rec, colStart), loc)
		if err != nil {
			errs = append(errs, RowError{Row: row, Field: colStart, Msg: err.Error()})
		}
		end, err := parseWhen(cell(rec, colEnd), loc)
		if err != nil {
			errs = append(errs, RowError{Row: row, Field: colEnd, Msg: err.Error()})
		}
		if !start.IsZero() && !end.IsZero() && !start.Before(end) {
			errs = append(errs, RowError{Row: row, Field: colEnd,
				Msg: fmt.Sprintf("End (%s) must be after Start (%s)",
					end.Format(layoutISO), start.Format(layoutISO))})
		}

		if len(errs) > rowErrs {
			// Field-level problems already recorded; nothing usable to
			// build from this row. Move on so every row gets checked.
			continue
		}

		starts := []time.Time{start}
		if rule := cell(rec, colRepeat); rule != "" {
			starts, err = expandRepeat(rule, start)
			if err != nil {
				errs = append(errs, RowError{Row: row, Field: colRepeat, Msg: err.Error()})
				continue
			}
		}

		duration := end.Sub(start)
		for i, occStart := range starts {
			occID := id
			if i > 0 {
				occID = fmt.Sprintf("%s-%d", id, i+1)
			}
			if prev, dup := firstRow[occID]; dup {
				errs = append(errs, RowError{Row: row, Field: colID,
					Msg: fmt.Sprintf("duplicate ID %q (first used on row %d)", occID, prev)})
				continue
			}
			firstRow[occID] = row

			items = append(items, model.Item{
				ID:         occID,
				Title:      title,
				Room:       room,
				Start:      occStart,
				End:        occStart.Add(duration),
				StartLabel: cell(rec, colStartLabel),
				EndLabel:   cell(rec, colEndLabel),
			})
		}
	}

	if len(errs) > 0 {
		appLog.Error("programme CSV failed validation", errs, "error_count", len(errs))
		return nil, errs
	}

	appLog.Info("programme CSV parsed", "item_count", len(items))
	return items, nil
}

// parseWhen parses a timestamp in one of the two accepted layouts.
//
// Slash-form dates where both day and month are 12 or less (and differ)
// read plausibly under either a day-first or month-first convention, so
// they are rejected rather than guessed at; the ISO form is never
// ambiguous.
func parseWhen(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("required field is empty")
	}

	if t, err := time.ParseInLocation(layoutISO, value, loc); err == nil {
		return t, nil
	}

	t, err := time.ParseInLocation(layoutSlash, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q (expected %q or %q)",
			value, "yyyy-mm-dd hh:mm", "dd/mm/yyyy hh:mm")
	}
	if day, month := t.Day(), int(t.Month()); day <= 12 && day != month {
		return time.Time{}, fmt.Errorf("ambiguous timestamp %q: day and month are both 12 or less; use the yyyy-mm-dd hh:mm form", value)
	}
	return t, nil
}
