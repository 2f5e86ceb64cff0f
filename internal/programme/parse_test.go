package programme

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const header = "ID,Start,End,Title,Room,Start label,End label\n"

func TestParseValidRow(t *testing.T) {
	csv := header + "E1,2025-06-01 10:00,2025-06-01 11:00,Opening,Main Hall,,\n"
	items, err := Parse(strings.NewReader(csv), time.UTC)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.ID != "E1" || it.Title != "Opening" || it.Room != "Main Hall" {
		t.Errorf("unexpected item fields: %+v", it)
	}
	wantStart := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if !it.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", it.Start, wantStart)
	}
	if !it.End.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("End = %v, want %v", it.End, wantStart.Add(time.Hour))
	}
	if it.StartLabel != "" || it.EndLabel != "" {
		t.Errorf("labels should be empty before schedule build, got %q / %q", it.StartLabel, it.EndLabel)
	}
}

func TestParseLabelOverridesKept(t *testing.T) {
	csv := header + "E1,2025-06-01 10:00,2025-06-01 11:00,Opening,Main Hall,Morning,Lunchtime\n"
	items, err := Parse(strings.NewReader(csv), time.UTC)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if items[0].StartLabel != "Morning" || items[0].EndLabel != "Lunchtime" {
		t.Errorf("label overrides not carried: %q / %q", items[0].StartLabel, items[0].EndLabel)
	}
}

func TestParseSlashDates(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr string
		want    time.Time
	}{
		{
			name:  "day greater than 12 is unambiguous",
			value: "13/06/2025 10:00",
			want:  time.Date(2025, 6, 13, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "equal day and month reads the same either way",
			value: "06/06/2025 10:00",
			want:  time.Date(2025, 6, 6, 10, 0, 0, 0, time.UTC),
		},
		{
			name:    "both parts at most 12 is ambiguous",
			value:   "03/04/2025 10:00",
			wantErr: "ambiguous",
		},
		{
			name:    "garbage is rejected",
			value:   "sometime monday",
			wantErr: "unrecognized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWhen(tt.value, time.UTC)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("parseWhen(%q) error = %v, want containing %q", tt.value, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWhen(%q) returned error: %v", tt.value, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseWhen(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseDuplicateIDReferencesBothRows(t *testing.T) {
	csv := header +
		"E1,2025-06-01 10:00,2025-06-01 11:00,Opening,Main Hall,,\n" +
		"E2,2025-06-01 11:00,2025-06-01 12:00,Panel,Room 2,,\n" +
		"E1,2025-06-01 12:00,2025-06-01 13:00,Encore,Main Hall,,\n"
	_, err := Parse(strings.NewReader(csv), time.UTC)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(verrs), verrs)
	}
	e := verrs[0]
	if e.Row != 3 {
		t.Errorf("error row = %d, want 3", e.Row)
	}
	if !strings.Contains(e.Msg, "row 1") {
		t.Errorf("duplicate error should reference the first occurrence, got %q", e.Msg)
	}
	if !strings.Contains(e.Msg, `"E1"`) {
		t.Errorf("duplicate error should name the ID, got %q", e.Msg)
	}
}

func TestParseEndBeforeStart(t *testing.T) {
	csv := header + "E1,2025-06-01 12:00,2025-06-01 11:00,Backwards,Main Hall,,\n"
	_, err := Parse(strings.NewReader(csv), time.UTC)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if verrs[0].Field != colEnd || !strings.Contains(verrs[0].Msg, "must be after") {
		t.Errorf("unexpected error: %+v", verrs[0])
	}
}

func TestParseCollectsAllRowErrors(t *testing.T) {
	csv := header +
		"bad id!,2025-06-01 10:00,2025-06-01 11:00,Opening,Main Hall,,\n" +
		"E2,not a date,2025-06-01 12:00,Panel,Room 2,,\n" +
		"E3,2025-06-01 13:00,2025-06-01 14:00,,Room 3,,\n" +
		"E4,2025-06-01 15:00,2025-06-01 14:00,Workshop,Room 4,,\n"
	_, err := Parse(strings.NewReader(csv), time.UTC)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 4 {
		t.Fatalf("expected 4 errors (one per bad row), got %d: %v", len(verrs), verrs)
	}
	rows := map[int]bool{}
	for _, e := range verrs {
		rows[e.Row] = true
	}
	for want := 1; want <= 4; want++ {
		if !rows[want] {
			t.Errorf("missing error for row %d", want)
		}
	}
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{
			name:    "empty file",
			csv:     "",
			wantErr: "empty",
		},
		{
			name:    "missing required columns",
			csv:     "ID,Start,End,Title\nE1,2025-06-01 10:00,2025-06-01 11:00,Opening\n",
			wantErr: "missing required columns: Room",
		},
		{
			name:    "ragged row",
			csv:     header + "E1,2025-06-01 10:00\n",
			wantErr: "malformed CSV on data row 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.csv), time.UTC)
			if err == nil {
				t.Fatal("expected an error")
			}
			var verrs ValidationErrors
			if errors.As(err, &verrs) {
				t.Fatalf("structural problems must be fatal, not row errors: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseIDCharacterSet(t *testing.T) {
	csv := header +
		"ok_ID-42,2025-06-01 10:00,2025-06-01 11:00,Opening,Main Hall,,\n"
	items, err := Parse(strings.NewReader(csv), time.UTC)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !idPattern.MatchString(items[0].ID) {
		t.Errorf("emitted ID %q does not match the allowed character set", items[0].ID)
	}
}

func TestParseRepeatExpansion(t *testing.T) {
	csv := "ID,Start,End,Title,Room,Start label,End label,Repeat\n" +
		"W1,2025-06-01 10:00,2025-06-01 11:30,Morning Yoga,Studio,,,FREQ=DAILY;COUNT=3\n"
	items, err := Parse(strings.NewReader(csv), time.UTC)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	wantIDs := []string{"W1", "W1-2", "W1-3"}
	for i, it := range items {
		if it.ID != wantIDs[i] {
			t.Errorf("item %d ID = %q, want %q", i, it.ID, wantIDs[i])
		}
		wantStart := time.Date(2025, 6, 1+i, 10, 0, 0, 0, time.UTC)
		if !it.Start.Equal(wantStart) {
			t.Errorf("item %d Start = %v, want %v", i, it.Start, wantStart)
		}
		if got := it.End.Sub(it.Start); got != 90*time.Minute {
			t.Errorf("item %d duration = %v, want 90m", i, got)
		}
	}
}

func TestParseRepeatDerivedIDCollision(t *testing.T) {
	csv := "ID,Start,End,Title,Room,Start label,End label,Repeat\n" +
		"W1,2025-06-01 10:00,2025-06-01 11:00,Yoga,Studio,,,FREQ=DAILY;COUNT=2\n" +
		"W1-2,2025-06-03 10:00,2025-06-03 11:00,Imposter,Studio,,,\n"
	_, err := Parse(strings.NewReader(csv), time.UTC)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors for the derived-ID collision, got %v", err)
	}
	if !strings.Contains(verrs[0].Msg, `"W1-2"`) {
		t.Errorf("error should name the colliding derived ID, got %q", verrs[0].Msg)
	}
}

func TestParseRepeatUnboundedRuleRejected(t *testing.T) {
	csv := "ID,Start,End,Title,Room,Start label,End label,Repeat\n" +
		"W1,2025-06-01 10:00,2025-06-01 11:00,Yoga,Studio,,,FREQ=DAILY\n"
	_, err := Parse(strings.NewReader(csv), time.UTC)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if verrs[0].Field != colRepeat || !strings.Contains(verrs[0].Msg, "more than 100") {
		t.Errorf("unexpected error: %+v", verrs[0])
	}
}
