package programme

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// maxRepeatOccurrences caps how many items a single Repeat rule may expand
// into. A rule without COUNT or UNTIL would otherwise iterate forever.
const maxRepeatOccurrences = 100

// expandRepeat evaluates an RRULE from the optional Repeat column against
// the row's Start time, returning the concrete start of every occurrence.
// The row's own Start is always the first occurrence.
func expandRepeat(rule string, start time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid Repeat rule %q: %v", rule, err)
	}
	r.DTStart(start)

	next := r.Iterator()
	starts := make([]time.Time, 0, 4)
	for {
		t, ok := next()
		if !ok {
			break
		}
		starts = append(starts, t)
		if len(starts) > maxRepeatOccurrences {
			return nil, fmt.Errorf("Repeat rule %q expands to more than %d occurrences; add COUNT or UNTIL", rule, maxRepeatOccurrences)
		}
	}
	if len(starts) == 0 {
		// Degenerate but valid rules (e.g. UNTIL before DTSTART) still
		// yield the row itself.
		starts = append(starts, start)
	}
	return starts, nil
}
