// Package dates turns the raw order timestamps of the source log into
// calendar dates.
package dates

import (
	"strings"
	"time"

	"github.com/golang-sql/civil"
)

// DefaultOrderLayout matches "M/d/yyyy H:mm" (un-padded month, day and hour).
const DefaultOrderLayout = "1/2/2006 15:04"

// Normalizer parses timestamps with a fixed Go layout.
type Normalizer struct {
	Layout string
}

// NewNormalizer returns a Normalizer for layout, falling back to
// DefaultOrderLayout when layout is empty.
func NewNormalizer(layout string) Normalizer {
	if strings.TrimSpace(layout) == "" {
		layout = DefaultOrderLayout
	}
	return Normalizer{Layout: layout}
}

// Normalize returns the calendar date of s. The second result is false when s
// does not match the layout; callers store that as a null date.
func (n Normalizer) Normalize(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}
	layout := n.Layout
	if layout == "" {
		layout = DefaultOrderLayout
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return civil.Date{}, false
	}
	return civil.DateOf(t), true
}

// ParseISO parses a YYYY-MM-DD date, as used in configuration.
func ParseISO(s string) (civil.Date, error) {
	return civil.ParseDate(strings.TrimSpace(s))
}

// Month returns the 1-based month of d.
func Month(d civil.Date) int64 { return int64(d.Month) }

// DiffDays returns the number of days from start to end (negative when end is
// earlier).
func DiffDays(end, start civil.Date) int64 { return int64(end.DaysSince(start)) }

// Today returns the UTC calendar date of now.
func Today(now time.Time) civil.Date { return civil.DateOf(now.UTC()) }
