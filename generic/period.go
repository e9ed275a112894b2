package generic

import "time"

// =============================================================================
// PERIOD - A closed range of calendar days
// =============================================================================

// Period is the reporting window [Start, End], both days inclusive.
//
// Examples:
//   - March 2025: Mar 1 - Mar 31
//   - Year to date: Jan 1 - today
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// ContainsTime checks the calendar day of t.
func (p Period) ContainsTime(t time.Time) bool {
	return p.Contains(TimePointOf(t))
}

func (p Period) Valid() bool {
	return !p.End.Before(p.Start)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// Label returns "YYYY-MM" for a period that starts on the first of a month.
func (p Period) Label() string {
	return p.Start.Time.Format("2006-01")
}

// MonthOf returns the calendar month containing date.
func MonthOf(date TimePoint) Period {
	return Period{
		Start: StartOfMonth(date.Year(), date.Month()),
		End:   EndOfMonth(date.Year(), date.Month()),
	}
}

// Months splits [from, to] into calendar months. The first and last entries
// are whole months even if from/to fall mid-month.
func Months(from, to TimePoint) []Period {
	if to.Before(from) {
		return nil
	}
	var periods []Period
	current := MonthOf(from)
	last := MonthOf(to)
	for current.Start.BeforeOrEqual(last.Start) {
		periods = append(periods, current)
		current = MonthOf(current.Start.AddMonths(1))
	}
	return periods
}
