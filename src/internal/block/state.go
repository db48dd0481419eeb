package block

import "time"

// State describes the target file with respect to the region.
type State string

const (
	// Absent means no region was found (or the file does not exist).
	Absent State = "absent"
	// Fresh means the region is dated today.
	Fresh State = "fresh"
	// Stale means the region is dated another day or its date is unreadable.
	Stale State = "stale"
)

// Inspection is the result of examining file content.
type Inspection struct {
	State State
	// Date is the embedded generation date; zero when absent or unreadable.
	Date time.Time
	// Regions is the number of regions found.
	Regions int
	// DateErr explains why a present region was classified stale without a date.
	DateErr error
}

// NeedsBuild reports whether a non-forced build must regenerate the region.
func (i Inspection) NeedsBuild() bool {
	return i.State != Fresh
}

// Inspect classifies content relative to now.
func (m Markers) Inspect(content string, now time.Time) Inspection {
	region, ok := m.Find(content)
	if !ok {
		return Inspection{State: Absent}
	}

	result := Inspection{Regions: m.Count(content)}
	date, err := EmbeddedDate(region, now.Location())
	if err != nil {
		result.State = Stale
		result.DateErr = err
		return result
	}

	result.Date = date
	if SameDay(date, now) {
		result.State = Fresh
	} else {
		result.State = Stale
	}
	return result
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
