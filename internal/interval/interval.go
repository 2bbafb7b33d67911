// Package interval implements the time interval arithmetic used by the
// availability and conflict checks. All spans are half-open: a span occupies
// [Start, End), so back-to-back spans do not overlap.
package interval

import "time"

// FarFuture is the instant substituted for a missing end when a span is
// open-ended, such as a maintenance window that is still in progress.
var FarFuture = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// New validates and constructs a span. End must be strictly after Start.
func New(start, end time.Time) (Span, bool) {
	if !end.After(start) {
		return Span{}, false
	}
	return Span{Start: start, End: end}, true
}

// OpenEnded returns a span that begins at start and extends to FarFuture.
func OpenEnded(start time.Time) Span {
	return Span{Start: start, End: FarFuture}
}

// Duration returns the length of the span.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// IsZero reports whether the span carries no bounds.
func (s Span) IsZero() bool {
	return s.Start.IsZero() && s.End.IsZero()
}

// Overlaps reports whether candidate and existing share any instant. The test
// is the three-clause form: the candidate start falls inside the existing
// span, the candidate end falls inside the existing span, or the existing
// start falls inside the candidate span. The union of the three clauses is
// equivalent to candidate.Start < existing.End && existing.Start < candidate.End
// for non-empty spans, covering full containment in either direction as well
// as partial overlap. Callers validate that both spans are non-empty.
func Overlaps(candidate, existing Span) bool {
	switch {
	case startsWithin(candidate.Start, existing):
		return true
	case endsWithin(candidate.End, existing):
		return true
	case startsWithin(existing.Start, candidate):
		return true
	}
	return false
}

// AnyOverlap reports whether the candidate overlaps at least one existing span.
func AnyOverlap(candidate Span, existing []Span) bool {
	for _, span := range existing {
		if Overlaps(candidate, span) {
			return true
		}
	}
	return false
}

// Overlapping returns the subset of existing spans that overlap the
// candidate, preserving order. The result is nil when nothing overlaps.
func Overlapping(candidate Span, existing []Span) []Span {
	var conflicts []Span
	for _, span := range existing {
		if Overlaps(candidate, span) {
			conflicts = append(conflicts, span)
		}
	}
	return conflicts
}

// startsWithin reports whether t lies in [span.Start, span.End).
func startsWithin(t time.Time, span Span) bool {
	return !t.Before(span.Start) && t.Before(span.End)
}

// endsWithin reports whether an interval ending at t terminates inside span,
// which holds for t in (span.Start, span.End].
func endsWithin(t time.Time, span Span) bool {
	return t.After(span.Start) && !t.After(span.End)
}
