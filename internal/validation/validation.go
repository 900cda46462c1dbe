package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictOverlappingEvents ConflictType = "overlapping_events"
	ConflictDuplicateEvent    ConflictType = "duplicate_event"
	ConflictInvalidDateTime   ConflictType = "invalid_datetime"
	ConflictEndBeforeStart    ConflictType = "end_before_start"
)

// Conflict represents a detected problem in a list of display events
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string   // YYYY-MM-DD in the display zone (if applicable)
	Items       []string // Event titles involved
	TimeRange   string   // Human-readable time range (if applicable)
	EventIDs    []string // Display keys of the events involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Count returns the number of conflicts of type t.
func (vr *ValidationResult) Count(t ConflictType) int {
	n := 0
	for _, c := range vr.Conflicts {
		if c.Type == t {
			n++
		}
	}
	return n
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks reconciled calendar events for conflicts
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

type span struct {
	ev         models.Event
	start, end time.Time
}

// ValidateEvents reports unparseable or inverted time ranges, the same event
// imported twice, and timed events that overlap. Dates and times in the
// report are rendered in loc.
func (v *Validator) ValidateEvents(events []models.Event, loc *time.Location) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	if loc == nil {
		loc = time.Local
	}

	var timed []span
	for _, ev := range events {
		start, err := ev.StartTime()
		if err != nil {
			result.Conflicts = append(result.Conflicts, invalid(ev, "start", ev.Start))
			continue
		}
		end, err := ev.EndTime()
		if err != nil {
			result.Conflicts = append(result.Conflicts, invalid(ev, "end", ev.End))
			continue
		}
		if end.Before(start) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictEndBeforeStart,
				Description: fmt.Sprintf("Event \"%s\" ends before it starts (%s)", ev.Title, formatDate(start.In(loc))),
				Date:        formatDate(start.In(loc)),
				Items:       []string{ev.Title},
				EventIDs:    []string{ev.ID},
			})
			continue
		}
		if ev.AllDay {
			continue
		}
		timed = append(timed, span{ev: ev, start: start, end: end})
	}

	// Sort by start time for overlap detection
	sort.SliceStable(timed, func(i, j int) bool {
		if !timed[i].start.Equal(timed[j].start) {
			return timed[i].start.Before(timed[j].start)
		}
		return timed[i].ev.ID < timed[j].ev.ID
	})

	for i := range timed {
		a := timed[i]
		for j := i + 1; j < len(timed); j++ {
			b := timed[j]
			// Later events start after a ends
			if !b.start.Before(a.end) {
				break
			}
			if isDuplicate(a, b) {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type: ConflictDuplicateEvent,
					Description: fmt.Sprintf("%s: \"%s\" at %s appears in both %s and %s",
						formatDate(a.start.In(loc)), a.ev.Title, a.start.In(loc).Format(constants.TimeFormat),
						sourceName(a.ev), sourceName(b.ev)),
					Date:     formatDate(a.start.In(loc)),
					Items:    []string{a.ev.Title},
					EventIDs: []string{a.ev.ID, b.ev.ID},
				})
				continue
			}
			if timesOverlap(a.start, a.end, b.start, b.end) {
				from, to := laterOf(a.start, b.start).In(loc), earlierOf(a.end, b.end).In(loc)
				tr := from.Format(constants.TimeFormat) + "-" + to.Format(constants.TimeFormat)
				result.Conflicts = append(result.Conflicts, Conflict{
					Type: ConflictOverlappingEvents,
					Description: fmt.Sprintf("%s: %s \"%s\" overlaps \"%s\"",
						formatDate(from), tr, a.ev.Title, b.ev.Title),
					Date:      formatDate(from),
					Items:     []string{a.ev.Title, b.ev.Title},
					TimeRange: tr,
					EventIDs:  []string{a.ev.ID, b.ev.ID},
				})
			}
		}
	}

	return result
}

func invalid(ev models.Event, field, value string) Conflict {
	return Conflict{
		Type:        ConflictInvalidDateTime,
		Description: fmt.Sprintf("Event \"%s\" has invalid %s time: %s", ev.Title, field, value),
		Items:       []string{ev.Title},
		EventIDs:    []string{ev.ID},
	}
}

// isDuplicate matches the same title at the same instant coming from two
// different calendar sources, such as a saved event mirrored into Google.
func isDuplicate(a, b span) bool {
	if a.ev.ExtendedProps.CalSource == b.ev.ExtendedProps.CalSource {
		return false
	}
	return a.start.Equal(b.start) && a.end.Equal(b.end) &&
		strings.EqualFold(strings.TrimSpace(a.ev.Title), strings.TrimSpace(b.ev.Title))
}

func sourceName(ev models.Event) string {
	switch ev.ExtendedProps.CalSource {
	case constants.CalSourceGCal:
		return "Google Calendar"
	case constants.CalSourceICS:
		return "an ICS feed"
	case "":
		return "an unknown calendar"
	default:
		return "CMUCal"
	}
}

// timesOverlap checks if two half-open ranges overlap
func timesOverlap(start1, end1, start2, end2 time.Time) bool {
	// Two ranges overlap if: start1 < end2 AND start2 < end1
	return start1.Before(end2) && start2.Before(end1)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func formatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}
