package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
)

const defaultMaxOccurrences = 1000

// Window bounds an expansion. Occurrences overlapping [From, To) are kept.
type Window struct {
	From time.Time
	To   time.Time
	// Loc is the display zone of the produced events. Defaults to time.Local.
	Loc *time.Location
	// MaxOccurrences caps the instances of a single recurring entry.
	MaxOccurrences int
}

// Expand turns the entries of one feed into display events. Output is
// ordered by start time, then by id.
func Expand(src Source, entries []Entry, w Window) ([]models.Event, error) {
	if w.To.Before(w.From) {
		return nil, errors.New("expand: window ends before it starts")
	}
	if w.Loc == nil {
		w.Loc = time.Local
	}
	if w.MaxOccurrences <= 0 {
		w.MaxOccurrences = defaultMaxOccurrences
	}

	var uids []string
	bases := make(map[string][]Entry)
	overrides := make(map[string][]Entry)
	for _, e := range entries {
		if e.IsOverride() {
			overrides[e.UID] = append(overrides[e.UID], e)
			continue
		}
		if _, seen := bases[e.UID]; !seen {
			uids = append(uids, e.UID)
		}
		bases[e.UID] = append(bases[e.UID], e)
	}

	var out []models.Event
	for _, uid := range uids {
		for _, base := range bases[uid] {
			if base.RRule == "" {
				if overlaps(base.Start, base.End, w) {
					out = append(out, toEvent(src, base, base.Start, base.Start, base.End, w.Loc))
				}
				continue
			}
			out = append(out, expandRecurring(src, base, overrides[uid], w)...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := out[i].StartTime()
		tj, _ := out[j].StartTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func expandRecurring(src Source, base Entry, overrides []Entry, w Window) []models.Event {
	r, err := rrule.StrToRRule(base.RRule)
	if err != nil {
		logger.Warn("Skipping ICS event with invalid RRULE", "feed", src.ID, "uid", base.UID, "rrule", base.RRule, "error", err)
		return nil
	}
	r.DTStart(base.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range base.ExDates {
		set.ExDate(ex.In(base.Start.Location()))
	}

	dur := base.End.Sub(base.Start)
	// widen by the duration so occurrences that started before From still count
	from := w.From.Add(-dur).In(base.Start.Location())
	to := w.To.In(base.Start.Location())
	starts := set.Between(from, to, true)
	if len(starts) > w.MaxOccurrences {
		logger.Warn("Truncated ICS recurrence", "feed", src.ID, "uid", base.UID, "cap", w.MaxOccurrences)
		starts = starts[:w.MaxOccurrences]
	}

	var out []models.Event
	for _, start := range starts {
		ev, s, e := base, start, start.Add(dur)
		if o, ok := findOverride(overrides, start); ok {
			ev, s, e = o, o.Start, o.End
		}
		if !overlaps(s, e, w) {
			continue
		}
		out = append(out, toEvent(src, ev, start, s, e, w.Loc))
	}
	return out
}

func findOverride(overrides []Entry, start time.Time) (Entry, bool) {
	for _, o := range overrides {
		if o.RecurrenceID != nil && o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return Entry{}, false
}

// overlaps reports whether [start, end) intersects the window. Zero-length
// events count when they start inside it.
func overlaps(start, end time.Time, w Window) bool {
	if !end.After(start) {
		return !start.Before(w.From) && start.Before(w.To)
	}
	return start.Before(w.To) && end.After(w.From)
}

// toEvent builds the display event. slot is the originally scheduled start
// and keys the instance even when an override moves it.
func toEvent(src Source, e Entry, slot, start, end time.Time, loc *time.Location) models.Event {
	title := e.Summary
	if title == "" {
		title = constants.UntitledEvent
	}

	var startStr, endStr string
	if e.AllDay {
		startStr = start.Format(constants.DateFormat)
		endStr = end.Format(constants.DateFormat)
	} else {
		startStr = start.In(loc).Format(time.RFC3339)
		endStr = end.In(loc).Format(time.RFC3339)
	}

	return models.Event{
		ID:         InstanceID(src.ID, e.UID, slot),
		Title:      title,
		Start:      startStr,
		End:        endStr,
		AllDay:     e.AllDay,
		ClassNames: []string{constants.ClassICSEvent},
		ExtendedProps: models.ExtendedProps{
			Location:    e.Location,
			Description: e.Description,
			SourceURL:   e.URL,
			OrgName:     src.Name,
			CalSource:   constants.CalSourceICS,
			CalendarID:  src.ID,
		},
	}
}

// InstanceID is the stable display key of one occurrence of a feed entry.
func InstanceID(feedID, uid string, start time.Time) string {
	return feedID + "/" + uid + "/" + start.UTC().Format("20060102T150405Z")
}
