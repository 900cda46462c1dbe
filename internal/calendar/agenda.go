package calendar

import (
	"sort"
	"time"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
)

// Day is one date of an agenda with its events in start order.
type Day struct {
	Date   string
	Events []models.Event
}

// Agenda groups events that start within [from, to) by local date. Events
// with unparsable start times are dropped. The merge order is left intact
// for events that start at the same instant.
func Agenda(events []models.Event, from, to time.Time, loc *time.Location) []Day {
	if loc == nil {
		loc = time.Local
	}
	type timed struct {
		ev    models.Event
		start time.Time
	}
	var in []timed
	for _, ev := range events {
		start, err := startIn(ev, loc)
		if err != nil {
			continue
		}
		if start.Before(from) || !start.Before(to) {
			continue
		}
		in = append(in, timed{ev: ev, start: start})
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].start.Before(in[j].start) })

	var days []Day
	for _, t := range in {
		date := t.start.In(loc).Format(constants.DateFormat)
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, Day{Date: date})
		}
		days[len(days)-1].Events = append(days[len(days)-1].Events, t.ev)
	}
	return days
}

// all-day dates are calendar dates in the viewer's zone, not UTC midnight.
func startIn(ev models.Event, loc *time.Location) (time.Time, error) {
	if ev.AllDay {
		if t, err := time.ParseInLocation(constants.DateFormat, ev.Start, loc); err == nil {
			return t, nil
		}
	}
	return ev.StartTime()
}
