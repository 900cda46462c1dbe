// Package ics imports ICS subscriptions as an additional imported event
// source.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/julianstephens/cmucal/internal/logger"
)

const propRecurrenceID = "RECURRENCE-ID"

// Entry is one VEVENT as it appears in the feed, before expansion.
type Entry struct {
	UID         string
	Summary     string
	Location    string
	Description string
	URL         string
	Start       time.Time
	End         time.Time
	AllDay      bool
	RRule       string
	ExDates     []time.Time
	// RecurrenceID is set on instances that override one occurrence of a
	// recurring entry.
	RecurrenceID *time.Time
}

func (e Entry) IsOverride() bool { return e.RecurrenceID != nil }

// Parse decodes every calendar in r. Floating and all-day times are read in
// loc. Events without UID or DTSTART are skipped.
func Parse(r io.Reader, loc *time.Location) ([]Entry, error) {
	if loc == nil {
		loc = time.Local
	}
	dec := ical.NewDecoder(r)
	var entries []Entry
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ics: %w", err)
		}
		for _, ev := range cal.Events() {
			entry, err := parseEvent(ev.Component, loc)
			if err != nil {
				logger.Debug("Skipping ICS event", "error", err)
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// ParseBytes is Parse over an in-memory payload.
func ParseBytes(body []byte, loc *time.Location) ([]Entry, error) {
	return Parse(bytes.NewReader(body), loc)
}

func parseEvent(comp *ical.Component, loc *time.Location) (Entry, error) {
	var entry Entry

	uid := comp.Props.Get(ical.PropUID)
	if uid == nil || uid.Value == "" {
		return entry, errors.New("event has no UID")
	}
	entry.UID = uid.Value

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return entry, fmt.Errorf("event %s has no DTSTART", entry.UID)
	}
	start, err := startProp.DateTime(loc)
	if err != nil {
		return entry, fmt.Errorf("event %s: DTSTART: %w", entry.UID, err)
	}
	entry.Start = start
	entry.AllDay = startProp.ValueType() == ical.ValueDate

	switch {
	case comp.Props.Get(ical.PropDateTimeEnd) != nil:
		end, err := comp.Props.DateTime(ical.PropDateTimeEnd, loc)
		if err != nil {
			return entry, fmt.Errorf("event %s: DTEND: %w", entry.UID, err)
		}
		entry.End = end
	case comp.Props.Get(ical.PropDuration) != nil:
		d, err := comp.Props.Get(ical.PropDuration).Duration()
		if err != nil {
			return entry, fmt.Errorf("event %s: DURATION: %w", entry.UID, err)
		}
		entry.End = start.Add(d)
	case entry.AllDay:
		entry.End = start.AddDate(0, 0, 1)
	default:
		entry.End = start
	}
	if entry.AllDay && !entry.End.After(entry.Start) {
		entry.End = entry.Start.AddDate(0, 0, 1)
	}

	entry.Summary = text(comp, ical.PropSummary)
	entry.Location = text(comp, ical.PropLocation)
	entry.Description = text(comp, ical.PropDescription)
	entry.URL = text(comp, ical.PropURL)

	if p := comp.Props.Get(ical.PropRecurrenceRule); p != nil {
		entry.RRule = p.Value
	}
	for _, p := range comp.Props.Values(ical.PropExceptionDates) {
		entry.ExDates = append(entry.ExDates, multiDateTime(p, loc)...)
	}
	if p := comp.Props.Get(propRecurrenceID); p != nil {
		rid, err := p.DateTime(loc)
		if err != nil {
			return entry, fmt.Errorf("event %s: RECURRENCE-ID: %w", entry.UID, err)
		}
		entry.RecurrenceID = &rid
	}
	return entry, nil
}

func text(comp *ical.Component, name string) string {
	s, err := comp.Props.Text(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// multiDateTime splits a comma separated EXDATE value.
func multiDateTime(p ical.Prop, loc *time.Location) []time.Time {
	var out []time.Time
	for _, v := range strings.Split(p.Value, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		single := ical.Prop{Name: p.Name, Params: p.Params, Value: v}
		t, err := single.DateTime(loc)
		if err != nil {
			logger.Debug("Skipping invalid EXDATE", "value", v, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out
}
