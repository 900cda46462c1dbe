package calendar

import "github.com/julianstephens/cmucal/internal/models"

// Merge layers imported events, organization events and pending overrides,
// in that priority order, into one list with one event per key. A key keeps
// the position of its first insertion; later layers replace its payload.
// Inputs are never mutated.
func Merge(imported, organization []models.Event, overrides *Overrides) []models.Event {
	size := len(imported) + len(organization)
	if overrides != nil {
		size += overrides.Len()
	}

	index := make(map[string]int, size)
	out := make([]models.Event, 0, size)

	put := func(ev models.Event) {
		key := DeriveKey(ev)
		ev.ID = key
		if ev.ClassNames != nil {
			ev.ClassNames = append([]string(nil), ev.ClassNames...)
		}
		if i, ok := index[key]; ok {
			out[i] = ev
			return
		}
		index[key] = len(out)
		out = append(out, ev)
	}

	for _, ev := range imported {
		put(ev)
	}
	for _, ev := range organization {
		put(ev)
	}
	if overrides != nil {
		for _, ev := range overrides.Pending() {
			put(ev)
		}
	}
	return out
}
