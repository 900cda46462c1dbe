// Package calendar reconciles event sources into the single ordered list of
// display events handed to renderers.
package calendar

import "github.com/julianstephens/cmucal/internal/models"

// DeriveKey returns the display identity of an event: its id when it has
// one, otherwise "{title}-{start}". Two distinct events with the same title
// and start collapse into one key and are resolved by merge priority.
func DeriveKey(ev models.Event) string {
	if ev.ID != "" {
		return ev.ID
	}
	return ev.Title + "-" + ev.Start
}
