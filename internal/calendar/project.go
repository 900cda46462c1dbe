package calendar

import (
	"slices"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
)

// CategorySet reports whether a category is currently visible.
type CategorySet interface {
	Contains(categoryID int64) bool
}

// SavedChecker reports whether an event is on the user's personal calendar.
type SavedChecker interface {
	IsSaved(eventID int64) bool
}

// OrganizationEvents projects the occurrences of courses and clubs into
// display events. Occurrences of visible categories are always included.
// Saved occurrences of hidden categories are included with CategoryHidden
// set. saved may be nil.
func OrganizationEvents(courses, clubs []models.Organization, visible CategorySet, saved SavedChecker) []models.Event {
	var out []models.Event
	for _, org := range courses {
		out = appendOrganization(out, org, constants.CourseColor, constants.ClassCourseEvent, visible, saved)
	}
	for _, org := range clubs {
		out = appendOrganization(out, org, constants.ClubColor, constants.ClassClubEvent, visible, saved)
	}
	return out
}

func appendOrganization(out []models.Event, org models.Organization, color, class string, visible CategorySet, saved SavedChecker) []models.Event {
	for _, cat := range org.Categories {
		shown := visible != nil && visible.Contains(cat.ID)
		for _, occ := range org.Events[cat.Name] {
			eventID := occ.CanonicalEventID()
			isSaved := saved != nil && saved.IsSaved(eventID)
			if !shown && !isSaved {
				continue
			}
			orgName := occ.OrgName
			if orgName == "" {
				orgName = org.Name
			}
			out = append(out, models.Event{
				ID:              occ.DisplayID(),
				Title:           occ.Title,
				Start:           occ.Start,
				End:             occ.End,
				AllDay:          occ.AllDay,
				BackgroundColor: color,
				BorderColor:     color,
				ClassNames:      []string{class},
				ExtendedProps: models.ExtendedProps{
					Location:       occ.Location,
					Description:    occ.Description,
					SourceURL:      occ.SourceURL,
					EventID:        eventID,
					CategoryID:     cat.ID,
					OrgID:          org.OrgID,
					OrgName:        orgName,
					IsSaved:        isSaved,
					CategoryHidden: !shown,
					CalSource:      constants.CalSourceCMUCal,
				},
			})
		}
	}
	return out
}

// FormatGCalEvent converts a Google import into a display event. Google
// events carry no stable id, so the key is derived from the raw title and
// start before the untitled fallback is applied. Events on one of
// cmuCalendarIDs are tagged as CMUCal exports.
func FormatGCalEvent(raw models.GCalEvent, cmuCalendarIDs []string) models.Event {
	title := raw.Title
	if title == "" {
		title = constants.UntitledEvent
	}
	source, class := constants.CalSourceGCal, constants.ClassGCalEvent
	if slices.Contains(cmuCalendarIDs, raw.CalendarID) {
		source, class = constants.CalSourceCMUCal, constants.ClassCMUCalEvent
	}
	return models.Event{
		ID:         DeriveKey(models.Event{Title: raw.Title, Start: raw.Start}),
		Title:      title,
		Start:      raw.Start,
		End:        raw.End,
		AllDay:     raw.AllDay,
		ClassNames: []string{class},
		ExtendedProps: models.ExtendedProps{
			Location:    raw.Location,
			Description: raw.Description,
			SourceURL:   raw.SourceURL,
			CalSource:   source,
			CalendarID:  raw.CalendarID,
			GCalEventID: raw.GCalEventID,
		},
	}
}

// FormatGCalEvents converts a bulk import preserving order.
func FormatGCalEvents(raw []models.GCalEvent, cmuCalendarIDs []string) []models.Event {
	out := make([]models.Event, 0, len(raw))
	for _, r := range raw {
		out = append(out, FormatGCalEvent(r, cmuCalendarIDs))
	}
	return out
}
