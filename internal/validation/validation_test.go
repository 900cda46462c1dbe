package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
)

func event(id, title, start, end, source string) models.Event {
	return models.Event{
		ID:            id,
		Title:         title,
		Start:         start,
		End:           end,
		ExtendedProps: models.ExtendedProps{CalSource: source},
	}
}

func TestValidateEvents_NoConflicts(t *testing.T) {
	validator := New()

	events := []models.Event{
		event("1", "Lecture", "2024-01-02T10:00:00Z", "2024-01-02T11:20:00Z", constants.CalSourceCMUCal),
		event("2", "Lunch", "2024-01-02T11:20:00Z", "2024-01-02T12:00:00Z", constants.CalSourceGCal),
	}

	result := validator.ValidateEvents(events, time.UTC)
	if result.HasConflicts() {
		t.Errorf("Expected no conflicts for back-to-back events, got %v", result.Conflicts)
	}
	if result.FormatReport() != "No conflicts detected." {
		t.Errorf("Unexpected report: %q", result.FormatReport())
	}
}

func TestValidateEvents_Overlap(t *testing.T) {
	validator := New()

	events := []models.Event{
		event("2", "Dentist", "2024-01-02T11:00:00Z", "2024-01-02T12:00:00Z", constants.CalSourceGCal),
		event("1", "Lecture", "2024-01-02T10:00:00Z", "2024-01-02T11:20:00Z", constants.CalSourceCMUCal),
	}

	result := validator.ValidateEvents(events, time.UTC)
	if result.Count(ConflictOverlappingEvents) != 1 {
		t.Fatalf("Expected 1 overlap, got %v", result.Conflicts)
	}

	c := result.Conflicts[0]
	if c.TimeRange != "11:00-11:20" {
		t.Errorf("Expected overlap window 11:00-11:20, got %s", c.TimeRange)
	}
	if c.Date != "2024-01-02" {
		t.Errorf("Expected date 2024-01-02, got %s", c.Date)
	}
	if c.Items[0] != "Lecture" || c.Items[1] != "Dentist" {
		t.Errorf("Expected earlier event first, got %v", c.Items)
	}
	if !strings.Contains(result.FormatReport(), "\"Lecture\" overlaps \"Dentist\"") {
		t.Errorf("Unexpected report: %s", result.FormatReport())
	}
}

func TestValidateEvents_OverlapUsesDisplayZone(t *testing.T) {
	validator := New()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone data unavailable")
	}

	events := []models.Event{
		event("1", "Late Lab", "2024-01-03T03:00:00Z", "2024-01-03T05:00:00Z", constants.CalSourceCMUCal),
		event("2", "Study Group", "2024-01-03T04:00:00Z", "2024-01-03T06:00:00Z", constants.CalSourceICS),
	}

	result := validator.ValidateEvents(events, ny)
	if len(result.Conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(result.Conflicts))
	}
	if result.Conflicts[0].Date != "2024-01-02" {
		t.Errorf("Expected local date 2024-01-02, got %s", result.Conflicts[0].Date)
	}
	if result.Conflicts[0].TimeRange != "23:00-00:00" {
		t.Errorf("Expected local range 23:00-00:00, got %s", result.Conflicts[0].TimeRange)
	}
}

func TestValidateEvents_DuplicateAcrossSources(t *testing.T) {
	validator := New()

	events := []models.Event{
		event("100", "Lecture", "2024-01-02T10:00:00Z", "2024-01-02T11:20:00Z", constants.CalSourceCMUCal),
		event("gcal-abc", " lecture ", "2024-01-02T10:00:00Z", "2024-01-02T11:20:00Z", constants.CalSourceGCal),
	}

	result := validator.ValidateEvents(events, time.UTC)
	if result.Count(ConflictDuplicateEvent) != 1 {
		t.Fatalf("Expected 1 duplicate, got %v", result.Conflicts)
	}
	if result.Count(ConflictOverlappingEvents) != 0 {
		t.Error("Duplicates should not also be reported as overlaps")
	}
	if !strings.Contains(result.Conflicts[0].Description, "CMUCal and Google Calendar") {
		t.Errorf("Unexpected description: %s", result.Conflicts[0].Description)
	}
}

func TestValidateEvents_SameSourceIsOverlap(t *testing.T) {
	validator := New()

	events := []models.Event{
		event("100", "Lecture", "2024-01-02T10:00:00Z", "2024-01-02T11:20:00Z", constants.CalSourceCMUCal),
		event("101", "Lecture", "2024-01-02T10:00:00Z", "2024-01-02T11:20:00Z", constants.CalSourceCMUCal),
	}

	result := validator.ValidateEvents(events, time.UTC)
	if result.Count(ConflictOverlappingEvents) != 1 {
		t.Errorf("Expected same-source copies to overlap, got %v", result.Conflicts)
	}
}

func TestValidateEvents_AllDayIgnoredForOverlap(t *testing.T) {
	validator := New()

	allDay := event("1", "Spring Carnival", "2024-04-11", "2024-04-12", constants.CalSourceCMUCal)
	allDay.AllDay = true
	events := []models.Event{
		allDay,
		event("2", "Booth Build", "2024-04-11T09:00:00Z", "2024-04-11T17:00:00Z", constants.CalSourceCMUCal),
	}

	result := validator.ValidateEvents(events, time.UTC)
	if result.HasConflicts() {
		t.Errorf("All-day events should not overlap timed events, got %v", result.Conflicts)
	}
}

func TestValidateEvents_InvalidTimes(t *testing.T) {
	validator := New()

	events := []models.Event{
		event("1", "Broken Start", "tomorrow", "2024-01-02T11:00:00Z", constants.CalSourceICS),
		event("2", "Broken End", "2024-01-02T10:00:00Z", "", constants.CalSourceICS),
		event("3", "Backwards", "2024-01-02T12:00:00Z", "2024-01-02T11:00:00Z", constants.CalSourceGCal),
	}

	result := validator.ValidateEvents(events, time.UTC)
	if result.Count(ConflictInvalidDateTime) != 2 {
		t.Errorf("Expected 2 invalid datetime conflicts, got %v", result.Conflicts)
	}
	if result.Count(ConflictEndBeforeStart) != 1 {
		t.Errorf("Expected 1 end-before-start conflict, got %v", result.Conflicts)
	}
	if !strings.Contains(result.Conflicts[0].Description, "invalid start time: tomorrow") {
		t.Errorf("Unexpected description: %s", result.Conflicts[0].Description)
	}
}
