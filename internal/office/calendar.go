package office

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/nvandessel/clawback/internal/models"
)

// Calendar holds scheduled events.
type Calendar struct {
	events []models.CalendarEvent
	newID  func() string
}

// NewCalendar creates a calendar holding seed.
func NewCalendar(seed []models.CalendarEvent) *Calendar {
	c := &Calendar{newID: uuid.NewString}
	c.Reset(seed)
	return c
}

// Reset replaces the calendar contents with seed.
func (c *Calendar) Reset(seed []models.CalendarEvent) {
	c.events = append([]models.CalendarEvent(nil), seed...)
}

// Add schedules an event. Conflicts are allowed; check HasConflict first
// to warn about them.
func (c *Calendar) Add(title string, day, startHour, endHour int) (models.CalendarEvent, error) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return models.CalendarEvent{}, fmt.Errorf("%w: title required", ErrInvalidEvent)
	case day < 1:
		return models.CalendarEvent{}, fmt.Errorf("%w: day must be at least 1", ErrInvalidEvent)
	case startHour < 0 || endHour > 24 || startHour >= endHour:
		return models.CalendarEvent{}, fmt.Errorf("%w: hours %d-%d", ErrInvalidEvent, startHour, endHour)
	}
	e := models.CalendarEvent{
		ID:        c.newID(),
		Title:     title,
		Day:       day,
		StartHour: startHour,
		EndHour:   endHour,
	}
	c.events = append(c.events, e)
	return e, nil
}

// All returns every event ordered by day and start hour.
func (c *Calendar) All() []models.CalendarEvent {
	out := append([]models.CalendarEvent(nil), c.events...)
	slices.SortStableFunc(out, func(a, b models.CalendarEvent) int {
		if a.Day != b.Day {
			return a.Day - b.Day
		}
		return a.StartHour - b.StartHour
	})
	return out
}

// ForDay returns the events on day.
func (c *Calendar) ForDay(day int) []models.CalendarEvent {
	var out []models.CalendarEvent
	for _, e := range c.All() {
		if e.Day == day {
			out = append(out, e)
		}
	}
	return out
}

// HasConflict reports whether [startHour, endHour) overlaps an event on day.
func (c *Calendar) HasConflict(day, startHour, endHour int) bool {
	for _, e := range c.events {
		if e.Day == day && startHour < e.EndHour && endHour > e.StartHour {
			return true
		}
	}
	return false
}

// Remove deletes the event with id.
func (c *Calendar) Remove(id string) error {
	for i, e := range c.events {
		if e.ID == id {
			c.events = slices.Delete(c.events, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("event %s: %w", id, ErrNotFound)
}
