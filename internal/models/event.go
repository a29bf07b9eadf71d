package models

import "time"

// Event is a campus happening with exactly one organizer. The organizer is
// seeded into Attendees at creation and may never be removed from it.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	OrganizerID string    `json:"organizer_id"`
	Attendees   []string  `json:"attendees"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasAttendee reports whether the given user currently attends the event.
func (e *Event) HasAttendee(userID string) bool {
	return containsID(e.Attendees, userID)
}
