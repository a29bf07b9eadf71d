package service

import (
	"context"
	"strings"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/repository"
)

// EventService handles event creation and reads.
type EventService struct {
	events repository.EventRepository
}

// NewEventService returns a new EventService.
func NewEventService(events repository.EventRepository) *EventService {
	return &EventService{events: events}
}

// CreateEventInput is the payload for creating an event.
type CreateEventInput struct {
	OrganizerID string
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	if err := requireActor(in.OrganizerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Event title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Event title too long (max 300 characters)")
	}
	if in.Date.IsZero() {
		return nil, models.NewValidationError("Event date is required")
	}

	event := &models.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Location:    in.Location,
		Date:        in.Date,
		OrganizerID: in.OrganizerID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.events.GetByID(ctx, id)
}

// ListEvents returns events ordered by date, soonest first.
func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	return s.events.List(ctx, clampLimit(limit), clampOffset(offset))
}
