package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"campusconnect/internal/cache"
	"campusconnect/internal/models"
	"campusconnect/internal/store"
)

const (
	eventsCollection = "events"
	attendeesField   = "attendees"
)

// EventRepository defines the interface for event data operations
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, limit, offset int) ([]*models.Event, error)
	Attend(ctx context.Context, userID, eventID string) error
	Unattend(ctx context.Context, userID, eventID string) error
}

type eventRepository struct {
	store store.EntityStore
}

// NewEventRepository creates a new event repository
func NewEventRepository(s store.EntityStore) EventRepository {
	return &eventRepository{store: s}
}

type eventRecord struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	OrganizerID string    `json:"organizer_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Create persists the event with its organizer already attending. The sort
// key is the event date, so listings come back soonest first.
func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = newID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.Attendees = []string{event.OrganizerID}

	data, err := json.Marshal(eventRecord{
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		Date:        event.Date,
		OrganizerID: event.OrganizerID,
		CreatedAt:   event.CreatedAt,
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	err = withRetry(ctx, "event_create", func() error {
		return r.store.Create(ctx, eventsCollection, &store.Document{
			ID:        event.ID,
			Data:      data,
			Sets:      map[string][]string{attendeesField: {event.OrganizerID}},
			SortKey:   event.Date.UnixNano(),
			CreatedAt: event.CreatedAt,
		})
	})
	return translateStoreError(err, "Event", event.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var doc *store.Document
	err := withRetry(ctx, "event_get", func() error {
		var err error
		doc, err = r.store.Get(ctx, eventsCollection, id)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "Event", id)
	}
	return decodeEvent(doc)
}

// List returns events ordered by date, soonest first.
func (r *eventRepository) List(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	var docs []*store.Document
	err := withRetry(ctx, "event_list", func() error {
		var err error
		docs, err = r.store.Query(ctx, eventsCollection, store.QueryOptions{
			Limit:  limit,
			Offset: offset,
		})
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "Event", "")
	}

	events := make([]*models.Event, 0, len(docs))
	for _, doc := range docs {
		event, err := decodeEvent(doc)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *eventRepository) Attend(ctx context.Context, userID, eventID string) error {
	err := withRetry(ctx, "event_attend", func() error {
		return r.store.AtomicUpdate(ctx, eventsCollection, eventID, store.Update{
			AddToSet: &store.SetMutation{Field: attendeesField, Member: userID},
			Strict:   true,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return models.NewPreconditionError("Already attending this event")
		}
		return translateStoreError(err, "Event", eventID)
	}
	cache.InvalidateEvent(ctx, eventID)
	return nil
}

func (r *eventRepository) Unattend(ctx context.Context, userID, eventID string) error {
	err := withRetry(ctx, "event_unattend", func() error {
		return r.store.AtomicUpdate(ctx, eventsCollection, eventID, store.Update{
			RemoveFromSet: &store.SetMutation{Field: attendeesField, Member: userID},
			Strict:        true,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return models.NewPreconditionError("Not attending this event")
		}
		return translateStoreError(err, "Event", eventID)
	}
	cache.InvalidateEvent(ctx, eventID)
	return nil
}

func decodeEvent(doc *store.Document) (*models.Event, error) {
	var rec eventRecord
	if err := json.Unmarshal(doc.Data, &rec); err != nil {
		return nil, models.NewInternalError(err)
	}
	attendees := doc.Sets[attendeesField]
	if attendees == nil {
		attendees = []string{}
	}
	return &models.Event{
		ID:          doc.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Location:    rec.Location,
		Date:        rec.Date,
		OrganizerID: rec.OrganizerID,
		Attendees:   attendees,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
