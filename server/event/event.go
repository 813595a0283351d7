// Package event owns event and participation state: scheduling, club
// gating, capacity and archival visibility. Headcount checks run in the same
// transaction as the join they guard, with the store's unique constraint on
// (event_id, user_id) as the final backstop under concurrency.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherhq/gather-server/server/domain"
)

type Engine struct {
	store domain.Store
	now   func() time.Time
}

func New(store domain.Store) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
	}
}

type CreateParams struct {
	Title       string
	Description string
	CategoryID  int64
	CityIDs     []int64
	ClubID      *int64
	StartTime   time.Time
	EndTime     time.Time
	MaxPeople   int
}

type UpdateParams struct {
	Title       string
	Description string
	CategoryID  int64
	CityIDs     []int64
	StartTime   time.Time
	EndTime     time.Time
	MaxPeople   int
}

// Create creates the event together with the host's implicit join and one
// city link per city id.
func (e *Engine) Create(ctx context.Context, principal domain.Principal, params CreateParams) (*domain.Event, error) {
	if err := e.checkReferences(ctx, params.CategoryID, params.CityIDs); err != nil {
		return nil, err
	}

	if params.ClubID != nil {
		club, err := e.store.GetClub(ctx, *params.ClubID)
		if err != nil {
			return nil, fmt.Errorf("failed to get club: %w", err)
		}
		if club == nil {
			return nil, domain.NotFoundf("club %d does not exist", *params.ClubID)
		}

		isMember, err := e.store.IsClubMember(ctx, *params.ClubID, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check club membership: %w", err)
		}
		if !isMember {
			return nil, domain.Forbiddenf("only club members can create a club event")
		}
	}

	now := e.now()
	if params.StartTime.Before(now) || params.EndTime.Before(now) {
		return nil, domain.Conflictf("start and end time cannot be in the past")
	}
	if params.StartTime.After(params.EndTime) {
		return nil, domain.Conflictf("start time cannot be after end time")
	}

	var created *domain.Event
	err := e.store.InTx(ctx, func(tx domain.Store) error {
		event, err := tx.CreateEvent(ctx, domain.Event{
			HostID:      principal.ID,
			Title:       params.Title,
			Description: params.Description,
			CategoryID:  params.CategoryID,
			ClubID:      params.ClubID,
			CityIDs:     params.CityIDs,
			StartTime:   params.StartTime,
			EndTime:     params.EndTime,
			MaxPeople:   params.MaxPeople,
		})
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}

		if err = tx.CreateEventJoin(ctx, event.ID, principal.ID); err != nil {
			return fmt.Errorf("failed to create host join: %w", err)
		}

		created = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the event if the principal may see it: club events require
// membership, archived events require prior participation.
func (e *Engine) Get(ctx context.Context, principal domain.Principal, eventID int64) (*domain.Event, error) {
	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.NotFoundf("event %d does not exist", eventID)
	}

	if event.ClubID != nil {
		isMember, err := e.store.IsClubMember(ctx, *event.ClubID, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check club membership: %w", err)
		}
		if !isMember {
			return nil, domain.Forbiddenf("only club members can view a club event")
		}
	}

	if event.IsArchived {
		joined, err := e.store.HasEventJoin(ctx, eventID, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check event join: %w", err)
		}
		if !joined {
			return nil, domain.Forbiddenf("archived events are only visible to their participants")
		}
	}

	return event, nil
}

// List applies the filter and then removes archived events the principal
// never joined. Filtering by club requires membership.
func (e *Engine) List(ctx context.Context, principal domain.Principal, filter domain.EventFilter) ([]domain.Event, error) {
	if filter.ClubID != nil {
		isMember, err := e.store.IsClubMember(ctx, *filter.ClubID, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check club membership: %w", err)
		}
		if !isMember {
			return nil, domain.Forbiddenf("only club members can list club events")
		}
	}

	events, err := e.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	eventIDs := make([]int64, 0, len(events))
	for _, event := range events {
		eventIDs = append(eventIDs, event.ID)
	}
	joinedIDs, err := e.store.ListJoinedEventIDs(ctx, eventIDs, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list joined events: %w", err)
	}
	joined := make(map[int64]bool, len(joinedIDs))
	for _, id := range joinedIDs {
		joined[id] = true
	}

	visible := events[:0]
	for _, event := range events {
		if !event.IsArchived || joined[event.ID] {
			visible = append(visible, event)
		}
	}
	return visible, nil
}

// Join adds the principal as a participant while there is a seat left and
// the event has not started.
func (e *Engine) Join(ctx context.Context, principal domain.Principal, eventID int64) error {
	return e.store.InTx(ctx, func(tx domain.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return domain.NotFoundf("event %d does not exist", eventID)
		}

		joined, err := tx.HasEventJoin(ctx, eventID, principal.ID)
		if err != nil {
			return fmt.Errorf("failed to check event join: %w", err)
		}
		if joined {
			return domain.Conflictf("already joined this event")
		}

		if event.ClubID != nil {
			club, err := tx.GetClub(ctx, *event.ClubID)
			if err != nil {
				return fmt.Errorf("failed to get club: %w", err)
			}
			if club == nil {
				return domain.NotFoundf("club %d does not exist", *event.ClubID)
			}

			isMember, err := tx.IsClubMember(ctx, *event.ClubID, principal.ID)
			if err != nil {
				return fmt.Errorf("failed to check club membership: %w", err)
			}
			if !isMember {
				return domain.Forbiddenf("only club members can join a club event")
			}
		}

		if event.Started(e.now()) {
			return domain.Conflictf("joining is only possible before the event starts")
		}

		headcount, err := tx.CountEventJoins(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to count event joins: %w", err)
		}
		if headcount >= event.MaxPeople {
			return domain.Conflictf("event is full")
		}

		if err = tx.CreateEventJoin(ctx, eventID, principal.ID); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.Conflictf("already joined this event")
			}
			return fmt.Errorf("failed to create event join: %w", err)
		}
		return nil
	})
}

// Out removes the principal's participation. Exits are only possible before
// the event starts, and the last remaining participant cannot leave.
func (e *Engine) Out(ctx context.Context, principal domain.Principal, eventID int64) error {
	return e.store.InTx(ctx, func(tx domain.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return domain.NotFoundf("event %d does not exist", eventID)
		}

		joined, err := tx.HasEventJoin(ctx, eventID, principal.ID)
		if err != nil {
			return fmt.Errorf("failed to check event join: %w", err)
		}
		if !joined {
			return domain.Conflictf("cannot leave an event that was never joined")
		}

		now := e.now()
		if event.Started(now) {
			return domain.Conflictf("leaving is only possible before the event starts")
		}
		if event.Ended(now) {
			return domain.Conflictf("cannot leave an event that already ended")
		}

		headcount, err := tx.CountEventJoins(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to count event joins: %w", err)
		}
		if headcount == 1 {
			return domain.Conflictf("an event needs at least one participant")
		}

		if err = tx.DeleteEventJoin(ctx, eventID, principal.ID); err != nil {
			return fmt.Errorf("failed to delete event join: %w", err)
		}
		return nil
	})
}

// Update replaces the mutable fields of a not-yet-started event. Host only.
func (e *Engine) Update(ctx context.Context, principal domain.Principal, eventID int64, params UpdateParams) (*domain.Event, error) {
	current, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if current == nil {
		return nil, domain.NotFoundf("event %d does not exist", eventID)
	}
	if current.HostID != principal.ID {
		return nil, domain.Forbiddenf("only the event host can update the event")
	}

	if err = e.checkReferences(ctx, params.CategoryID, params.CityIDs); err != nil {
		return nil, err
	}

	var updated *domain.Event
	err = e.store.InTx(ctx, func(tx domain.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return domain.NotFoundf("event %d does not exist", eventID)
		}

		now := e.now()
		if event.Started(now) {
			return domain.Conflictf("updating is only possible before the event starts")
		}
		if params.StartTime.Before(now) || params.EndTime.Before(now) {
			return domain.Conflictf("start and end time cannot be in the past")
		}
		if params.StartTime.After(params.EndTime) {
			return domain.Conflictf("start time cannot be after end time")
		}

		headcount, err := tx.CountEventJoins(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to count event joins: %w", err)
		}
		if params.MaxPeople < headcount {
			return domain.Conflictf("max people cannot be less than the current participant count %d", headcount)
		}

		event.Title = params.Title
		event.Description = params.Description
		event.CategoryID = params.CategoryID
		event.CityIDs = params.CityIDs
		event.StartTime = params.StartTime
		event.EndTime = params.EndTime
		event.MaxPeople = params.MaxPeople

		updated, err = tx.UpdateEvent(ctx, *event)
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a not-yet-started event with all its joins. Host only.
func (e *Engine) Delete(ctx context.Context, principal domain.Principal, eventID int64) error {
	return e.store.InTx(ctx, func(tx domain.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return domain.NotFoundf("event %d does not exist", eventID)
		}
		if event.HostID != principal.ID {
			return domain.Forbiddenf("only the event host can delete the event")
		}
		if event.Started(e.now()) {
			return domain.Conflictf("deleting is only possible before the event starts")
		}

		if err = tx.DeleteEventJoins(ctx, eventID); err != nil {
			return fmt.Errorf("failed to delete event joins: %w", err)
		}
		if err = tx.DeleteEvent(ctx, eventID); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return nil
	})
}

// Mine returns every event the principal has joined.
func (e *Engine) Mine(ctx context.Context, principal domain.Principal) ([]domain.Event, error) {
	return e.store.ListJoinedEvents(ctx, principal.ID)
}

func (e *Engine) checkReferences(ctx context.Context, categoryID int64, cityIDs []int64) error {
	category, err := e.store.GetCategory(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return domain.NotFoundf("category %d does not exist", categoryID)
	}

	cities, err := e.store.ListCitiesByIDs(ctx, cityIDs)
	if err != nil {
		return fmt.Errorf("failed to list cities: %w", err)
	}
	if len(cities) != len(cityIDs) {
		return domain.NotFoundf("some cities do not exist")
	}
	return nil
}
