// Package review gates reviews attached to finished events: one review per
// participant, never by the host, only after the event ended. Visibility
// mirrors the event's own club and archival gating.
package review

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
	EventID     int64
	Score       int
	Title       string
	Description *string
}

type UpdateParams struct {
	Score       int
	Title       string
	Description *string
}

// PatchParams carries a partial update; nil fields keep their current value.
type PatchParams struct {
	Score       *int
	Title       *string
	Description *string
}

func (e *Engine) Create(ctx context.Context, principal domain.Principal, params CreateParams) (*domain.Review, error) {
	exists, err := e.store.HasReview(ctx, params.EventID, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check review: %w", err)
	}
	if exists {
		return nil, domain.Conflictf("a review for this event already exists")
	}

	joined, err := e.store.HasEventJoin(ctx, params.EventID, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check event join: %w", err)
	}
	if !joined {
		return nil, domain.Conflictf("only participants can review an event")
	}

	event, err := e.store.GetEvent(ctx, params.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.NotFoundf("event %d does not exist", params.EventID)
	}

	if !event.Ended(e.now()) {
		return nil, domain.Conflictf("the event has not ended yet")
	}
	if event.HostID == principal.ID {
		return nil, domain.Conflictf("the event host cannot review their own event")
	}

	review, err := e.store.CreateReview(ctx, domain.Review{
		UserID:      principal.ID,
		EventID:     params.EventID,
		Score:       params.Score,
		Title:       params.Title,
		Description: params.Description,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Conflictf("a review for this event already exists")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

// Get returns the review if the underlying event would be visible to the
// principal.
func (e *Engine) Get(ctx context.Context, principal domain.Principal, reviewID int64) (*domain.Review, error) {
	review, err := e.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, domain.NotFoundf("review %d does not exist", reviewID)
	}

	event, err := e.store.GetEvent(ctx, review.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		// Reviews are keyed to immutable events; a vanished event is a
		// broken invariant, not a user error.
		return nil, domain.Internalf("event %d of review %d is missing", review.EventID, reviewID)
	}

	if event.IsArchived {
		joined, err := e.store.HasEventJoin(ctx, event.ID, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check event join: %w", err)
		}
		if !joined {
			return nil, domain.Forbiddenf("reviews of archived events are only visible to their participants")
		}
	}

	if event.ClubID != nil {
		isMember, err := e.store.IsClubMember(ctx, *event.ClubID, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check club membership: %w", err)
		}
		if !isMember {
			return nil, domain.Forbiddenf("reviews of club events are only visible to club members")
		}
	}

	return review, nil
}

// List applies the filter and drops reviews whose underlying event the
// principal may not see.
func (e *Engine) List(ctx context.Context, principal domain.Principal, filter domain.ReviewFilter) ([]domain.Review, error) {
	reviews, err := e.store.ListReviews(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	eventIDSet := make(map[int64]bool, len(reviews))
	eventIDs := make([]int64, 0, len(reviews))
	for _, review := range reviews {
		if !eventIDSet[review.EventID] {
			eventIDSet[review.EventID] = true
			eventIDs = append(eventIDs, review.EventID)
		}
	}

	events, err := e.store.ListEventsByIDs(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	eventsByID := make(map[int64]domain.Event, len(events))
	for _, event := range events {
		eventsByID[event.ID] = event
	}

	joinedEventIDs, err := e.store.ListJoinedEventIDs(ctx, eventIDs, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list joined events: %w", err)
	}
	joinedEvents := make(map[int64]bool, len(joinedEventIDs))
	for _, id := range joinedEventIDs {
		joinedEvents[id] = true
	}

	joinedClubIDs, err := e.store.ListJoinedClubIDs(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list joined clubs: %w", err)
	}
	joinedClubs := make(map[int64]bool, len(joinedClubIDs))
	for _, id := range joinedClubIDs {
		joinedClubs[id] = true
	}

	visible := reviews[:0]
	for _, review := range reviews {
		event, ok := eventsByID[review.EventID]
		if !ok {
			return nil, domain.Internalf("event %d of review %d is missing", review.EventID, review.ID)
		}
		switch {
		case !event.IsArchived && event.ClubID == nil:
			visible = append(visible, review)
		case !event.IsArchived:
			if joinedClubs[*event.ClubID] {
				visible = append(visible, review)
			}
		default:
			if joinedEvents[event.ID] {
				visible = append(visible, review)
			}
		}
	}
	return visible, nil
}

// Update replaces score, title and description. Author only.
func (e *Engine) Update(ctx context.Context, principal domain.Principal, reviewID int64, params UpdateParams) (*domain.Review, error) {
	review, err := e.authorOnly(ctx, principal, reviewID)
	if err != nil {
		return nil, err
	}

	review.Score = params.Score
	review.Title = params.Title
	review.Description = params.Description

	updated, err := e.store.UpdateReview(ctx, *review)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return updated, nil
}

// Patch applies the non-nil fields over the current review. Author only.
func (e *Engine) Patch(ctx context.Context, principal domain.Principal, reviewID int64, params PatchParams) (*domain.Review, error) {
	review, err := e.authorOnly(ctx, principal, reviewID)
	if err != nil {
		return nil, err
	}

	if params.Score != nil {
		review.Score = *params.Score
	}
	if params.Title != nil {
		review.Title = *params.Title
	}
	if params.Description != nil {
		review.Description = params.Description
	}

	updated, err := e.store.UpdateReview(ctx, *review)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return updated, nil
}

// Delete removes the review. Author only.
func (e *Engine) Delete(ctx context.Context, principal domain.Principal, reviewID int64) error {
	if _, err := e.authorOnly(ctx, principal, reviewID); err != nil {
		return err
	}

	if err := e.store.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (e *Engine) authorOnly(ctx context.Context, principal domain.Principal, reviewID int64) (*domain.Review, error) {
	review, err := e.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, domain.NotFoundf("review %d does not exist", reviewID)
	}
	if review.UserID != principal.ID {
		return nil, domain.Forbiddenf("only the author can modify the review")
	}
	return review, nil
}
