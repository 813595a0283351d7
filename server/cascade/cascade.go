// Package cascade reconciles events and event joins that depend on a club
// when the club is deleted or a member leaves. Every method runs against a
// transaction-bound store supplied by the caller, so the cascade commits or
// rolls back together with the membership change that triggered it.
package cascade

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherhq/gather-server/server/domain"
)

type Coordinator struct{}

func New() *Coordinator {
	return &Coordinator{}
}

// OnClubDelete reconciles the club's events against the cutoff instant:
// events wholly in the future are deleted with their joins, events spanning
// the cutoff are detached from the club and archived for their participants,
// and finished events are left as history.
func (c *Coordinator) OnClubDelete(ctx context.Context, tx domain.Store, clubID int64, cutoff time.Time) error {
	events, err := tx.ListClubEvents(ctx, clubID)
	if err != nil {
		return fmt.Errorf("failed to list club events: %w", err)
	}

	for _, event := range events {
		switch {
		case !event.StartTime.Before(cutoff):
			if err = deleteEventWithJoins(ctx, tx, event.ID); err != nil {
				return err
			}
		case event.StartTime.Before(cutoff) && event.EndTime.After(cutoff):
			if err = tx.ArchiveEvent(ctx, event.ID); err != nil {
				return fmt.Errorf("failed to archive event %d: %w", event.ID, err)
			}
		default:
			// Already finished, stays untouched.
		}
	}

	return nil
}

// OnMemberExit removes the leaving user's participation in the club's
// not-yet-started events. Future events the user hosts under the club are
// deleted outright, a departing member cannot remain the host of upcoming
// club events.
func (c *Coordinator) OnMemberExit(ctx context.Context, tx domain.Store, clubID, userID int64, cutoff time.Time) error {
	hosted, err := tx.ListFutureClubEventsHostedBy(ctx, clubID, userID, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list hosted club events: %w", err)
	}
	for _, event := range hosted {
		if err = deleteEventWithJoins(ctx, tx, event.ID); err != nil {
			return err
		}
	}

	if err = tx.DeleteFutureClubEventJoins(ctx, clubID, userID, cutoff); err != nil {
		return fmt.Errorf("failed to delete future club event joins: %w", err)
	}

	return nil
}

func deleteEventWithJoins(ctx context.Context, tx domain.Store, eventID int64) error {
	if err := tx.DeleteEventJoins(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete joins of event %d: %w", eventID, err)
	}
	if err := tx.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event %d: %w", eventID, err)
	}
	return nil
}
