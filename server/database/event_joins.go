package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func (q queries) HasEventJoin(ctx context.Context, eventID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM event_joins ej
			JOIN users u ON u.id = ej.user_id AND u.deleted_at IS NULL
			WHERE ej.event_id = $1 AND ej.user_id = $2
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, q.ext, &exists, query, eventID, userID); err != nil {
		return false, fmt.Errorf("failed to check event join: %w", err)
	}
	return exists, nil
}

func (q queries) ListJoinedEventIDs(ctx context.Context, eventIDs []int64, userID int64) ([]int64, error) {
	query := `
		SELECT ej.event_id
		FROM event_joins ej
		JOIN users u ON u.id = ej.user_id AND u.deleted_at IS NULL
		WHERE ej.event_id = ANY($1) AND ej.user_id = $2
	`

	var joinedIDs []int64
	if err := sqlx.SelectContext(ctx, q.ext, &joinedIDs, query, pq.Array(eventIDs), userID); err != nil {
		return nil, fmt.Errorf("failed to list joined event ids: %w", err)
	}
	return joinedIDs, nil
}

func (q queries) CountEventJoins(ctx context.Context, eventID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM event_joins ej
		JOIN users u ON u.id = ej.user_id AND u.deleted_at IS NULL
		WHERE ej.event_id = $1
	`

	var count int
	if err := sqlx.GetContext(ctx, q.ext, &count, query, eventID); err != nil {
		return 0, fmt.Errorf("failed to count event joins: %w", err)
	}
	return count, nil
}

func (q queries) CreateEventJoin(ctx context.Context, eventID, userID int64) error {
	query := "INSERT INTO event_joins (event_id, user_id) VALUES ($1, $2)"

	if _, err := q.ext.ExecContext(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("failed to create event join: %w", convertErr(err))
	}
	return nil
}

func (q queries) DeleteEventJoin(ctx context.Context, eventID, userID int64) error {
	query := "DELETE FROM event_joins WHERE event_id = $1 AND user_id = $2"

	if _, err := q.ext.ExecContext(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("failed to delete event join: %w", err)
	}
	return nil
}

func (q queries) DeleteEventJoins(ctx context.Context, eventID int64) error {
	if _, err := q.ext.ExecContext(ctx, "DELETE FROM event_joins WHERE event_id = $1", eventID); err != nil {
		return fmt.Errorf("failed to delete event joins: %w", err)
	}
	return nil
}

func (q queries) DeleteFutureClubEventJoins(ctx context.Context, clubID, userID int64, after time.Time) error {
	query := `
		DELETE FROM event_joins
		WHERE user_id = $2
		AND event_id IN (
			SELECT id FROM events WHERE club_id = $1 AND start_time > $3
		)
	`

	if _, err := q.ext.ExecContext(ctx, query, clubID, userID, after); err != nil {
		return fmt.Errorf("failed to delete future club event joins: %w", err)
	}
	return nil
}
