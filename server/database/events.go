package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gatherhq/gather-server/server/domain"
)

func (q queries) GetEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	return q.getEvent(ctx, eventID, false)
}

func (q queries) GetEventForUpdate(ctx context.Context, eventID int64) (*domain.Event, error) {
	return q.getEvent(ctx, eventID, true)
}

func (q queries) getEvent(ctx context.Context, eventID int64, forUpdate bool) (*domain.Event, error) {
	query := "SELECT * FROM events WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}

	var row eventRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	cityIDs, err := q.listEventCityIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}

	event := row.toDomain(cityIDs)
	return &event, nil
}

func (q queries) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	query := "SELECT * FROM events WHERE TRUE"
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.HostID != nil {
		query += " AND host_id = " + arg(*filter.HostID)
	}
	if filter.CategoryID != nil {
		query += " AND category_id = " + arg(*filter.CategoryID)
	}
	if filter.ClubID != nil {
		query += " AND club_id = " + arg(*filter.ClubID)
	}
	if filter.CityID != nil {
		query += " AND id IN (SELECT event_id FROM event_cities WHERE city_id = " + arg(*filter.CityID) + ")"
	}
	query += " ORDER BY start_time, id"

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return q.eventsToDomain(ctx, rows)
}

func (q queries) ListEventsByIDs(ctx context.Context, eventIDs []int64) ([]domain.Event, error) {
	query := "SELECT * FROM events WHERE id = ANY($1) ORDER BY start_time, id"

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, pq.Array(eventIDs)); err != nil {
		return nil, fmt.Errorf("failed to list events by ids: %w", err)
	}

	return q.eventsToDomain(ctx, rows)
}

func (q queries) ListClubEvents(ctx context.Context, clubID int64) ([]domain.Event, error) {
	query := "SELECT * FROM events WHERE club_id = $1 ORDER BY start_time, id"

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, clubID); err != nil {
		return nil, fmt.Errorf("failed to list club events: %w", err)
	}

	return q.eventsToDomain(ctx, rows)
}

func (q queries) ListFutureClubEventsHostedBy(ctx context.Context, clubID, hostID int64, after time.Time) ([]domain.Event, error) {
	query := `
		SELECT * FROM events
		WHERE club_id = $1 AND host_id = $2 AND start_time > $3
		ORDER BY start_time, id
	`

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, clubID, hostID, after); err != nil {
		return nil, fmt.Errorf("failed to list hosted club events: %w", err)
	}

	return q.eventsToDomain(ctx, rows)
}

func (q queries) ListJoinedEvents(ctx context.Context, userID int64) ([]domain.Event, error) {
	query := `
		SELECT e.*
		FROM events e
		JOIN event_joins ej ON ej.event_id = e.id
		WHERE ej.user_id = $1
		ORDER BY e.start_time, e.id
	`

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list joined events: %w", err)
	}

	return q.eventsToDomain(ctx, rows)
}

func (q queries) CreateEvent(ctx context.Context, event domain.Event) (*domain.Event, error) {
	query := `
		INSERT INTO events (host_id, title, description, category_id, club_id, start_time, end_time, max_people, is_archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		RETURNING *
	`

	var row eventRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query,
		event.HostID, event.Title, event.Description, event.CategoryID, clubIDValue(event.ClubID),
		event.StartTime, event.EndTime, event.MaxPeople,
	); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", convertErr(err))
	}

	if err := q.replaceEventCities(ctx, row.ID, event.CityIDs); err != nil {
		return nil, err
	}

	created := row.toDomain(event.CityIDs)
	return &created, nil
}

func (q queries) UpdateEvent(ctx context.Context, event domain.Event) (*domain.Event, error) {
	query := `
		UPDATE events
		SET title = $2, description = $3, category_id = $4, start_time = $5, end_time = $6, max_people = $7
		WHERE id = $1
		RETURNING *
	`

	var row eventRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query,
		event.ID, event.Title, event.Description, event.CategoryID,
		event.StartTime, event.EndTime, event.MaxPeople,
	); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if err := q.replaceEventCities(ctx, event.ID, event.CityIDs); err != nil {
		return nil, err
	}

	updated := row.toDomain(event.CityIDs)
	return &updated, nil
}

func (q queries) ArchiveEvent(ctx context.Context, eventID int64) error {
	query := "UPDATE events SET club_id = NULL, is_archived = TRUE WHERE id = $1"

	if _, err := q.ext.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("failed to archive event: %w", err)
	}
	return nil
}

func (q queries) DeleteEvent(ctx context.Context, eventID int64) error {
	if _, err := q.ext.ExecContext(ctx, "DELETE FROM event_cities WHERE event_id = $1", eventID); err != nil {
		return fmt.Errorf("failed to delete event cities: %w", err)
	}
	if _, err := q.ext.ExecContext(ctx, "DELETE FROM events WHERE id = $1", eventID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (q queries) listEventCityIDs(ctx context.Context, eventID int64) ([]int64, error) {
	var cityIDs []int64
	query := "SELECT city_id FROM event_cities WHERE event_id = $1 ORDER BY city_id"
	if err := sqlx.SelectContext(ctx, q.ext, &cityIDs, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to list event city ids: %w", err)
	}
	return cityIDs, nil
}

func (q queries) replaceEventCities(ctx context.Context, eventID int64, cityIDs []int64) error {
	if _, err := q.ext.ExecContext(ctx, "DELETE FROM event_cities WHERE event_id = $1", eventID); err != nil {
		return fmt.Errorf("failed to delete event cities: %w", err)
	}

	query := `
		INSERT INTO event_cities (event_id, city_id)
		SELECT $1, city_id FROM unnest($2::bigint[]) AS city_id
	`
	if _, err := q.ext.ExecContext(ctx, query, eventID, pq.Array(cityIDs)); err != nil {
		return fmt.Errorf("failed to insert event cities: %w", convertErr(err))
	}
	return nil
}

// eventsToDomain loads the city links for all rows in one query.
func (q queries) eventsToDomain(ctx context.Context, rows []eventRow) ([]domain.Event, error) {
	eventIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		eventIDs = append(eventIDs, row.ID)
	}

	var cityRows []eventCityRow
	query := "SELECT event_id, city_id FROM event_cities WHERE event_id = ANY($1) ORDER BY city_id"
	if err := sqlx.SelectContext(ctx, q.ext, &cityRows, query, pq.Array(eventIDs)); err != nil {
		return nil, fmt.Errorf("failed to list event city ids: %w", err)
	}

	citiesByEvent := make(map[int64][]int64, len(rows))
	for _, cityRow := range cityRows {
		citiesByEvent[cityRow.EventID] = append(citiesByEvent[cityRow.EventID], cityRow.CityID)
	}

	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toDomain(citiesByEvent[row.ID]))
	}
	return events, nil
}

func clubIDValue(clubID *int64) sql.NullInt64 {
	if clubID == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *clubID, Valid: true}
}
