package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gatherhq/gather-server/server/domain"
)

func (q queries) GetClub(ctx context.Context, clubID int64) (*domain.Club, error) {
	return q.getClub(ctx, clubID, false)
}

func (q queries) GetClubForUpdate(ctx context.Context, clubID int64) (*domain.Club, error) {
	return q.getClub(ctx, clubID, true)
}

func (q queries) getClub(ctx context.Context, clubID int64, forUpdate bool) (*domain.Club, error) {
	query := "SELECT * FROM clubs WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}

	var row clubRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query, clubID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get club: %w", err)
	}

	club := row.toDomain()
	return &club, nil
}

func (q queries) ListClubs(ctx context.Context) ([]domain.Club, error) {
	query := "SELECT * FROM clubs ORDER BY name, id"

	var rows []clubRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}

	clubs := make([]domain.Club, 0, len(rows))
	for _, row := range rows {
		clubs = append(clubs, row.toDomain())
	}
	return clubs, nil
}

func (q queries) CreateClub(ctx context.Context, club domain.Club) (*domain.Club, error) {
	query := `
		INSERT INTO clubs (host_id, name, description, max_people)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`

	var row clubRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query, club.HostID, club.Name, club.Description, club.MaxPeople); err != nil {
		return nil, fmt.Errorf("failed to create club: %w", convertErr(err))
	}

	created := row.toDomain()
	return &created, nil
}

func (q queries) UpdateClub(ctx context.Context, club domain.Club) (*domain.Club, error) {
	query := `
		UPDATE clubs
		SET host_id = $2, name = $3, description = $4, max_people = $5
		WHERE id = $1
		RETURNING *
	`

	var row clubRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query, club.ID, club.HostID, club.Name, club.Description, club.MaxPeople); err != nil {
		return nil, fmt.Errorf("failed to update club: %w", err)
	}

	updated := row.toDomain()
	return &updated, nil
}

func (q queries) DeleteClub(ctx context.Context, clubID int64) error {
	if _, err := q.ext.ExecContext(ctx, "DELETE FROM clubs WHERE id = $1", clubID); err != nil {
		return fmt.Errorf("failed to delete club: %w", err)
	}
	return nil
}
