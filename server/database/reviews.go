package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/gatherhq/gather-server/server/domain"
)

func (q queries) GetReview(ctx context.Context, reviewID int64) (*domain.Review, error) {
	var row reviewRow
	if err := sqlx.GetContext(ctx, q.ext, &row, "SELECT * FROM reviews WHERE id = $1", reviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	review := row.toDomain()
	return &review, nil
}

func (q queries) ListReviews(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	query := "SELECT * FROM reviews WHERE TRUE"
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.EventID != nil {
		query += " AND event_id = " + arg(*filter.EventID)
	}
	if filter.UserID != nil {
		query += " AND user_id = " + arg(*filter.UserID)
	}
	query += " ORDER BY id"

	var rows []reviewRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toDomain())
	}
	return reviews, nil
}

func (q queries) HasReview(ctx context.Context, eventID, userID int64) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 FROM reviews WHERE event_id = $1 AND user_id = $2)"

	var exists bool
	if err := sqlx.GetContext(ctx, q.ext, &exists, query, eventID, userID); err != nil {
		return false, fmt.Errorf("failed to check review: %w", err)
	}
	return exists, nil
}

func (q queries) CreateReview(ctx context.Context, review domain.Review) (*domain.Review, error) {
	query := `
		INSERT INTO reviews (user_id, event_id, score, title, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`

	var row reviewRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query,
		review.UserID, review.EventID, review.Score, review.Title, descriptionValue(review.Description),
	); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", convertErr(err))
	}

	created := row.toDomain()
	return &created, nil
}

func (q queries) UpdateReview(ctx context.Context, review domain.Review) (*domain.Review, error) {
	query := `
		UPDATE reviews
		SET score = $2, title = $3, description = $4
		WHERE id = $1
		RETURNING *
	`

	var row reviewRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query,
		review.ID, review.Score, review.Title, descriptionValue(review.Description),
	); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	updated := row.toDomain()
	return &updated, nil
}

func (q queries) DeleteReview(ctx context.Context, reviewID int64) error {
	if _, err := q.ext.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func descriptionValue(description *string) sql.NullString {
	if description == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *description, Valid: true}
}
