package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gatherhq/gather-server/server/domain"
)

func (q queries) GetCategory(ctx context.Context, categoryID int64) (*domain.Category, error) {
	var row categoryRow
	if err := sqlx.GetContext(ctx, q.ext, &row, "SELECT * FROM categories WHERE id = $1", categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &domain.Category{ID: row.ID, Name: row.Name}, nil
}

func (q queries) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, "SELECT * FROM categories ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, domain.Category{ID: row.ID, Name: row.Name})
	}
	return categories, nil
}

func (q queries) ListCitiesByIDs(ctx context.Context, cityIDs []int64) ([]domain.City, error) {
	var rows []cityRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, "SELECT * FROM cities WHERE id = ANY($1) ORDER BY id", pq.Array(cityIDs)); err != nil {
		return nil, fmt.Errorf("failed to list cities by ids: %w", err)
	}

	return citiesToDomain(rows), nil
}

func (q queries) ListCities(ctx context.Context) ([]domain.City, error) {
	var rows []cityRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, "SELECT * FROM cities ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}

	return citiesToDomain(rows), nil
}

func citiesToDomain(rows []cityRow) []domain.City {
	cities := make([]domain.City, 0, len(rows))
	for _, row := range rows {
		cities = append(cities, domain.City{ID: row.ID, Name: row.Name})
	}
	return cities
}
