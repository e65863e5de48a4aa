package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreatePolygon inserts a new polygon. A missing id is generated.
func (s *Store) CreatePolygon(ctx context.Context, polygon *Polygon) error {
	if polygon.ID == "" {
		polygon.ID = uuid.NewString()
	}

	start := time.Now()
	query := `
		INSERT INTO polygon_areas (id, user_id, name, crop, comment, color, geo_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		polygon.ID,
		polygon.UserID,
		polygon.Name,
		polygon.Crop,
		polygon.Comment,
		polygon.Color,
		polygon.GeoJSON,
	).Scan(&polygon.CreatedAt)
	s.observe("create_polygon", start, err)

	if err != nil {
		return fmt.Errorf("failed to create polygon: %w", err)
	}
	return nil
}

// GetPolygon fetches a polygon by id.
func (s *Store) GetPolygon(ctx context.Context, id string) (*Polygon, error) {
	start := time.Now()
	query := `
		SELECT id, user_id, name, crop, comment, color, geo_json, created_at
		FROM polygon_areas
		WHERE id = $1
	`

	var polygon Polygon
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&polygon.ID,
		&polygon.UserID,
		&polygon.Name,
		&polygon.Crop,
		&polygon.Comment,
		&polygon.Color,
		&polygon.GeoJSON,
		&polygon.CreatedAt,
	)
	s.observe("get_polygon", start, err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get polygon: %w", err)
	}
	return &polygon, nil
}

// ListPolygonsByUser returns a user's polygons, newest first.
func (s *Store) ListPolygonsByUser(ctx context.Context, userID int64) ([]*Polygon, error) {
	start := time.Now()
	query := `
		SELECT id, user_id, name, crop, comment, color, geo_json, created_at
		FROM polygon_areas
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	s.observe("list_polygons", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list polygons: %w", err)
	}
	defer rows.Close()

	var polygons []*Polygon
	for rows.Next() {
		var polygon Polygon
		if err := rows.Scan(
			&polygon.ID,
			&polygon.UserID,
			&polygon.Name,
			&polygon.Crop,
			&polygon.Comment,
			&polygon.Color,
			&polygon.GeoJSON,
			&polygon.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan polygon: %w", err)
		}
		polygons = append(polygons, &polygon)
	}
	return polygons, rows.Err()
}

// UpdatePolygon updates a polygon's editable fields.
func (s *Store) UpdatePolygon(ctx context.Context, polygon *Polygon) error {
	start := time.Now()
	query := `
		UPDATE polygon_areas
		SET name = $1, crop = $2, comment = $3, color = $4, geo_json = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(ctx, query,
		polygon.Name,
		polygon.Crop,
		polygon.Comment,
		polygon.Color,
		polygon.GeoJSON,
		polygon.ID,
	)
	s.observe("update_polygon", start, err)
	if err != nil {
		return fmt.Errorf("failed to update polygon: %w", err)
	}
	return requireRowAffected(result)
}

// DeletePolygon removes a polygon and its chat history via cascade.
func (s *Store) DeletePolygon(ctx context.Context, id string) error {
	start := time.Now()
	result, err := s.db.ExecContext(ctx, `DELETE FROM polygon_areas WHERE id = $1`, id)
	s.observe("delete_polygon", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete polygon: %w", err)
	}
	return requireRowAffected(result)
}

// DeletePolygonsByUser removes every polygon owned by the user. Returns
// the number of rows removed.
func (s *Store) DeletePolygonsByUser(ctx context.Context, userID int64) (int64, error) {
	start := time.Now()
	result, err := s.db.ExecContext(ctx, `DELETE FROM polygon_areas WHERE user_id = $1`, userID)
	s.observe("delete_polygons_by_user", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete polygons: %w", err)
	}
	return result.RowsAffected()
}

// CountPolygons returns the number of stored polygons.
func (s *Store) CountPolygons(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM polygon_areas`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count polygons: %w", err)
	}
	return count, nil
}
