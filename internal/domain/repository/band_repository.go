package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bandroom/internal/common"
	"bandroom/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type BandRepository interface {
	Create(ctx context.Context, tx *sql.Tx, band *model.Band) error
	FindByID(ctx context.Context, id string) (*model.Band, error)
	ListByUser(ctx context.Context, userID string) ([]model.Band, error)
}

type pgBandRepository struct {
	db *sql.DB
}

func NewPgBandRepository(db *sql.DB) BandRepository {
	return &pgBandRepository{db: db}
}

func (r *pgBandRepository) Create(ctx context.Context, tx *sql.Tx, band *model.Band) error {
	query := `INSERT INTO bands (id, name, slug) VALUES ($1, $2, $3)
	          RETURNING created_at, updated_at`

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, band.ID, band.Name, band.Slug)
	} else {
		row = r.db.QueryRowContext(ctx, query, band.ID, band.Name, band.Slug)
	}

	if err := row.Scan(&band.CreatedAt, &band.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("band with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgBandRepository.Create: %w", err)
	}
	return nil
}

func (r *pgBandRepository) FindByID(ctx context.Context, id string) (*model.Band, error) {
	query := `SELECT id, name, slug, created_at, updated_at FROM bands WHERE id = $1`
	band := &model.Band{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&band.ID, &band.Name, &band.Slug, &band.CreatedAt, &band.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgBandRepository.FindByID: %w", err)
	}
	return band, nil
}

func (r *pgBandRepository) ListByUser(ctx context.Context, userID string) ([]model.Band, error) {
	query := `SELECT b.id, b.name, b.slug, b.created_at, b.updated_at
	          FROM bands b
	          JOIN band_members bm ON bm.band_id = b.id
	          WHERE bm.user_id = $1
	          ORDER BY b.name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgBandRepository.ListByUser: %w", err)
	}
	defer rows.Close()

	var bands []model.Band
	for rows.Next() {
		var b model.Band
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgBandRepository.ListByUser: %w", err)
		}
		bands = append(bands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgBandRepository.ListByUser: %w", err)
	}
	return bands, nil
}
