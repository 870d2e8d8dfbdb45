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

// MembershipRepository reads and writes the role-carrying edges between
// users and bands. FindEdge is the single lookup the authorization guards
// depend on.
type MembershipRepository interface {
	FindEdge(ctx context.Context, bandID, userID string) (*model.BandMember, error)
	Create(ctx context.Context, tx *sql.Tx, member *model.BandMember) error
	Delete(ctx context.Context, bandID, userID string) error
	ListByBand(ctx context.Context, bandID string) ([]model.BandMember, error)
}

type pgMembershipRepository struct {
	db *sql.DB
}

func NewPgMembershipRepository(db *sql.DB) MembershipRepository {
	return &pgMembershipRepository{db: db}
}

func (r *pgMembershipRepository) FindEdge(ctx context.Context, bandID, userID string) (*model.BandMember, error) {
	query := `SELECT band_id, user_id, role, joined_at
	          FROM band_members WHERE band_id = $1 AND user_id = $2`
	member := &model.BandMember{}
	err := r.db.QueryRowContext(ctx, query, bandID, userID).Scan(
		&member.BandID, &member.UserID, &member.Role, &member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgMembershipRepository.FindEdge: %w", err)
	}
	return member, nil
}

func (r *pgMembershipRepository) Create(ctx context.Context, tx *sql.Tx, member *model.BandMember) error {
	query := `INSERT INTO band_members (band_id, user_id, role) VALUES ($1, $2, $3)
	          RETURNING joined_at`

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, member.BandID, member.UserID, member.Role)
	} else {
		row = r.db.QueryRowContext(ctx, query, member.BandID, member.UserID, member.Role)
	}

	if err := row.Scan(&member.JoinedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // One role per (band, user)
			return fmt.Errorf("user is already a member of this band: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgMembershipRepository.Create: %w", err)
	}
	return nil
}

func (r *pgMembershipRepository) Delete(ctx context.Context, bandID, userID string) error {
	query := `DELETE FROM band_members WHERE band_id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, bandID, userID)
	if err != nil {
		return fmt.Errorf("pgMembershipRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgMembershipRepository.Delete: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgMembershipRepository) ListByBand(ctx context.Context, bandID string) ([]model.BandMember, error) {
	query := `SELECT bm.band_id, bm.user_id, bm.role, bm.joined_at,
	                 u.email, u.first_name, u.last_name
	          FROM band_members bm
	          JOIN users u ON u.id = bm.user_id
	          WHERE bm.band_id = $1
	          ORDER BY bm.joined_at`
	rows, err := r.db.QueryContext(ctx, query, bandID)
	if err != nil {
		return nil, fmt.Errorf("pgMembershipRepository.ListByBand: %w", err)
	}
	defer rows.Close()

	var members []model.BandMember
	for rows.Next() {
		var m model.BandMember
		if err := rows.Scan(
			&m.BandID, &m.UserID, &m.Role, &m.JoinedAt,
			&m.Email, &m.FirstName, &m.LastName,
		); err != nil {
			return nil, fmt.Errorf("pgMembershipRepository.ListByBand: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgMembershipRepository.ListByBand: %w", err)
	}
	return members, nil
}
