package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"bandroom/internal/common"
	"bandroom/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMembershipRepo(t *testing.T) (MembershipRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPgMembershipRepository(db), mock
}

func TestFindEdge(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	now := time.Now()

	mock.ExpectQuery("FROM band_members WHERE band_id").
		WithArgs("band-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"band_id", "user_id", "role", "joined_at"}).
			AddRow("band-1", "user-1", model.RoleAdmin, now))

	edge, err := repo.FindEdge(context.Background(), "band-1", "user-1")
	require.NoError(t, err)
	assert.True(t, edge.IsAdmin())
	assert.Equal(t, "band-1", edge.BandID)
}

func TestFindEdgeAbsent(t *testing.T) {
	repo, mock := newMembershipRepo(t)

	mock.ExpectQuery("FROM band_members WHERE band_id").
		WithArgs("band-1", "outsider").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindEdge(context.Background(), "band-1", "outsider")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMembershipCreateDuplicateEdge(t *testing.T) {
	repo, mock := newMembershipRepo(t)

	mock.ExpectQuery("INSERT INTO band_members").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "band_members_pkey"})

	err := repo.Create(context.Background(), nil, &model.BandMember{
		BandID: "band-1", UserID: "user-1", Role: model.RoleMember,
	})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestMembershipDelete(t *testing.T) {
	repo, mock := newMembershipRepo(t)

	mock.ExpectExec("DELETE FROM band_members").
		WithArgs("band-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "band-1", "user-1")
	assert.NoError(t, err)
}

func TestMembershipDeleteAbsent(t *testing.T) {
	repo, mock := newMembershipRepo(t)

	mock.ExpectExec("DELETE FROM band_members").
		WithArgs("band-1", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "band-1", "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListByBand(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	now := time.Now()

	mock.ExpectQuery("FROM band_members bm").
		WithArgs("band-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"band_id", "user_id", "role", "joined_at", "email", "first_name", "last_name",
		}).
			AddRow("band-1", "user-1", model.RoleAdmin, now, "a@x.com", "Jane", "Doe").
			AddRow("band-1", "user-2", model.RoleMember, now, "b@x.com", "Joe", "Strummer"))

	members, err := repo.ListByBand(context.Background(), "band-1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "a@x.com", members[0].Email)
	assert.Equal(t, model.RoleMember, members[1].Role)
}
