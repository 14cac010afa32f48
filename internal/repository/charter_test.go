package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"muster/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedLeague(t *testing.T, db *gorm.DB) *models.League {
	t.Helper()
	league := &models.League{Slug: "rose-city", Name: "Rose City Rollers"}
	require.NoError(t, db.Create(league).Error)
	return league
}

func TestCharterRepository_ReplaceSkaters(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCharterRepository(db)
	ctx := context.Background()

	league := seedLeague(t, db)
	charter := &models.Charter{LeagueID: league.ID, Name: "2026-01-01", Slug: "2026-01-01-ab12"}
	require.NoError(t, repo.Create(ctx, charter))

	first := []models.Skater{{Name: "Skate Queen", Number: "12"}, {Name: "Blocker Jane", Number: "7"}}
	second := []models.Skater{{Name: "Jammer J", Number: "00"}}

	require.NoError(t, repo.ReplaceSkaters(ctx, charter.ID, first))
	require.NoError(t, repo.ReplaceSkaters(ctx, charter.ID, second))

	var skaters []models.Skater
	require.NoError(t, db.Where("charter_id = ?", charter.ID).Find(&skaters).Error)
	require.Len(t, skaters, 1)
	assert.Equal(t, "Jammer J", skaters[0].Name)

	require.NoError(t, repo.ReplaceSkaters(ctx, charter.ID, nil))
	var count int64
	require.NoError(t, db.Model(&models.Skater{}).Where("charter_id = ?", charter.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCharterRepository_TransactionRollsBack(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCharterRepository(db)
	ctx := context.Background()
	league := seedLeague(t, db)

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx CharterRepository) error {
		require.NoError(t, tx.LockLeague(ctx, league.ID))
		c := &models.Charter{LeagueID: league.ID, Name: "Draft", Slug: "draft-1"}
		require.NoError(t, tx.Create(ctx, c))
		require.NoError(t, tx.ReplaceSkaters(ctx, c.ID, []models.Skater{{Name: "A", Number: "1"}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	charters, err := repo.ListByLeague(ctx, league.ID)
	require.NoError(t, err)
	assert.Empty(t, charters)

	var count int64
	require.NoError(t, db.Model(&models.Skater{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCharterRepository_GetBySlug(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCharterRepository(db)
	ctx := context.Background()
	league := seedLeague(t, db)

	c := &models.Charter{LeagueID: league.ID, Name: "Spring", Slug: "spring-x1"}
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.ReplaceSkaters(ctx, c.ID, []models.Skater{{Name: "B", Number: "2"}, {Name: "A", Number: "1"}}))

	got, err := repo.GetBySlug(ctx, league.ID, "spring-x1", false)
	require.NoError(t, err)
	require.Len(t, got.Skaters, 2)
	assert.Equal(t, "1", got.Skaters[0].Number)

	require.NoError(t, repo.Delete(ctx, c.ID))

	_, err = repo.GetBySlug(ctx, league.ID, "spring-x1", false)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	got, err = repo.GetBySlug(ctx, league.ID, "spring-x1", true)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())

	_, err = repo.GetBySlug(ctx, league.ID+1, "spring-x1", true)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestCharterRepository_UpdateClearsColumns(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCharterRepository(db)
	ctx := context.Background()
	league := seedLeague(t, db)

	requested := time.Now().UTC().Truncate(time.Second)
	c := &models.Charter{LeagueID: league.ID, Name: "Fall", Slug: "fall-1", ApprovalRequestedAt: &requested}
	require.NoError(t, repo.Create(ctx, c))

	require.NoError(t, repo.Update(ctx, c, map[string]interface{}{"approval_requested_at": nil, "name": "Fall v2"}))

	got, err := repo.GetBySlug(ctx, league.ID, "fall-1", false)
	require.NoError(t, err)
	assert.Nil(t, got.ApprovalRequestedAt)
	assert.Equal(t, "Fall v2", got.Name)

	require.NoError(t, repo.Update(ctx, c, nil))
}

func TestCharterRepository_ListByLeagueSkipsDeleted(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCharterRepository(db)
	ctx := context.Background()
	league := seedLeague(t, db)

	keep := &models.Charter{LeagueID: league.ID, Name: "Keep", Slug: "keep"}
	gone := &models.Charter{LeagueID: league.ID, Name: "Gone", Slug: "gone"}
	require.NoError(t, repo.Create(ctx, keep))
	require.NoError(t, repo.Create(ctx, gone))
	require.NoError(t, repo.Delete(ctx, gone.ID))

	charters, err := repo.ListByLeague(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, charters, 1)
	assert.Equal(t, "keep", charters[0].Slug)
}

func TestCharterRepository_LockLeagueMissing(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCharterRepository(db)

	err := repo.LockLeague(context.Background(), 404)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestCharterRepository_DeleteSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCharterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "charters" SET "deleted_at"=$1 WHERE "charters"."id" = $2 AND "charters"."deleted_at" IS NULL`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCharterRepository_LockLeagueSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCharterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "leagues" WHERE "leagues"."id" = $1 AND "leagues"."deleted_at" IS NULL ORDER BY "leagues"."id" LIMIT $2 FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	require.NoError(t, repo.LockLeague(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
