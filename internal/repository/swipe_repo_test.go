package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/db"
	"github.com/ember-dating/engine/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	return database
}

func TestRecordDecisionOverwritesUnacted(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// insert like
	first, prev, err := repo.RecordDecision(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	assert.Empty(t, prev)

	// overwrite with pass: same row, same id, previous action reported
	second, prev, err := repo.RecordDecision(ctx, 1, 2, db.ActionPass)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, db.ActionPass, second.Action)
	assert.Equal(t, db.ActionLike, prev)

	var count int64
	require.NoError(t, dbase.Model(&db.SwipeDecision{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordDecisionKeepsActedRows(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	first, _, err := repo.RecordDecision(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)

	acted, err := repo.MarkIncomingLikeActed(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, acted)

	// the acted row is audit history; a new swipe starts a new row
	second, prev, err := repo.RecordDecision(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, prev)

	var count int64
	require.NoError(t, dbase.Model(&db.SwipeDecision{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestMarkIncomingLikeActed(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// no decision yet
	acted, err := repo.MarkIncomingLikeActed(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, acted)

	// a pass is not a like; nothing to consume
	_, _, err = repo.RecordDecision(ctx, 1, 2, db.ActionPass)
	require.NoError(t, err)
	acted, err = repo.MarkIncomingLikeActed(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, acted)

	_, _, err = repo.RecordDecision(ctx, 3, 2, db.ActionSuperlike)
	require.NoError(t, err)
	acted, err = repo.MarkIncomingLikeActed(ctx, 3, 2)
	require.NoError(t, err)
	assert.True(t, acted)

	// already consumed
	acted, err = repo.MarkIncomingLikeActed(ctx, 3, 2)
	require.NoError(t, err)
	assert.False(t, acted)
}

func TestGetIncomingLikesPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)
	for i, from := range []uint64{1, 2, 3} {
		d := db.SwipeDecision{
			ID:         uuid.NewString(),
			FromUserID: from,
			ToUserID:   9,
			Action:     db.ActionLike,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, dbase.Create(&d).Error)
	}

	// newest first: likers 3, 2 on the first page
	page1, token, err := repo.GetIncomingLikes(ctx, 9, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, uint64(3), page1[0].FromUserID)
	assert.Equal(t, uint64(2), page1[1].FromUserID)
	require.NotNil(t, token)

	page2, token2, err := repo.GetIncomingLikes(ctx, 9, token, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, uint64(1), page2[0].FromUserID)
	assert.Nil(t, token2)
}

func TestCountIncomingLikes(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	_, _, err := repo.RecordDecision(ctx, 1, 9, db.ActionLike)
	require.NoError(t, err)
	_, _, err = repo.RecordDecision(ctx, 2, 9, db.ActionSuperlike)
	require.NoError(t, err)
	_, _, err = repo.RecordDecision(ctx, 3, 9, db.ActionPass)
	require.NoError(t, err)

	count, err := repo.CountIncomingLikes(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// consumed likes drop out of the count
	_, err = repo.MarkIncomingLikeActed(ctx, 1, 9)
	require.NoError(t, err)
	count, err = repo.CountIncomingLikes(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
