package swipe_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/app"
	"github.com/ember-dating/engine/internal/cache"
	"github.com/ember-dating/engine/internal/config"
	"github.com/ember-dating/engine/internal/db"
	svcErr "github.com/ember-dating/engine/internal/errors"
	"github.com/ember-dating/engine/internal/notify"
	"github.com/ember-dating/engine/internal/service/swipe"
)

// setupAppCtx spins up an in-memory SQLite DB, applies migrations, seeds a
// few profiles, starts a miniredis, and wires everything into an AppContext.
//
// Each test gets its own isolated DB + Redis.
func setupAppCtx(t *testing.T) *app.AppContext {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))
	seedProfiles(t, dbase)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	return app.New(dbase, redisCache, logger, cfg, notify.NewLogNotifier(logger))
}

func setupService(t *testing.T) (*swipe.Service, *gorm.DB) {
	t.Helper()
	appCtx := setupAppCtx(t)
	return swipe.NewService(appCtx), appCtx.DB
}

func seedProfiles(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	profiles := []db.Profile{
		{ID: 1, Username: "user1", Email: "u1@test.com", PasswordHash: "x", Gender: "male", LivenessPassed: true, AccountStatus: db.AccountActive},
		{ID: 2, Username: "user2", Email: "u2@test.com", PasswordHash: "x", Gender: "female", LivenessPassed: true, AccountStatus: db.AccountActive},
		{ID: 3, Username: "user3", Email: "u3@test.com", PasswordHash: "x", Gender: "female", LivenessPassed: true, AccountStatus: db.AccountActive},
	}
	require.NoError(t, gdb.Create(&profiles).Error)
}

func TestLikeWithoutReciprocalNoMatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	res, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	assert.Nil(t, res.Match)
	assert.Nil(t, res.Chat)
	assert.False(t, res.MatchCreated)
}

func TestMutualLikeCreatesMatchAndChat(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)

	res, err := svc.RecordSwipe(ctx, 2, 1, db.ActionLike)
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	require.NotNil(t, res.Chat)
	assert.True(t, res.MatchCreated)
	assert.Equal(t, "1:2", res.Match.PairKey)
	assert.True(t, res.Match.IsActive)
	assert.True(t, res.Chat.IsMutual)
	require.NotNil(t, res.Chat.RelatedMatchID)
	assert.Equal(t, res.Match.ID, *res.Chat.RelatedMatchID)
}

// A repeated identical swipe converges on the same Match and Chat instead of
// duplicating them.
func TestRecordSwipeIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	_, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	first, err := svc.RecordSwipe(ctx, 2, 1, db.ActionLike)
	require.NoError(t, err)

	second, err := svc.RecordSwipe(ctx, 2, 1, db.ActionLike)
	require.NoError(t, err)
	assert.False(t, second.MatchCreated)
	assert.Equal(t, first.Match.ID, second.Match.ID)
	assert.Equal(t, first.Chat.ID, second.Chat.ID)

	var matches, chats int64
	require.NoError(t, gdb.Model(&db.Match{}).Count(&matches).Error)
	require.NoError(t, gdb.Model(&db.Chat{}).Count(&chats).Error)
	assert.Equal(t, int64(1), matches)
	assert.Equal(t, int64(1), chats)
}

func TestPassConsumesIncomingLike(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	_, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)

	res, err := svc.RecordSwipe(ctx, 2, 1, db.ActionPass)
	require.NoError(t, err)
	assert.Nil(t, res.Match)

	// the like from 1 is acted on and never re-surfaces
	var d db.SwipeDecision
	require.NoError(t, gdb.Where("from_user_id = ? AND to_user_id = ?", 1, 2).First(&d).Error)
	assert.True(t, d.ActedOnByTarget)

	count, err := svc.CountIncomingLikes(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRecordSwipeValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.RecordSwipe(ctx, 1, 2, "wink")
	assert.True(t, svcErr.IsValidation(err))

	_, err = svc.RecordSwipe(ctx, 1, 1, db.ActionLike)
	assert.True(t, svcErr.IsValidation(err))

	_, err = svc.RecordSwipe(ctx, 0, 2, db.ActionLike)
	assert.True(t, svcErr.IsValidation(err))
}

func TestSuspendedActorCannotSwipe(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	require.NoError(t, gdb.Model(&db.Profile{}).Where("id = ?", 3).
		Update("account_status", db.AccountSuspended).Error)

	_, err := svc.RecordSwipe(ctx, 3, 1, db.ActionLike)
	assert.True(t, svcErr.IsPermission(err))
}

// TestCountIncomingLikesCache verifies like counts with cache.
func TestCountIncomingLikesCache(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	_, err = svc.RecordSwipe(ctx, 3, 2, db.ActionSuperlike)
	require.NoError(t, err)

	// first call -> cache (maintained by RecordSwipe), second call -> cache
	count1, err := svc.CountIncomingLikes(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count1)

	count2, err := svc.CountIncomingLikes(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count2)
}

// The cached counter only moves when the decision row actually changed
// counted state: a retried like must not inflate it, and overwriting a like
// with a pass must take it back.
func TestLikeCountCacheTracksDecisionChanges(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	count, err := svc.CountIncomingLikes(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// idempotent retry overwrites the same unacted row
	_, err = svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	count, err = svc.CountIncomingLikes(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// changing the mind to a pass removes the like from the count
	_, err = svc.RecordSwipe(ctx, 1, 2, db.ActionPass)
	require.NoError(t, err)
	count, err = svc.CountIncomingLikes(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestUnmatchDeactivatesAndSoftDeletes(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	_, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	res, err := svc.RecordSwipe(ctx, 2, 1, db.ActionLike)
	require.NoError(t, err)

	// only a participant may unmatch
	err = svc.Unmatch(ctx, res.Match.ID, 3)
	assert.True(t, svcErr.IsPermission(err))

	require.NoError(t, svc.Unmatch(ctx, res.Match.ID, 1))

	var m db.Match
	require.NoError(t, gdb.Where("id = ?", res.Match.ID).First(&m).Error)
	assert.False(t, m.IsActive)

	var c db.Chat
	require.NoError(t, gdb.Where("id = ?", res.Chat.ID).First(&c).Error)
	require.NotNil(t, c.DeletedAt)
	assert.False(t, c.IsMutual)
	require.NotNil(t, c.DeletedBy)
	assert.Equal(t, uint64(1), *c.DeletedBy)
	assert.NotNil(t, c.PermanentlyDeleteAt)
}

// A queue entry can outlive the incoming like that produced it. Liking a
// candidate who never liked back records the decision but creates no match;
// liking one whose like was already consumed still completes the pair, because
// the acted like row proves mutuality.
func TestStaleQueueEntryGuard(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)

	// 2 passes, consuming 1's like
	res, err := svc.RecordSwipe(ctx, 2, 1, db.ActionPass)
	require.NoError(t, err)
	require.Nil(t, res.Match)

	// 2 changes their mind off a stale entry; 1's like still stands
	res, err = svc.RecordSwipe(ctx, 2, 1, db.ActionLike)
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	assert.True(t, res.MatchCreated)
}

// Rematching after an unmatch reactivates the original Match row and restores
// the chat with its history.
func TestRematchRestoresChat(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	first, err := svc.RecordSwipe(ctx, 2, 1, db.ActionLike)
	require.NoError(t, err)
	require.NoError(t, svc.Unmatch(ctx, first.Match.ID, 2))

	again, err := svc.RecordSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	require.NotNil(t, again.Match)
	assert.False(t, again.MatchCreated)
	assert.Equal(t, first.Match.ID, again.Match.ID)
	assert.True(t, again.Match.IsActive)
	assert.Equal(t, first.Chat.ID, again.Chat.ID)
	assert.Nil(t, again.Chat.DeletedAt)
	assert.True(t, again.Chat.IsMutual)
}
