package moderation_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
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
	"github.com/ember-dating/engine/internal/service/moderation"
)

const adminID = uint64(999)

func setupService(t *testing.T) (*moderation.Service, *gorm.DB) {
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

	target := db.Profile{ID: 50, Username: "target", Email: "t@test.com", PasswordHash: "x",
		Gender: "male", LivenessPassed: true, AccountStatus: db.AccountActive}
	require.NoError(t, dbase.Create(&target).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Engine.AdminUserIDs = []uint64{adminID}

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(dbase, redisCache, logger, cfg, notify.NewLogNotifier(logger))
	return moderation.NewService(appCtx), dbase
}

func accountStatus(t *testing.T, gdb *gorm.DB, userID uint64) string {
	t.Helper()
	var p db.Profile
	require.NoError(t, gdb.First(&p, userID).Error)
	return p.AccountStatus
}

func activeSuspensions(t *testing.T, gdb *gorm.DB, userID uint64) []db.AccountSuspension {
	t.Helper()
	var rows []db.AccountSuspension
	require.NoError(t, gdb.
		Where("user_id = ? AND status = ?", userID, db.SuspensionActive).
		Find(&rows).Error)
	return rows
}

func TestSubmitReportValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.SubmitReport(ctx, 1, 1, db.ReportReasonSpam, "", nil)
	assert.True(t, svcErr.IsValidation(err))

	_, err = svc.SubmitReport(ctx, 1, 50, "bad_vibes", "", nil)
	assert.True(t, svcErr.IsValidation(err))

	_, err = svc.SubmitReport(ctx, 0, 50, db.ReportReasonSpam, "", nil)
	assert.True(t, svcErr.IsValidation(err))
}

// Thresholds count distinct reporters, not report rows: a handful of users
// filing many reports each never triggers a suspension.
func TestFewReportersManyReportsNoSuspension(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	for i := 0; i < 50; i++ {
		reporter := uint64(1 + i%3)
		_, err := svc.SubmitReport(ctx, reporter, 50, db.ReportReasonSpam, "spam again", nil)
		require.NoError(t, err)
	}

	assert.Empty(t, activeSuspensions(t, gdb, 50))
	assert.Equal(t, db.AccountActive, accountStatus(t, gdb, 50))
}

func TestDistinctReporterThresholdSuspends(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	for i := uint64(1); i <= 30; i++ {
		_, err := svc.SubmitReport(ctx, i, 50, db.ReportReasonHarassment, "", nil)
		require.NoError(t, err)
	}

	suspensions := activeSuspensions(t, gdb, 50)
	require.Len(t, suspensions, 1)
	assert.Equal(t, db.SuspensionReason24Hour, suspensions[0].Reason)
	assert.Equal(t, 30, suspensions[0].ReportCount)
	assert.Equal(t, db.AccountSuspended, accountStatus(t, gdb, 50))

	// further reports while suspended never stack a second suspension
	_, err := svc.SubmitReport(ctx, 31, 50, db.ReportReasonHarassment, "", nil)
	require.NoError(t, err)
	assert.Len(t, activeSuspensions(t, gdb, 50), 1)
}

func TestLifetimeThreshold(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	// 300 distinct reporters spread over history, none inside the last 24h
	old := time.Now().UTC().Add(-48 * time.Hour)
	reports := make([]db.Report, 0, 300)
	for i := uint64(1); i <= 300; i++ {
		reports = append(reports, db.Report{
			ID:         uuid.NewString(),
			ReporterID: i,
			ReportedID: 50,
			Reason:     db.ReportReasonFakeProfile,
			Status:     db.ReportStatusPending,
			CreatedAt:  old,
		})
	}
	require.NoError(t, gdb.CreateInBatches(reports, 100).Error)

	require.NoError(t, svc.EvaluateSuspension(ctx, 50))

	suspensions := activeSuspensions(t, gdb, 50)
	require.Len(t, suspensions, 1)
	assert.Equal(t, db.SuspensionReasonLifetime, suspensions[0].Reason)
	assert.Equal(t, 300, suspensions[0].ReportCount)
	assert.Equal(t, db.AccountSuspended, accountStatus(t, gdb, 50))
}

func TestLiftSuspension(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	for i := uint64(1); i <= 30; i++ {
		_, err := svc.SubmitReport(ctx, i, 50, db.ReportReasonSpam, "", nil)
		require.NoError(t, err)
	}
	require.Equal(t, db.AccountSuspended, accountStatus(t, gdb, 50))

	// only configured admins may lift
	err := svc.LiftSuspension(ctx, 50, 123)
	assert.True(t, svcErr.IsPermission(err))

	require.NoError(t, svc.LiftSuspension(ctx, 50, adminID))
	assert.Empty(t, activeSuspensions(t, gdb, 50))
	assert.Equal(t, db.AccountActive, accountStatus(t, gdb, 50))

	var lifted db.AccountSuspension
	require.NoError(t, gdb.Where("user_id = ? AND status = ?", 50, db.SuspensionLifted).
		First(&lifted).Error)
	require.NotNil(t, lifted.LiftedBy)
	assert.Equal(t, adminID, *lifted.LiftedBy)
	assert.NotNil(t, lifted.LiftedAt)
}
