// Package moderation aggregates abuse reports into automatic account
// suspensions. Thresholds count distinct reporters, never raw report rows,
// and at most one suspension is active per user at any time.
package moderation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/app"
	"github.com/ember-dating/engine/internal/db"
	svcErr "github.com/ember-dating/engine/internal/errors"
	"github.com/ember-dating/engine/internal/repository"
)

// Service implements the report/suspension aggregator.
type Service struct {
	appCtx  *app.AppContext
	reports *repository.ReportRepository
}

// NewService creates the moderation service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		reports: repository.NewReportRepository(appCtx.DB),
	}
}

// SubmitReport records an abuse report and then evaluates the suspension
// thresholds for the target.
//
// The report write must succeed on its own: an evaluation failure (including
// a permission failure on the suspension write) is logged and skipped, never
// surfaced to the reporting user or allowed to roll back the report.
func (s *Service) SubmitReport(ctx context.Context, reporterID, targetID uint64, reason, description string, evidence []string) (*db.Report, error) {
	if reporterID == 0 || targetID == 0 {
		return nil, svcErr.Validation("user ids must be non-zero")
	}
	if reporterID == targetID {
		return nil, svcErr.Validation("cannot report yourself")
	}
	if !db.ValidReportReason(reason) {
		return nil, svcErr.Validation("unknown report reason %q", reason)
	}

	report := &db.Report{
		ID:          uuid.NewString(),
		ReporterID:  reporterID,
		ReportedID:  targetID,
		Reason:      reason,
		Description: description,
		Evidence:    evidence,
		Status:      db.ReportStatusPending,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, svcErr.Map(err)
	}

	if err := s.EvaluateSuspension(ctx, targetID); err != nil {
		s.appCtx.Logger.Warn("suspension evaluation failed, report kept",
			"target", targetID, "err", err)
	}

	return report, nil
}

// EvaluateSuspension checks the distinct-reporter thresholds for the target
// and, if one fires, creates the suspension and flips the account status.
// Idempotent: an already-active suspension makes any further trigger a no-op.
func (s *Service) EvaluateSuspension(ctx context.Context, targetID uint64) error {
	cfg := s.appCtx.Config.Engine

	dayAgo := time.Now().Add(-24 * time.Hour)
	last24h, err := s.reports.CountDistinctReporters(ctx, targetID, &dayAgo)
	if err != nil {
		return svcErr.Map(err)
	}
	lifetime, err := s.reports.CountDistinctReporters(ctx, targetID, nil)
	if err != nil {
		return svcErr.Map(err)
	}

	// 24-hour label wins when both thresholds fire at once
	var reason string
	var count int64
	switch {
	case last24h >= int64(cfg.Reporters24hThreshold):
		reason, count = db.SuspensionReason24Hour, last24h
	case lifetime >= int64(cfg.ReportersLifetimeThreshold):
		reason, count = db.SuspensionReasonLifetime, lifetime
	default:
		return nil
	}

	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reports := repository.NewReportRepository(tx)
		active, err := reports.ActiveSuspension(ctx, targetID)
		if err != nil {
			return err
		}
		if active != nil {
			return nil
		}

		suspension := &db.AccountSuspension{
			ID:          uuid.NewString(),
			UserID:      targetID,
			Reason:      reason,
			ReportCount: int(count),
			Status:      db.SuspensionActive,
		}
		if err := reports.CreateSuspension(ctx, suspension); err != nil {
			return err
		}

		s.appCtx.Logger.Info("account suspended",
			"user", targetID, "reason", reason, "distinct_reporters", count)

		return repository.NewProfileRepository(tx).SetAccountStatus(ctx, targetID, db.AccountSuspended)
	})
	return svcErr.Map(err)
}

// LiftSuspension is the administrative unlock: it lifts every active
// suspension for the target (defensively handling a violated at-most-one
// invariant) and restores the account to active.
func (s *Service) LiftSuspension(ctx context.Context, targetID, adminID uint64) error {
	if !s.isAdmin(adminID) {
		return svcErr.Permission("user %d may not lift suspensions", adminID)
	}

	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lifted, err := repository.NewReportRepository(tx).LiftActiveSuspensions(ctx, targetID, adminID, time.Now())
		if err != nil {
			return err
		}
		if lifted > 1 {
			s.appCtx.Logger.Warn("multiple active suspensions lifted",
				"user", targetID, "count", lifted)
		}
		return repository.NewProfileRepository(tx).SetAccountStatus(ctx, targetID, db.AccountActive)
	})
	if err != nil {
		return svcErr.Map(err)
	}

	s.appCtx.Logger.Info("suspension lifted", "user", targetID, "admin", adminID)
	return nil
}

func (s *Service) isAdmin(userID uint64) bool {
	for _, id := range s.appCtx.Config.Engine.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
