package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/db"
)

// ReportRepository provides data access for Report and AccountSuspension rows.
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new repository bound to the given DB connection.
func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

// Create persists a report row. Reports are append-only.
func (r *ReportRepository) Create(ctx context.Context, report *db.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// CountDistinctReporters counts the unique users who reported the target,
// optionally restricted to reports created after since. Multiple reports from
// the same reporter count once; this is the number the suspension thresholds
// compare against.
func (r *ReportRepository) CountDistinctReporters(ctx context.Context, targetID uint64, since *time.Time) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).
		Model(&db.Report{}).
		Where("reported_id = ?", targetID)
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}
	err := q.Distinct("reporter_id").Count(&count).Error
	return count, err
}

// ActiveSuspension returns the target's active suspension, or nil if none.
func (r *ReportRepository) ActiveSuspension(ctx context.Context, userID uint64) (*db.AccountSuspension, error) {
	var s db.AccountSuspension
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, db.SuspensionActive).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSuspension persists a new suspension record.
func (r *ReportRepository) CreateSuspension(ctx context.Context, s *db.AccountSuspension) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// LiftActiveSuspensions marks every active suspension for the user as lifted.
// Updating all rows, not just the first, defensively handles the at-most-one
// invariant being temporarily violated. Returns how many rows were lifted.
func (r *ReportRepository) LiftActiveSuspensions(ctx context.Context, userID, adminID uint64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.AccountSuspension{}).
		Where("user_id = ? AND status = ?", userID, db.SuspensionActive).
		Updates(map[string]any{
			"status":    db.SuspensionLifted,
			"lifted_at": at,
			"lifted_by": adminID,
		})
	return res.RowsAffected, res.Error
}

// ListForTarget returns the reports filed against the target, newest first.
func (r *ReportRepository) ListForTarget(ctx context.Context, targetID uint64) ([]db.Report, error) {
	var reports []db.Report
	err := r.db.WithContext(ctx).
		Where("reported_id = ?", targetID).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}
