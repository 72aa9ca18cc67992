package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ember-dating/engine/internal/db"
)

// BlockRepository provides data access for the directed BlockRelation edges.
// The unique (blocker_id, blocked_id) index keeps at most one edge per
// ordered pair; all writes are conditional so retries converge.
type BlockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new repository bound to the given DB connection.
func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Upsert inserts the blocker -> blocked edge if absent. Returns whether a new
// edge was created; an existing edge makes this a no-op.
func (r *BlockRepository) Upsert(ctx context.Context, blockerID, blockedID uint64, reason *string) (bool, error) {
	edge := db.BlockRelation{
		ID:        uuid.NewString(),
		BlockerID: blockerID,
		BlockedID: blockedID,
		Reason:    reason,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).
		Create(&edge)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the blocker -> blocked edge. Returns whether an edge
// existed; deleting a missing edge is a no-op, not an error.
func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&db.BlockRelation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists reports whether the directed edge blocker -> blocked is present.
func (r *BlockRepository) Exists(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.BlockRelation{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	return count > 0, err
}

// EitherExists reports whether a block exists in either direction between a
// and b.
func (r *BlockRepository) EitherExists(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.BlockRelation{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// ListBlockedIDs returns every user the blocker has blocked. Feeds the cached
// block set.
func (r *BlockRepository) ListBlockedIDs(ctx context.Context, blockerID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.BlockRelation{}).
		Where("blocker_id = ?", blockerID).
		Pluck("blocked_id", &ids).Error
	return ids, err
}
