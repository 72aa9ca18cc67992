package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/db"
	"github.com/ember-dating/engine/internal/utils/pagination"
)

// SwipeRepository provides data access for SwipeDecision rows.
// Construct it over a transaction handle to make multi-step writes atomic.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// RecordDecision inserts the decision from -> to, or overwrites the action of
// the existing unacted decision for that ordered pair. The second return is
// the previous action of the overwritten row, "" when a new row was created;
// callers use it to derive counter deltas.
//
// Behavior:
//   - If an unacted (from, to) row exists → its action is updated in place,
//     keeping the one-unacted-decision-per-pair invariant.
//   - Acted rows are never modified; they are the audit trail.
func (r *SwipeRepository) RecordDecision(
	ctx context.Context,
	fromID, toID uint64,
	action string,
) (*db.SwipeDecision, string, error) {
	var existing db.SwipeDecision
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND acted_on_by_target = ?", fromID, toID, false).
		First(&existing).Error

	switch {
	case err == nil:
		prev := existing.Action
		existing.Action = action
		if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, "", err
		}
		return &existing, prev, nil

	case err == gorm.ErrRecordNotFound:
		decision := db.SwipeDecision{
			ID:         uuid.NewString(),
			FromUserID: fromID,
			ToUserID:   toID,
			Action:     action,
		}
		if err := r.db.WithContext(ctx).Create(&decision).Error; err != nil {
			return nil, "", err
		}
		return &decision, "", nil

	default:
		return nil, "", err
	}
}

// MarkIncomingLikeActed flips ActedOnByTarget on the unacted like/superlike
// from -> to, if one exists. Returns whether a row was updated. Once acted,
// the like is never re-surfaced to the target.
func (r *SwipeRepository) MarkIncomingLikeActed(ctx context.Context, fromID, toID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.SwipeDecision{}).
		Where("from_user_id = ? AND to_user_id = ? AND acted_on_by_target = ? AND action IN ?",
			fromID, toID, false, []string{db.ActionLike, db.ActionSuperlike}).
		Update("acted_on_by_target", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasLiked reports whether from has a like/superlike decision toward to,
// acted or not. Used to validate mutuality before creating a Match.
func (r *SwipeRepository) HasLiked(ctx context.Context, fromID, toID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.SwipeDecision{}).
		Where("from_user_id = ? AND to_user_id = ? AND action IN ?",
			fromID, toID, []string{db.ActionLike, db.ActionSuperlike}).
		Count(&count).Error
	return count > 0, err
}

// GetIncomingLikes returns unacted likes targeting the recipient, newest
// first, with cursor pagination. This is the discovery queue's upstream.
func (r *SwipeRepository) GetIncomingLikes(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.SwipeDecision, *string, error) {
	var decisions []db.SwipeDecision

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("to_user_id = ? AND acted_on_by_target = ? AND action IN ?",
			recipientID, false, []string{db.ActionLike, db.ActionSuperlike}).
		Order("created_at DESC, from_user_id DESC").
		Limit(limit + 1)

	if cursor.LikerID > 0 && cursor.LikedUnix > 0 {
		ts := time.UnixMilli(cursor.LikedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND from_user_id < ?))",
			ts, ts, cursor.LikerID,
		)
	}

	if err := query.Find(&decisions).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(decisions) > limit {
		last := decisions[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LikerID:   last.FromUserID,
			LikedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		decisions = decisions[:limit]
	}

	return decisions, nextToken, nil
}

// CountIncomingLikes returns how many unacted likes target the recipient.
// Used with the Redis counter cache (DB is fallback).
func (r *SwipeRepository) CountIncomingLikes(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.SwipeDecision{}).
		Where("to_user_id = ? AND acted_on_by_target = ? AND action IN ?",
			recipientID, false, []string{db.ActionLike, db.ActionSuperlike}).
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
