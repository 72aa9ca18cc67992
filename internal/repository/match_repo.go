package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ember-dating/engine/internal/db"
)

// MatchRepository provides data access for Match rows. Matches are keyed by
// the canonical pair key, which is also the uniqueness guard: concurrent
// creation attempts for the same pair converge on one row.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// GetByPair returns the Match for the unordered pair, or nil if none exists.
func (r *MatchRepository) GetByPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", db.PairKey(a, b)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateOrReactivate is the idempotent match-creation write.
//
// Behavior:
//   - No row for the pair → insert a new active Match (created=true).
//   - Existing active row → returned as-is (the re-like case).
//   - Existing inactive row → reactivated in place, preserving its id and the
//     chat history tied to it (the unmatch-then-rematch case).
//
// A unique-index collision from a concurrent insert is retried as a plain
// lookup, so two racing callers both end up with the same row.
func (r *MatchRepository) CreateOrReactivate(ctx context.Context, a, b uint64) (*db.Match, bool, error) {
	userA, userB := db.OrderPair(a, b)

	existing, err := r.GetByPair(ctx, a, b)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if !existing.IsActive {
			if err := r.db.WithContext(ctx).
				Model(existing).
				Update("is_active", true).Error; err != nil {
				return nil, false, err
			}
			existing.IsActive = true
		}
		return existing, false, nil
	}

	m := db.Match{
		ID:       uuid.NewString(),
		PairKey:  db.PairKey(a, b),
		UserA:    userA,
		UserB:    userB,
		IsActive: true,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(&m).Error
	if err != nil {
		return nil, false, err
	}

	// the insert may have been swallowed by a concurrent writer; re-read
	final, err := r.GetByPair(ctx, a, b)
	if err != nil {
		return nil, false, err
	}
	if final == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return final, final.ID == m.ID, nil
}

// SetBlockedBy updates the blockedBy marker on the pair's Match, if one
// exists. A nil blocker clears it.
func (r *MatchRepository) SetBlockedBy(ctx context.Context, a, b uint64, blocker *uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("pair_key = ?", db.PairKey(a, b)).
		Update("blocked_by", blocker).Error
}

// Deactivate flips IsActive off. The row stays for audit and rematch.
func (r *MatchRepository) Deactivate(ctx context.Context, matchID string) error {
	return r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ?", matchID).
		Update("is_active", false).Error
}

// GetByID returns the Match by id.
func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).Where("id = ?", matchID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActiveForUser returns the user's active matches, newest first.
func (r *MatchRepository) ListActiveForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("(user_a = ? OR user_b = ?) AND is_active = ?", userID, userID, true).
		Order("created_at DESC").
		Find(&matches).Error
	return matches, err
}
