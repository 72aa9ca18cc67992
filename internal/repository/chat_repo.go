package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/db"
)

// ChatRepository provides data access for Chat rows. Like Match, chats are
// keyed by the canonical pair key so the pair lookup is O(1) and at most one
// chat exists per pair.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new repository bound to the given DB connection.
func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// GetByPair returns the chat for the unordered pair, soft-deleted or not, or
// nil if none was ever created.
func (r *ChatRepository) GetByPair(ctx context.Context, a, b uint64) (*db.Chat, error) {
	var c db.Chat
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", db.PairKey(a, b)).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID returns the chat by id.
func (r *ChatRepository) GetByID(ctx context.Context, chatID string) (*db.Chat, error) {
	var c db.Chat
	if err := r.db.WithContext(ctx).Where("id = ?", chatID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpgradeOrCreateMutual provisions the mutual chat for a newly created match.
//
// Behavior:
//   - Existing chat (restricted or soft-deleted) → upgraded in place:
//     isMutual=true, relatedMatchId attached, soft-delete cleared so the
//     history is restored on rematch.
//   - No chat → a fresh mutual chat is created.
func (r *ChatRepository) UpgradeOrCreateMutual(ctx context.Context, a, b uint64, matchID string) (*db.Chat, error) {
	userA, userB := db.OrderPair(a, b)
	now := time.Now()

	existing, err := r.GetByPair(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		updates := map[string]any{
			"is_mutual":             true,
			"related_match_id":      matchID,
			"last_message_at":       now,
			"deleted_at":            nil,
			"deleted_by":            nil,
			"permanently_delete_at": nil,
		}
		if err := r.db.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
			return nil, err
		}
		existing.IsMutual = true
		existing.RelatedMatchID = &matchID
		existing.LastMessageAt = &now
		existing.DeletedAt, existing.DeletedBy, existing.PermanentlyDeleteAt = nil, nil, nil
		return existing, nil
	}

	c := db.Chat{
		ID:             uuid.NewString(),
		PairKey:        db.PairKey(a, b),
		UserA:          userA,
		UserB:          userB,
		RelatedMatchID: &matchID,
		IsMutual:       true,
		LastMessageAt:  &now,
	}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateRestricted creates a cold-outreach chat not yet backed by a match.
func (r *ChatRepository) CreateRestricted(ctx context.Context, a, b uint64) (*db.Chat, error) {
	userA, userB := db.OrderPair(a, b)
	c := db.Chat{
		ID:      uuid.NewString(),
		PairKey: db.PairKey(a, b),
		UserA:   userA,
		UserB:   userB,
	}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// SetMutualByPair updates the derived isMutual display flag for the pair's
// chat. Called by the block manager and the unmatch path to keep the flag in
// sync with "match active and unblocked".
func (r *ChatRepository) SetMutualByPair(ctx context.Context, a, b uint64, mutual bool) error {
	return r.db.WithContext(ctx).
		Model(&db.Chat{}).
		Where("pair_key = ?", db.PairKey(a, b)).
		Update("is_mutual", mutual).Error
}

// UpdateLastMessage bumps the chat's last-message projection. Shadow-delivered
// messages never call this, so the blocking recipient sees no new-message
// affordance.
func (r *ChatRepository) UpdateLastMessage(ctx context.Context, chatID, preview string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]any{
			"last_message":    preview,
			"last_message_at": at,
		}).Error
}

// SoftDelete marks the chat deleted. Purging after purgeAt is the job of an
// external sweep; read paths only filter on deleted_at.
func (r *ChatRepository) SoftDelete(ctx context.Context, chatID string, by uint64, purgeAt time.Time) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&db.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]any{
			"deleted_at":            now,
			"deleted_by":            by,
			"permanently_delete_at": purgeAt,
			"is_mutual":             false,
		}).Error
}

// MarkRead records the read receipt for userID at the given instant.
func (r *ChatRepository) MarkRead(ctx context.Context, chat *db.Chat, userID uint64, at time.Time) error {
	column := "last_read_a"
	if chat.UserB == userID {
		column = "last_read_b"
	}
	return r.db.WithContext(ctx).
		Model(&db.Chat{}).
		Where("id = ?", chat.ID).
		Update(column, at).Error
}

// ListForUser returns the user's non-deleted chats, most recent message first.
func (r *ChatRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Chat, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Where("(user_a = ? OR user_b = ?) AND deleted_at IS NULL", userID, userID).
		Order("last_message_at DESC").
		Find(&chats).Error
	return chats, err
}
