package repository

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/db"
)

// MessageRepository provides data access for Message rows.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create persists a new message. The caller decides the HiddenFor set before
// the write; hiding is never applied retroactively.
func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByID returns the message by id.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*db.Message, error) {
	var m db.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListForChat returns the chat's messages, newest first.
func (r *MessageRepository) ListForChat(ctx context.Context, chatID string, limit int) ([]db.Message, error) {
	var messages []db.Message
	q := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&messages).Error
	return messages, err
}

// SetReaction stores userID's reaction, overwriting any previous one (at most
// one reaction per user per message). An empty emoji removes the reaction.
func (r *MessageRepository) SetReaction(ctx context.Context, id string, userID uint64, emoji string) (*db.Message, error) {
	var m db.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		if m.Reactions == nil {
			m.Reactions = map[string]string{}
		}
		key := uintKey(userID)
		if emoji == "" {
			delete(m.Reactions, key)
		} else {
			m.Reactions[key] = emoji
		}
		return tx.Model(&m).Update("reactions", m.Reactions).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// AddDeletedFor marks the message deleted for userID (reversible, unlike the
// hidden-for set).
func (r *MessageRepository) AddDeletedFor(ctx context.Context, id string, userID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m db.Message
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		if m.DeletedForUser(userID) {
			return nil
		}
		m.DeletedFor = append(m.DeletedFor, userID)
		return tx.Model(&m).Update("deleted_for", m.DeletedFor).Error
	})
}

// uintKey renders a user id as a map key; JSON object keys must be strings.
func uintKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}
