// Package chat handles message delivery inside chats, including the shadow
// path for blocked senders: the message is committed normally from the
// sender's point of view but is permanently hidden from the blocking
// recipient and leaves the chat's last-message projection untouched.
package chat

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/app"
	"github.com/ember-dating/engine/internal/db"
	svcErr "github.com/ember-dating/engine/internal/errors"
	"github.com/ember-dating/engine/internal/repository"
	"github.com/ember-dating/engine/internal/service/block"
)

// previewLen caps the last-message projection stored on the chat row.
const previewLen = 256

// previewOf truncates content to previewLen bytes on a rune boundary, so the
// stored projection is always valid UTF-8.
func previewOf(content string) string {
	if len(content) <= previewLen {
		return content
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// Service implements message send/read on top of the chat repositories and
// the block manager's shadow-delivery check.
type Service struct {
	appCtx   *app.AppContext
	chats    *repository.ChatRepository
	messages *repository.MessageRepository
	blocks   *block.Service
}

// NewService creates the chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, blocks *block.Service) *Service {
	return &Service{
		appCtx:   appCtx,
		chats:    repository.NewChatRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
		blocks:   blocks,
	}
}

// StartRestricted opens a cold-outreach chat toward another user, not backed
// by a match. If any chat for the pair already exists it is returned instead.
func (s *Service) StartRestricted(ctx context.Context, fromID, toID uint64) (*db.Chat, error) {
	if fromID == 0 || toID == 0 || fromID == toID {
		return nil, svcErr.Validation("invalid participant pair")
	}

	existing, err := s.chats.GetByPair(ctx, fromID, toID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if existing != nil && existing.DeletedAt == nil {
		return existing, nil
	}
	if existing != nil {
		// soft-deleted chat for the pair; the relationship ended
		return nil, svcErr.NotFound("chat for pair was deleted")
	}

	c, err := s.chats.CreateRestricted(ctx, fromID, toID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return c, nil
}

// SendMessage commits a message from sender into the chat.
//
// Shadow delivery: if the recipient blocks the sender at the time of the
// call, the message is still written (the sender sees no error and no signal
// of the block) but is tagged hidden-for-recipient, the last-message
// projection is not bumped, and no notification fires. Applies uniformly to
// all message types.
func (s *Service) SendMessage(ctx context.Context, chatID string, senderID uint64, msgType, content string) (*db.Message, error) {
	switch msgType {
	case db.MessageTypeText, db.MessageTypeImage, db.MessageTypeShadowChip:
	default:
		return nil, svcErr.Validation("unknown message type %q", msgType)
	}
	if content == "" {
		return nil, svcErr.Validation("content must not be empty")
	}

	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if c.DeletedAt != nil {
		return nil, svcErr.NotFound("chat %s was deleted", chatID)
	}
	if !c.Contains(senderID) {
		return nil, svcErr.Permission("user %d is not a participant of chat %s", senderID, chatID)
	}
	if !c.IsMutual && msgType != db.MessageTypeText {
		return nil, svcErr.Validation("restricted chats only accept text openers")
	}

	recipientID := c.Other(senderID)

	// read the relation at the time of the call; a block landing
	// concurrently with this send may resolve either way
	hidden, err := s.blocks.IsBlockedBy(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}

	msg := &db.Message{
		ID:       uuid.NewString(),
		ChatID:   c.ID,
		SenderID: senderID,
		Type:     msgType,
		Content:  content,
	}
	if hidden {
		msg.HiddenFor = []uint64{recipientID}
	}

	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewMessageRepository(tx).Create(ctx, msg); err != nil {
			return err
		}
		if hidden {
			return nil
		}
		return repository.NewChatRepository(tx).UpdateLastMessage(ctx, c.ID, previewOf(content), msg.CreatedAt)
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if !hidden {
		s.appCtx.Notifier.MessageSent(ctx, c, msg)
	}
	return msg, nil
}

// VisibleMessages returns the chat's messages as seen by viewerID: messages
// hidden for or deleted by the viewer are filtered out.
func (s *Service) VisibleMessages(ctx context.Context, chatID string, viewerID uint64, limit int) ([]db.Message, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if c.DeletedAt != nil {
		return nil, svcErr.NotFound("chat %s was deleted", chatID)
	}
	if !c.Contains(viewerID) {
		return nil, svcErr.Permission("user %d is not a participant of chat %s", viewerID, chatID)
	}

	all, err := s.messages.ListForChat(ctx, chatID, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	visible := make([]db.Message, 0, len(all))
	for _, m := range all {
		if m.HiddenForUser(viewerID) || m.DeletedForUser(viewerID) {
			continue
		}
		visible = append(visible, m)
	}
	return visible, nil
}

// ListChats returns the user's non-deleted chats, most recent first.
func (s *Service) ListChats(ctx context.Context, userID uint64) ([]db.Chat, error) {
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return chats, nil
}

// MarkRead records the viewer's read receipt.
func (s *Service) MarkRead(ctx context.Context, chatID string, userID uint64) error {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !c.Contains(userID) {
		return svcErr.Permission("user %d is not a participant of chat %s", userID, chatID)
	}
	return svcErr.Map(s.chats.MarkRead(ctx, c, userID, time.Now()))
}

// React sets the user's reaction on a message (one per user, overwriting).
// An empty emoji clears it.
func (s *Service) React(ctx context.Context, messageID string, userID uint64, emoji string) (*db.Message, error) {
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	c, err := s.chats.GetByID(ctx, m.ChatID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !c.Contains(userID) {
		return nil, svcErr.Permission("user %d is not a participant of chat %s", userID, c.ID)
	}
	if m.HiddenForUser(userID) {
		return nil, svcErr.NotFound("message %s", messageID)
	}

	updated, err := s.messages.SetReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return updated, nil
}

// DeleteForUser hides the message from the calling user only. Reversible in
// principle (unlike shadow hiding) but no undo surface exists today.
func (s *Service) DeleteForUser(ctx context.Context, messageID string, userID uint64) error {
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return svcErr.Map(err)
	}
	c, err := s.chats.GetByID(ctx, m.ChatID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !c.Contains(userID) {
		return svcErr.Permission("user %d is not a participant of chat %s", userID, c.ID)
	}
	return svcErr.Map(s.messages.AddDeletedFor(ctx, messageID, userID))
}
