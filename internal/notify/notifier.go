// Package notify is the seam to the push-notification collaborator. The
// engine only emits events here; delivery is out of scope. Hidden
// (shadow-delivered) messages are never forwarded.
package notify

import (
	"context"
	"log/slog"

	"github.com/ember-dating/engine/internal/db"
)

// Notifier receives engine events worth surfacing to users.
type Notifier interface {
	// MatchCreated fires once per newly created (or reactivated) match.
	MatchCreated(ctx context.Context, match *db.Match)
	// MessageSent fires for visible messages only. The chat service skips
	// this call for messages hidden from their recipient.
	MessageSent(ctx context.Context, chat *db.Chat, msg *db.Message)
}

// LogNotifier is the default Notifier: it just logs the events. Deployments
// swap in the real push collaborator.
type LogNotifier struct {
	Log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) MatchCreated(ctx context.Context, match *db.Match) {
	n.Log.Info("match created", "match_id", match.ID, "user_a", match.UserA, "user_b", match.UserB)
}

func (n *LogNotifier) MessageSent(ctx context.Context, chat *db.Chat, msg *db.Message) {
	n.Log.Info("message sent", "chat_id", chat.ID, "message_id", msg.ID, "sender", msg.SenderID)
}
