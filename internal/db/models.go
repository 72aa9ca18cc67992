package db

import (
	"fmt"
	"time"
)

// Swipe actions.
const (
	ActionLike      = "like"
	ActionPass      = "pass"
	ActionSuperlike = "superlike"
)

// ValidAction reports whether a is one of the accepted swipe actions.
func ValidAction(a string) bool {
	switch a {
	case ActionLike, ActionPass, ActionSuperlike:
		return true
	}
	return false
}

// Relationship intents. Empty string means the user left it unset.
const (
	IntentCasual     = "casual"
	IntentLongTerm   = "long_term"
	IntentHookups    = "hookups"
	IntentFriendship = "friendship"
	IntentUnsure     = "unsure"
)

// Account status values.
const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
)

// Message types.
const (
	MessageTypeText       = "text"
	MessageTypeImage      = "image"
	MessageTypeShadowChip = "shadow_chip"
)

// Suspension record status and trigger labels.
const (
	SuspensionActive = "active"
	SuspensionLifted = "lifted"

	SuspensionReason24Hour   = "24_hour_threshold"
	SuspensionReasonLifetime = "lifetime_threshold"
)

// Report reasons and status.
const (
	ReportReasonHarassment    = "harassment"
	ReportReasonFakeProfile   = "fake_profile"
	ReportReasonInappropriate = "inappropriate_content"
	ReportReasonSpam          = "spam"
	ReportReasonUnderage      = "underage"
	ReportReasonOther         = "other"

	ReportStatusPending = "pending"
)

// ValidReportReason reports whether r is one of the accepted report reasons.
func ValidReportReason(r string) bool {
	switch r {
	case ReportReasonHarassment, ReportReasonFakeProfile, ReportReasonInappropriate,
		ReportReasonSpam, ReportReasonUnderage, ReportReasonOther:
		return true
	}
	return false
}

// PairKey returns the canonical key for an unordered user pair, with the
// smaller id first. It is the primary lookup key for Match and Chat and the
// unique index that enforces one-Match-per-pair / one-Chat-per-pair.
func PairKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// OrderPair returns the pair in canonical (smaller, larger) order.
func OrderPair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Profile holds the user record plus the snapshot fields the scorer consumes.
// The engine only reads profiles; the liveness gate and account status are the
// two fields written here, and both are owned by dedicated flows (liveness
// check, suspension aggregator).
type Profile struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Gender       string `gorm:"size:16;not null"`

	// Scoring inputs
	InterestedIn  []string `gorm:"serializer:json"`
	Intent        string   `gorm:"size:16"` // empty = unset
	Interests     []string `gorm:"serializer:json"`
	Lat           *float64
	Lon           *float64
	MatchRadiusKm float64 `gorm:"default:50"`
	LastActiveAt  *time.Time

	// Gates
	LivenessPassed bool   `gorm:"default:false"`
	AccountStatus  string `gorm:"size:16;not null;default:'active'"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// SwipeDecision is a directional like/pass/superlike.
//
// Invariant: at most one row with ActedOnByTarget=false per ordered
// (FromUserID, ToUserID) pair. The repository enforces this by updating the
// existing unacted row instead of inserting a second one; acted rows are never
// touched again, which preserves the audit trail.
//
// Indexes:
//   - idx_swipe_pair(from_user_id, to_user_id)
//     O(1) lookup of the unacted decision for a pair, and of the reciprocal
//     like during match creation.
//   - idx_swipe_incoming(to_user_id, acted_on_by_target, action, created_at DESC)
//     Sources the discovery queue: unacted incoming likes, newest first.
type SwipeDecision struct {
	ID              string    `gorm:"primaryKey;size:36"`
	FromUserID      uint64    `gorm:"not null;index:idx_swipe_pair,priority:1"`
	ToUserID        uint64    `gorm:"not null;index:idx_swipe_pair,priority:2;index:idx_swipe_incoming,priority:1"`
	Action          string    `gorm:"size:16;not null;index:idx_swipe_incoming,priority:3"`
	ActedOnByTarget bool      `gorm:"not null;default:false;index:idx_swipe_incoming,priority:2"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index:idx_swipe_incoming,priority:4,sort:desc"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// Match is the mutual-interest record for an unordered pair.
//
// Never deleted: unmatch flips IsActive to false so that chat history can be
// restored on a later rematch and the audit trail survives. The unique
// PairKey index is what makes match creation idempotent under concurrent
// RecordSwipe calls.
type Match struct {
	ID        string    `gorm:"primaryKey;size:36"`
	PairKey   string    `gorm:"size:42;not null;uniqueIndex:idx_match_pair"`
	UserA     uint64    `gorm:"not null;index"` // canonical order: UserA < UserB
	UserB     uint64    `gorm:"not null;index"`
	IsActive  bool      `gorm:"not null;default:true"`
	BlockedBy *uint64   // the one user, if any, who currently blocks the other
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Contains reports whether userID participates in the match.
func (m *Match) Contains(userID uint64) bool {
	return m.UserA == userID || m.UserB == userID
}

// Other returns the other participant of the match.
func (m *Match) Other(userID uint64) uint64 {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// Chat is the conversation between two users.
//
// RelatedMatchID is nil for restricted ("cold outreach") chats not yet backed
// by a match. IsMutual must track "an active, unblocked Match exists for the
// pair"; the swipe state machine and the block manager both keep it in sync.
// Soft delete: DeletedAt/DeletedBy mark the chat gone, PermanentlyDeleteAt is
// honored by an external sweep, never by read paths.
type Chat struct {
	ID             string  `gorm:"primaryKey;size:36"`
	PairKey        string  `gorm:"size:42;not null;uniqueIndex:idx_chat_pair"`
	UserA          uint64  `gorm:"not null;index"` // canonical order: UserA < UserB
	UserB          uint64  `gorm:"not null;index"`
	RelatedMatchID *string `gorm:"size:36"`
	IsMutual       bool    `gorm:"not null;default:false"`

	LastMessage   string `gorm:"size:512"`
	LastMessageAt *time.Time

	DeletedAt           *time.Time
	DeletedBy           *uint64
	PermanentlyDeleteAt *time.Time

	// Read receipts, one slot per participant in canonical order.
	LastReadA *time.Time
	LastReadB *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Contains reports whether userID participates in the chat.
func (c *Chat) Contains(userID uint64) bool {
	return c.UserA == userID || c.UserB == userID
}

// Other returns the other participant of the chat.
func (c *Chat) Other(userID uint64) uint64 {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// Message belongs to a chat.
//
// HiddenFor is the permanent shadow-delivery set: once a user id is in it the
// message never becomes visible to that user again, even after an unblock.
// DeletedFor is the reversible per-user delete. Reactions hold at most one
// emoji per user, keyed by decimal user id.
type Message struct {
	ID         string            `gorm:"primaryKey;size:36"`
	ChatID     string            `gorm:"size:36;not null;index:idx_message_chat_created,priority:1"`
	SenderID   uint64            `gorm:"not null"`
	Type       string            `gorm:"size:16;not null"`
	Content    string            `gorm:"size:2048"`
	Reactions  map[string]string `gorm:"serializer:json"`
	HiddenFor  []uint64          `gorm:"serializer:json"`
	DeletedFor []uint64          `gorm:"serializer:json"`
	CreatedAt  time.Time         `gorm:"autoCreateTime;index:idx_message_chat_created,priority:2,sort:desc"`
}

// HiddenForUser reports whether the message is shadow-hidden from userID.
func (m *Message) HiddenForUser(userID uint64) bool {
	return containsID(m.HiddenFor, userID)
}

// DeletedForUser reports whether userID deleted the message for themselves.
func (m *Message) DeletedForUser(userID uint64) bool {
	return containsID(m.DeletedFor, userID)
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// BlockRelation is the directed blocking edge blocker -> blocked.
// At most one edge per ordered pair (unique index); not symmetric.
type BlockRelation struct {
	ID        string    `gorm:"primaryKey;size:36"`
	BlockerID uint64    `gorm:"not null;uniqueIndex:idx_block_edge,priority:1"`
	BlockedID uint64    `gorm:"not null;uniqueIndex:idx_block_edge,priority:2;index"`
	Reason    *string   `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Report is one abuse report. Rows are append-only; suspension thresholds
// count distinct reporters, not rows.
type Report struct {
	ID          string    `gorm:"primaryKey;size:36"`
	ReporterID  uint64    `gorm:"not null;index:idx_report_target,priority:2"`
	ReportedID  uint64    `gorm:"not null;index:idx_report_target,priority:1"`
	Reason      string    `gorm:"size:32;not null"`
	Description string    `gorm:"size:1024"`
	Evidence    []string  `gorm:"serializer:json"`
	Status      string    `gorm:"size:16;not null;default:'pending'"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_report_target,priority:3"`
}

// AccountSuspension records an automatic (or admin-visible) suspension.
// At most one row with Status=active per user; enforced with a conditional
// check inside the evaluation transaction.
type AccountSuspension struct {
	ID          string     `gorm:"primaryKey;size:36"`
	UserID      uint64     `gorm:"not null;index:idx_suspension_user_status,priority:1"`
	Reason      string     `gorm:"size:32;not null"` // which threshold fired
	ReportCount int        `gorm:"not null"`         // distinct reporters at trigger time
	Status      string     `gorm:"size:16;not null;default:'active';index:idx_suspension_user_status,priority:2"`
	SuspendedAt time.Time  `gorm:"autoCreateTime"`
	LiftedAt    *time.Time
	LiftedBy    *uint64
}
