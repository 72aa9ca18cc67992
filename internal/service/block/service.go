// Package block maintains the directed blocking relation and the visibility
// it implies. Blocking never deletes anything: match/chat visibility is a
// derived property and message hiding happens at write time (shadow
// delivery), so the blocked party sees no signal.
package block

import (
	"context"

	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/app"
	svcErr "github.com/ember-dating/engine/internal/errors"
	"github.com/ember-dating/engine/internal/repository"
)

// Service implements the block relation manager.
type Service struct {
	appCtx *app.AppContext
	blocks *repository.BlockRepository
}

// NewService creates the block service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		blocks: repository.NewBlockRepository(appCtx.DB),
	}
}

// Block inserts the blocker -> blocked edge and propagates it into the
// pair's Match/Chat in the same transaction. Idempotent: an existing edge is
// a no-op, but the propagation still runs so that a previously interrupted
// call converges on retry.
func (s *Service) Block(ctx context.Context, blockerID, blockedID uint64, reason *string) error {
	if blockerID == 0 || blockedID == 0 {
		return svcErr.Validation("user ids must be non-zero")
	}
	if blockerID == blockedID {
		return svcErr.Validation("cannot block yourself")
	}

	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repository.NewBlockRepository(tx).Upsert(ctx, blockerID, blockedID, reason); err != nil {
			return err
		}

		matches := repository.NewMatchRepository(tx)
		match, err := matches.GetByPair(ctx, blockerID, blockedID)
		if err != nil {
			return err
		}
		if match == nil {
			return nil
		}
		if match.BlockedBy == nil {
			if err := matches.SetBlockedBy(ctx, blockerID, blockedID, &blockerID); err != nil {
				return err
			}
		}
		// mutuality display is "active and unblocked"
		return repository.NewChatRepository(tx).SetMutualByPair(ctx, blockerID, blockedID, false)
	})
	if err != nil {
		return svcErr.Map(err)
	}

	// the mutating session invalidates its own cached block set; other
	// sessions may observe staleness up to the TTL
	if err := s.appCtx.RedisCache.InvalidateBlockSet(ctx, blockerID); err != nil {
		s.appCtx.Logger.Warn("block set invalidation failed", "user", blockerID, "err", err)
	}
	return nil
}

// Unblock removes the edge and restores forward visibility. A missing edge is
// a no-op, not an error. Messages already hidden stay hidden; only the
// Match/Chat flags are recomputed.
func (s *Service) Unblock(ctx context.Context, blockerID, blockedID uint64) error {
	if blockerID == 0 || blockedID == 0 {
		return svcErr.Validation("user ids must be non-zero")
	}

	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		blocks := repository.NewBlockRepository(tx)
		if _, err := blocks.Delete(ctx, blockerID, blockedID); err != nil {
			return err
		}

		// the reverse edge, if present, keeps the pair blocked
		reverse, err := blocks.Exists(ctx, blockedID, blockerID)
		if err != nil {
			return err
		}

		matches := repository.NewMatchRepository(tx)
		match, err := matches.GetByPair(ctx, blockerID, blockedID)
		if err != nil {
			return err
		}
		if match == nil {
			return nil
		}

		if match.BlockedBy != nil && *match.BlockedBy == blockerID {
			var marker *uint64
			if reverse {
				marker = &blockedID
			}
			if err := matches.SetBlockedBy(ctx, blockerID, blockedID, marker); err != nil {
				return err
			}
		}

		chats := repository.NewChatRepository(tx)
		chat, err := chats.GetByPair(ctx, blockerID, blockedID)
		if err != nil || chat == nil {
			return err
		}
		mutual := match.IsActive && !reverse &&
			(match.BlockedBy == nil || *match.BlockedBy == blockerID) &&
			chat.DeletedAt == nil
		return chats.SetMutualByPair(ctx, blockerID, blockedID, mutual)
	})
	if err != nil {
		return svcErr.Map(err)
	}

	if err := s.appCtx.RedisCache.InvalidateBlockSet(ctx, blockerID); err != nil {
		s.appCtx.Logger.Warn("block set invalidation failed", "user", blockerID, "err", err)
	}
	return nil
}

// IsBlocked reports whether a block exists in either direction between a and
// b. Reads the relation directly, not the cache.
func (s *Service) IsBlocked(ctx context.Context, a, b uint64) (bool, error) {
	blocked, err := s.blocks.EitherExists(ctx, a, b)
	if err != nil {
		return false, svcErr.Map(err)
	}
	return blocked, nil
}

// IsBlockedBy reports whether the recipient has blocked the sender. Message
// sends consult this at call time to decide shadow delivery.
func (s *Service) IsBlockedBy(ctx context.Context, senderID, recipientID uint64) (bool, error) {
	blocked, err := s.blocks.Exists(ctx, recipientID, senderID)
	if err != nil {
		return false, svcErr.Map(err)
	}
	return blocked, nil
}

// BlockedSet returns the set of users the given user has blocked, through the
// read-through cache. This is the one intentionally stale read in the engine
// (bounded by the configured TTL); the discovery queue is its consumer.
func (s *Service) BlockedSet(ctx context.Context, userID uint64) (map[uint64]bool, error) {
	if ids, ok, _ := s.appCtx.RedisCache.GetBlockSet(ctx, userID); ok {
		return toSet(ids), nil
	}

	ids, err := s.blocks.ListBlockedIDs(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.RedisCache.SetBlockSet(ctx, userID, ids, s.appCtx.Config.Engine.BlockSetTTL); err != nil {
		s.appCtx.Logger.Warn("block set cache write failed", "user", userID, "err", err)
	}
	return toSet(ids), nil
}

func toSet(ids []uint64) map[uint64]bool {
	set := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
