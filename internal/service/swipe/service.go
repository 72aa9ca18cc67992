// Package swipe implements the swipe/match state machine: directional
// decisions, mutual-match creation and chat provisioning, applied as one
// atomic transaction per swipe.
package swipe

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/app"
	"github.com/ember-dating/engine/internal/db"
	svcErr "github.com/ember-dating/engine/internal/errors"
	"github.com/ember-dating/engine/internal/repository"
)

// chatPurgeDelay is how long a soft-deleted chat lingers before the external
// sweep may purge it.
const chatPurgeDelay = 30 * 24 * time.Hour

// Service implements the swipe/match state machine on top of the repository
// layer. All writes for one swipe happen inside a single transaction, so a
// crash can never leave a Match without its Chat or a mutual Chat without an
// active Match.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	swipes   *repository.SwipeRepository
}

// NewService creates the swipe service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		swipes:   repository.NewSwipeRepository(appCtx.DB),
	}
}

// Result reports what a RecordSwipe call produced. Match/Chat are nil unless
// the swipe completed a mutual pair.
type Result struct {
	Decision     *db.SwipeDecision
	Match        *db.Match
	Chat         *db.Chat
	MatchCreated bool
}

// RecordSwipe converts a directional swipe into persisted state.
//
// Steps, applied in order inside one transaction:
//  1. Persist (or overwrite the unacted) decision from -> to.
//  2. Mark the incoming like to -> from as acted on, if one exists.
//  3. On like/superlike, create or return the pair's Match. The queue only
//     serves incoming likes, so a like normally completes a mutual pair; the
//     reciprocal like is still verified so a stale queue entry cannot
//     fabricate a one-sided match.
//  4. Upgrade or create the pair's Chat as mutual.
//
// Re-entrant: calling twice with the same arguments converges on the same
// Match and Chat.
func (s *Service) RecordSwipe(ctx context.Context, fromID, toID uint64, action string) (*Result, error) {
	if !db.ValidAction(action) {
		return nil, svcErr.Validation("action must be one of like, pass, superlike")
	}
	if fromID == 0 || toID == 0 {
		return nil, svcErr.Validation("user ids must be non-zero")
	}
	if fromID == toID {
		return nil, svcErr.Validation("cannot swipe on yourself")
	}

	actor, err := s.profiles.GetByID(ctx, fromID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if actor.AccountStatus == db.AccountSuspended {
		return nil, svcErr.Permission("account %d is suspended", fromID)
	}

	var res Result
	var consumedIncoming bool
	var prevAction string
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		swipes := repository.NewSwipeRepository(tx)

		decision, prev, err := swipes.RecordDecision(ctx, fromID, toID, action)
		if err != nil {
			return err
		}
		res.Decision = decision
		prevAction = prev

		// The candidate has now been responded to; never re-surface them.
		reciprocalUnacted, err := swipes.MarkIncomingLikeActed(ctx, toID, fromID)
		if err != nil {
			return err
		}
		consumedIncoming = reciprocalUnacted

		if action == db.ActionPass {
			return nil
		}

		reciprocal := reciprocalUnacted
		if !reciprocal {
			// stale-queue guard: the incoming like may have been consumed by
			// an earlier swipe, in which case an acted like row still proves
			// mutuality
			reciprocal, err = swipes.HasLiked(ctx, toID, fromID)
			if err != nil {
				return err
			}
		}
		if !reciprocal {
			s.appCtx.Logger.Debug("like without reciprocal, no match",
				"from", fromID, "to", toID)
			return nil
		}

		match, created, err := repository.NewMatchRepository(tx).CreateOrReactivate(ctx, fromID, toID)
		if err != nil {
			return err
		}

		chat, err := repository.NewChatRepository(tx).UpgradeOrCreateMutual(ctx, fromID, toID, match.ID)
		if err != nil {
			return err
		}

		res.Match = match
		res.Chat = chat
		res.MatchCreated = created
		return nil
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	// best-effort counter maintenance; DB remains the source of truth.
	// The delta depends on what the write actually changed: a retry that
	// overwrote a like with another like moves nothing, and a like turned
	// into a pass takes one back.
	ttl := s.appCtx.Config.Engine.LikeCountTTL
	wasCounted := prevAction == db.ActionLike || prevAction == db.ActionSuperlike
	nowCounted := action != db.ActionPass
	if nowCounted && !wasCounted {
		key := s.appCtx.RedisCache.KeyForLikeCount(toID)
		_, _ = s.appCtx.RedisCache.Incr(ctx, key)
		_ = s.appCtx.RedisCache.Client.Expire(ctx, key, ttl).Err()
	}
	if wasCounted && !nowCounted {
		_, _ = s.appCtx.RedisCache.Decr(ctx, s.appCtx.RedisCache.KeyForLikeCount(toID))
	}
	if consumedIncoming {
		// the actor just acted on one of their own incoming likes
		_, _ = s.appCtx.RedisCache.Decr(ctx, s.appCtx.RedisCache.KeyForLikeCount(fromID))
	}

	if res.MatchCreated {
		s.appCtx.Notifier.MatchCreated(ctx, res.Match)
	}

	return &res, nil
}

// CountIncomingLikes returns how many unacted likes target the user.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. On cache miss, falls back to the DB and repopulates the cache.
func (s *Service) CountIncomingLikes(ctx context.Context, userID uint64) (int64, error) {
	if userID == 0 {
		return 0, svcErr.Validation("user id must be non-zero")
	}

	ttl := s.appCtx.Config.Engine.LikeCountTTL
	if n, ok, _ := s.appCtx.RedisCache.GetLikeCount(ctx, userID, ttl); ok {
		return n, nil
	}

	count, err := s.swipes.CountIncomingLikes(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.UpdateLikeCount(ctx, userID, count, ttl)
	return count, nil
}

// Unmatch deactivates the match and soft-deletes its chat. The rows survive
// for audit and for history restoration on a future rematch.
func (s *Service) Unmatch(ctx context.Context, matchID string, byUser uint64) error {
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		matches := repository.NewMatchRepository(tx)
		match, err := matches.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if !match.Contains(byUser) {
			return svcErr.Permission("user %d is not part of match %s", byUser, matchID)
		}
		if err := matches.Deactivate(ctx, match.ID); err != nil {
			return err
		}

		chats := repository.NewChatRepository(tx)
		chat, err := chats.GetByPair(ctx, match.UserA, match.UserB)
		if err != nil {
			return err
		}
		if chat == nil || chat.DeletedAt != nil {
			return nil
		}
		return chats.SoftDelete(ctx, chat.ID, byUser, time.Now().Add(chatPurgeDelay))
	})
	return svcErr.Map(err)
}
