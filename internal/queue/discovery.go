// Package queue maintains the per-viewer discovery queue: an ordered,
// refillable sequence of candidates drawn from unacted incoming likes,
// scored and sorted for the viewer.
package queue

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ember-dating/engine/internal/db"
	svcErr "github.com/ember-dating/engine/internal/errors"
	"github.com/ember-dating/engine/internal/repository"
	"github.com/ember-dating/engine/internal/scoring"
)

// EntryState tags an entry's local lifecycle. A swipe issued against an
// entry marks it pending until the backing write resolves; there is no
// second bookkeeping structure to diverge from the store.
type EntryState string

const (
	StateQueued    EntryState = "queued"
	StatePending   EntryState = "pending"
	StateConfirmed EntryState = "confirmed"
)

// Entry is one candidate in the queue.
type Entry struct {
	CandidateID uint64     `json:"candidate_id"`
	SwipeID     string     `json:"swipe_id"`
	Score       int        `json:"score"`
	LikedAt     time.Time  `json:"liked_at"`
	State       EntryState `json:"state"`
}

// BlockSetSource resolves the set of users a viewer has blocked. The block
// service implements it over the read-through cache; the queue is the one
// consumer that tolerates the cache's bounded staleness.
type BlockSetSource interface {
	BlockedSet(ctx context.Context, userID uint64) (map[uint64]bool, error)
}

// Queue holds the ordered candidate sequence for one viewer.
//
// Ordering: the focus candidate (if set) is always first; the rest keep
// score-descending order with more-recent likes breaking ties. Refills only
// append, never reorder what is already displayed.
type Queue struct {
	mu sync.Mutex

	viewerID uint64
	lowWater int
	pageSize int

	swipes   *repository.SwipeRepository
	profiles *repository.ProfileRepository
	blocks   BlockSetSource
	scorer   *scoring.Scorer
	log      *slog.Logger

	viewer    scoring.Snapshot
	loaded    bool
	entries   []*Entry
	seen      map[uint64]bool
	focusID   uint64
	cursor    *string
	exhausted bool
}

// New creates an empty queue for the viewer. The first Entries call loads it.
func New(
	viewerID uint64,
	lowWater, pageSize int,
	swipes *repository.SwipeRepository,
	profiles *repository.ProfileRepository,
	blocks BlockSetSource,
	scorer *scoring.Scorer,
	log *slog.Logger,
) *Queue {
	return &Queue{
		viewerID: viewerID,
		lowWater: lowWater,
		pageSize: pageSize,
		swipes:   swipes,
		profiles: profiles,
		blocks:   blocks,
		scorer:   scorer,
		log:      log,
		seen:     map[uint64]bool{},
	}
}

// SetFocus pins a candidate (one the viewer explicitly opened) to the front
// of the sequence regardless of score. Zero clears the pin.
func (q *Queue) SetFocus(candidateID uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.focusID = candidateID
}

// Entries returns the currently visible candidates in display order,
// triggering a refill when the queue runs below the low-water mark. A failed
// refill keeps serving what is already loaded; the next call retries.
func (q *Queue) Entries(ctx context.Context) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.loaded {
		viewer, err := q.profiles.Snapshot(ctx, q.viewerID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		q.viewer = viewer
		q.loaded = true
	}

	if q.visibleCount() < q.lowWater && !q.exhausted {
		if err := q.refill(ctx); err != nil {
			// keep serving loaded entries; retried on the next trigger
			q.log.Warn("queue refill failed", "viewer", q.viewerID, "err", err)
		}
	}

	return q.visible(), nil
}

// MarkPending removes the candidate from the visible sequence immediately,
// before the backing swipe write is confirmed, so the UI cannot re-offer an
// in-flight decision.
func (q *Queue) MarkPending(candidateID uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.CandidateID == candidateID && e.State == StateQueued {
			e.State = StatePending
		}
	}
}

// Resolve reconciles a pending entry once the backing write resolved:
// confirmed entries are gone for good, failed ones return to the queue.
func (q *Queue) Resolve(candidateID uint64, confirmed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.CandidateID != candidateID || e.State != StatePending {
			continue
		}
		if confirmed {
			e.State = StateConfirmed
		} else {
			e.State = StateQueued
		}
	}
}

// visibleCount counts entries still offered to the viewer. Caller holds mu.
func (q *Queue) visibleCount() int {
	n := 0
	for _, e := range q.entries {
		if e.State == StateQueued {
			n++
		}
	}
	return n
}

// visible assembles the display order: focus first, then loaded order.
// Caller holds mu.
func (q *Queue) visible() []Entry {
	out := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		if e.State != StateQueued {
			continue
		}
		if e.CandidateID == q.focusID {
			out = append([]Entry{*e}, out...)
			continue
		}
		out = append(out, *e)
	}
	return out
}

// refill fetches the next page of unacted incoming likes, scores them, and
// appends the eligible ones without touching existing entries. Caller holds
// mu.
func (q *Queue) refill(ctx context.Context) error {
	decisions, next, err := q.swipes.GetIncomingLikes(ctx, q.viewerID, q.cursor, q.pageSize)
	if err != nil {
		return err
	}
	q.cursor = next
	if next == nil {
		q.exhausted = true
	}

	blocked, err := q.blocks.BlockedSet(ctx, q.viewerID)
	if err != nil {
		// a cold cache and an unreachable store; skip the block filter for
		// this batch rather than dropping the refill
		q.log.Warn("block set unavailable during refill", "viewer", q.viewerID, "err", err)
		blocked = map[uint64]bool{}
	}

	var batch []*Entry
	for _, d := range decisions {
		if q.seen[d.FromUserID] || blocked[d.FromUserID] {
			continue
		}
		q.seen[d.FromUserID] = true

		candidate, err := q.profiles.GetByID(ctx, d.FromUserID)
		if err != nil {
			// scoring/queue errors never escalate: skip the candidate
			q.log.Debug("candidate profile unavailable", "candidate", d.FromUserID, "err", err)
			continue
		}
		if !candidate.LivenessPassed || candidate.AccountStatus == db.AccountSuspended {
			continue
		}

		snap := repository.SnapshotOf(candidate)
		score, eligible := q.scorer.Score(q.viewer, snap, scoring.SnapshotDistanceKm(q.viewer, snap))
		if !eligible {
			continue
		}

		batch = append(batch, &Entry{
			CandidateID: d.FromUserID,
			SwipeID:     d.ID,
			Score:       score,
			LikedAt:     d.CreatedAt,
			State:       StateQueued,
		})
	}

	// order within the batch only; already-displayed entries keep their slots
	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].Score != batch[j].Score {
			return batch[i].Score > batch[j].Score
		}
		return batch[i].LikedAt.After(batch[j].LikedAt)
	})
	q.entries = append(q.entries, batch...)
	return nil
}
