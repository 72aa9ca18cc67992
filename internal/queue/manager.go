package queue

import (
	"sync"

	"github.com/ember-dating/engine/internal/app"
	"github.com/ember-dating/engine/internal/repository"
	"github.com/ember-dating/engine/internal/scoring"
)

// Manager hands out one Queue per viewer, keeping them across requests so
// that local exclusion state and refill cursors survive between fetches.
type Manager struct {
	mu     sync.Mutex
	appCtx *app.AppContext
	blocks BlockSetSource
	scorer *scoring.Scorer
	queues map[uint64]*Queue
}

// NewManager creates the queue manager.
func NewManager(appCtx *app.AppContext, blocks BlockSetSource, scorer *scoring.Scorer) *Manager {
	return &Manager{
		appCtx: appCtx,
		blocks: blocks,
		scorer: scorer,
		queues: map[uint64]*Queue{},
	}
}

// ForViewer returns the viewer's queue, creating it on first use.
func (m *Manager) ForViewer(viewerID uint64) *Queue {
	m.mu.Lock()
	defer m.mu.Unlock()

	if q, ok := m.queues[viewerID]; ok {
		return q
	}
	q := New(
		viewerID,
		m.appCtx.Config.Engine.QueueLowWater,
		m.appCtx.Config.Engine.QueuePageSize,
		repository.NewSwipeRepository(m.appCtx.DB),
		repository.NewProfileRepository(m.appCtx.DB),
		m.blocks,
		m.scorer,
		m.appCtx.Logger,
	)
	m.queues[viewerID] = q
	return q
}

// Drop discards the viewer's queue, forcing a rebuild on next use.
func (m *Manager) Drop(viewerID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queues, viewerID)
}
