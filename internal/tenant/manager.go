package tenant

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/mizanhq/reports-backend/internal/domain"
)

// Manager caches one verified pool per registered connection and limits how
// many report executions may hold a tenant connection at once.
type Manager struct {
	opts  Options
	sem   *semaphore.Weighted
	mu    sync.Mutex
	pools map[string]*sqlx.DB
}

// NewManager creates a tenant pool manager. maxConcurrent bounds the number
// of simultaneously executing tenant queries across all users.
func NewManager(opts Options, maxConcurrent int64) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &Manager{
		opts:  opts.withDefaults(),
		sem:   semaphore.NewWeighted(maxConcurrent),
		pools: make(map[string]*sqlx.DB),
	}
}

func poolKey(cfg domain.ConnectionConfig) string {
	return fmt.Sprintf("%s|%s|%s", cfg.ServerAddress, cfg.DatabaseName, cfg.Username)
}

// Options returns the effective options, mainly so callers can apply the
// per-query RequestTimeout.
func (m *Manager) Options() Options {
	return m.opts
}

// Get returns a verified pool for the connection, opening one on first use.
// A pool that fails verification is not cached.
func (m *Manager) Get(ctx context.Context, cfg domain.ConnectionConfig) (*sqlx.DB, error) {
	key := poolKey(cfg)

	m.mu.Lock()
	if db, ok := m.pools[key]; ok {
		m.mu.Unlock()
		return db, nil
	}
	m.mu.Unlock()

	db, err := open(ctx, cfg, m.opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.pools[key]; ok {
		// Lost the race; keep the first pool.
		db.Close()
		return existing, nil
	}
	m.pools[key] = db
	return db, nil
}

// Verify opens a throwaway connection with the given settings and closes it
// again. Used by the connection-test endpoint before anything is persisted.
func (m *Manager) Verify(ctx context.Context, cfg domain.ConnectionConfig) error {
	db, err := open(ctx, cfg, m.opts)
	if err != nil {
		return err
	}
	return db.Close()
}

// Evict drops the cached pool for a connection, closing it. Called when a
// user replaces their registered connection.
func (m *Manager) Evict(cfg domain.ConnectionConfig) {
	key := poolKey(cfg)

	m.mu.Lock()
	db, ok := m.pools[key]
	delete(m.pools, key)
	m.mu.Unlock()

	if ok {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Str("server", cfg.ServerAddress).Msg("tenant: failed to close evicted pool")
		}
	}
}

// Acquire reserves one execution slot; the returned release function must
// be called on every exit path.
func (m *Manager) Acquire(ctx context.Context) (func(), error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire tenant slot: %w", err)
	}
	return func() { m.sem.Release(1) }, nil
}

// Close releases every cached pool.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, db := range m.pools {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Str("pool", key).Msg("tenant: failed to close pool")
		}
		delete(m.pools, key)
	}
}
