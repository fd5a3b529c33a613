package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/mizanhq/reports-backend/internal/cache"
	"github.com/mizanhq/reports-backend/internal/domain"
	"github.com/mizanhq/reports-backend/internal/repository"
	"github.com/mizanhq/reports-backend/internal/tenant"
)

// ConnectionService manages users' tenant database registrations. A
// connection is verified against the live server before it is persisted or
// reported healthy.
type ConnectionService struct {
	connections repository.ConnectionRepository
	tenants     *tenant.Manager
	cache       cache.ReportCache
}

func NewConnectionService(connections repository.ConnectionRepository, tenants *tenant.Manager, cacheImpl cache.ReportCache) *ConnectionService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ConnectionService{connections: connections, tenants: tenants, cache: cacheImpl}
}

// GetActive returns the caller's active connection without its password.
func (s *ConnectionService) GetActive(ctx context.Context, userID string) (*domain.ConnectionConfig, error) {
	return s.connections.GetActive(ctx, userID)
}

// Test verifies the supplied settings against the live server without
// persisting anything.
func (s *ConnectionService) Test(ctx context.Context, cfg domain.ConnectionConfig) error {
	return s.tenants.Verify(ctx, cfg)
}

// Save verifies the settings, registers them as the user's single active
// connection, and drops any cached pool and report results tied to the
// connection they replace.
func (s *ConnectionService) Save(ctx context.Context, cfg *domain.ConnectionConfig) error {
	if err := s.tenants.Verify(ctx, *cfg); err != nil {
		return err
	}

	previous, err := s.connections.GetActive(ctx, cfg.UserID)
	if err != nil && !errors.Is(err, repository.ErrNoActiveConnection) {
		return err
	}

	if err := s.connections.Save(ctx, cfg); err != nil {
		return err
	}

	if previous != nil {
		s.tenants.Evict(*previous)
		if err := s.cache.InvalidateConnection(ctx, previous.ID); err != nil {
			log.Warn().Err(err).Int64("connection_id", previous.ID).Msg("connections: failed to invalidate cached reports")
		}
	}

	return nil
}
