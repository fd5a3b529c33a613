package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/mizanhq/reports-backend/internal/cache"
	"github.com/mizanhq/reports-backend/internal/config"
	"github.com/mizanhq/reports-backend/internal/coverage"
	"github.com/mizanhq/reports-backend/internal/domain"
	"github.com/mizanhq/reports-backend/internal/repository"
	"github.com/mizanhq/reports-backend/internal/tenant"
)

// Report names, used for cache keys and export filenames.
const (
	ReportRequiredItems = "required_items"
	ReportLowStock      = "low_stock"
	ReportDebts         = "debts"
)

// ReportService runs the three predefined reports against the caller's
// registered tenant database, caching results per connection and filter.
type ReportService struct {
	connections repository.ConnectionRepository
	feeds       repository.FeedsRepository
	lowStock    repository.LowStockRepository
	debts       repository.DebtsRepository
	tenants     *tenant.Manager
	cache       cache.ReportCache
	report      config.ReportConfig
}

func NewReportService(
	connections repository.ConnectionRepository,
	tenants *tenant.Manager,
	cacheImpl cache.ReportCache,
	reportCfg config.ReportConfig,
) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ReportService{
		connections: connections,
		feeds:       repository.NewFeedsRepository(),
		lowStock:    repository.NewLowStockRepository(),
		debts:       repository.NewDebtsRepository(),
		tenants:     tenants,
		cache:       cacheImpl,
		report:      reportCfg,
	}
}

// RequiredItems runs the stock-coverage estimator over the tenant's
// transaction history and returns products ranked most urgent first.
func (s *ReportService) RequiredItems(ctx context.Context, userID string) ([]domain.RequiredItemRow, error) {
	conn, err := s.connections.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey{ConnectionID: conn.ID, Report: ReportRequiredItems}
	var cached []domain.RequiredItemRow
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("reports: cache get required items failed")
	}

	estCfg := coverage.Config{
		WindowDays:     s.report.WindowDays,
		PackUnitLabels: s.report.PackUnitLabels,
	}

	var input coverage.Input
	err = s.withTenantDB(ctx, conn, func(qctx context.Context, db *sqlx.DB) error {
		start, end := estCfg.HistoryRange()
		var err error
		input, err = s.feeds.FetchCoverageInput(qctx, db, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}

	estimates := coverage.NewEstimator(estCfg).Run(input)
	rows := make([]domain.RequiredItemRow, 0, len(estimates))
	for _, est := range estimates {
		rows = append(rows, domain.RequiredItemRow{
			ProductName: est.Name,
			ProductCode: est.Code,
			DaysOfCover: est.DaysOfCover,
		})
	}

	if err := s.cache.Set(ctx, key, rows); err != nil {
		log.Warn().Err(err).Msg("reports: cache set required items failed")
	}

	return rows, nil
}

// LowStock lists active products at or below their minimum stock level.
func (s *ReportService) LowStock(ctx context.Context, userID string) ([]domain.LowStockRow, error) {
	conn, err := s.connections.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey{ConnectionID: conn.ID, Report: ReportLowStock}
	var cached []domain.LowStockRow
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("reports: cache get low stock failed")
	}

	var rows []domain.LowStockRow
	err = s.withTenantDB(ctx, conn, func(qctx context.Context, db *sqlx.DB) error {
		var err error
		rows, err = s.lowStock.FetchLowStock(qctx, db)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, rows); err != nil {
		log.Warn().Err(err).Msg("reports: cache set low stock failed")
	}

	return rows, nil
}

// Debts lists customer payment appointments matching the filter.
func (s *ReportService) Debts(ctx context.Context, userID string, filter domain.DebtsFilter) ([]domain.DebtRow, error) {
	conn, err := s.connections.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey{ConnectionID: conn.ID, Report: ReportDebts, Filter: filter}
	var cached []domain.DebtRow
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("reports: cache get debts failed")
	}

	var rows []domain.DebtRow
	err = s.withTenantDB(ctx, conn, func(qctx context.Context, db *sqlx.DB) error {
		var err error
		rows, err = s.debts.FetchDebts(qctx, db, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, rows); err != nil {
		log.Warn().Err(err).Msg("reports: cache set debts failed")
	}

	return rows, nil
}

// withTenantDB borrows an execution slot and a verified tenant pool, runs
// fn under the per-query timeout, and records the successful use. The slot
// is released on every exit path.
func (s *ReportService) withTenantDB(ctx context.Context, conn *domain.ConnectionConfig, fn func(ctx context.Context, db *sqlx.DB) error) error {
	release, err := s.tenants.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	db, err := s.tenants.Get(ctx, *conn)
	if err != nil {
		return err
	}

	qctx, cancel := context.WithTimeout(ctx, s.tenants.Options().RequestTimeout)
	defer cancel()

	if err := fn(qctx, db); err != nil {
		return err
	}

	if err := s.connections.TouchLastConnected(ctx, conn.ID); err != nil {
		log.Warn().Err(err).Int64("connection_id", conn.ID).Msg("reports: failed to record connection use")
	}
	return nil
}
