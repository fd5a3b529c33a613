// Package tenant manages connections to users' external SQL Server
// databases. Each report run borrows a pooled connection for one tenant,
// and every pool is verified before use and released on all exit paths.
package tenant

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/mizanhq/reports-backend/internal/domain"
)

const defaultPort = 1433

// Options bounds tenant pool behavior. Zero values fall back to defaults.
type Options struct {
	ConnectTimeout time.Duration // dial + login timeout
	RequestTimeout time.Duration // per-query timeout applied by callers
	MaxOpenConns   int
	MaxIdleConns   int
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 30 * time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 60 * time.Second
	}
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 10
	}
	if o.MaxIdleConns < 0 {
		o.MaxIdleConns = 0
	}
	return o
}

// splitServerAddress separates an optional ":port" suffix from the server
// address, defaulting to the SQL Server port.
func splitServerAddress(address string) (string, int) {
	host := strings.TrimSpace(address)
	if h, p, err := net.SplitHostPort(host); err == nil {
		if port, err := strconv.Atoi(p); err == nil && port > 0 {
			return h, port
		}
		return h, defaultPort
	}
	return host, defaultPort
}

// buildDSN renders a sqlserver:// DSN for one tenant connection.
func buildDSN(cfg domain.ConnectionConfig, opts Options) string {
	host, port := splitServerAddress(cfg.ServerAddress)

	query := url.Values{}
	query.Set("database", cfg.DatabaseName)
	query.Set("encrypt", "disable")
	query.Set("dial timeout", strconv.Itoa(int(opts.ConnectTimeout.Seconds())))

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// open establishes and verifies a pool for one tenant database. The probe
// query mirrors what the dashboard's connection test runs, so a pool that
// opens but cannot execute is rejected up front.
func open(ctx context.Context, cfg domain.ConnectionConfig, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlserver", buildDSN(cfg, opts))
	if err != nil {
		return nil, fmt.Errorf("open tenant database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping tenant database %s/%s: %w", cfg.ServerAddress, cfg.DatabaseName, err)
	}

	var probe int
	if err := db.GetContext(pingCtx, &probe, "SELECT 1"); err != nil {
		db.Close()
		return nil, fmt.Errorf("probe tenant database %s/%s: %w", cfg.ServerAddress, cfg.DatabaseName, err)
	}

	return db, nil
}
