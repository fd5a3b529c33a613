package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mizanhq/reports-backend/internal/domain"
	"github.com/mizanhq/reports-backend/internal/repository/postgres"
)

// ErrNoActiveConnection signals that the user has not registered a usable
// database connection yet.
var ErrNoActiveConnection = errors.New("no active database connection configured")

type ConnectionRepository interface {
	// GetActive resolves the user's active connection, most recently
	// connected first. Returns ErrNoActiveConnection when none exists.
	GetActive(ctx context.Context, userID string) (*domain.ConnectionConfig, error)
	// Save registers a connection as the user's single active one,
	// deactivating any previous registrations.
	Save(ctx context.Context, cfg *domain.ConnectionConfig) error
	// TouchLastConnected records a successful use of the connection.
	TouchLastConnected(ctx context.Context, id int64) error
}

type connectionRepository struct {
	db *postgres.DB
}

func NewConnectionRepository(db *postgres.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) GetActive(ctx context.Context, userID string) (*domain.ConnectionConfig, error) {
	query := `
		SELECT id, user_id, server_address, database_name, username,
		       password_encrypted, is_active, last_connected_at, created_at
		FROM user_database_connections
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY last_connected_at DESC NULLS LAST
		LIMIT 1
	`

	var cfg domain.ConnectionConfig
	if err := r.db.GetContext(ctx, &cfg, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveConnection
		}
		return nil, fmt.Errorf("get active connection: %w", err)
	}

	return &cfg, nil
}

func (r *connectionRepository) Save(ctx context.Context, cfg *domain.ConnectionConfig) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_database_connections SET is_active = FALSE WHERE user_id = $1`,
			cfg.UserID,
		); err != nil {
			return fmt.Errorf("deactivate previous connections: %w", err)
		}

		row := tx.QueryRowContext(ctx, `
			INSERT INTO user_database_connections
				(user_id, server_address, database_name, username, password_encrypted, is_active, last_connected_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, NOW())
			RETURNING id, created_at
		`, cfg.UserID, cfg.ServerAddress, cfg.DatabaseName, cfg.Username, cfg.Password)

		if err := row.Scan(&cfg.ID, &cfg.CreatedAt); err != nil {
			return fmt.Errorf("insert connection: %w", err)
		}
		return nil
	})
}

func (r *connectionRepository) TouchLastConnected(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE user_database_connections SET last_connected_at = NOW() WHERE id = $1`,
		id,
	); err != nil {
		return fmt.Errorf("touch last connected: %w", err)
	}
	return nil
}
