package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.FeedConfigRepository = (*FeedConfigRepo)(nil)

// FeedConfigRepo configuraciones del origen externo.
type FeedConfigRepo struct {
	pool *pgxpool.Pool
}

// NewFeedConfigRepository construye el repositorio.
func NewFeedConfigRepository(pool *pgxpool.Pool) *FeedConfigRepo {
	return &FeedConfigRepo{pool: pool}
}

// Save inserta o actualiza. Si la configuración queda activa desactiva las demás en la misma tx.
func (r *FeedConfigRepo) Save(ctx context.Context, cfg *entity.FeedConfig) error {
	now := time.Now()
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if cfg.IsActive {
		if _, err := tx.Exec(ctx, `UPDATE feed_configs SET is_active = FALSE, updated_at = $2 WHERE id <> $1 AND is_active`,
			cfg.ID, now); err != nil {
			return fmt.Errorf("deactivate feed configs: %w", err)
		}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO feed_configs (id, url, username, password, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url, username = EXCLUDED.username, password = EXCLUDED.password,
			is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`,
		cfg.ID, cfg.URL, cfg.Username, cfg.Password, cfg.IsActive, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("save feed config: %w", domain.ErrConflict)
		}
		return fmt.Errorf("save feed config: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetActive configuración activa o (nil, nil).
func (r *FeedConfigRepo) GetActive(ctx context.Context) (*entity.FeedConfig, error) {
	var c entity.FeedConfig
	err := r.pool.QueryRow(ctx, `
		SELECT id, url, username, password, is_active, created_at, updated_at
		FROM feed_configs WHERE is_active LIMIT 1`).
		Scan(&c.ID, &c.URL, &c.Username, &c.Password, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active feed config: %w", err)
	}
	return &c, nil
}

// ListConfigs configuraciones por fecha de alta.
func (r *FeedConfigRepo) ListConfigs(ctx context.Context) ([]entity.FeedConfig, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, url, username, password, is_active, created_at, updated_at
		FROM feed_configs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list feed configs: %w", err)
	}
	defer rows.Close()
	list := []entity.FeedConfig{}
	for rows.Next() {
		var c entity.FeedConfig
		if err := rows.Scan(&c.ID, &c.URL, &c.Username, &c.Password, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan feed config: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
