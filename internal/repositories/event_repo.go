package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/homesync/internal/models"
)

type PostgresConnectEventRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresConnectEventRepository(pool *pgxpool.Pool) *PostgresConnectEventRepository {
	return &PostgresConnectEventRepository{pool: pool}
}

// Append inserts one audit row. Rows are never updated or deleted.
func (r *PostgresConnectEventRepository) Append(ctx context.Context, event *models.ConnectEvent) error {
	query := `INSERT INTO connect_events (email, kind, outcome, detail)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, event.Email, event.Kind, event.Outcome, event.Detail).
		Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append connect event: %w", err)
	}
	return nil
}
