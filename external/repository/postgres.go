package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lvturner/xiaozhi-esp32-server/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) SaveMessage(ctx context.Context, input repository.SaveMessageInput) (*repository.Message, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO messages (session_id, device_id, role, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, session_id, device_id, role, content, created_at`,
		input.SessionID, input.DeviceID, string(input.Role), input.Content)
	var m repository.Message
	if err := row.Scan(&m.ID, &m.SessionID, &m.DeviceID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) ListRecentMessages(ctx context.Context, sessionID string, limit int) ([]repository.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, device_id, role, content, created_at FROM (
			SELECT id, session_id, device_id, role, content, created_at
			FROM messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		 ) recent ORDER BY created_at ASC`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Message
	for rows.Next() {
		var m repository.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.DeviceID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
