package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studyhall/studyhall-backend/internal/model"
)

// EventLogRepository persists the append-only audit trail.
type EventLogRepository struct {
	pool *pgxpool.Pool
}

// NewEventLogRepository creates a new EventLogRepository.
func NewEventLogRepository(pool *pgxpool.Pool) *EventLogRepository {
	return &EventLogRepository{pool: pool}
}

// Insert appends one event record.
func (r *EventLogRepository) Insert(ctx context.Context, e *model.EventLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO event_logs (date, level, message) VALUES ($1, $2, $3)`,
		e.Date, e.Level, e.Message)
	return err
}

// List retrieves the newest events up to limit.
func (r *EventLogRepository) List(ctx context.Context, limit int) ([]model.EventLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, date, level, message
		 FROM event_logs
		 ORDER BY date DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.EventLog
	for rows.Next() {
		var e model.EventLog
		if err := rows.Scan(&e.ID, &e.Date, &e.Level, &e.Message); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}
