package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-backend/internal/config"
	"github.com/studyhall/studyhall-backend/internal/model"
	"github.com/studyhall/studyhall-backend/internal/repository"
)

// Logbook is the audit trail writer. Records are pushed onto a Redis
// queue for the event log worker to persist, and published on a pub/sub
// channel for live admin streams. Recording is best-effort: a Redis
// failure is logged, never propagated, so the audit trail can never
// fail a user request.
type Logbook struct {
	rdb     *redis.Client
	logRepo *repository.EventLogRepository
	log     zerolog.Logger
}

// NewLogbook creates a new Logbook.
func NewLogbook(rdb *redis.Client, logRepo *repository.EventLogRepository, log zerolog.Logger) *Logbook {
	return &Logbook{
		rdb:     rdb,
		logRepo: logRepo,
		log:     log.With().Str("component", "logbook").Logger(),
	}
}

// Status records a routine event.
func (l *Logbook) Status(ctx context.Context, msg string) {
	l.record(ctx, model.EventStatus, msg)
}

// Warning records a suspicious event, e.g. a detected cheating attempt.
func (l *Logbook) Warning(ctx context.Context, msg string) {
	l.record(ctx, model.EventWarning, msg)
}

// Error records a failure event.
func (l *Logbook) Error(ctx context.Context, msg string) {
	l.record(ctx, model.EventError, msg)
}

// Recent returns the newest events up to limit.
func (l *Logbook) Recent(ctx context.Context, limit int) ([]model.EventLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return l.logRepo.List(ctx, limit)
}

func (l *Logbook) record(ctx context.Context, level model.EventLevel, msg string) {
	event := model.EventLog{
		Date:    time.Now().UnixMilli(),
		Level:   level,
		Message: msg,
	}
	raw, err := json.Marshal(event)
	if err != nil {
		l.log.Error().Err(err).Msg("Marshal event")
		return
	}

	pipe := l.rdb.Pipeline()
	pipe.RPush(ctx, config.CacheKey.EventQueue(), raw)
	pipe.Publish(ctx, config.CacheKey.EventChannel(), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error().Err(err).Str("level", string(level)).Msg("Queue event")
	}
}
