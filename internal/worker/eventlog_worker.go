package worker

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

// EventLogWorker consumes the Redis event queue and appends records to
// the event_logs table. Keeping the insert off the request path means a
// slow database never delays exam traffic.
type EventLogWorker struct {
	repo *repository.EventLogRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewEventLogWorker creates a new EventLogWorker.
func NewEventLogWorker(repo *repository.EventLogRepository, rdb *redis.Client, log zerolog.Logger) *EventLogWorker {
	return &EventLogWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "eventlog_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *EventLogWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *EventLogWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.CacheKey.EventQueue()).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var event model.EventLog
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.repo.Insert(ctx, &event); err != nil {
		w.log.Error().Err(err).
			Str("level", string(event.Level)).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.CacheKey.EventQueue(), result[1])
		time.Sleep(5 * time.Second)
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *EventLogWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.CacheKey.EventQueue()).Result()
		if err != nil {
			break
		}

		var event model.EventLog
		if err := json.Unmarshal([]byte(result), &event); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.repo.Insert(ctx, &event); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.CacheKey.EventQueue(), result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining events")
	}
}
