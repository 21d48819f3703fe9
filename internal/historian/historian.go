// Package historian drains check-in events from the Redis queue and persists
// them in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sink stores a batch of events.
type Sink interface {
	WriteEvents(ctx context.Context, events []models.CheckInEvent) error
}

// Config controls batching.
type Config struct {
	Queue      string
	BatchSize  int
	FlushDelay time.Duration
	// PopTimeout bounds each BLPOP so the loop notices cancellation. Redis
	// rounds anything below a second up to one second.
	PopTimeout time.Duration
}

// Service pops events from Queue and flushes them to a Sink once BatchSize is
// reached or FlushDelay has passed.
type Service struct {
	rdb    *redis.Client
	sink   Sink
	cfg    Config
	logger logrus.FieldLogger

	batch []models.CheckInEvent
}

// New builds a historian service.
func New(rdb *redis.Client, sink Sink, cfg Config, logger logrus.FieldLogger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = 500 * time.Millisecond
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = time.Second
	}
	return &Service{
		rdb:    rdb,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		batch:  make([]models.CheckInEvent, 0, cfg.BatchSize),
	}
}

// Run reads the queue until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FlushDelay)
	defer ticker.Stop()

	s.logger.WithField("queue", s.cfg.Queue).Info("historian started")
	defer s.logger.Info("historian stopped")

	for {
		select {
		case <-ctx.Done():
			s.flush(context.WithoutCancel(ctx))
			return nil

		case <-ticker.C:
			s.flush(ctx)

		default:
			res, err := s.rdb.BLPop(ctx, s.cfg.PopTimeout, s.cfg.Queue).Result()
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			if err != nil {
				s.logger.WithError(err).Error("BLPop failed")
				// back off so a dead Redis does not spin the loop
				select {
				case <-ctx.Done():
				case <-time.After(s.cfg.PopTimeout):
				}
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var ev models.CheckInEvent
			if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
				s.logger.WithError(err).Warn("skipping invalid check-in event")
				continue
			}
			s.batch = append(s.batch, ev)
			if len(s.batch) >= s.cfg.BatchSize {
				s.flush(ctx)
			}
		}
	}
}

// flush writes the current batch. A failed batch is logged and dropped.
func (s *Service) flush(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	events := make([]models.CheckInEvent, len(s.batch))
	copy(events, s.batch)
	s.batch = s.batch[:0]

	if err := s.sink.WriteEvents(ctx, events); err != nil {
		s.logger.WithError(err).WithField("events", len(events)).Error("failed to flush check-in history")
		return
	}
	s.logger.WithField("events", len(events)).Debug("flushed check-in history")
}
