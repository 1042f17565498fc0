package licensing

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/repository"
)

// Sweeper periodically downgrades teams whose license expiry has passed.
// The read paths already downgrade lazily; the sweeper catches teams nobody
// reads, so the stored status and the outbox stream stay honest.
type Sweeper struct {
	pool     *pgxpool.Pool
	teams    repository.TeamRepository
	outbox   repository.OutboxRepository
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates an expiry sweeper.
func NewSweeper(pool *pgxpool.Pool, teams repository.TeamRepository, outbox repository.OutboxRepository, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		pool:     pool,
		teams:    teams,
		outbox:   outbox,
		logger:   logger,
		interval: time.Hour,
		now:      time.Now,
	}
}

// Start runs the sweep loop in a goroutine until ctx is cancelled. One sweep
// runs immediately on startup.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("expiry sweeper started", "interval", s.interval)

	go func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("expiry sweep error", "error", err)
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("expiry sweeper stopped")
				return
			case <-ticker.C:
				if err := s.Sweep(ctx); err != nil {
					s.logger.Error("expiry sweep error", "error", err)
				}
			}
		}
	}()
}

// Sweep downgrades all overdue teams in one transaction and emits an expired
// event per team.
func (s *Sweeper) Sweep(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	expired, err := s.teams.ExpireOverdue(ctx, tx, s.now().UTC())
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return tx.Commit(ctx)
	}

	for i := range expired {
		if err := s.outbox.Insert(ctx, tx, domain.NewLicenseExpiredEvent(&expired[i])); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.logger.Info("expired overdue licenses", "count", len(expired))
	return nil
}
