package core

// scheduler.go runs the communication log retention job. It purges logs
// older than the retention window once at startup and then on every tick.
// Failures are logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultRetentionDays     = 180
	DefaultRetentionInterval = 24 * time.Hour
)

type RetentionConfig struct {
	CommunicationLogDays int           // Days to keep communication logs (default: 180)
	CheckInterval        time.Duration // How often to run (default: 24h)
}

// StartRetentionScheduler blocks until ctx is cancelled.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	if cfg.CommunicationLogDays <= 0 {
		cfg.CommunicationLogDays = DefaultRetentionDays
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultRetentionInterval
	}

	slog.Info("retention scheduler started",
		"communication_log_days", cfg.CommunicationLogDays,
		"interval", cfg.CheckInterval.String(),
	)

	s.runRetentionJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg)
		}
	}
}

func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	purged, err := s.PurgeCommunicationLogs(ctx, cfg.CommunicationLogDays)
	if err != nil {
		slog.Error("communication log purge failed", "error", err)
		return
	}
	slog.Info("purged communication logs",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// PurgeCommunicationLogs deletes logs sent more than days days ago.
func (s *Service) PurgeCommunicationLogs(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -days)
	n, err := s.store.DeleteCommunicationsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.observePurge(n)
	return n, nil
}
