package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crucial707/admin-console/internal/metrics"
	"github.com/crucial707/admin-console/internal/models"
	"github.com/robfig/cron/v3"
)

// Disabled turns the refresh job off.
const Disabled = "off"

const refreshTimeout = 30 * time.Second

// Summarizer is satisfied by repo.AnalyticsRepo.
type Summarizer interface {
	Summary(ctx context.Context, now time.Time) (models.Summary, error)
}

// Refresh computes the analytics summary once and publishes it to the identity gauges.
func Refresh(ctx context.Context, s Summarizer, now time.Time) error {
	summary, err := s.Summary(ctx, now)
	if err != nil {
		return err
	}
	metrics.SetIdentityCounts(summary.TotalUsers, summary.TotalRoles, summary.ActiveUsersLast7Days)
	return nil
}

// Start runs Refresh immediately and then on every tick of spec. It returns a
// stop func that waits for a running refresh to finish. An empty spec or "off"
// starts nothing and returns a no-op stop.
func Start(spec string, s Summarizer) (stop func(), err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, Disabled) {
		slog.Info("scheduler: analytics refresh disabled")
		return func() {}, nil
	}

	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := Refresh(ctx, s, time.Now()); err != nil {
			slog.Warn("scheduler: analytics refresh", "error", err)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("invalid analytics refresh schedule %q: %w", spec, err)
	}
	job()
	c.Start()
	slog.Info("scheduler: analytics refresh started", "schedule", spec)

	return func() {
		<-c.Stop().Done()
	}, nil
}
