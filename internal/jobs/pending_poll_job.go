package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type PendingPoller interface {
	PollPending(ctx context.Context) error
}

// PendingPollJob re-polls ledger entries so approved requests are collected without a
// client asking. Only the leader runs it.
type PendingPollJob struct {
	poller   PendingPoller
	interval time.Duration
	logger   *slog.Logger
}

func NewPendingPollJob(poller PendingPoller, interval time.Duration, logger *slog.Logger) *PendingPollJob {
	return &PendingPollJob{
		poller:   poller,
		interval: interval,
		logger:   logger,
	}
}

func (j *PendingPollJob) Name() string {
	return "pending_request_poll"
}

func (j *PendingPollJob) RequiresLeadership() bool {
	return true
}

func (j *PendingPollJob) Interval() time.Duration {
	return j.interval
}

func (j *PendingPollJob) Run(ctx context.Context) error {
	if j.interval <= 0 {
		return fmt.Errorf("pending poll job interval must be positive")
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := j.poller.PollPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.logger.Error("pending poll failed", "error", err)
			}
		}
	}
}
