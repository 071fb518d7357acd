package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// LeaderElector reports whether this replica currently holds leadership.
type LeaderElector interface {
	IsLeader() bool
}

type Job interface {
	Name() string
	Run(ctx context.Context) error
	RequiresLeadership() bool
	Interval() time.Duration
}

type JobManager struct {
	jobs        []Job
	election    LeaderElector
	checkEvery  time.Duration
	logger      *slog.Logger
	wg          sync.WaitGroup
	cancelFuncs map[string]context.CancelFunc
	mu          sync.Mutex
}

// NewJobManager runs leader-only jobs whenever election reports leadership, checking every
// checkEvery. A nil election runs every job on this replica.
func NewJobManager(election LeaderElector, checkEvery time.Duration, logger *slog.Logger) *JobManager {
	if checkEvery <= 0 {
		checkEvery = 10 * time.Second
	}
	return &JobManager{
		jobs:        make([]Job, 0),
		election:    election,
		checkEvery:  checkEvery,
		logger:      logger,
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

func (jm *JobManager) Register(job Job) {
	jm.jobs = append(jm.jobs, job)
}

func (jm *JobManager) Start(ctx context.Context) {
	jm.startNonLeaderJobs(ctx)

	if jm.election != nil {
		jm.wg.Add(1)
		go jm.monitorLeadership(ctx)
	} else {
		jm.startLeaderJobs(ctx)
	}
}

func (jm *JobManager) Shutdown(ctx context.Context) {
	jm.logger.Debug("shutting down job manager")
	jm.stopAllJobs()

	done := make(chan struct{})
	go func() {
		jm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		jm.logger.Debug("all jobs stopped")
	case <-ctx.Done():
		jm.logger.Warn("jobs did not stop before shutdown deadline")
		return
	}
}

func (jm *JobManager) monitorLeadership(ctx context.Context) {
	defer jm.wg.Done()
	ticker := time.NewTicker(jm.checkEvery)
	defer ticker.Stop()

	var wasLeader bool

	for {
		select {
		case <-ctx.Done():
			jm.stopLeaderJobs()
			return
		case <-ticker.C:
			isLeader := jm.election.IsLeader()

			if isLeader && !wasLeader {
				jm.logger.Info("became leader, starting leader jobs")
				jm.startLeaderJobs(ctx)
			} else if !isLeader && wasLeader {
				jm.logger.Info("lost leadership, stopping leader jobs")
				jm.stopLeaderJobs()
			}

			wasLeader = isLeader
		}
	}
}

func (jm *JobManager) startLeaderJobs(ctx context.Context) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	for _, job := range jm.jobs {
		if !job.RequiresLeadership() {
			continue
		}

		if _, exists := jm.cancelFuncs[job.Name()]; exists {
			continue
		}

		jobCtx, cancel := context.WithCancel(ctx)
		jm.cancelFuncs[job.Name()] = cancel

		jm.wg.Add(1)
		go func(j Job) {
			defer jm.wg.Done()
			jm.logger.Debug("starting job", "job", j.Name())
			if err := j.Run(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				jm.logger.Error("job failed", "job", j.Name(), "error", err)
			}
		}(job)
	}
}

func (jm *JobManager) stopLeaderJobs() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	for _, job := range jm.jobs {
		if !job.RequiresLeadership() {
			continue
		}

		if cancel, exists := jm.cancelFuncs[job.Name()]; exists {
			jm.logger.Debug("stopping job", "job", job.Name())
			cancel()
			delete(jm.cancelFuncs, job.Name())
		}
	}
}

func (jm *JobManager) startNonLeaderJobs(ctx context.Context) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	for _, job := range jm.jobs {
		if job.RequiresLeadership() {
			continue
		}

		if _, exists := jm.cancelFuncs[job.Name()]; exists {
			continue
		}

		jobCtx, cancel := context.WithCancel(ctx)
		jm.cancelFuncs[job.Name()] = cancel

		jm.wg.Add(1)
		go func(j Job) {
			defer jm.wg.Done()
			jm.logger.Info("starting job", "job", j.Name())
			if err := j.Run(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				jm.logger.Error("job failed", "job", j.Name(), "error", err)
			}
		}(job)
	}
}

func (jm *JobManager) stopAllJobs() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	for _, job := range jm.jobs {
		if cancel, exists := jm.cancelFuncs[job.Name()]; exists {
			jm.logger.Debug("stopping job", "job", job.Name())
			cancel()
			delete(jm.cancelFuncs, job.Name())
		}
	}
}
