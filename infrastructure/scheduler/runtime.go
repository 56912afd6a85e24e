package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/cache"
	"crosspost/infrastructure/logger"
)

// Task is one unit of scheduled work. The context is cancelled when the
// runtime abandons in-flight runs at shutdown.
type Task func(ctx context.Context) error

// Runtime fires named jobs on fixed intervals. Guarantees: a job never
// overlaps itself (in-process flag plus optional cross-process lock), one
// job's failure or slowness never blocks another job's schedule, and a task
// failure or panic is contained at the runtime boundary.
type Runtime struct {
	cron    *cron.Cron
	lock    cache.IJobLock
	jobRuns repository.IJobRunStore

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	name     string
	interval time.Duration
	task     Task
	entryID  cron.EntryID

	running  atomic.Bool
	runs     atomic.Int64
	failures atomic.Int64
	skips    atomic.Int64

	statMu    sync.Mutex
	lastRun   time.Time
	lastError string
}

// NewRuntime builds a runtime. lock and jobRuns may be nil-backed
// implementations; the runtime itself never requires them.
func NewRuntime(lock cache.IJobLock, jobRuns repository.IJobRunStore) *Runtime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{
		cron:    cron.New(),
		lock:    lock,
		jobRuns: jobRuns,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*job),
	}
}

// Register adds a named job. Re-registering a name replaces the prior task
// and interval.
func (r *Runtime) Register(name string, interval time.Duration, task Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.jobs[name]; ok {
		r.cron.Remove(prev.entryID)
	}
	j := &job{name: name, interval: interval, task: task}
	j.entryID = r.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		r.fire(j)
	}))
	r.jobs[name] = j
	logger.GetLogger().
		WithField("job", name).
		WithField("interval", interval.String()).
		Info("Job registered")
}

// Start begins firing all registered jobs on their own timers.
func (r *Runtime) Start() {
	r.cron.Start()
	logger.GetLogger().Info("Scheduler runtime started")
}

// Stop halts the timers and waits for in-flight runs up to grace, then
// cancels their context and abandons them.
func (r *Runtime) Stop(grace time.Duration) {
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
		logger.GetLogger().Info("Scheduler runtime stopped cleanly")
	case <-time.After(grace):
		logger.GetLogger().Warn("Grace period elapsed - abandoning in-flight job runs")
	}
	r.cancel()
}

// RunNow fires a job out of band, subject to the same overlap guard.
func (r *Runtime) RunNow(name string) error {
	r.mu.Lock()
	j, ok := r.jobs[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	r.fire(j)
	return nil
}

func (r *Runtime) fire(j *job) {
	// Skip, never queue, when the previous run of this job is still going.
	if !j.running.CompareAndSwap(false, true) {
		j.skips.Add(1)
		logger.GetLogger().WithField("job", j.name).Warn("Previous run still in flight - skipping tick")
		r.record(j, time.Now().UTC(), 0, model.JobRunSkipped, "previous run in flight")
		return
	}
	defer j.running.Store(false)

	if r.lock != nil {
		held, err := r.lock.Acquire(r.ctx, j.name, j.interval)
		if err != nil {
			logger.GetLogger().WithField("job", j.name).WithField("error", err).Warn("Job lock check failed - running without cross-process guard")
		} else if !held {
			j.skips.Add(1)
			logger.GetLogger().WithField("job", j.name).Info("Job lock held by another instance - skipping tick")
			r.record(j, time.Now().UTC(), 0, model.JobRunSkipped, "lock held elsewhere")
			return
		} else {
			defer func() {
				if err := r.lock.Release(context.Background(), j.name); err != nil {
					logger.GetLogger().WithField("job", j.name).WithField("error", err).Warn("Failed to release job lock")
				}
			}()
		}
	}

	started := time.Now().UTC()
	err := r.runTask(j)
	elapsed := time.Since(started)

	j.runs.Add(1)
	j.statMu.Lock()
	j.lastRun = started
	if err != nil {
		j.lastError = err.Error()
	} else {
		j.lastError = ""
	}
	j.statMu.Unlock()

	if err != nil {
		j.failures.Add(1)
		logger.GetLogger().
			WithField("job", j.name).
			WithField("error", err).
			WithField("duration", elapsed.String()).
			Error("Job run failed")
		r.record(j, started, elapsed, model.JobRunFailed, err.Error())
		return
	}
	logger.GetLogger().
		WithField("job", j.name).
		WithField("duration", elapsed.String()).
		Info("Job run completed")
	r.record(j, started, elapsed, model.JobRunSucceeded, "")
}

// runTask contains the task failure boundary: an error or panic is returned,
// never propagated, so future ticks keep firing.
func (r *Runtime) runTask(j *job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return j.task(r.ctx)
}

func (r *Runtime) record(j *job, started time.Time, elapsed time.Duration, outcome model.JobRunOutcome, errMsg string) {
	if r.jobRuns == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.jobRuns.Append(ctx, &model.JobRun{
		Job:        j.name,
		StartedAt:  started,
		DurationMs: elapsed.Milliseconds(),
		Outcome:    outcome,
		Error:      errMsg,
	})
}

// Stats returns a snapshot of every registered job for the ops surface.
func (r *Runtime) Stats() []dto.JobStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dto.JobStats, 0, len(r.jobs))
	for _, j := range r.jobs {
		j.statMu.Lock()
		lastRun := ""
		if !j.lastRun.IsZero() {
			lastRun = j.lastRun.Format(time.RFC3339)
		}
		stats := dto.JobStats{
			Name:      j.name,
			Interval:  j.interval.String(),
			Runs:      j.runs.Load(),
			Failures:  j.failures.Load(),
			Skips:     j.skips.Load(),
			LastRun:   lastRun,
			LastError: j.lastError,
			Running:   j.running.Load(),
		}
		j.statMu.Unlock()
		out = append(out, stats)
	}
	return out
}
