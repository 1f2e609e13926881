package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type JobKind string

const (
	JobPublish JobKind = "publish"
	JobMonitor JobKind = "monitor"
)

// JobKey identifies one timer. At most one live job exists per key, and
// at most one execution for a key runs at any time.
type JobKey struct {
	Kind     JobKind
	PostID   string
	Platform string
}

func (k JobKey) String() string {
	return string(k.Kind) + "_" + k.PostID + "_" + k.Platform
}

type job struct {
	key    JobKey
	cancel chan struct{}
	once   sync.Once
}

func (j *job) stop() {
	j.once.Do(func() { close(j.cancel) })
}

// JobScheduler runs one-shot and recurring timer jobs on a fixed-size
// worker pool. One goroutine owns each key, so firings of the same key
// are serialized (single-flight) and overdue firings coalesce: a ticker
// drops ticks that arrive while the previous run is still executing.
// There is exactly one scheduler per process, injected into services.
type JobScheduler struct {
	logger  *zap.Logger
	workers chan struct{}

	mu      sync.Mutex
	jobs    map[JobKey]*job
	stopped bool
	wg      sync.WaitGroup
}

func NewJobScheduler(workers int, logger *zap.Logger) *JobScheduler {
	if workers <= 0 {
		workers = 5
	}
	return &JobScheduler{
		logger:  logger,
		workers: make(chan struct{}, workers),
		jobs:    make(map[JobKey]*job),
	}
}

// ScheduleOnce registers fn to run once at the target time, replacing any
// existing job under the same key. A target in the past fires immediately
// (missed one-shot jobs are not dropped).
func (s *JobScheduler) ScheduleOnce(key JobKey, at time.Time, fn func(context.Context)) {
	j := s.add(key)
	if j == nil {
		return
	}

	go func() {
		defer s.wg.Done()
		defer s.remove(j)

		delay := time.Until(at)
		if delay < 0 {
			delay = 0
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-j.cancel:
			return
		}
		s.run(j, fn)
	}()

	s.logger.Debug("Job scheduled",
		zap.String("job", key.String()),
		zap.Time("at", at))
}

// ScheduleEvery registers fn to run on a fixed cadence until the job is
// cancelled or the until deadline passes. A zero until means no expiry.
func (s *JobScheduler) ScheduleEvery(key JobKey, interval time.Duration, until time.Time, fn func(context.Context)) {
	j := s.add(key)
	if j == nil {
		return
	}

	go func() {
		defer s.wg.Done()
		defer s.remove(j)

		var expire <-chan time.Time
		if !until.IsZero() {
			expireTimer := time.NewTimer(time.Until(until))
			defer expireTimer.Stop()
			expire = expireTimer.C
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.run(j, fn)
			case <-expire:
				s.logger.Info("Recurring job expired", zap.String("job", j.key.String()))
				return
			case <-j.cancel:
				return
			}
		}
	}()

	s.logger.Debug("Recurring job scheduled",
		zap.String("job", key.String()),
		zap.Duration("interval", interval),
		zap.Time("until", until))
}

// Cancel removes the job for key. Removal is best-effort: a handler that
// already started is allowed to finish, which the publish and monitor
// handlers tolerate through their own idempotency checks.
func (s *JobScheduler) Cancel(key JobKey) bool {
	s.mu.Lock()
	j, ok := s.jobs[key]
	if ok {
		delete(s.jobs, key)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	j.stop()
	s.logger.Debug("Job cancelled", zap.String("job", key.String()))
	return true
}

// Has reports whether a job is currently registered under key.
func (s *JobScheduler) Has(key JobKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[key]
	return ok
}

// Len returns the number of registered jobs.
func (s *JobScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Shutdown cancels every job and waits for in-flight executions to finish.
func (s *JobScheduler) Shutdown() {
	s.mu.Lock()
	s.stopped = true
	for _, j := range s.jobs {
		j.stop()
	}
	s.jobs = make(map[JobKey]*job)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler shutdown completed")
}

func (s *JobScheduler) add(key JobKey) *job {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	if old, ok := s.jobs[key]; ok {
		old.stop()
	}
	j := &job{key: key, cancel: make(chan struct{})}
	s.jobs[key] = j
	s.wg.Add(1)
	return j
}

func (s *JobScheduler) remove(j *job) {
	s.mu.Lock()
	if cur, ok := s.jobs[j.key]; ok && cur == j {
		delete(s.jobs, j.key)
	}
	s.mu.Unlock()
}

// run executes fn on the worker pool. Panics are contained so that one
// failing job cannot take down other jobs or the scheduler itself.
func (s *JobScheduler) run(j *job, fn func(context.Context)) {
	select {
	case s.workers <- struct{}{}:
	case <-j.cancel:
		return
	}
	defer func() { <-s.workers }()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Job panicked",
				zap.String("job", j.key.String()),
				zap.Any("panic", r))
		}
	}()

	fn(context.Background())
}
