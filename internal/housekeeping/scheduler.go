// Package housekeeping runs the periodic maintenance jobs: version retention
// and the trending cap.
package housekeeping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/trackadmission/go-services/pkg/logger"
)

// Job is one maintenance task. Run returns the number of records it changed.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

type Result struct {
	Job      string
	Affected int
	Err      error
	Duration time.Duration
}

type Purger interface {
	PurgeAll(ctx context.Context) (int, error)
}

type Trimmer interface {
	Enforce(ctx context.Context) (int, error)
}

func PurgeVersions(p Purger) Job { return Job{Name: "purge-versions", Run: p.PurgeAll} }

func TrimTrending(t Trimmer) Job { return Job{Name: "trim-trending", Run: t.Enforce} }

// cronLogger routes cron's own messages through pkg/logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) { logger.Debugf("cron: %s %v", msg, kv) }

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	logger.Errorf("cron: %s %v: %v", msg, kv, err)
}

// Scheduler runs its jobs in order on a cron schedule. A tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration

	mu   sync.Mutex
	last []Result
}

// New returns a scheduler; timeout bounds each scheduled run (0 means 10 minutes).
func New(timeout time.Duration, jobs ...Job) *Scheduler {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	l := cronLogger{}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l))),
		jobs:    jobs,
		timeout: timeout,
	}
}

// Schedule registers a run of every job at spec (standard cron or "@every 1h").
func (s *Scheduler) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	return nil
}

// RunOnce runs every job now. A failing job does not stop the ones after it.
func (s *Scheduler) RunOnce(ctx context.Context) []Result {
	out := make([]Result, 0, len(s.jobs))
	for _, j := range s.jobs {
		start := time.Now()
		n, err := j.Run(ctx)
		r := Result{Job: j.Name, Affected: n, Err: err, Duration: time.Since(start)}
		if err != nil {
			logger.Errorf("housekeeping %s failed after %s: %v", j.Name, r.Duration, err)
		} else {
			logger.Infof("housekeeping %s: %d affected in %s", j.Name, n, r.Duration)
		}
		out = append(out, r)
	}
	s.mu.Lock()
	s.last = out
	s.mu.Unlock()
	return out
}

// LastResults returns the outcome of the most recent run.
func (s *Scheduler) LastResults() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.last...)
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
