// Package cron runs named maintenance jobs on fixed intervals and exposes
// their state to the moderator jobs API.
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// JobStatus is the outcome of a job's most recent run.
type JobStatus string

const (
	StatusIdle      JobStatus = "idle"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
)

// Job is a maintenance task run on a fixed interval.
type Job struct {
	Name        string
	Description string
	Interval    time.Duration
	Fn          func(ctx context.Context) error
}

type jobState struct {
	Job
	mu      sync.Mutex
	status  JobStatus
	message string
	lastRun *time.Time
	nextRun time.Time
}

// Summary describes one registered job in the jobs listing.
type Summary struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      JobStatus  `json:"status"`
	NextRunAt   time.Time  `json:"next_run_at"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
}

// TaskResult reports a single job's execution state.
type TaskResult struct {
	Status  JobStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

// Scheduler owns the registered jobs. Register everything before Start;
// there is no de-registration.
type Scheduler struct {
	mu   sync.RWMutex
	jobs map[string]*jobState
}

func New() *Scheduler {
	return &Scheduler{jobs: make(map[string]*jobState)}
}

// Register adds a job. Its first scheduled run happens one interval after
// Start; use Run to trigger it sooner.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name] = &jobState{
		Job:     job,
		status:  StatusIdle,
		nextRun: time.Now().Add(job.Interval),
	}
}

// Start launches one loop per registered job. The loops exit when ctx is
// canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, js := range s.jobs {
		go s.loop(ctx, js)
	}
}

func (s *Scheduler) loop(ctx context.Context, js *jobState) {
	for {
		js.mu.Lock()
		wait := time.Until(js.nextRun)
		js.mu.Unlock()
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			s.execute(ctx, js)
			js.mu.Lock()
			js.nextRun = time.Now().Add(js.Interval)
			js.mu.Unlock()
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, js *jobState) {
	js.mu.Lock()
	if js.status == StatusRunning {
		js.mu.Unlock()
		return
	}
	js.status = StatusRunning
	js.mu.Unlock()

	started := time.Now()
	err := js.Fn(ctx)

	js.mu.Lock()
	js.lastRun = &started
	if err != nil {
		js.status = StatusFailed
		js.message = err.Error()
	} else {
		js.status = StatusSucceeded
		js.message = ""
	}
	js.mu.Unlock()
}

// Run triggers a job immediately without waiting for its interval. The run
// happens in the background; poll GetTask for the outcome.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	js, err := s.get(name)
	if err != nil {
		return err
	}
	go s.execute(ctx, js)
	return nil
}

// GetTask reports the execution state of one job.
func (s *Scheduler) GetTask(name string) (*TaskResult, error) {
	js, err := s.get(name)
	if err != nil {
		return nil, err
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	return &TaskResult{Status: js.status, Message: js.message}, nil
}

func (s *Scheduler) get(name string) (*jobState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	js, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("unknown job %q", name)
	}
	return js, nil
}

// List summarizes every registered job.
func (s *Scheduler) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Summary, 0, len(s.jobs))
	for _, js := range s.jobs {
		js.mu.Lock()
		items = append(items, Summary{
			Name:        js.Name,
			Description: js.Description,
			Status:      js.status,
			NextRunAt:   js.nextRun,
			LastRunAt:   js.lastRun,
		})
		js.mu.Unlock()
	}
	return items
}
