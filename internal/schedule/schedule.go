// Package schedule runs the agent's periodic loops. Detection must never
// overlap itself, a slow frame means skipped ticks rather than queued
// ones, while the sync loop is free-running.
package schedule

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler wraps a gocron scheduler preconfigured for the agent loops.
type Scheduler struct {
	inner *gocron.Scheduler
}

func New() *Scheduler {
	return &Scheduler{inner: gocron.NewScheduler(time.Local)}
}

// EverySingleton registers a job that runs at the given interval but
// never concurrently with itself. Ticks that land while a run is still
// in progress are dropped.
func (s *Scheduler) EverySingleton(interval time.Duration, task func()) error {
	if _, err := s.inner.Every(interval).SingletonMode().Do(task); err != nil {
		return fmt.Errorf("schedule singleton job: %w", err)
	}
	return nil
}

// Every registers a free-running job at the given interval.
func (s *Scheduler) Every(interval time.Duration, task func()) error {
	if _, err := s.inner.Every(interval).Do(task); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	return nil
}

// Start launches all registered jobs in the background.
func (s *Scheduler) Start() {
	s.inner.StartAsync()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.inner.Stop()
}
