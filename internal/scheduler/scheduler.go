// Package scheduler wires up the cron job that periodically scans every
// saved profile.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"leadsync/internal/model"
)

// ProfileSource lists the profiles to scan.
type ProfileSource interface {
	Profiles(ctx context.Context) ([]model.Profile, error)
}

// Runner scans one profile.
type Runner interface {
	Run(ctx context.Context, p model.Profile) error
}

// Scheduler wraps robfig/cron and manages the scan loop.
type Scheduler struct {
	cron     *cron.Cron
	profiles ProfileSource
	runner   Runner
	spec     string // cron spec, e.g. "@every 6h"

	// cycle is held for a whole cycle so a slow cycle is never overlapped
	// by the next tick.
	cycle sync.Mutex
	wg    sync.WaitGroup
}

// New creates a Scheduler that fires every intervalHours hours.
func New(profiles ProfileSource, runner Runner, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cron.DefaultLogger)),
		profiles: profiles,
		runner:   runner,
		spec:     fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so new profiles get leads without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started, spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunCycle(ctx)
	}()

	return nil
}

// Stop shuts the scheduler down and waits for running cycles to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Println("[scheduler] Cron stopped")
}

// RunCycle loads every profile and runs the Runner for each one. Errors are
// logged and the remaining profiles still run. It returns the number of
// profiles that completed without error.
func (s *Scheduler) RunCycle(ctx context.Context) int {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	log.Println("[scheduler] Scan cycle started")

	profiles, err := s.profiles.Profiles(ctx)
	if err != nil {
		log.Printf("[scheduler] Load profiles error: %v", err)
		return 0
	}
	if len(profiles) == 0 {
		log.Println("[scheduler] No profiles, nothing to scan")
		return 0
	}

	log.Printf("[scheduler] Running scan for %d profile(s)", len(profiles))
	ok := 0
	for _, p := range profiles {
		if ctx.Err() != nil {
			log.Printf("[scheduler] Cycle cancelled: %v", ctx.Err())
			break
		}
		if err := s.runner.Run(ctx, p); err != nil {
			log.Printf("[scheduler] Worker error for profile %s: %v", p.ID, err)
			continue
		}
		ok++
	}

	log.Println("[scheduler] Scan cycle complete")
	return ok
}
