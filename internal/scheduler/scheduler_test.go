package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/model"
	"leadsync/internal/scheduler"
)

type staticProfiles struct {
	profiles []model.Profile
	err      error
}

func (s staticProfiles) Profiles(context.Context) ([]model.Profile, error) {
	return s.profiles, s.err
}

type recordingRunner struct {
	mu   sync.Mutex
	ran  []string
	fail map[string]bool
}

func (r *recordingRunner) Run(_ context.Context, p model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, p.ID)
	if r.fail[p.ID] {
		return errors.New("scan failed")
	}
	return nil
}

func (r *recordingRunner) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func TestRunCycle_RunsEveryProfile(t *testing.T) {
	src := staticProfiles{profiles: []model.Profile{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	runner := &recordingRunner{fail: map[string]bool{"b": true}}
	s := scheduler.New(src, runner, 6)

	ok := s.RunCycle(context.Background())
	assert.Equal(t, 2, ok)
	assert.Equal(t, []string{"a", "b", "c"}, runner.seen())
}

func TestRunCycle_NoProfiles(t *testing.T) {
	runner := &recordingRunner{}
	s := scheduler.New(staticProfiles{}, runner, 6)
	assert.Zero(t, s.RunCycle(context.Background()))
	assert.Empty(t, runner.seen())
}

func TestRunCycle_LoadError(t *testing.T) {
	runner := &recordingRunner{}
	s := scheduler.New(staticProfiles{err: errors.New("store down")}, runner, 6)
	assert.Zero(t, s.RunCycle(context.Background()))
	assert.Empty(t, runner.seen())
}

func TestRunCycle_CancelledContext(t *testing.T) {
	src := staticProfiles{profiles: []model.Profile{{ID: "a"}, {ID: "b"}}}
	runner := &recordingRunner{}
	s := scheduler.New(src, runner, 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, s.RunCycle(ctx))
	assert.Empty(t, runner.seen())
}

func TestStart_RunsImmediately(t *testing.T) {
	src := staticProfiles{profiles: []model.Profile{{ID: "a"}}}
	runner := &recordingRunner{}
	s := scheduler.New(src, runner, 6)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return len(runner.seen()) == 1 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
	assert.Equal(t, []string{"a"}, runner.seen())
}
