package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

type recordedJob struct {
	name string
	runs int
	err  error
}

func (j *recordedJob) Name() string { return j.name }

func (j *recordedJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

type fakeLock struct {
	available bool
	acquired  int
	released  int
}

func (f *fakeLock) Acquire(ctx context.Context) (bool, error) {
	f.acquired++
	return f.available, nil
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.released++
	return nil
}

func cronTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Level: logger.ParseLevel("error")})
}

func TestRunCycleExecutesAllJobs(t *testing.T) {
	first := &recordedJob{name: "first"}
	second := &recordedJob{name: "second"}
	lock := &fakeLock{available: true}
	svc, err := NewService(ServiceParams{
		Logger:   cronTestLogger(),
		Registry: NewRegistry(first, second),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if first.runs != 1 || second.runs != 1 {
		t.Fatalf("job runs = (%d, %d), want (1, 1)", first.runs, second.runs)
	}
	if lock.released != 1 {
		t.Fatal("lock must be released after the cycle")
	}
}

func TestRunCycleContinuesPastFailingJob(t *testing.T) {
	failing := &recordedJob{name: "failing", err: errors.New("boom")}
	trailing := &recordedJob{name: "trailing"}
	svc, err := NewService(ServiceParams{
		Logger:   cronTestLogger(),
		Registry: NewRegistry(failing, trailing),
		Lock:     &fakeLock{available: true},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if trailing.runs != 1 {
		t.Fatal("a failing job must not stop later jobs")
	}
}

func TestRunCycleSkipsWithoutLock(t *testing.T) {
	job := &recordedJob{name: "job"}
	lock := &fakeLock{available: false}
	svc, err := NewService(ServiceParams{
		Logger:   cronTestLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("jobs must not run when the lock is held elsewhere")
	}
	if lock.released != 0 {
		t.Fatal("an unacquired lock must not be released")
	}
}

func TestRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &recordedJob{name: "only"})
	if got := len(registry.Jobs()); got != 1 {
		t.Fatalf("registry holds %d jobs, want 1", got)
	}
}
