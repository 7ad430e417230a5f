package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type MockUserLister struct {
	ListUserIDsFunc func(ctx context.Context) ([]int64, error)
}

func (m *MockUserLister) ListUserIDs(ctx context.Context) ([]int64, error) {
	return m.ListUserIDsFunc(ctx)
}

func TestNew_Validation(t *testing.T) {
	provider := func(context.Context) ([]Job, error) { return nil, nil }

	tests := []struct {
		name   string
		config Config
	}{
		{"zero interval", Config{Interval: 0, JobProvider: provider}},
		{"negative delay", Config{Interval: time.Minute, InitialDelay: -time.Second, JobProvider: provider}},
		{"no provider", Config{Interval: time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestScheduler_InitialRunThenInterval(t *testing.T) {
	var executed atomic.Int32
	ticks := make(chan struct{}, 10)

	s, err := New(Config{
		InitialDelay: 0,
		Interval:     20 * time.Millisecond,
		WorkerCount:  1,
		QueueSize:    10,
		JobProvider: func(context.Context) ([]Job, error) {
			ticks <- struct{}{}
			return []Job{&MockJob{userID: "1", ExecuteFunc: func(context.Context) error {
				executed.Add(1)
				return nil
			}}}, nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start()
	for i := 0; i < 2; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatalf("scheduler fired %d times before timeout, want at least 2", i)
		}
	}
	s.Shutdown(time.Second)

	if executed.Load() < 1 {
		t.Error("expected at least one job to execute")
	}
}

func TestScheduler_InitialDelay(t *testing.T) {
	var calls atomic.Int32
	s, err := New(Config{
		InitialDelay: time.Hour,
		Interval:     time.Hour,
		WorkerCount:  1,
		QueueSize:    1,
		JobProvider: func(context.Context) ([]Job, error) {
			calls.Add(1)
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Shutdown(time.Second)

	if calls.Load() != 0 {
		t.Errorf("provider called %d times before the initial delay", calls.Load())
	}
}

func TestUserSyncJobs(t *testing.T) {
	sessions := NewSessions()
	trigger := NewTrigger(conns(0), &MockSyncer{}, nil, nil)
	users := &MockUserLister{ListUserIDsFunc: func(context.Context) ([]int64, error) {
		return []int64{4, 9}, nil
	}}

	jobs, err := UserSyncJobs(users, trigger, sessions)(context.Background())
	if err != nil {
		t.Fatalf("provider error = %v", err)
	}
	if len(jobs) != 2 || jobs[0].UserID() != "4" || jobs[1].UserID() != "9" {
		t.Fatalf("unexpected jobs: %v", jobs)
	}
	if jobs[0].(*UserSyncJob).session != sessions.Get(4) {
		t.Error("job should reuse the user's session")
	}
}

func TestUserSyncJobs_Error(t *testing.T) {
	users := &MockUserLister{ListUserIDsFunc: func(context.Context) ([]int64, error) {
		return nil, errors.New("db down")
	}}

	if _, err := UserSyncJobs(users, NewTrigger(conns(0), &MockSyncer{}, nil, nil), NewSessions())(context.Background()); err == nil {
		t.Error("expected error")
	}
}
