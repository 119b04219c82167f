// ABOUTME: Tests for single-flight refresh coordination
// ABOUTME: Verifies concurrent callers share one refresh and later callers start fresh

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRefreshCoordinator_ConcurrentCallersShareOneCall(t *testing.T) {
	coord := NewRefreshCoordinator()

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "new-token", nil
	}

	const callers = 2
	results := make([]RefreshResult, callers)
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i] = coord.AcquireOrJoin(context.Background(), "session", fn)
		}(i)
	}

	started.Wait()
	// Give the second caller time to join the pending flight.
	waitFor(t, func() bool { return calls.Load() == 1 })
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("Refresh calls = %d, want 1", got)
	}
	for i, r := range results {
		if !r.OK() || r.AccessToken != "new-token" {
			t.Errorf("Caller %d result = %+v, want new-token", i, r)
		}
	}
}

func TestRefreshCoordinator_SharedFailure(t *testing.T) {
	coord := NewRefreshCoordinator()

	var calls atomic.Int32
	release := make(chan struct{})
	wantErr := errors.New("backend said no")
	fn := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "", wantErr
	}

	var wg sync.WaitGroup
	results := make([]RefreshResult, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = coord.AcquireOrJoin(context.Background(), "session", fn)
		}(i)
	}

	waitFor(t, func() bool { return calls.Load() == 1 })
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("Refresh calls = %d, want 1", got)
	}
	for i, r := range results {
		if r.OK() || !errors.Is(r.Err, wantErr) {
			t.Errorf("Caller %d result = %+v, want shared failure", i, r)
		}
	}
}

func TestRefreshCoordinator_ForgetsAfterResolution(t *testing.T) {
	coord := NewRefreshCoordinator()

	var calls atomic.Int32
	fn := func(ctx context.Context) (string, error) {
		n := calls.Add(1)
		if n == 1 {
			return "", errors.New("first attempt fails")
		}
		return "second", nil
	}

	first := coord.AcquireOrJoin(context.Background(), "session", fn)
	if first.OK() {
		t.Fatal("Expected first refresh to fail")
	}

	second := coord.AcquireOrJoin(context.Background(), "session", fn)
	if !second.OK() || second.AccessToken != "second" {
		t.Errorf("Expected a fresh attempt to succeed, got %+v", second)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("Refresh calls = %d, want 2", got)
	}
}

func TestRefreshCoordinator_DistinctKeysDoNotShare(t *testing.T) {
	coord := NewRefreshCoordinator()

	var calls atomic.Int32
	fn := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "t", nil
	}

	coord.AcquireOrJoin(context.Background(), SessionKey("r1"), fn)
	coord.AcquireOrJoin(context.Background(), SessionKey("r2"), fn)

	if got := calls.Load(); got != 2 {
		t.Errorf("Refresh calls = %d, want 2", got)
	}
}

func TestRefreshCoordinator_EmptyTokenIsRejected(t *testing.T) {
	coord := NewRefreshCoordinator()

	res := coord.AcquireOrJoin(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "", nil
	})
	if !errors.Is(res.Err, ErrRefreshRejected) {
		t.Errorf("Err = %v, want ErrRefreshRejected", res.Err)
	}
}

func TestRefreshCoordinator_WaiterCancellation(t *testing.T) {
	coord := NewRefreshCoordinator()

	release := make(chan struct{})
	defer close(release)
	fn := func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := coord.AcquireOrJoin(ctx, "k", fn)
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want deadline exceeded", res.Err)
	}
}

func TestSessionKey(t *testing.T) {
	if SessionKey("abc") != SessionKey("abc") {
		t.Error("SessionKey must be deterministic")
	}
	if SessionKey("abc") == SessionKey("abd") {
		t.Error("SessionKey must differ for different tokens")
	}
	if len(SessionKey("abc")) != 64 {
		t.Errorf("SessionKey length = %d, want 64", len(SessionKey("abc")))
	}
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}
