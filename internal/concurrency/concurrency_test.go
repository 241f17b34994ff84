package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestProcessInParallel_PreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results, err := ProcessInParallel(context.Background(), 2, items, func(ctx context.Context, i int) (int, error) {
		return i * i, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 4, 9, 16, 25}
	for i := range want {
		if results[i] != want[i] {
			t.Fatalf("got %v want %v", results, want)
		}
	}
}

func TestProcessInParallel_FirstErrorShortCircuits(t *testing.T) {
	items := []int{1, 2, 3}
	boom := errors.New("boom")
	_, err := ProcessInParallel(context.Background(), 1, items, func(ctx context.Context, i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestProcessInParallel_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, maxSeen int32
	items := make([]int, 10)
	_, err := ProcessInParallel(context.Background(), 3, items, func(ctx context.Context, i int) (int, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			m := atomic.LoadInt32(&maxSeen)
			if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if maxSeen > 3 {
		t.Fatalf("expected at most 3 in flight, saw %d", maxSeen)
	}
}

func TestRunWorkQueue_DrainsAllItems(t *testing.T) {
	remaining := []int{1, 2, 3, 4}
	idx := 0
	next := func() (int, bool) {
		if idx >= len(remaining) {
			return 0, false
		}
		v := remaining[idx]
		idx++
		return v, true
	}
	var sum int32
	err := RunWorkQueue(context.Background(), 2, next, func(ctx context.Context, i int) error {
		atomic.AddInt32(&sum, int32(i))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum != 10 {
		t.Fatalf("expected sum 10, got %d", sum)
	}
}

func TestCombinedCancellation_FiresOnExtra(t *testing.T) {
	extra := make(chan struct{})
	ctx, cancel := CombinedCancellation(context.Background(), extra)
	defer cancel()
	close(extra)
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected context to be cancelled")
	}
}

func TestWithAbort_ReturnsContextErrorOnTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := WithAbort(ctx, func() error {
		time.Sleep(time.Second)
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
