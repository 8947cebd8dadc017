package singleflight

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoSharesResult(t *testing.T) {
	g := NewGroup[string, int]()
	var calls int32
	var wg sync.WaitGroup
	results := make([]int, 10)
	shared := make([]bool, 10)

	start := make(chan struct{})
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err, sh := g.Do("k", func() (int, error) {
				atomic.AddInt32(&calls, 1)
				// Hold the call open so the other goroutines reach Do
				// while it is still in flight and join it.
				time.Sleep(50 * time.Millisecond)
				return 42, nil
			})
			if err != nil {
				t.Error(err)
			}
			results[i] = v
			shared[i] = sh
		}(i)
	}
	close(start)
	wg.Wait()

	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("result[%d] = %d, want 42", i, v)
		}
	}
}

func TestDoPropagatesError(t *testing.T) {
	g := NewGroup[string, int]()
	wantErr := errors.New("boom")
	_, err, _ := g.Do("k", func() (int, error) { return 0, wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestDoRunsAgainAfterCompletion(t *testing.T) {
	g := NewGroup[string, int]()
	var calls int32
	for range 3 {
		g.Do("k", func() (int, error) {
			atomic.AddInt32(&calls, 1)
			return 0, nil
		})
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestForget(t *testing.T) {
	g := NewGroup[string, int]()
	g.calls["k"] = &call[int]{}
	g.calls["k"].wg.Add(1)
	g.Forget("k")
	if _, ok := g.calls["k"]; ok {
		t.Error("Forget left the call in the map")
	}
}
