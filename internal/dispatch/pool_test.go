package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kwdetect/internal/config"
	"kwdetect/internal/detector"
	"kwdetect/internal/dispatch"
	"kwdetect/internal/logging"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool := dispatch.NewPool(3, 8, logging.NewNop())

	var mu sync.Mutex
	seen := map[int]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			mu.Lock()
			seen[i] = true
			mu.Unlock()
		})
	}
	wg.Wait()

	if err := pool.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(seen) != 50 {
		t.Fatalf("ran %d distinct tasks, want 50", len(seen))
	}
	stats := pool.Stats()
	if stats.Submitted != 50 || stats.Completed != 50 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPoolSubmitDoesNotBlockWhenFull(t *testing.T) {
	pool := dispatch.NewPool(1, 1, logging.NewNop())
	release := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(4)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 4; i++ {
			pool.Submit(func() {
				defer wg.Done()
				<-release
			})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
	close(release)
	wg.Wait()

	if err := pool.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if stats := pool.Stats(); stats.Overflow == 0 {
		t.Fatalf("expected overflow tasks, got %+v", stats)
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	pool := dispatch.NewPool(1, 4, logging.NewNop())
	ran := make(chan struct{})

	pool.Submit(func() { panic("listener exploded") })
	pool.Submit(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
	if err := pool.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if stats := pool.Stats(); stats.Panics != 1 {
		t.Fatalf("Panics = %d, want 1", stats.Panics)
	}
}

func TestPoolCloseDrainsAndDrops(t *testing.T) {
	pool := dispatch.NewPool(1, 16, logging.NewNop())
	var mu sync.Mutex
	count := 0
	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}
	if err := pool.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if count != 10 {
		t.Fatalf("drained %d tasks, want 10", count)
	}

	pool.Submit(func() { t.Error("task ran after close") })
	if stats := pool.Stats(); stats.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", stats.Dropped)
	}
	if err := pool.Close(context.Background()); !errors.Is(err, dispatch.ErrClosed) {
		t.Fatalf("second Close error = %v, want ErrClosed", err)
	}
}

func TestPoolCloseHonoursContext(t *testing.T) {
	pool := dispatch.NewPool(1, 1, logging.NewNop())
	release := make(chan struct{})
	defer close(release)
	pool.Submit(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close error = %v, want deadline exceeded", err)
	}
}

func TestPoolDeliversDetectorHistogram(t *testing.T) {
	pool := dispatch.NewPool(2, 4, logging.NewNop())
	defer pool.Close(context.Background()) //nolint:errcheck

	d := detector.New(detector.WithDispatcher(pool))
	got := make(chan []detector.Entry, 1)
	d.SetListener(detector.ListenerFuncs{
		HistogramUpdate: func(_ *detector.Detector, _ detector.Feature, entries []detector.Entry) {
			got <- entries
		},
	})
	d.AddSearchTerms(detector.FeatureFileExtension, "mkv mp4 mkv")
	d.RequestHistogramUpdate(detector.FeatureFileExtension)

	select {
	case entries := <-got:
		if len(entries) != 2 || entries[0].Token != "mkv" || entries[0].Count != 2 {
			t.Fatalf("unexpected entries: %v", entries)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for histogram")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Dispatch.Mode = config.DispatchModeSpawn
	d, shutdown := dispatch.FromConfig(&cfg, nil)
	if _, ok := d.(*dispatch.Spawner); !ok {
		t.Fatalf("spawn mode returned %T", d)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("spawn shutdown: %v", err)
	}

	cfg.Dispatch.Mode = config.DispatchModePool
	d, shutdown = dispatch.FromConfig(&cfg, nil)
	if _, ok := d.(*dispatch.Pool); !ok {
		t.Fatalf("pool mode returned %T", d)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("pool shutdown: %v", err)
	}
}
