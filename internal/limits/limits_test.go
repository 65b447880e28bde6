package limits

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HendryAvila/quill/internal/seclog"
)

type captureSink struct {
	mu     sync.Mutex
	events []seclog.Event
}

func (c *captureSink) Write(e seclog.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *captureSink) count(typ string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func newTestLimiter(cfg Config) (*Limiter, *captureSink) {
	sink := &captureSink{}
	return New(cfg, seclog.New(nil, seclog.WithSink(sink))), sink
}

func TestNewAppliesDefaults(t *testing.T) {
	l, _ := newTestLimiter(Config{})
	cfg := l.Config()
	if cfg.MaxFileSizeBytes != 50*1024*1024 {
		t.Errorf("MaxFileSizeBytes = %d", cfg.MaxFileSizeBytes)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d", cfg.MaxConcurrent)
	}
	if cfg.RequestsPerMinute != 30 {
		t.Errorf("RequestsPerMinute = %d", cfg.RequestsPerMinute)
	}
	if cfg.FileTimeout != 30*time.Second || cfg.BatchTimeout != 180*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.FileTimeout, cfg.BatchTimeout)
	}
}

func TestCheckSize(t *testing.T) {
	l, sink := newTestLimiter(Config{MaxFileSizeBytes: 1000})

	if err := l.CheckSize("ok.md", 1000); err != nil {
		t.Errorf("CheckSize(at limit) = %v", err)
	}
	err := l.CheckSize("big.md", 1001)
	var serr *SizeError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SizeError", err)
	}
	if serr.Size != 1001 || serr.Limit != 1000 {
		t.Errorf("SizeError = %+v", serr)
	}
	if sink.count(seclog.EventResourceLimit) != 1 {
		t.Error("no resource-limit event recorded")
	}
}

func TestAdmitRequestTokenBucket(t *testing.T) {
	l, sink := newTestLimiter(Config{RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		if err := l.AdmitRequest("test"); err != nil {
			t.Fatalf("request %d refused: %v", i, err)
		}
	}
	err := l.AdmitRequest("test")
	var rerr *RateLimitError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RateLimitError", err)
	}
	if rerr.PerMinute != 3 {
		t.Errorf("PerMinute = %d, want 3", rerr.PerMinute)
	}
	if sink.count(seclog.EventRateLimited) != 1 {
		t.Error("no rate-limited event recorded")
	}
}

func TestConcurrencySlots(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxConcurrent: 3})
	ctx := context.Background()

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(ctx); err != nil {
				t.Errorf("Acquire() = %v", err)
				return
			}
			defer l.Release()
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

func TestRunFileCompletesWithinBudget(t *testing.T) {
	l, _ := newTestLimiter(Config{FileTimeout: time.Second})

	sentinel := errors.New("extractor failed")
	if err := l.RunFile(context.Background(), "a.md", func(context.Context) error { return nil }); err != nil {
		t.Errorf("RunFile() = %v", err)
	}
	if err := l.RunFile(context.Background(), "a.md", func(context.Context) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("RunFile() = %v, want sentinel error", err)
	}
}

func TestRunFileTimeout(t *testing.T) {
	l, sink := newTestLimiter(Config{FileTimeout: 20 * time.Millisecond})

	err := l.RunFile(context.Background(), "slow.md", func(ctx context.Context) error {
		time.Sleep(500 * time.Millisecond)
		return nil
	})
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TimeoutError", err)
	}
	if terr.Scope != "file" {
		t.Errorf("Scope = %q, want %q", terr.Scope, "file")
	}
	if sink.count(seclog.EventResourceLimit) != 1 {
		t.Error("no resource-limit event recorded")
	}
}

func TestRunFileBatchDeadline(t *testing.T) {
	l, _ := newTestLimiter(Config{FileTimeout: time.Minute, BatchTimeout: 20 * time.Millisecond})

	ctx, cancel := l.BatchContext(context.Background())
	defer cancel()
	<-ctx.Done()

	err := l.RunFile(ctx, "late.md", func(ctx context.Context) error {
		time.Sleep(500 * time.Millisecond)
		return nil
	})
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TimeoutError", err)
	}
	if terr.Scope != "batch" {
		t.Errorf("Scope = %q, want %q", terr.Scope, "batch")
	}
}
