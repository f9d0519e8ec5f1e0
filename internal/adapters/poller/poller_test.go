package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu   sync.Mutex
	rev  int64
	err  error
	read int
}

func (f *fakeSource) Revision(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read++
	return f.rev, f.err
}

func (f *fakeSource) set(rev int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rev, f.err = rev, err
}

func run(t *testing.T, src *fakeSource) (chan struct{}, context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 16)
	done := make(chan error, 1)
	p := New(src, 5*time.Millisecond, nil)
	go func() { done <- p.Run(ctx, func() { changed <- struct{}{} }) }()
	return changed, cancel, done
}

func TestPollerReportsRevisionChanges(t *testing.T) {
	src := &fakeSource{rev: 1}
	changed, cancel, done := run(t, src)
	defer cancel()

	select {
	case <-changed:
		t.Fatal("unchanged revision must not be reported")
	case <-time.After(30 * time.Millisecond):
	}

	src.set(2, nil)
	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("revision change not reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v, want nil", err)
	}
}

func TestPollerSurvivesReadErrors(t *testing.T) {
	src := &fakeSource{rev: 1}
	changed, cancel, _ := run(t, src)
	defer cancel()

	src.set(1, errors.New("connection reset"))
	time.Sleep(20 * time.Millisecond)
	src.set(3, nil)

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("change after recovered error not reported")
	}
}

func TestPollerDefaultsInterval(t *testing.T) {
	p := New(&fakeSource{}, 0, nil)
	if p.interval != 2*time.Second {
		t.Errorf("interval = %v, want 2s", p.interval)
	}
}
