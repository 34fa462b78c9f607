package monitoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type fakePinger struct {
	err   error
	calls atomic.Int32
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.calls.Add(1)
	return p.err
}

func TestCheckReportsStoreState(t *testing.T) {
	store := &fakePinger{}
	monitor := NewHealthMonitor(store, nil, t.TempDir())

	snap := monitor.Check(context.Background())
	if !snap.Healthy() || snap.Status != "ok" {
		t.Fatalf("expected healthy snapshot, got %+v", snap)
	}

	store.err = errors.New("connection refused")
	snap = monitor.Check(context.Background())
	if snap.Healthy() || snap.Status != "degraded" || snap.StoreError != "connection refused" {
		t.Fatalf("expected degraded snapshot, got %+v", snap)
	}
	if got := monitor.Snapshot(context.Background()); got.Healthy() {
		t.Fatal("Snapshot should return the latest check")
	}
}

func TestSnapshotChecksLazily(t *testing.T) {
	store := &fakePinger{}
	monitor := NewHealthMonitor(store, nil, "")

	if snap := monitor.Snapshot(context.Background()); snap.CheckedAt.IsZero() {
		t.Fatal("expected a check to run")
	}
	monitor.Snapshot(context.Background())
	if calls := store.calls.Load(); calls != 1 {
		t.Fatalf("expected 1 ping, got %d", calls)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	monitor := NewHealthMonitor(&fakePinger{}, nil, "")
	if err := monitor.Start("not a schedule"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestStartRunsInitialCheck(t *testing.T) {
	store := &fakePinger{}
	monitor := NewHealthMonitor(store, nil, "")
	if err := monitor.Start("@every 1h"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer monitor.Stop()

	if calls := store.calls.Load(); calls != 1 {
		t.Fatalf("expected an initial check, got %d pings", calls)
	}
}

type fixedCounter map[string]int

func (c fixedCounter) Subscribers() map[string]int {
	return c
}

func TestCheckReportsSubscribers(t *testing.T) {
	monitor := NewHealthMonitor(&fakePinger{}, fixedCounter{"global": 2, "post:1": 1}, "")

	snap := monitor.Check(context.Background())
	if snap.Subscribers["global"] != 2 || snap.Subscribers["post:1"] != 1 {
		t.Fatalf("unexpected subscribers: %v", snap.Subscribers)
	}
}
