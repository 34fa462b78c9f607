package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const checkTimeout = 5 * time.Second

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SubscriberCounter reports live feed subscribers per topic.
type SubscriberCounter interface {
	Subscribers() map[string]int
}

// Snapshot is the result of the latest health check.
type Snapshot struct {
	Status        string         `json:"status"`
	Store         string         `json:"store"`
	StoreError    string         `json:"storeError,omitempty"`
	CPUPercent    float64        `json:"cpuPercent"`
	MemoryPercent float64        `json:"memoryPercent"`
	DiskFreeBytes uint64         `json:"diskFreeBytes"`
	Subscribers   map[string]int `json:"subscribers,omitempty"`
	CheckedAt     time.Time      `json:"checkedAt"`
}

// Healthy reports whether the store was reachable at the last check.
func (s Snapshot) Healthy() bool {
	return s.Store == "up"
}

// HealthMonitor periodically pings the store and samples host usage.
type HealthMonitor struct {
	store    Pinger
	live     SubscriberCounter
	diskPath string
	cron     *cron.Cron

	mu   sync.RWMutex
	last Snapshot
}

// NewHealthMonitor creates a monitor for store. live may be nil. diskPath is
// the directory whose filesystem free space is reported.
func NewHealthMonitor(store Pinger, live SubscriberCounter, diskPath string) *HealthMonitor {
	if diskPath == "" {
		diskPath = "."
	}
	return &HealthMonitor{
		store:    store,
		live:     live,
		diskPath: diskPath,
		cron:     cron.New(),
	}
}

// Start runs a check immediately and then on the given cron spec
// (e.g. "@every 30s").
func (m *HealthMonitor) Start(spec string) error {
	if _, err := m.cron.AddFunc(spec, func() { m.Check(context.Background()) }); err != nil {
		return err
	}
	log.Info().Str("schedule", spec).Msg("Starting health monitor...")
	m.Check(context.Background())
	m.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (m *HealthMonitor) Stop() {
	<-m.cron.Stop().Done()
	log.Info().Msg("Stopping health monitor.")
}

// Check runs one health check and records the result.
func (m *HealthMonitor) Check(ctx context.Context) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	snap := Snapshot{Status: "ok", Store: "up", CheckedAt: time.Now().UTC()}
	if err := m.store.Ping(ctx); err != nil {
		snap.Status = "degraded"
		snap.Store = "down"
		snap.StoreError = err.Error()
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	} else if err != nil {
		log.Debug().Err(err).Msg("HealthMonitor: Failed to sample CPU")
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemoryPercent = vm.UsedPercent
	} else {
		log.Debug().Err(err).Msg("HealthMonitor: Failed to sample memory")
	}
	if usage, err := disk.UsageWithContext(ctx, m.diskPath); err == nil {
		snap.DiskFreeBytes = usage.Free
	} else {
		log.Debug().Err(err).Str("path", m.diskPath).Msg("HealthMonitor: Failed to sample disk")
	}
	if m.live != nil {
		snap.Subscribers = m.live.Subscribers()
	}

	m.mu.Lock()
	previous := m.last
	m.last = snap
	m.mu.Unlock()

	switch {
	case !snap.Healthy():
		log.Error().Str("error", snap.StoreError).Msg("HealthMonitor: Store is unreachable")
	case !previous.CheckedAt.IsZero() && !previous.Healthy():
		log.Info().Msg("HealthMonitor: Store is reachable again")
	}
	return snap
}

// Snapshot returns the latest check, running one if none has happened yet.
func (m *HealthMonitor) Snapshot(ctx context.Context) Snapshot {
	m.mu.RLock()
	snap := m.last
	m.mu.RUnlock()
	if snap.CheckedAt.IsZero() {
		return m.Check(ctx)
	}
	return snap
}
