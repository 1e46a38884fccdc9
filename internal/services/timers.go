package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"evecorpbot/internal/clock"
	"evecorpbot/internal/domain"
)

// TimerManager arms one deferred "starting now" notification per event.
// Pending timers live only in memory; RestoreAll rebuilds them from the
// event store after a restart.
type TimerManager struct {
	store    domain.EventStore
	notifier domain.EventNotifier
	clock    clock.Clock
	logger   *slog.Logger
	timeout  time.Duration

	mu    sync.Mutex
	armed map[string]clock.Timer
}

// NewTimerManager creates a TimerManager. timeout bounds each firing.
func NewTimerManager(store domain.EventStore, notifier domain.EventNotifier, clk clock.Clock, logger *slog.Logger, timeout time.Duration) *TimerManager {
	return &TimerManager{
		store:    store,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
		timeout:  timeout,
		armed:    make(map[string]clock.Timer),
	}
}

// Arm schedules the notification for ev at ev.ScheduledAt. It returns false
// when the scheduled time has already passed. Arming an event that already
// has a pending timer keeps the existing one.
func (m *TimerManager) Arm(ev *domain.Event) bool {
	delay := ev.ScheduledAt.Sub(m.clock.Now())
	if delay <= 0 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.armed[ev.ID]; ok {
		return true
	}
	id := ev.ID
	m.armed[id] = m.clock.AfterFunc(delay, func() { m.fire(id) })
	m.logger.Debug("event timer armed", "event_id", id, "delay", delay.String())
	return true
}

func (m *TimerManager) fire(eventID string) {
	m.mu.Lock()
	delete(m.armed, eventID)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.notifier.FireEvent(ctx, eventID); err != nil {
		m.logger.Error("event notification failed", "event_id", eventID, "err", err)
	}
}

// RestoreAll arms every stored event that is still in the future and has at
// least one attendee. It returns the number of events armed.
func (m *TimerManager) RestoreAll(ctx context.Context) (int, error) {
	events, err := m.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore event timers: %w", err)
	}
	armed := 0
	for _, ev := range events {
		if len(ev.Attendees) == 0 {
			continue
		}
		if m.Arm(ev) {
			armed++
		}
	}
	m.logger.Info("event timers restored", "events", len(events), "armed", armed)
	return armed, nil
}

// Pending returns the number of armed timers.
func (m *TimerManager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.armed)
}

// Stop cancels every pending timer.
func (m *TimerManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.armed {
		t.Stop()
		delete(m.armed, id)
	}
}
