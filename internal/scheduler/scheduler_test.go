package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evecorpbot/internal/clock"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job")
		return ""
	}
}

func TestScheduler_RunsEachJobOnItsInterval(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := New(clk, quietLogger())
	ran := make(chan string, 8)
	s.Every("fuel", time.Hour, func(ctx context.Context) error { ran <- "fuel"; return nil })
	s.Every("sovereignty", 30*time.Minute, func(ctx context.Context) error { ran <- "sovereignty"; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	clk.WaitForTimers(2)

	clk.Advance(30 * time.Minute)
	assert.Equal(t, "sovereignty", receive(t, ran))

	clk.Advance(30 * time.Minute)
	got := []string{receive(t, ran), receive(t, ran)}
	assert.ElementsMatch(t, []string{"fuel", "sovereignty"}, got)

	cancel()
	require.NoError(t, <-done)
}

func TestScheduler_OverlappingRunsAreTolerated(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := New(clk, quietLogger())
	started := make(chan string, 4)
	release := make(chan struct{})
	s.Every("slow", time.Minute, func(ctx context.Context) error {
		started <- "slow"
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	clk.WaitForTimers(1)

	clk.Advance(time.Minute)
	receive(t, started)
	clk.Advance(time.Minute)
	receive(t, started)

	cancel()
	close(release)
	require.NoError(t, <-done)
}

func TestScheduler_FailuresAreIsolated(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := New(clk, quietLogger())
	ran := make(chan string, 8)
	s.Every("broken", time.Minute, func(ctx context.Context) error {
		ran <- "broken"
		return errors.New("esi down")
	})
	s.Every("panicky", time.Minute, func(ctx context.Context) error {
		ran <- "panicky"
		panic("nil map")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	clk.WaitForTimers(2)

	for range 2 {
		clk.Advance(time.Minute)
		got := []string{receive(t, ran), receive(t, ran)}
		assert.ElementsMatch(t, []string{"broken", "panicky"}, got)
	}

	cancel()
	require.NoError(t, <-done)
}

func TestScheduler_RejectsZeroInterval(t *testing.T) {
	s := New(clock.Fake(time.Now()), quietLogger())
	s.Every("bad", 0, func(ctx context.Context) error { return nil })
	require.Error(t, s.Run(context.Background()))
}
