package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/scoutgrid/internal/config"
)

// TestFlagDefaults verifies the flags the deployment scripts rely on.
func TestFlagDefaults(t *testing.T) {
	if *listen != ":8080" {
		t.Errorf("listen default = %q, want :8080", *listen)
	}
	if *grpcListen != "" {
		t.Errorf("grpc should be disabled by default, got %q", *grpcListen)
	}
	if *tickRate != 0 {
		t.Errorf("tick-rate default = %v, want 0 (config value)", *tickRate)
	}
	if *syntheticMode {
		t.Error("synthetic should be off by default")
	}
}

func TestResolveOptionsTickRateOverride(t *testing.T) {
	old := *tickRate
	t.Cleanup(func() { *tickRate = old })

	*tickRate = 15 * time.Millisecond
	opts, err := resolveOptions()
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}
	if got := opts.Tuning.GetTickRate(); got != 15*time.Millisecond {
		t.Errorf("tick rate = %v, want 15ms", got)
	}
	if opts.Seed == 0 {
		t.Error("a zero seed should be replaced")
	}

	*tickRate = -time.Second
	if _, err := resolveOptions(); err == nil {
		t.Error("negative tick-rate should be rejected")
	}
}

// TestRunShutsDownCleanly starts every component on ephemeral ports and
// stops them by cancelling the context.
func TestRunShutsDownCleanly(t *testing.T) {
	dir := t.TempDir()
	rate := "5ms"
	tuning := config.EmptyGridTuning()
	tuning.TickRate = &rate

	opts := options{
		Listen:     "127.0.0.1:0",
		GRPCListen: "127.0.0.1:0",
		DBPath:     filepath.Join(dir, "grid.db"),
		SnaplogDir: filepath.Join(dir, "snaplog"),
		Synthetic:  true,
		Seed:       1,
		Tuning:     tuning,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, opts) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
