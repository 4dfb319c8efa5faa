package logger

import (
	"context"
	"testing"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	l := Get()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}

	// Should not panic.
	ctx := context.Background()
	l.Debug(ctx, "debug message", String("k", "v"))
	l.Info(ctx, "info message", Int("n", 1), Float64("f", 2.5))
	l.Warn(ctx, "warn message", Int64("big", 42))
	l.Error(ctx, "error message", Any("v", struct{}{}))
}

func TestNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	named := Named("worker")
	if named == nil {
		t.Fatal("expected non-nil named logger")
	}
	named.Info(context.Background(), "named logger works")
}

func TestSetLevelString(t *testing.T) {
	cases := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"", false},
		{"warn", false},
		{"warning", false},
		{"error", false},
		{"  INFO  ", false},
		{"verbose", true},
	}
	for _, tc := range cases {
		err := SetLevelString(tc.level)
		if tc.wantErr && err == nil {
			t.Errorf("SetLevelString(%q): expected error", tc.level)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("SetLevelString(%q): unexpected error %v", tc.level, err)
		}
	}
}

func TestSyncIsNoop(t *testing.T) {
	if err := Sync(); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
}
