package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewManagerWithOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(
		WithNamespace("testns"),
		WithSubsystem("testsub"),
		WithHistogramBuckets([]float64{1, 5, 10}),
		WithPrometheusRegistry(reg),
	)
	if m == nil {
		t.Fatal("expected non-nil manager")
	}
	if m.namespace != "testns" {
		t.Errorf("expected namespace testns, got %s", m.namespace)
	}
	if m.subsystem != "testsub" {
		t.Errorf("expected subsystem testsub, got %s", m.subsystem)
	}
}

func TestGlobalHelpersDoNotPanic(t *testing.T) {
	RecordSessionRecorded()
	RecordSessionDuplicate()
	RecordSessionRejected()
	RecordStatsUpdate()
	RecordStatsConflict()
	RecordStatsRetriesExhausted()
	RecordStatsUpdateLatency(1.5)
	RecordLeaderboardUpdate()
	RecordLeaderboardSkipped()
	RecordLeaderboardError()
	RecordAggregationError()
	UpdateIndexPlayers(3)
	RecordIndexUpdateLatency(0.2)
	RecordIndexQueryLatency(0.1)
	RecordStorageQueryLatency("sessions.insert", 2.0)
	RecordStorageError("sessions.insert")
	UpdateQueueSize(10)
	UpdateQueueCapacity(100)
	UpdateQueueUtilization(0.1)
	RecordQueueEnqueue()
	RecordQueueDequeue()
	RecordQueueEnqueueError()
	UpdateWorkerCount(4)
	RecordWorkerProcessingLatency(3.0)
	RecordWorkerError()
	RecordHTTPRequest("sessions", "POST", "202")
	RecordHTTPRequestDuration("sessions", "POST", "202", 4.2)
	UpdateSystemMemoryUsage(1024)
	UpdateSystemGoroutineCount(12)
	RecordSystemGCPauseTime(0.5)
}

func TestGetRegistry(t *testing.T) {
	reg := GetRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("expected registered metric families")
	}
}
