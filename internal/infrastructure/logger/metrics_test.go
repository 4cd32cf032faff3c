package logger

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRecordOperationAccumulates(t *testing.T) {
	ResetStats()
	RecordOperation("apply.stack", nil, 100*time.Millisecond)
	RecordOperation("apply.stack", errors.New("pull failed"), 300*time.Millisecond)

	s, ok := Snapshot()["apply.stack"]
	if !ok {
		t.Fatal("Snapshot() missing apply.stack")
	}
	if s.Total != 2 {
		t.Errorf("Total = %d, want 2", s.Total)
	}
	if s.Failed != 1 {
		t.Errorf("Failed = %d, want 1", s.Failed)
	}
	if s.AvgLatency != 200*time.Millisecond {
		t.Errorf("AvgLatency = %v, want %v", s.AvgLatency, 200*time.Millisecond)
	}
}

func TestTimedOperationPropagatesError(t *testing.T) {
	ResetStats()
	wantErr := errors.New("boom")
	err := TimedOperation(context.Background(), "apply.dns", func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("TimedOperation() error = %v, want %v", err, wantErr)
	}
	if s := Snapshot()["apply.dns"]; s.Failed != 1 {
		t.Errorf("Failed = %d, want 1", s.Failed)
	}
}

func TestResetStatsClears(t *testing.T) {
	RecordOperation("scan", nil, time.Millisecond)
	ResetStats()
	if n := len(Snapshot()); n != 0 {
		t.Errorf("len(Snapshot()) = %d, want 0", n)
	}
}
