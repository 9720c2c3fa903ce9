package consumer

import (
	"testing"
	"time"
)

func TestLimits_StopReasonOrder(t *testing.T) {
	l := Limits{BatchSize: 10, MessageLimit: 5, MaxMemoryBytes: 100, MaxDuration: time.Second}

	over := func() (uint64, bool) { return 200, true }
	under := func() (uint64, bool) { return 50, true }

	tests := []struct {
		name string
		in   limitCheck
		want StopReason
	}{
		{"nothing reached", limitCheck{processed: 1, elapsed: time.Millisecond, resident: under}, StopNone},
		{"all reached, messages first", limitCheck{processed: 5, elapsed: 2 * time.Second, resident: over}, StopMessageLimit},
		{"memory before time", limitCheck{processed: 1, elapsed: 2 * time.Second, resident: over}, StopMemoryLimit},
		{"time strictly greater", limitCheck{processed: 1, elapsed: time.Second, resident: under}, StopNone},
		{"time", limitCheck{processed: 1, elapsed: time.Second + 1, resident: under}, StopTimeLimit},
		{"probe unavailable", limitCheck{processed: 1, resident: func() (uint64, bool) { return 0, false }}, StopNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.stopReason(tt.in); got != tt.want {
				t.Fatalf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLimits_ZeroMeansUnlimited(t *testing.T) {
	l := Limits{BatchSize: 1}
	probed := false
	got := l.stopReason(limitCheck{
		processed: 1 << 40,
		elapsed:   24 * time.Hour,
		resident:  func() (uint64, bool) { probed = true; return 1 << 40, true },
	})
	if got != StopNone {
		t.Fatalf("want no stop, got %q", got)
	}
	if probed {
		t.Fatalf("memory must not be probed without a memory limit")
	}
}

func TestLimits_BatchCompleted(t *testing.T) {
	l := Limits{BatchSize: 3}
	for n, want := range map[uint64]bool{0: false, 1: false, 3: true, 4: false, 6: true} {
		if got := l.batchCompleted(n); got != want {
			t.Fatalf("processed=%d: want %v, got %v", n, want, got)
		}
	}
}

func TestLimits_Validate(t *testing.T) {
	if err := DefaultLimits().Validate(); err != nil {
		t.Fatalf("defaults must be valid: %v", err)
	}
	if err := (Limits{}).Validate(); err == nil {
		t.Fatalf("zero batch size must be rejected")
	}
	if err := (Limits{BatchSize: 1, MaxDuration: -time.Second}).Validate(); err == nil {
		t.Fatalf("negative duration must be rejected")
	}
}

func TestLimits_Describe(t *testing.T) {
	l := Limits{MessageLimit: 7, MaxMemoryBytes: 128 << 20, MaxDuration: 90 * time.Second}

	cases := map[StopReason]string{
		StopMessageLimit: "Maximum number of messages consumed (7)",
		StopMemoryLimit:  "Memory peak of 128MB reached",
		StopTimeLimit:    "Maximum execution time of 90s reached",
	}
	for reason, want := range cases {
		if got := l.describe(reason); got != want {
			t.Fatalf("%s: want %q, got %q", reason, want, got)
		}
	}
}
