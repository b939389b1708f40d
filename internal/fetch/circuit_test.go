package fetch

import (
	"testing"
	"time"
)

func TestCircuitOpensAfterThreshold(t *testing.T) {
	reg := NewCircuitRegistry(3, time.Minute)

	for i := 0; i < 2; i++ {
		reg.RecordFailure("r1")
		if got := reg.State("r1"); got != CircuitClosed {
			t.Fatalf("after %d failures state = %s, want closed", i+1, got)
		}
	}

	reg.RecordFailure("r1")
	if got := reg.State("r1"); got != CircuitOpen {
		t.Fatalf("after threshold state = %s, want open", got)
	}
	if reg.Allow("r1") {
		t.Fatalf("open circuit should not admit requests")
	}
}

func TestCircuitSuccessResetsStreak(t *testing.T) {
	reg := NewCircuitRegistry(3, time.Minute)

	reg.RecordFailure("r1")
	reg.RecordFailure("r1")
	reg.RecordSuccess("r1")
	reg.RecordFailure("r1")
	reg.RecordFailure("r1")

	if got := reg.State("r1"); got != CircuitClosed {
		t.Fatalf("state = %s, want closed (streak should have reset)", got)
	}
}

func TestCircuitHalfOpenProbe(t *testing.T) {
	reg := NewCircuitRegistry(1, 10*time.Second)
	now := time.Unix(1000, 0)
	reg.now = func() time.Time { return now }

	reg.RecordFailure("r1")
	if reg.Allow("r1") {
		t.Fatalf("circuit should be open")
	}

	// cooldown elapses
	now = now.Add(11 * time.Second)
	if !reg.Allow("r1") {
		t.Fatalf("half-open should admit one probe")
	}
	if reg.Allow("r1") {
		t.Fatalf("second probe admitted while first is in flight")
	}

	// probe succeeds -> closed
	reg.RecordSuccess("r1")
	if got := reg.State("r1"); got != CircuitClosed {
		t.Fatalf("state = %s, want closed after probe success", got)
	}
}

func TestCircuitHalfOpenProbeFailureReopens(t *testing.T) {
	reg := NewCircuitRegistry(1, 10*time.Second)
	now := time.Unix(1000, 0)
	reg.now = func() time.Time { return now }

	reg.RecordFailure("r1")
	now = now.Add(11 * time.Second)
	if !reg.Allow("r1") {
		t.Fatalf("half-open should admit one probe")
	}

	reg.RecordFailure("r1")
	if got := reg.State("r1"); got != CircuitOpen {
		t.Fatalf("state = %s, want open after probe failure", got)
	}
	if reg.Allow("r1") {
		t.Fatalf("re-opened circuit should not admit requests before cooldown")
	}
}

func TestSnapshotReportsCooldown(t *testing.T) {
	reg := NewCircuitRegistry(1, 30*time.Second)
	now := time.Unix(1000, 0)
	reg.now = func() time.Time { return now }

	reg.RecordFailure("r1")
	now = now.Add(10 * time.Second)

	snap := reg.Snapshot()
	h, ok := snap["r1"]
	if !ok {
		t.Fatalf("route missing from snapshot")
	}
	if h.State != CircuitOpen {
		t.Fatalf("snapshot state = %s, want open", h.State)
	}
	if h.CooldownLeft < 19 || h.CooldownLeft > 21 {
		t.Fatalf("cooldown left = %.1f, want ~20s", h.CooldownLeft)
	}
}
