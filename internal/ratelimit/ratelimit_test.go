package ratelimit

import (
	"errors"
	"testing"
)

func TestAllowWithinBurst(t *testing.T) {
	p := New(10, 3)
	for i := 0; i < 3; i++ {
		if err := p.Allow("1.2.3.4"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if err := p.Allow("1.2.3.4"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("over burst: %v", err)
	}
}

func TestCallersAreIndependent(t *testing.T) {
	p := New(10, 1)
	if err := p.Allow("a"); err != nil {
		t.Fatal(err)
	}
	if err := p.Allow("a"); !errors.Is(err, ErrRateLimited) {
		t.Fatal("caller a should be limited")
	}
	if err := p.Allow("b"); err != nil {
		t.Fatalf("caller b should have its own budget: %v", err)
	}
}
