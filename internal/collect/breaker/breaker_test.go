package breaker

import "testing"

func TestBreaker_TripsAtThreshold(t *testing.T) {
	b := New(5)

	for i := 1; i <= 5; i++ {
		if b.Tripped() {
			t.Fatalf("tripped after %d failures, threshold is 5", i-1)
		}
		b.Record(false)
	}

	if !b.Tripped() {
		t.Fatal("not tripped after 5 consecutive failures")
	}
}

func TestBreaker_SuccessResetsCounter(t *testing.T) {
	b := New(3)

	b.Record(false)
	b.Record(false)
	b.Record(true)
	if b.Consecutive() != 0 {
		t.Errorf("Consecutive() = %d after success, want 0", b.Consecutive())
	}

	b.Record(false)
	b.Record(false)
	if b.Tripped() {
		t.Fatal("tripped at 2 consecutive failures, threshold is 3")
	}
	b.Record(false)
	if !b.Tripped() {
		t.Fatal("not tripped at 3 consecutive failures")
	}
}

func TestBreaker_StickyOnceTripped(t *testing.T) {
	b := New(2)
	b.Record(false)
	b.Record(false)
	if !b.Tripped() {
		t.Fatal("expected trip")
	}

	b.Record(true)
	if !b.Tripped() {
		t.Fatal("success un-tripped the breaker")
	}
}

func TestBreaker_DefaultThreshold(t *testing.T) {
	b := New(0)
	if b.Threshold() != 10 {
		t.Errorf("Threshold() = %d, want default 10", b.Threshold())
	}
}
