package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHandleHealth(t *testing.T) {
	snap := Snapshot{State: "running", Processed: 5, TotalUnits: 10}
	s := NewServer(func() Snapshot { return snap }, 0)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var got Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad health body: %v", err)
	}
	if got.State != "running" || got.Processed != 5 {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if got.ObservedAt.IsZero() {
		t.Error("ObservedAt not stamped")
	}
}

func TestHandleHealth_TrippedIsUnavailable(t *testing.T) {
	s := NewServer(func() Snapshot { return Snapshot{State: "tripped", Tripped: true} }, 0)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestStop_StartReturnsServerClosed(t *testing.T) {
	s := NewServer(func() Snapshot { return Snapshot{} }, 0)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	// Give ListenAndServe a moment to bind before shutting down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case err := <-errCh:
		// The clean-shutdown sentinel; callers must not report it as
		// a failure.
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start returned %v, want http.ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
