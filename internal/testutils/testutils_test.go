package testutils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockTrack(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	points := MockTrack(5, start)

	if len(points) != 5 {
		t.Fatalf("Expected 5 points, got %d", len(points))
	}

	for i, p := range points {
		if p.Latitude != float64(i) {
			t.Errorf("Point %d: expected latitude %d, got %v", i, i, p.Latitude)
		}
		if !p.Timestamp.Equal(start.Add(time.Duration(i) * time.Second)) {
			t.Errorf("Point %d: unexpected timestamp %v", i, p.Timestamp)
		}
		if p.Altitude == nil {
			t.Errorf("Point %d: expected altitude", i)
		}
	}
}

func TestMockWing(t *testing.T) {
	wing := MockWing()

	if wing.ID == "" || wing.Name == "" {
		t.Errorf("Expected populated wing, got %+v", wing)
	}
}

func TestClock(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	if !clock.Now().Equal(start) {
		t.Errorf("Expected %v, got %v", start, clock.Now())
	}

	clock.Advance(90 * time.Second)

	if !clock.Now().Equal(start.Add(90 * time.Second)) {
		t.Errorf("Expected clock to advance 90s, got %v", clock.Now())
	}
}

func TestMemoryBacking(t *testing.T) {
	backing := NewMemoryBacking()
	ctx := context.Background()

	data, err := backing.Get(ctx, "key")
	if err != nil || data != nil {
		t.Fatalf("Expected nil, nil for missing key, got %v, %v", data, err)
	}

	if err := backing.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if !backing.Has("key") {
		t.Error("Expected key to be present")
	}
	if backing.Sets() != 1 {
		t.Errorf("Expected 1 set, got %d", backing.Sets())
	}

	if err := backing.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if backing.Has("key") {
		t.Error("Expected key to be deleted")
	}
	if backing.Deletes() != 1 {
		t.Errorf("Expected 1 delete, got %d", backing.Deletes())
	}

	backing.Put("seeded", []byte("raw"))
	if backing.Sets() != 1 {
		t.Error("Put should not count as a Set")
	}
}

func TestMemoryBacking_InjectedErrors(t *testing.T) {
	backing := NewMemoryBacking()
	boom := errors.New("boom")
	backing.FailSets(boom)
	backing.FailGets(boom)
	backing.FailDeletes(boom)
	ctx := context.Background()

	if err := backing.Set(ctx, "k", nil); !errors.Is(err, boom) {
		t.Errorf("Expected Set error, got %v", err)
	}
	if _, err := backing.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Expected Get error, got %v", err)
	}
	if err := backing.Delete(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Expected Delete error, got %v", err)
	}
}

func TestWaitForCondition_Success(t *testing.T) {
	counter := 0
	condition := func() bool {
		counter++
		return counter >= 3
	}

	if err := WaitForCondition(condition, time.Second); err != nil {
		t.Errorf("WaitForCondition() failed: %v", err)
	}
}

func TestWaitForCondition_Timeout(t *testing.T) {
	err := WaitForCondition(func() bool { return false }, 50*time.Millisecond)
	if err == nil {
		t.Fatal("WaitForCondition() should time out")
	}

	if err.Error() != "timeout waiting for condition" {
		t.Errorf("Unexpected error: %v", err)
	}
}
