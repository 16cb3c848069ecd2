package memstore

import (
	"bytes"
	"fmt"
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	s := New(8)
	ctx := t.Context()

	if err := s.Set(ctx, "a", []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || !bytes.Equal(val, []byte("payload")) {
		t.Errorf("Get = %q, %v", val, ok)
	}

	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Error("hit for a key never set")
	}
}

func TestTTLExpiry(t *testing.T) {
	s := New(8)
	ctx := t.Context()

	clock := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	if err := s.Set(ctx, "a", []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	clock = clock.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("entry survived past its TTL")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s := New(8)
	ctx := t.Context()
	s.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

	if err := s.Set(ctx, "a", []byte("x"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a"); !ok {
		t.Error("zero-TTL entry expired")
	}
}

func TestDeletePrefix(t *testing.T) {
	s := New(16)
	ctx := t.Context()

	for i := 0; i < 3; i++ {
		_ = s.Set(ctx, fmt.Sprintf("gfs:v1:20260120:00:%d", i), []byte("x"), 0)
	}
	_ = s.Set(ctx, "gfs:v1:20260120:06:0", []byte("x"), 0)

	n, err := s.DeletePrefix(ctx, "gfs:v1:20260120:00:")
	if err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d keys, want 3", n)
	}
	if _, ok, _ := s.Get(ctx, "gfs:v1:20260120:06:0"); !ok {
		t.Error("sibling run was invalidated too")
	}
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	s := New(2)
	ctx := t.Context()

	_ = s.Set(ctx, "a", []byte("1"), 0)
	_ = s.Set(ctx, "b", []byte("2"), 0)
	_ = s.Set(ctx, "c", []byte("3"), 0)

	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("oldest entry survived past capacity")
	}
	if _, ok, _ := s.Get(ctx, "c"); !ok {
		t.Error("newest entry evicted")
	}
}
