package redisstore

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(t.Context(), mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRequiresAddress(t *testing.T) {
	if _, err := New(t.Context(), ""); err == nil {
		t.Fatal("empty address accepted")
	}
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := New(t.Context(), addr, WithDialTimeout(100*time.Millisecond)); err == nil {
		t.Fatal("connected to a closed server")
	}
}

func TestSetGet(t *testing.T) {
	c := newTestClient(t)
	ctx := t.Context()

	if err := c.Set(ctx, "a", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := c.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || !bytes.Equal(val, []byte("payload")) {
		t.Errorf("Get = %q, %v", val, ok)
	}

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Errorf("miss = %v, %v; want clean miss", ok, err)
	}
}

func TestDeletePrefix(t *testing.T) {
	c := newTestClient(t)
	ctx := t.Context()

	for i := 0; i < 300; i++ {
		if err := c.Set(ctx, fmt.Sprintf("gfs:v1:20260120:00:%03d", i), []byte("x"), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := c.Set(ctx, "gfs:v1:20260120:06:000", []byte("x"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	n, err := c.DeletePrefix(ctx, "gfs:v1:20260120:00:")
	if err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if n != 300 {
		t.Errorf("deleted %d keys, want 300", n)
	}
	if _, ok, _ := c.Get(ctx, "gfs:v1:20260120:06:000"); !ok {
		t.Error("sibling run was invalidated too")
	}
}

func TestDeletePrefixEmpty(t *testing.T) {
	c := newTestClient(t)
	n, err := c.DeletePrefix(t.Context(), "nothing:")
	if err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted %d keys from an empty store", n)
	}
}
