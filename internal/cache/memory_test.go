package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || !bytes.Equal(got, []byte("value")) {
		t.Errorf("got (%q, %v)", got, found)
	}
}

func TestMemory_MissingKey(t *testing.T) {
	t.Parallel()

	_, found, err := NewMemory().Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("absent key reported as found")
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, found, _ := m.Get(ctx, "k"); !found {
		t.Fatal("entry missing before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, found, _ := m.Get(ctx, "k"); found {
		t.Error("entry survived past its TTL")
	}
}

func TestMemory_ReturnedValueDoesNotAliasStore(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("abc"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _, _ := m.Get(ctx, "k")
	got[0] = 'z'

	fresh, _, _ := m.Get(ctx, "k")
	if !bytes.Equal(fresh, []byte("abc")) {
		t.Error("cache state was aliased by a returned value")
	}
}
