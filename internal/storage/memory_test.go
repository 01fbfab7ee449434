package storage

import (
	"context"
	"testing"
)

func TestMemory_RoundTrip(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	_, found, err := kv.Load(ctx, KeyPatients)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Error("expected found=false before any save")
	}

	if err := kv.Save(ctx, KeyPatients, []byte(`[1,2]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, found, err := kv.Load(ctx, KeyPatients)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found || string(data) != `[1,2]` {
		t.Errorf("got found=%v data=%q", found, data)
	}
}

func TestMemory_LoadReturnsCopy(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()
	if err := kv.Save(ctx, KeyUsers, []byte(`[1]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _, _ := kv.Load(ctx, KeyUsers)
	data[0] = 'X'
	again, _, _ := kv.Load(ctx, KeyUsers)
	if string(again) != `[1]` {
		t.Errorf("stored document mutated through returned slice: %q", again)
	}
}
