package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"savestate-server/internal/domain"
	"savestate-server/internal/infrastructure/storage"
)

func TestPutGetSlot(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	snap := domain.NewSnapshot()
	snap.Upsert(domain.SnapshotEntry{ObjectID: 1, DataTypeID: 1, Payload: []byte("p1")})
	snap.Upsert(domain.SnapshotEntry{ObjectID: 2, DataTypeID: 1, Payload: []byte("p2")})
	data, err := storage.EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if err := store.Put(ctx, "slot1", data); err != nil {
		t.Fatalf("put slot: %v", err)
	}

	slot, err := store.Get(ctx, "slot1")
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if !bytes.Equal(slot.Data, data) {
		t.Fatal("slot data differs from stored blob")
	}
	if slot.EntryCount != 2 {
		t.Fatalf("entry count = %d, want 2", slot.EntryCount)
	}
	if slot.Size != len(data) {
		t.Fatalf("size = %d, want %d", slot.Size, len(data))
	}
}

func TestPutOverwritesSlot(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	first, _ := storage.EncodeSnapshot(domain.NewSnapshot())
	snap := domain.NewSnapshot()
	snap.Upsert(domain.SnapshotEntry{ObjectID: 9, DataTypeID: 3})
	second, _ := storage.EncodeSnapshot(snap)

	if err := store.Put(ctx, "autosave", first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := store.Put(ctx, "autosave", second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	slots, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("slots len = %d, want 1", len(slots))
	}
	if slots[0].EntryCount != 1 {
		t.Fatalf("entry count = %d, want 1", slots[0].EntryCount)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	data, _ := storage.EncodeSnapshot(domain.NewSnapshot())

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	if err := store.Put(ctx, "old", data); err != nil {
		t.Fatalf("put old: %v", err)
	}
	store.now = func() time.Time { return now.Add(time.Hour) }
	if err := store.Put(ctx, "new", data); err != nil {
		t.Fatalf("put new: %v", err)
	}

	slots, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("slots len = %d, want 2", len(slots))
	}
	if slots[0].Name != "new" || slots[1].Name != "old" {
		t.Fatalf("order = [%s %s], want [new old]", slots[0].Name, slots[1].Name)
	}
	if !slots[0].SavedAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("saved at = %v", slots[0].SavedAt)
	}
}

func TestDeleteSlot(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	data, _ := storage.EncodeSnapshot(domain.NewSnapshot())

	if err := store.Put(ctx, "slot1", data); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "slot1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "slot1"); !errors.Is(err, storage.ErrSlotNotFound) {
		t.Fatalf("get after delete = %v, want ErrSlotNotFound", err)
	}
	if err := store.Delete(ctx, "slot1"); !errors.Is(err, storage.ErrSlotNotFound) {
		t.Fatalf("second delete = %v, want ErrSlotNotFound", err)
	}
}

func TestPutValidation(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "slot1", []byte("garbage")); err == nil {
		t.Fatal("expected error for non-snapshot blob")
	}
	data, _ := storage.EncodeSnapshot(domain.NewSnapshot())
	if err := store.Put(ctx, "bad name", data); !errors.Is(err, storage.ErrInvalidSlotName) {
		t.Fatalf("put with bad name = %v, want ErrInvalidSlotName", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slots.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
