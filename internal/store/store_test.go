package store

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()

	if _, ok, err := kv.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok:%v err:%v, want not found", ok, err)
	}

	if err := kv.Set("subscriptions", `[]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set("subscriptions", `[{"id":"a"}]`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := kv.Get("subscriptions")
	if err != nil || !ok || v != `[{"id":"a"}]` {
		t.Fatalf("Get = %q ok:%v err:%v", v, ok, err)
	}

	wrote, err := kv.SetIfAbsent("reminder:a:2026-03-10", "1")
	if err != nil || !wrote {
		t.Fatalf("first SetIfAbsent = %v, %v; want true", wrote, err)
	}
	wrote, err = kv.SetIfAbsent("reminder:a:2026-03-10", "2")
	if err != nil || wrote {
		t.Fatalf("second SetIfAbsent = %v, %v; want false", wrote, err)
	}
	if err := kv.Set("reminder:b:2026-04-01", "1"); err != nil {
		t.Fatal(err)
	}

	keys, err := kv.Keys("reminder:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"reminder:a:2026-03-10", "reminder:b:2026-04-01"}
	if !slices.Equal(keys, want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}

	if err := kv.Delete("reminder:a:2026-03-10"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := kv.Delete("never-existed"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	keys, _ = kv.Keys("reminder:")
	if len(keys) != 1 {
		t.Fatalf("Keys after delete = %v", keys)
	}
}

func TestSQLiteKV(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "subtrack.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = db.Close() }()

	exerciseKV(t, db)
}

func TestSQLiteKVPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subtrack.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Set("preferences", `{"currency":"EUR"}`); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	v, ok, err := db.Get("preferences")
	if err != nil || !ok || v != `{"currency":"EUR"}` {
		t.Fatalf("Get after reopen = %q ok:%v err:%v", v, ok, err)
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestMemoryFailWrites(t *testing.T) {
	m := NewMemory()
	boom := errors.New("disk full")
	m.SetFailWrites(boom)
	if err := m.Set("k", "v"); !errors.Is(err, boom) {
		t.Fatalf("Set err = %v, want %v", err, boom)
	}
	m.SetFailWrites(nil)
	if err := m.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	_ = m.Close()
	if _, _, err := m.Get("k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after close err = %v", err)
	}
}
