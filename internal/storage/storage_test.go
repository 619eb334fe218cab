package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

// exercise runs the KV contract against any implementation.
func exercise(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := kv.Load(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}

	if err := kv.Save(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := kv.Load(ctx, "k")
	if err != nil || !ok || !bytes.Equal(got, []byte(`{"a":1}`)) {
		t.Fatalf("unexpected load: %q ok=%v err=%v", got, ok, err)
	}

	// last full write wins
	if err := kv.Save(ctx, "k", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = kv.Load(ctx, "k")
	if string(got) != `[]` {
		t.Fatalf("expected overwrite, got %q", got)
	}

	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Load(ctx, "k"); ok {
		t.Fatalf("expected key gone after delete")
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("deleting a missing key should not fail: %v", err)
	}
}

func TestMemoryKV(t *testing.T) {
	exercise(t, NewMemoryKV())
}

func TestMemoryKVCopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	buf := []byte("abc")
	_ = kv.Save(context.Background(), "k", buf)
	buf[0] = 'z'
	got, _, _ := kv.Load(context.Background(), "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
	got[1] = 'z'
	again, _, _ := kv.Load(context.Background(), "k")
	if string(again) != "abc" {
		t.Fatalf("loaded value aliased stored buffer: %q", again)
	}
}

func TestSQLiteKV(t *testing.T) {
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "nested", "dbudget.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()
	exercise(t, kv)
}

func TestSQLiteKVSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbudget.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kv.Save(context.Background(), "dbudget_user", []byte(`{"id":"u1"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Load(context.Background(), "dbudget_user")
	if err != nil || !ok || string(got) != `{"id":"u1"}` {
		t.Fatalf("unexpected value after reopen: %q ok=%v err=%v", got, ok, err)
	}
}

func TestSQLiteKVClosed(t *testing.T) {
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "dbudget.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = kv.Close()
	if err := kv.Save(context.Background(), "k", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestMigrateKVIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbudget.db")
	for i := 0; i < 2; i++ {
		version, err := migrateKV(path)
		if err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
		if version != 1 {
			t.Fatalf("pass %d: version = %d, want 1", i, version)
		}
	}
}

func TestMigrateKVRefusesDirtySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbudget.db")
	if _, err := migrateKV(path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`UPDATE schema_migrations SET dirty = 1`); err != nil {
		t.Fatalf("mark dirty: %v", err)
	}
	db.Close()

	if _, err := NewSQLiteKV(path); !errors.Is(err, ErrDirtySchema) {
		t.Fatalf("expected ErrDirtySchema, got %v", err)
	}
}
