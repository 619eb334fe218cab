package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"dbudget/internal/config"
	"dbudget/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    Config
		wantErr bool
	}{
		{
			name: "sqlite",
			cfg:  &config.Config{DataBackend: "sqlite", SQLiteDBPath: "./data/x.db"},
			want: Config{Type: SQLiteBackend, SQLiteDBPath: "./data/x.db"},
		},
		{
			name: "memory",
			cfg:  &config.Config{DataBackend: "memory"},
			want: Config{Type: MemoryBackend},
		},
		{name: "unknown", cfg: &config.Config{DataBackend: "sheets"}, wantErr: true},
		{name: "nil", cfg: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("FromAppConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		if _, ok := res.KV.(*storage.MemoryKV); !ok {
			t.Fatalf("expected a memory store, got %T", res.KV)
		}
		if err := res.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dbudget.db")
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		if err := res.KV.Save(ctx, "k", []byte("v")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := res.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if _, _, err := res.KV.Load(ctx, "k"); err == nil {
			t.Fatalf("expected closed store to fail")
		}
	})

	t.Run("sqlite without path", func(t *testing.T) {
		if _, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend}); err == nil {
			t.Fatalf("expected validation error")
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		if _, err := f.CreateBackend(ctx, Config{Type: "sheets"}); err == nil {
			t.Fatalf("expected error for unknown backend")
		}
	})
}

func TestInvalidBackendListsChoices(t *testing.T) {
	_, err := FromAppConfig(&config.Config{DataBackend: "sheets"})
	if err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	for _, name := range BackendTypeStrings() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %q", err, name)
		}
	}
	if got := BackendTypeStrings(); len(got) != 2 || got[0] != "memory" || got[1] != "sqlite" {
		t.Errorf("BackendTypeStrings() = %v", got)
	}
	if err := (Config{Type: "sheets"}).Validate(); err == nil || !strings.Contains(err.Error(), "memory, sqlite") {
		t.Errorf("Validate() error = %v", err)
	}
}
