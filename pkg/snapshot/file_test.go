package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Load(ctx, "dockerhub-stats"); err != nil || ok {
		t.Fatalf("Load() on empty store = %v, %v", ok, err)
	}

	if err := store.Save(ctx, "dockerhub-stats", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Save(ctx, "dockerhub-stats", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, ok, err := store.Load(ctx, "dockerhub-stats")
	if err != nil || !ok || string(data) != `{"a":2}` {
		t.Errorf("Load() = %s, %v, %v", data, ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "dockerhub-stats.json")); err != nil {
		t.Errorf("expected snapshot file: %v", err)
	}

	if err := store.Save(ctx, "github-stats", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	names, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "dockerhub-stats" || names[1] != "github-stats" {
		t.Errorf("List() = %v", names)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestFileStore_InvalidName(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", "../escape", ".hidden", `a\b`} {
		if err := store.Save(context.Background(), name, []byte(`{}`)); err == nil {
			t.Errorf("Save(%q) succeeded, want error", name)
		}
	}
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	doc, err := Load(ctx, store, "missing", "")
	if err != nil || doc != nil {
		t.Fatalf("Load(missing) = %v, %v", doc, err)
	}

	want := &Document{LastUpdated: "T0", Totals: map[string]int64{"total_pulls": 5}, Records: map[string]Record{"ns/a": {"pull_count": 5}}}
	if err := Save(ctx, store, "dockerhub-stats", want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load(ctx, store, "dockerhub-stats", "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.LastUpdated != "T0" || !Equal(got.Records, want.Records) {
		t.Errorf("Load() = %+v", got)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Options{Backend: "s3"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
