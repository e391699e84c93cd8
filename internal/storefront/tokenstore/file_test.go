package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFile_RoundTripAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	if err := NewFile(path, "token").Save(ctx, "abc"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := NewFile(path, "token").Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "abc" {
		t.Errorf("token = %q, want abc", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}
}

func TestFile_LoadMissingFile(t *testing.T) {
	store := NewFile(filepath.Join(t.TempDir(), "none.json"), "token")
	got, err := store.Load(context.Background())
	if err != nil || got != "" {
		t.Errorf("Load = %q, %v; want empty, nil", got, err)
	}
}

func TestFile_DeleteKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	a := NewFile(path, "token")
	b := NewFile(path, "other")

	_ = a.Save(ctx, "abc")
	_ = b.Save(ctx, "xyz")
	if err := a.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got, _ := a.Load(ctx); got != "" {
		t.Errorf("deleted token still present: %q", got)
	}
	if got, _ := b.Load(ctx); got != "xyz" {
		t.Errorf("other key = %q, want xyz", got)
	}
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path, "token").Load(context.Background()); err == nil {
		t.Error("Load should fail on a corrupt file")
	}
}
