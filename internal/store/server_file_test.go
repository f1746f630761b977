package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/snapshot"
	"github.com/faceguard/faceguard/internal/store"
)

func newFileServer(t *testing.T) *store.FileServerStore {
	t.Helper()
	s, err := store.NewFileServerStore(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("new server store: %v", err)
	}
	return s
}

func TestFileServerStore_MergeAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newFileServer(t)

	push := snapshot.Snapshot{
		Identities: []identity.Identity{{
			ID:          "Asha_001",
			Name:        "Asha",
			Embeddings:  []identity.Embedding{{0.1, 0.2}},
			LastUpdated: 100,
			Origin:      "client-a",
		}},
		Logs: map[string]attendance.Record{
			"Asha": {Name: "Asha", Entity: "Malkajgiri", LastUpdated: 100, Origin: "client-a"},
		},
	}
	if err := s.Merge(ctx, "2025-06-02", push); err != nil {
		t.Fatalf("merge: %v", err)
	}

	snap, err := s.Snapshot(ctx, "2025-06-02")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Identities) != 1 || snap.Identities[0].ID != "Asha_001" {
		t.Errorf("expected the pushed identity back, got %+v", snap.Identities)
	}
	if _, ok := snap.Logs["Asha"]; !ok {
		t.Error("expected the pushed log entry back")
	}

	other, err := s.Snapshot(ctx, "2025-06-03")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(other.Logs) != 0 {
		t.Error("logs must be partitioned by day")
	}
	if len(other.Identities) != 1 {
		t.Error("identities are shared across days")
	}
}

func TestFileServerStore_MergeKeepsNewer(t *testing.T) {
	ctx := context.Background()
	s := newFileServer(t)

	newer := identity.Identity{ID: "Asha_001", Name: "Asha", LastUpdated: 200, Origin: "client-a"}
	if err := s.Merge(ctx, "2025-06-02", snapshot.Snapshot{Identities: []identity.Identity{newer}}); err != nil {
		t.Fatal(err)
	}
	stale := identity.Identity{ID: "Asha_001", Name: "Renamed", LastUpdated: 100, Origin: "client-b"}
	if err := s.Merge(ctx, "2025-06-02", snapshot.Snapshot{Identities: []identity.Identity{stale}}); err != nil {
		t.Fatal(err)
	}

	snap, err := s.Snapshot(ctx, "2025-06-02")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Identities[0].Name != "Asha" {
		t.Errorf("stale push must lose, got name %q", snap.Identities[0].Name)
	}
}

func TestFileServerStore_DeleteIdentity(t *testing.T) {
	ctx := context.Background()
	s := newFileServer(t)

	push := snapshot.Snapshot{Identities: []identity.Identity{
		{ID: "Asha_001", Name: "Asha"},
		{ID: "Ravi_001", Name: "Ravi"},
	}}
	if err := s.Merge(ctx, "2025-06-02", push); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteIdentity(ctx, "Asha_001"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	snap, err := s.Snapshot(ctx, "2025-06-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Identities) != 1 || snap.Identities[0].ID != "Ravi_001" {
		t.Errorf("expected only Ravi left, got %+v", snap.Identities)
	}
}

func TestFileServerStore_Wipe(t *testing.T) {
	ctx := context.Background()
	s := newFileServer(t)

	push := snapshot.Snapshot{
		Identities: []identity.Identity{{ID: "Asha_001", Name: "Asha"}},
		Logs:       map[string]attendance.Record{"Asha": {Name: "Asha"}},
	}
	if err := s.Merge(ctx, "2025-06-02", push); err != nil {
		t.Fatal(err)
	}
	if err := s.Wipe(ctx); err != nil {
		t.Fatalf("wipe: %v", err)
	}

	snap, err := s.Snapshot(ctx, "2025-06-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Identities) != 0 || len(snap.Logs) != 0 {
		t.Error("wipe must leave the store empty")
	}
}

func TestFileServerStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := store.NewFileServerStore(path)
	if err != nil {
		t.Fatalf("new server store: %v", err)
	}

	snap, err := s.Snapshot(context.Background(), "2025-06-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Identities) != 0 {
		t.Error("corrupt file must be treated as empty")
	}
}
