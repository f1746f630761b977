package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/snapshot"
	"github.com/faceguard/faceguard/internal/store"
	"github.com/faceguard/faceguard/internal/store/mock"
)

// testServer exposes the sync API over an in-memory snapshot, mirroring
// the real handler contract: GET returns the day snapshot, POST merges
// the pushed snapshot and returns the result.
type testServer struct {
	mu          sync.Mutex
	state       snapshot.Snapshot
	assets      map[string][]byte
	deleteFails int
}

func newTestServer() *testServer {
	return &testServer{state: snapshot.Empty(), assets: make(map[string][]byte)}
}

func (ts *testServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		if r.Method == http.MethodPost {
			var pushed snapshot.Snapshot
			if err := json.NewDecoder(r.Body).Decode(&pushed); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			ts.state = ts.state.Merge(pushed)
		}
		_ = json.NewEncoder(w).Encode(ts.state)
	})
	mux.HandleFunc("/api/assets", func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		var payload struct {
			ID   string `json:"id"`
			Data string `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts.assets[payload.ID] = []byte(payload.Data)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/identities/", func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if ts.deleteFails > 0 {
			ts.deleteFails--
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/identities/")
		kept := ts.state.Identities[:0]
		for _, rec := range ts.state.Identities {
			if rec.ID != id {
				kept = append(kept, rec)
			}
		}
		ts.state.Identities = kept
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return mux
}

func newSyncer(t *testing.T, serverURL string) (*Syncer, *store.Local) {
	t.Helper()
	local := store.NewLocal(mock.NewKV(), 2)
	client, err := NewClient(serverURL, "client-test")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return New(client, local), local
}

func TestSyncer_PushThenPullConverges(t *testing.T) {
	srv := httptest.NewServer(newTestServer().handler())
	defer srv.Close()
	day := "2025-06-02"

	a, localA := newSyncer(t, srv.URL)
	b, localB := newSyncer(t, srv.URL)

	if err := localA.SaveIdentities([]identity.Identity{{
		ID:          "Asha_001",
		Name:        "Asha",
		Embeddings:  []identity.Embedding{{0.1, 0.2}},
		LastUpdated: 100,
		Origin:      "client-a",
	}}); err != nil {
		t.Fatal(err)
	}
	book := attendance.Book{}
	book.Mark("Asha", "Malkajgiri", attendance.IntentAuto, "client-a", time.Now())
	if err := localA.SaveDay(day, book); err != nil {
		t.Fatal(err)
	}

	if err := a.Push(context.Background(), day); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := b.Pull(context.Background(), day); err != nil {
		t.Fatalf("pull: %v", err)
	}

	got := localB.Identities()
	if len(got) != 1 || got[0].ID != "Asha_001" {
		t.Errorf("expected Asha on the second device, got %+v", got)
	}
	if _, ok := localB.Day(day)["Asha"]; !ok {
		t.Error("expected Asha's record on the second device")
	}
}

func TestSyncer_PushMergesServerStateBack(t *testing.T) {
	ts := newTestServer()
	ts.state.Identities = []identity.Identity{{
		ID:          "Ravi_001",
		Name:        "Ravi",
		LastUpdated: 50,
		Origin:      "client-b",
	}}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	s, local := newSyncer(t, srv.URL)
	if err := local.SaveIdentities([]identity.Identity{{
		ID:          "Asha_001",
		Name:        "Asha",
		LastUpdated: 100,
		Origin:      "client-a",
	}}); err != nil {
		t.Fatal(err)
	}

	if err := s.Push(context.Background(), "2025-06-02"); err != nil {
		t.Fatalf("push: %v", err)
	}

	if got := local.Identities(); len(got) != 2 {
		t.Errorf("expected both identities after the exchange, got %d", len(got))
	}
}

func TestSyncer_FailedPushLeavesLocalUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s, local := newSyncer(t, srv.URL)
	if err := local.SaveIdentities([]identity.Identity{{ID: "Asha_001", Name: "Asha"}}); err != nil {
		t.Fatal(err)
	}

	if err := s.Push(context.Background(), "2025-06-02"); err == nil {
		t.Fatal("expected an error from an unavailable server")
	}
	if got := local.Identities(); len(got) != 1 {
		t.Errorf("local state must survive a failed push, got %d identities", len(got))
	}
}

func TestSyncer_SweepAssetsDequeuesOnSuccess(t *testing.T) {
	ts := newTestServer()
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	s, local := newSyncer(t, srv.URL)
	if err := local.SaveAsset("Asha_001", []byte("jpeg")); err != nil {
		t.Fatal(err)
	}

	s.SweepAssets(context.Background())

	if _, ok := ts.assets["Asha_001"]; !ok {
		t.Error("expected the asset on the server")
	}
	if ids := local.AssetIDs(); len(ids) != 0 {
		t.Errorf("expected the upload queue drained, got %v", ids)
	}
}

func TestSyncer_SweepAssetsKeepsQueueOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no", http.StatusBadGateway)
	}))
	defer srv.Close()

	s, local := newSyncer(t, srv.URL)
	if err := local.SaveAsset("Asha_001", []byte("jpeg")); err != nil {
		t.Fatal(err)
	}

	s.SweepAssets(context.Background())

	if ids := local.AssetIDs(); len(ids) != 1 {
		t.Errorf("failed upload must stay queued, got %v", ids)
	}
}

func TestClient_ResolveURL(t *testing.T) {
	c, err := NewClient("http://localhost:3000/", "client-test")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.resolveURL("sync?day=2025-06-02"); got != "http://localhost:3000/api/sync?day=2025-06-02" {
		t.Errorf("unexpected URL %q", got)
	}
	if got := c.resolveURL("identities", "Asha_001"); got != "http://localhost:3000/api/identities/Asha_001" {
		t.Errorf("unexpected URL %q", got)
	}
}

func TestSyncer_FailedDeleteRetriedNextCycle(t *testing.T) {
	ts := newTestServer()
	ts.state.Identities = []identity.Identity{{
		ID:          "Asha_001",
		Name:        "Asha",
		Embeddings:  []identity.Embedding{{0.1, 0.2}},
		LastUpdated: 100,
	}}
	ts.deleteFails = 1
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	s, local := newSyncer(t, srv.URL)
	ctx := context.Background()

	if err := s.DeleteRemote(ctx, "Asha_001"); err == nil {
		t.Fatal("expected the first delete to fail")
	}
	if got := local.PendingRemoteDeletes(); len(got) != 1 || got[0] != "Asha_001" {
		t.Fatalf("failed delete must stay queued, got %v", got)
	}

	s.Cycle(ctx, "2025-06-02")

	if got := local.PendingRemoteDeletes(); len(got) != 0 {
		t.Errorf("confirmed delete still queued: %v", got)
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.state.Identities) != 0 {
		t.Errorf("identity still on the server: %+v", ts.state.Identities)
	}
}

func TestSyncer_PullDoesNotResurrectQueuedDelete(t *testing.T) {
	ts := newTestServer()
	ts.state.Identities = []identity.Identity{{
		ID:          "Asha_001",
		Name:        "Asha",
		Embeddings:  []identity.Embedding{{0.1, 0.2}},
		LastUpdated: 100,
	}}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	s, local := newSyncer(t, srv.URL)
	if err := local.QueueRemoteDelete("Asha_001"); err != nil {
		t.Fatal(err)
	}

	if err := s.Pull(context.Background(), "2025-06-02"); err != nil {
		t.Fatalf("pull: %v", err)
	}
	if got := local.Identities(); len(got) != 0 {
		t.Errorf("pull resurrected a deleted identity: %+v", got)
	}
}
