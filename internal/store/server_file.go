package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/snapshot"
)

// fileServerData is the on-disk layout of the file-backed server store:
// all identities plus attendance logs partitioned by day key.
type fileServerData struct {
	Users    []identity.Identity                     `json:"users"`
	Logs     map[string]map[string]attendance.Record `json:"logs"`
	LastSync int64                                   `json:"lastSync"`
}

// FileServerStore is a single-file JSON implementation of ServerStore.
// A mutex serializes every read-modify-write, which is the only
// serialization the sync protocol assumes of the store.
type FileServerStore struct {
	path string
	mu   sync.Mutex
}

// NewFileServerStore creates the data file if it does not exist yet.
func NewFileServerStore(path string) (*FileServerStore, error) {
	s := &FileServerStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(fileServerData{Logs: make(map[string]map[string]attendance.Record)}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// read loads the data file, falling back to an empty dataset when the file
// is malformed rather than refusing to serve.
func (s *FileServerStore) read() fileServerData {
	data := fileServerData{Logs: make(map[string]map[string]attendance.Record)}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("server store: reading %s: %v", s.path, err)
		}
		return data
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("server store: %v, starting empty", ErrCorrupt)
		return fileServerData{Logs: make(map[string]map[string]attendance.Record)}
	}
	if data.Logs == nil {
		data.Logs = make(map[string]map[string]attendance.Record)
	}
	return data
}

func (s *FileServerStore) write(data fileServerData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit store: %w", err)
	}
	return nil
}

func (s *FileServerStore) Snapshot(_ context.Context, day string) (snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.read()
	snap := snapshot.Snapshot{
		Identities: data.Users,
		Logs:       data.Logs[day],
	}
	if snap.Logs == nil {
		snap.Logs = make(map[string]attendance.Record)
	}
	return snap, nil
}

func (s *FileServerStore) Merge(_ context.Context, day string, pushed snapshot.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.read()
	data.Users = snapshot.MergeIdentities(data.Users, pushed.Identities)
	data.Logs[day] = snapshot.MergeLogs(data.Logs[day], pushed.Logs)
	data.LastSync = time.Now().UnixMilli()
	return s.write(data)
}

func (s *FileServerStore) DeleteIdentity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.read()
	kept := data.Users[:0]
	for _, u := range data.Users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	data.Users = kept
	return s.write(data)
}

func (s *FileServerStore) Wipe(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(fileServerData{Logs: make(map[string]map[string]attendance.Record)})
}
