// Package syncer keeps a device's local cache and the store server
// convergent. Every exchange is a full snapshot for one day, merged per
// record on both sides, so clients can stay offline for arbitrary
// stretches and still reconcile.
package syncer

import (
	"context"
	"fmt"
	"log"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/snapshot"
	"github.com/faceguard/faceguard/internal/store"
)

// Syncer pushes and pulls day snapshots between the local store and the
// server. All methods tolerate server unavailability, a failed exchange
// leaves the local state untouched and is retried on the next cycle.
type Syncer struct {
	client *Client
	local  *store.Local
}

func New(client *Client, local *store.Local) *Syncer {
	return &Syncer{client: client, local: local}
}

// localSnapshot assembles the snapshot of local state for the given day.
func (s *Syncer) localSnapshot(day string) snapshot.Snapshot {
	return snapshot.Snapshot{
		Identities: s.local.Identities(),
		Logs:       map[string]attendance.Record(s.local.Day(day)),
	}
}

// adopt merges a server snapshot into the local state and persists the
// result. The store commits the merge against freshly read local state
// under its own lock, so a mark that raced the exchange wins or loses
// per record, same as on the server.
func (s *Syncer) adopt(day string, remote snapshot.Snapshot) error {
	if _, err := s.local.Merge(day, remote); err != nil {
		return fmt.Errorf("merge snapshot: %w", err)
	}
	return nil
}

// Pull fetches the server snapshot for the day and merges it locally
// without pushing anything. Used at startup to pick up remote state
// before the first detection.
func (s *Syncer) Pull(ctx context.Context, day string) error {
	remote, err := s.client.Pull(ctx, day)
	if err != nil {
		return fmt.Errorf("pull snapshot: %w", err)
	}
	return s.adopt(day, *remote)
}

// Push sends the local snapshot for the day and merges the server's
// response back. One successful Push leaves both sides identical for
// that day.
func (s *Syncer) Push(ctx context.Context, day string) error {
	merged, err := s.client.Push(ctx, day, s.localSnapshot(day))
	if err != nil {
		return fmt.Errorf("push snapshot: %w", err)
	}
	return s.adopt(day, *merged)
}

// SweepAssets uploads locally queued binary assets. An asset that fails
// to upload stays queued for the next sweep, a successful upload removes
// it from the queue.
func (s *Syncer) SweepAssets(ctx context.Context) {
	for _, id := range s.local.AssetIDs() {
		data, ok := s.local.Asset(id)
		if !ok {
			continue
		}
		if err := s.client.UploadAsset(ctx, id, store.AssetProfile, data); err != nil {
			log.Printf("sync: asset %s deferred: %v", id, err)
			continue
		}
		if err := s.local.DeleteAsset(id); err != nil {
			log.Printf("sync: dequeue asset %s: %v", id, err)
		}
	}
}

// SweepDeletes retries server-side deletes that failed earlier. Entries
// stay queued until the server confirms, so the identity cannot come back
// through a pull in the meantime.
func (s *Syncer) SweepDeletes(ctx context.Context) {
	for _, id := range s.local.PendingRemoteDeletes() {
		if err := s.client.DeleteIdentity(ctx, id); err != nil {
			log.Printf("sync: delete %s deferred: %v", id, err)
			continue
		}
		if err := s.local.ClearRemoteDelete(id); err != nil {
			log.Printf("sync: dequeue delete %s: %v", id, err)
		}
	}
}

// Cycle runs one full synchronization pass for the day. Failures are
// logged and deferred, the agent keeps recognizing offline.
func (s *Syncer) Cycle(ctx context.Context, day string) {
	s.SweepDeletes(ctx)
	if err := s.Push(ctx, day); err != nil {
		log.Printf("sync: %v", err)
		return
	}
	s.SweepAssets(ctx)
}

// DeleteRemote removes an identity from the server store. The id is
// queued first, so a failed request is retried on later cycles instead
// of letting the next pull resurrect the identity.
func (s *Syncer) DeleteRemote(ctx context.Context, id string) error {
	if err := s.local.QueueRemoteDelete(id); err != nil {
		return fmt.Errorf("queue delete %s: %w", id, err)
	}
	if err := s.client.DeleteIdentity(ctx, id); err != nil {
		return err
	}
	return s.local.ClearRemoteDelete(id)
}

// WipeRemote clears the whole server store.
func (s *Syncer) WipeRemote(ctx context.Context) error {
	return s.client.Wipe(ctx)
}
