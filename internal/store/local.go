package store

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/snapshot"
)

// Local is the typed view of a client's KV cache: the identity list, the
// per-day attendance logs, the asset cache, and the stable client id used
// as the merge tie-break. The mutex serializes every read-modify-write of
// the snapshot state, so a sync merge and a mark landing at the same time
// commit against each other's result instead of overwriting it.
type Local struct {
	mu  sync.Mutex
	kv  KV
	dim int
}

// NewLocal wraps a KV store. dim is the embedding dimension enforced when
// identities are read back.
func NewLocal(kv KV, dim int) *Local {
	return &Local{kv: kv, dim: dim}
}

// ClientID returns the stable client identifier, creating and persisting
// one on first use.
func (l *Local) ClientID() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, ok, err := l.kv.Get(KeyClientID)
	if err != nil {
		return "", fmt.Errorf("read client id: %w", err)
	}
	if ok && len(raw) > 0 {
		return string(raw), nil
	}
	id := uuid.NewString()
	if err := l.kv.Set(KeyClientID, []byte(id)); err != nil {
		return "", fmt.Errorf("persist client id: %w", err)
	}
	return id, nil
}

// identitiesLocked loads the identity list. A missing key yields an empty
// list; a malformed value is logged and also yields an empty list rather
// than halting. Identities that fail dimension validation are dropped with
// a log line.
func (l *Local) identitiesLocked() []identity.Identity {
	raw, ok, err := l.kv.Get(KeyIdentities)
	if err != nil {
		log.Printf("local store: reading identities: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	var ids []identity.Identity
	if err := json.Unmarshal(raw, &ids); err != nil {
		log.Printf("local store: %v, starting from an empty identity list", ErrCorrupt)
		return nil
	}

	valid := ids[:0]
	for i := range ids {
		if err := ids[i].Validate(l.dim); err != nil {
			log.Printf("local store: dropping identity: %v", err)
			continue
		}
		valid = append(valid, ids[i])
	}
	return valid
}

// Identities loads the identity list.
func (l *Local) Identities() []identity.Identity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.identitiesLocked()
}

func (l *Local) saveIdentitiesLocked(ids []identity.Identity) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode identities: %w", err)
	}
	if err := l.kv.Set(KeyIdentities, raw); err != nil {
		return fmt.Errorf("write identities: %w", err)
	}
	return nil
}

// SaveIdentities persists the full identity list as one write.
func (l *Local) SaveIdentities(ids []identity.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveIdentitiesLocked(ids)
}

// dayLocked loads the attendance book for a day key. Missing or malformed
// state yields an empty book.
func (l *Local) dayLocked(day string) attendance.Book {
	raw, ok, err := l.kv.Get(PrefixLog + day)
	if err != nil {
		log.Printf("local store: reading log %s: %v", day, err)
		return attendance.Book{}
	}
	if !ok {
		return attendance.Book{}
	}

	var book attendance.Book
	if err := json.Unmarshal(raw, &book); err != nil {
		log.Printf("local store: %v, starting log %s empty", ErrCorrupt, day)
		return attendance.Book{}
	}
	return book
}

// Day loads the attendance book for a day key.
func (l *Local) Day(day string) attendance.Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dayLocked(day)
}

func (l *Local) saveDayLocked(day string, book attendance.Book) error {
	raw, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("encode log %s: %w", day, err)
	}
	if err := l.kv.Set(PrefixLog+day, raw); err != nil {
		return fmt.Errorf("write log %s: %w", day, err)
	}
	return nil
}

// SaveDay persists one day's attendance book.
func (l *Local) SaveDay(day string, book attendance.Book) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveDayLocked(day, book)
}

// UpdateDay applies fn to a freshly loaded day book and persists the
// result as one atomic read-modify-write. Marking goes through here so
// no concurrent merge can commit between the read and the write.
func (l *Local) UpdateDay(day string, fn func(attendance.Book)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	book := l.dayLocked(day)
	fn(book)
	return l.saveDayLocked(day, book)
}

// Merge folds a remote snapshot into the local state and persists the
// result, all under one lock: the local side of the merge is re-read at
// commit time, so a mark that landed while the exchange was in flight is
// part of the merge input and wins or loses per record, never by being
// overwritten with stale state. Identities queued for remote deletion are
// kept out of the result so a pull cannot resurrect them.
func (l *Local) Merge(day string, remote snapshot.Snapshot) (snapshot.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	local := snapshot.Snapshot{
		Identities: l.identitiesLocked(),
		Logs:       map[string]attendance.Record(l.dayLocked(day)),
	}
	merged := local.Merge(remote)

	if pending := l.pendingDeletesLocked(); len(pending) > 0 {
		kept := merged.Identities[:0]
		for _, id := range merged.Identities {
			if !slices.Contains(pending, id.ID) {
				kept = append(kept, id)
			}
		}
		merged.Identities = kept
	}

	if err := l.saveIdentitiesLocked(merged.Identities); err != nil {
		return snapshot.Snapshot{}, err
	}
	if err := l.saveDayLocked(day, attendance.Book(merged.Logs)); err != nil {
		return snapshot.Snapshot{}, err
	}
	return merged, nil
}

func (l *Local) pendingDeletesLocked() []string {
	raw, ok, err := l.kv.Get(KeyPendingDeletes)
	if err != nil {
		log.Printf("local store: reading pending deletes: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		log.Printf("local store: %v, dropping pending delete queue", ErrCorrupt)
		return nil
	}
	return ids
}

func (l *Local) savePendingDeletesLocked(ids []string) error {
	if len(ids) == 0 {
		return l.kv.Delete(KeyPendingDeletes)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode pending deletes: %w", err)
	}
	if err := l.kv.Set(KeyPendingDeletes, raw); err != nil {
		return fmt.Errorf("write pending deletes: %w", err)
	}
	return nil
}

// QueueRemoteDelete records that an identity still has to be deleted on
// the server. The entry survives restarts and keeps merges from adopting
// the identity back until ClearRemoteDelete.
func (l *Local) QueueRemoteDelete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending := l.pendingDeletesLocked()
	if slices.Contains(pending, id) {
		return nil
	}
	return l.savePendingDeletesLocked(append(pending, id))
}

// PendingRemoteDeletes lists identity ids whose server-side delete has
// not succeeded yet.
func (l *Local) PendingRemoteDeletes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pendingDeletesLocked()
}

// ClearRemoteDelete drops a queue entry after the server confirmed the
// delete.
func (l *Local) ClearRemoteDelete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending := l.pendingDeletesLocked()
	kept := slices.DeleteFunc(pending, func(p string) bool { return p == id })
	return l.savePendingDeletesLocked(kept)
}

// SaveAsset caches an identity's binary asset locally.
func (l *Local) SaveAsset(identityID string, data []byte) error {
	if err := l.kv.Set(PrefixAsset+identityID, data); err != nil {
		return fmt.Errorf("write asset %s: %w", identityID, err)
	}
	return nil
}

// Asset returns a cached asset by identity id.
func (l *Local) Asset(identityID string) ([]byte, bool) {
	raw, ok, err := l.kv.Get(PrefixAsset + identityID)
	if err != nil {
		log.Printf("local store: reading asset %s: %v", identityID, err)
		return nil, false
	}
	return raw, ok
}

// DeleteAsset drops a cached asset.
func (l *Local) DeleteAsset(identityID string) error {
	return l.kv.Delete(PrefixAsset + identityID)
}

// AssetIDs lists identity ids with a locally cached asset.
func (l *Local) AssetIDs() []string {
	keys, err := l.kv.Keys(PrefixAsset)
	if err != nil {
		log.Printf("local store: listing assets: %v", err)
		return nil
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, PrefixAsset))
	}
	return ids
}

// Wipe removes identities, every day's log, every cached asset, and the
// pending delete queue. This is the only path that deletes attendance
// records.
func (l *Local) Wipe() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range []string{KeyIdentities, KeyPendingDeletes} {
		if err := l.kv.Delete(key); err != nil {
			return fmt.Errorf("wipe %s: %w", key, err)
		}
	}
	for _, prefix := range []string{PrefixLog, PrefixAsset} {
		keys, err := l.kv.Keys(prefix)
		if err != nil {
			return fmt.Errorf("wipe %s: %w", prefix, err)
		}
		for _, k := range keys {
			if err := l.kv.Delete(k); err != nil {
				return fmt.Errorf("wipe %s: %w", k, err)
			}
		}
	}
	return nil
}
