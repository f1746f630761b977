// Package store holds the persistence contracts: the key-value cache a
// client keeps its working state in, and the durable server-side snapshot
// store behind the sync API.
package store

import (
	"context"
	"errors"

	"github.com/faceguard/faceguard/internal/snapshot"
)

// Well-known keys and prefixes in the local cache.
const (
	KeyIdentities     = "users"
	KeyClientID       = "client_id"
	KeyPendingDeletes = "pending_deletes"
	PrefixLog         = "attendance_log_"
	PrefixAsset       = "asset/"
)

// ErrCorrupt marks a value that exists but cannot be decoded. Readers fall
// back to an empty state instead of halting.
var ErrCorrupt = errors.New("corrupt stored value")

// KV is the narrow key-value contract the client core persists through.
// Implementations serialize their own read-modify-write; the core never
// assumes more than per-key atomicity.
type KV interface {
	// Get returns the value for key, and whether the key exists.
	Get(key string) ([]byte, bool, error)
	// Set stores the value for key, overwriting any previous value.
	Set(key string, value []byte) error
	// Delete removes the key; deleting an absent key is not an error.
	Delete(key string) error
	// Keys lists all stored keys with the given prefix.
	Keys(prefix string) ([]string, error)
}

// AssetKind distinguishes profile portraits from periodic capture frames.
// It only affects where the bytes land, never merge logic.
type AssetKind string

const (
	AssetProfile AssetKind = "profile"
	AssetCapture AssetKind = "capture"
)

// ServerStore is the durable snapshot store behind the sync API. The store
// serializes its own read-modify-write; cross-client conflicts are resolved
// only by the per-record merge it applies.
type ServerStore interface {
	// Snapshot returns all identities and the given day's attendance log.
	Snapshot(ctx context.Context, day string) (snapshot.Snapshot, error)
	// Merge applies the per-record last-write-wins merge of the pushed
	// snapshot into the store for the given day and persists the union.
	Merge(ctx context.Context, day string, pushed snapshot.Snapshot) error
	// DeleteIdentity removes an identity outright. Merging never deletes;
	// only this explicit admin action does.
	DeleteIdentity(ctx context.Context, id string) error
	// Wipe clears all identities and attendance logs.
	Wipe(ctx context.Context) error
}
