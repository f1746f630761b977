// Package snapshot defines the unit of state exchanged during
// synchronization and the per-record last-write-wins merge both sides of a
// sync apply independently.
package snapshot

import (
	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/identity"
)

// Snapshot is the pair (all identities, today's attendance records) a
// client or store holds at a point in time.
type Snapshot struct {
	Identities []identity.Identity          `json:"users"`
	Logs       map[string]attendance.Record `json:"logs"`
}

// Empty returns a snapshot with no identities and an empty log map.
// It is also the fallback for corrupt local state.
func Empty() Snapshot {
	return Snapshot{Logs: make(map[string]attendance.Record)}
}

// Merge merges a remote snapshot into this one, per record, and returns
// the result. Neither input is modified.
func (s Snapshot) Merge(remote Snapshot) Snapshot {
	return Snapshot{
		Identities: MergeIdentities(s.Identities, remote.Identities),
		Logs:       MergeLogs(s.Logs, remote.Logs),
	}
}
