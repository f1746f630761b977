package snapshot

import (
	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/identity"
)

// remoteWins decides whether the remote copy of a record replaces the local
// one. The rule is last-write-wins on the update timestamp (missing
// timestamps count as 0), with a deterministic tie-break on the writing
// client's id so that both sides of a sync converge even at numerically
// identical timestamps. Equal origins keep the local copy.
func remoteWins(localUpdated int64, localOrigin string, remoteUpdated int64, remoteOrigin string) bool {
	if remoteUpdated != localUpdated {
		return remoteUpdated > localUpdated
	}
	return remoteOrigin > localOrigin
}

// MergeIdentities merges remote identities into the local list, per record:
// unknown ids are adopted, known ids are replaced only when the remote copy
// wins. Local order is preserved; new records append in remote order. The
// inputs are not modified.
func MergeIdentities(local, remote []identity.Identity) []identity.Identity {
	merged := make([]identity.Identity, len(local))
	copy(merged, local)

	index := make(map[string]int, len(merged))
	for i := range merged {
		index[merged[i].ID] = i
	}

	for _, r := range remote {
		i, ok := index[r.ID]
		if !ok {
			index[r.ID] = len(merged)
			merged = append(merged, r)
			continue
		}
		l := &merged[i]
		if remoteWins(l.LastUpdated, l.Origin, r.LastUpdated, r.Origin) {
			merged[i] = r
		}
	}
	return merged
}

// MergeLogs merges remote attendance records into the local day map with
// the same per-record rule. Records from different days never meet here:
// the caller only ever merges matching day partitions.
func MergeLogs(local, remote map[string]attendance.Record) map[string]attendance.Record {
	merged := make(map[string]attendance.Record, len(local)+len(remote))
	for name, rec := range local {
		merged[name] = rec
	}
	for name, r := range remote {
		l, ok := merged[name]
		if !ok || remoteWins(l.LastUpdated, l.Origin, r.LastUpdated, r.Origin) {
			merged[name] = r
		}
	}
	return merged
}
