// Package duplicate flags likely re-registrations. Flags are a weak,
// non-blocking signal: enrollment always proceeds and only an admin
// adjudicates a flagged identity.
package duplicate

import (
	"context"
	"runtime"
	"sort"

	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/match"
)

// DefaultThreshold is the same-person distance used for duplicate
// detection. It is deliberately tighter than the attendance match
// threshold, roughly half the distance budget.
const DefaultThreshold = 0.3

// yieldEvery is how many pairwise comparisons a batch scan performs
// between cooperative yields.
const yieldEvery = 256

// Resolver detects probable duplicates at a fixed same-person threshold.
type Resolver struct {
	threshold float64
}

// NewResolver creates a resolver. A non-positive threshold selects the
// default.
func NewResolver(threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{threshold: threshold}
}

// CheckEnrollment decides whether a just-captured probe for a candidate new
// identity looks like an existing person. It returns the matched label to
// store in duplicateOf, or "" when the capture is clean. A match against an
// identity with the same display name is not a duplicate, it is the same
// person re-captured.
func (r *Resolver) CheckEnrollment(probe identity.Embedding, name string, existing []identity.Identity) string {
	m := match.New(existing, match.WithThreshold(r.threshold))
	res, err := m.Match(probe)
	if err != nil || res.Unknown {
		return ""
	}
	if identity.NormalizeName(res.Identity.Name) == identity.NormalizeName(name) {
		return ""
	}
	return res.Identity.Name
}

// ScanResult reports the outcome of a retroactive batch scan.
type ScanResult struct {
	Identities []identity.Identity // full set with flags applied
	Flagged    int                 // newly flagged count
	Compared   int                 // pairwise comparisons performed
}

// Progress receives the number of identities examined so far. Used by the
// CLI to drive a progress bar; may be nil.
type Progress func(done, total int)

// Scan runs the retroactive duplicate scan over the whole identity set.
// Identities are ordered by creation time ascending, the earliest being
// the presumed canonical record. Each identity not already flagged is
// compared against all strictly earlier identities in order and flagged
// with the first same-person hit; later, possibly closer candidates are
// not considered. Unflagged identities are left alone.
//
// The scan is CPU-bound and cooperative: it checks ctx and yields the
// processor periodically instead of blocking its thread. The caller commits
// the returned set as a single snapshot write.
func (r *Resolver) Scan(ctx context.Context, ids []identity.Identity, progress Progress) (ScanResult, error) {
	out := make([]identity.Identity, len(ids))
	copy(out, ids)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	res := ScanResult{Identities: out}
	sinceYield := 0

	for i := range out {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if progress != nil {
			progress(i, len(out))
		}
		if out[i].DuplicateOf != "" || len(out[i].Embeddings) == 0 {
			continue
		}

		probe := out[i].Embeddings[0]
		for j := 0; j < i; j++ {
			prev := &out[j]
			if len(prev.Embeddings) == 0 {
				continue
			}

			res.Compared++
			sinceYield++
			if sinceYield >= yieldEvery {
				sinceYield = 0
				if err := ctx.Err(); err != nil {
					return res, err
				}
				runtime.Gosched()
			}

			if match.IdentityDistance(prev, probe) < r.threshold {
				out[i].DuplicateOf = prev.Name
				res.Flagged++
				break
			}
		}
	}
	if progress != nil {
		progress(len(out), len(out))
	}
	return res, nil
}
