// Package match scores probe embeddings against enrolled identities.
// A matcher is built from an identity snapshot and holds no other state;
// callers rebuild it whenever the snapshot changes.
package match

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/faceguard/faceguard/internal/identity"
)

// DefaultThreshold is the maximum Euclidean distance accepted as an
// attendance match in the embedding space used by the vision subsystem.
const DefaultThreshold = 0.6

// Result is the outcome of matching a probe embedding. Distance carries the
// raw best distance even when the result is Unknown, so callers can display
// near-miss confidence.
type Result struct {
	Identity *identity.Identity
	Distance float64
	Unknown  bool
}

// Matcher matches probe embeddings against a fixed identity snapshot.
type Matcher struct {
	ids       []identity.Identity
	threshold float64
	dim       int
	index     *poseIndex
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold overrides the match distance threshold.
func WithThreshold(t float64) Option {
	return func(m *Matcher) { m.threshold = t }
}

// WithIndex enables the approximate nearest-neighbor index once the
// snapshot holds at least min identities. Below the cutover the matcher
// scans linearly; either way the threshold is applied to the exact
// distance, so the accepted set does not depend on the backend.
func WithIndex(min int) Option {
	return func(m *Matcher) {
		if min > 0 && len(m.ids) >= min {
			m.index = buildPoseIndex(m.ids)
		}
	}
}

// New builds a matcher from an identity snapshot. The embedding dimension
// is taken from the snapshot itself; identities whose poses disagree with
// it are skipped rather than allowed to poison every probe.
func New(ids []identity.Identity, opts ...Option) *Matcher {
	m := &Matcher{threshold: DefaultThreshold}
	if len(ids) > 0 && len(ids[0].Embeddings) > 0 {
		m.dim = len(ids[0].Embeddings[0])
	}
	for i := range ids {
		if ids[i].Validate(m.dim) != nil {
			continue
		}
		m.ids = append(m.ids, ids[i])
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the configured match distance threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Size returns the number of identities the matcher was built from.
func (m *Matcher) Size() int { return len(m.ids) }

// Distance is the Euclidean distance between two embeddings of equal
// dimension.
func Distance(a, b identity.Embedding) float64 {
	return floats.Distance(a, b, 2)
}

// IdentityDistance is the distance from a probe to an identity: the minimum
// over its reference poses, so an identity matches if any enrolled angle is
// close. Poses with a foreign dimension are ignored.
func IdentityDistance(id *identity.Identity, probe identity.Embedding) float64 {
	best := math.Inf(1)
	for _, ref := range id.Embeddings {
		if len(ref) != len(probe) {
			continue
		}
		if d := Distance(ref, probe); d < best {
			best = d
		}
	}
	return best
}

// Match returns the enrolled identity nearest to the probe, or an Unknown
// result when the global minimum distance exceeds the threshold.
func (m *Matcher) Match(probe identity.Embedding) (Result, error) {
	if m.dim == 0 {
		return Result{Unknown: true, Distance: math.Inf(1)}, nil
	}
	if err := probe.Validate(m.dim); err != nil {
		return Result{}, fmt.Errorf("probe: %w", err)
	}

	var (
		best     *identity.Identity
		bestDist = math.Inf(1)
	)

	if m.index != nil {
		for _, cand := range m.index.candidates(probe) {
			if d := IdentityDistance(&m.ids[cand], probe); d < bestDist {
				best, bestDist = &m.ids[cand], d
			}
		}
	} else {
		for i := range m.ids {
			if d := IdentityDistance(&m.ids[i], probe); d < bestDist {
				best, bestDist = &m.ids[i], d
			}
		}
	}

	if best == nil || bestDist > m.threshold {
		return Result{Unknown: true, Distance: bestDist}, nil
	}
	return Result{Identity: best, Distance: bestDist}, nil
}

// Confidence maps a match distance to a display percentage in [0,100].
// It decreases monotonically in distance and rescales with the threshold
// without ever reordering two distances.
func (m *Matcher) Confidence(distance float64) float64 {
	if m.threshold <= 0 {
		return 0
	}
	c := (1 - distance/m.threshold) * 100
	return math.Max(0, math.Min(100, c))
}
