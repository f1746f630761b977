// Package identity defines the enrolled person model and the fixed-length
// embedding vector type shared by the matcher, resolver, and sync layers.
package identity

import (
	"errors"
	"fmt"
	"time"
)

// Embedding is a fixed-length real-valued face descriptor produced by the
// external vision subsystem. All embeddings flowing through the system must
// share the same dimensionality, validated at every ingestion boundary.
type Embedding []float64

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Validate checks the embedding against the expected dimension.
func (e Embedding) Validate(dim int) error {
	if len(e) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(e), dim)
	}
	return nil
}

// Clone returns an independent copy of the embedding.
func (e Embedding) Clone() Embedding {
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// Identity is an enrolled person holding one or more reference embeddings,
// one per captured head pose.
type Identity struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Entity      string      `json:"entity"`
	Embeddings  []Embedding `json:"descriptors"`
	DuplicateOf string      `json:"duplicateOf,omitempty"`
	CreatedAt   time.Time   `json:"timestamp"`
	LastUpdated int64       `json:"lastUpdated"`
	HasImage    bool        `json:"hasImage"`
	Origin      string      `json:"origin,omitempty"`
}

// Validate checks structural invariants: non-empty id, at least one
// reference embedding, and uniform dimensionality across all of them.
func (id *Identity) Validate(dim int) error {
	if id.ID == "" {
		return errors.New("identity has empty id")
	}
	if len(id.Embeddings) == 0 {
		return fmt.Errorf("identity %s has no reference embeddings", id.ID)
	}
	for i, emb := range id.Embeddings {
		if err := emb.Validate(dim); err != nil {
			return fmt.Errorf("identity %s embedding %d: %w", id.ID, i, err)
		}
	}
	return nil
}

// Touch stamps the record as modified now by the given client.
func (id *Identity) Touch(origin string, now time.Time) {
	id.LastUpdated = now.UnixMilli()
	id.Origin = origin
}
