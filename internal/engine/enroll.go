package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/vision"
)

// Enrollment collects face captures for one new identity, one embedding
// per required head pose, and commits them as a single record. Nothing
// is persisted before Commit.
type Enrollment struct {
	engine   *Engine
	name     string
	entity   string
	required []vision.Pose
	captured map[vision.Pose]identity.Embedding
	photo    []byte
}

// NewEnrollment starts an enrollment session for a person.
func (e *Engine) NewEnrollment(name, entity string) (*Enrollment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("enrollment needs a non-empty name")
	}
	required := make([]vision.Pose, 0, len(e.cfg.Enrollment.RequiredPoses))
	for _, p := range e.cfg.Enrollment.RequiredPoses {
		required = append(required, vision.Pose(p))
	}
	return &Enrollment{
		engine:   e,
		name:     strings.TrimSpace(name),
		entity:   entity,
		required: required,
		captured: make(map[vision.Pose]identity.Embedding),
	}, nil
}

// Offer feeds one detection into the session. If its head pose fills a
// still-missing slot the embedding is kept and the pose returned.
func (en *Enrollment) Offer(det vision.Detection) (vision.Pose, bool) {
	if det.Score < en.engine.cfg.Agent.MinCaptureScore {
		return "", false
	}
	hp, ok := vision.EstimateHeadPose(det.Landmarks)
	if !ok {
		return "", false
	}
	pose := hp.Bucket()
	if _, have := en.captured[pose]; have {
		return pose, false
	}
	for _, p := range en.required {
		if p == pose {
			en.captured[pose] = det.Embedding.Clone()
			return pose, true
		}
	}
	return pose, false
}

// Remaining lists the poses still missing before Commit is allowed.
func (en *Enrollment) Remaining() []vision.Pose {
	var missing []vision.Pose
	for _, p := range en.required {
		if _, ok := en.captured[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

func (en *Enrollment) Complete() bool {
	return len(en.Remaining()) == 0
}

// SetPhoto attaches the profile portrait persisted alongside the record.
func (en *Enrollment) SetPhoto(data []byte) {
	en.photo = data
}

// Commit validates the captures, builds the identity and persists it in
// one write. A near-identical existing face under a different name flags
// the new record as a suspected duplicate but never blocks enrollment,
// an operator resolves the flag later.
func (en *Enrollment) Commit(ctx context.Context) (identity.Identity, error) {
	id, err := en.commit()
	if err != nil {
		return identity.Identity{}, err
	}
	en.engine.SyncCycle(ctx)
	return id, nil
}

func (en *Enrollment) commit() (identity.Identity, error) {
	e := en.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if missing := en.Remaining(); len(missing) > 0 {
		return identity.Identity{}, fmt.Errorf("enrollment incomplete, missing poses %v", missing)
	}

	dim := e.cfg.Matcher.EmbeddingDim
	embeddings := make([]identity.Embedding, 0, len(en.required))
	for _, p := range en.required {
		emb := en.captured[p]
		if err := emb.Validate(dim); err != nil {
			return identity.Identity{}, fmt.Errorf("pose %s: %w", p, err)
		}
		embeddings = append(embeddings, emb)
	}

	existing := e.local.Identities()
	now := e.now()
	id := identity.Identity{
		ID:         identity.NewID(en.name, existing),
		Name:       en.name,
		Entity:     en.entity,
		Embeddings: embeddings,
		CreatedAt:  now,
		HasImage:   en.photo != nil,
	}
	id.DuplicateOf = e.resolver.CheckEnrollment(embeddings[0], en.name, existing)
	id.Touch(e.clientID, now)

	if err := e.local.SaveIdentities(append(existing, id)); err != nil {
		return identity.Identity{}, fmt.Errorf("save identity: %w", err)
	}
	if en.photo != nil {
		if err := e.local.SaveAsset(id.ID, en.photo); err != nil {
			return identity.Identity{}, fmt.Errorf("save portrait: %w", err)
		}
	}
	e.reloadLocked()
	return id, nil
}
