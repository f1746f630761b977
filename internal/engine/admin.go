package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/identity"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// Actor identifies who is performing an administrative operation.
// Operators are scoped to their own entity, admins see everything.
type Actor struct {
	Role   Role
	Entity string
}

var (
	ErrForbidden = errors.New("operation not allowed for this role")
	ErrNotFound  = errors.New("identity not found")
)

// updateLocked applies fn to the identity with the given id and persists
// the full set. Callers must hold e.mu.
func (e *Engine) updateLocked(id string, fn func(*identity.Identity)) error {
	ids := e.local.Identities()
	for i := range ids {
		if ids[i].ID == id {
			fn(&ids[i])
			ids[i].Touch(e.clientID, e.now())
			if err := e.local.SaveIdentities(ids); err != nil {
				return fmt.Errorf("save identities: %w", err)
			}
			e.reloadLocked()
			return nil
		}
	}
	return ErrNotFound
}

// ResolveDuplicate settles a flagged record: keep clears the flag and
// the record becomes a legitimate identity, otherwise the record is
// deleted as a true duplicate.
func (e *Engine) ResolveDuplicate(ctx context.Context, actor Actor, id string, keep bool) error {
	if actor.Role != RoleAdmin {
		return ErrForbidden
	}
	if !keep {
		return e.DeleteIdentity(ctx, actor, id)
	}
	e.mu.Lock()
	err := e.updateLocked(id, func(rec *identity.Identity) {
		rec.DuplicateOf = ""
	})
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.SyncCycle(ctx)
	return nil
}

// TransferEntity moves an identity to a different entity. Attendance
// already recorded keeps the entity it was recorded under.
func (e *Engine) TransferEntity(_ context.Context, actor Actor, id, entity string) error {
	if actor.Role != RoleAdmin {
		return ErrForbidden
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateLocked(id, func(rec *identity.Identity) {
		rec.Entity = entity
	})
}

// DeleteIdentity removes an identity locally and, when a remote is
// configured, from the server as well. A failed remote delete is logged
// and stays queued: the syncer retries it every cycle and merges skip
// the queued id, so a pull cannot bring the identity back meanwhile.
func (e *Engine) DeleteIdentity(ctx context.Context, actor Actor, id string) error {
	if actor.Role != RoleAdmin {
		return ErrForbidden
	}

	e.mu.Lock()
	ids := e.local.Identities()
	kept := make([]identity.Identity, 0, len(ids))
	found := false
	for _, rec := range ids {
		if rec.ID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		e.mu.Unlock()
		return ErrNotFound
	}
	if err := e.local.SaveIdentities(kept); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("save identities: %w", err)
	}
	if err := e.local.DeleteAsset(id); err != nil {
		log.Printf("delete asset %s: %v", id, err)
	}
	e.reloadLocked()
	e.mu.Unlock()

	if e.sync != nil {
		if err := e.sync.DeleteRemote(ctx, id); err != nil {
			log.Printf("remote delete %s deferred: %v", id, err)
		}
	}
	return nil
}

// WipeAll clears every identity, attendance log and cached asset, locally
// and on the server when one is configured.
func (e *Engine) WipeAll(ctx context.Context, actor Actor) error {
	if actor.Role != RoleAdmin {
		return ErrForbidden
	}

	e.mu.Lock()
	if err := e.local.Wipe(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("wipe local store: %w", err)
	}
	e.reloadLocked()
	e.mu.Unlock()

	if e.sync != nil {
		if err := e.sync.WipeRemote(ctx); err != nil {
			return fmt.Errorf("wipe server store: %w", err)
		}
	}
	return nil
}

// Report returns the attendance rows for a day, scoped to the actor's
// entity for operators and unscoped for admins.
func (e *Engine) Report(actor Actor, day string) []attendance.ReportRow {
	entity := actor.Entity
	if actor.Role == RoleAdmin {
		entity = ""
	}
	return e.local.Day(day).Report(entity)
}

// Identities returns the current identity set. Operators only see their
// own entity's records.
func (e *Engine) Identities(actor Actor) []identity.Identity {
	ids := e.local.Identities()
	if actor.Role == RoleAdmin {
		return ids
	}
	scoped := make([]identity.Identity, 0, len(ids))
	for _, rec := range ids {
		if rec.Entity == actor.Entity {
			scoped = append(scoped, rec)
		}
	}
	return scoped
}
