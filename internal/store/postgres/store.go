package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/snapshot"
	"github.com/faceguard/faceguard/internal/store"
	"github.com/pgvector/pgvector-go"
)

// Verify interface compliance.
var _ store.ServerStore = (*Store)(nil)

// Store implements the server snapshot store on PostgreSQL. The
// last-write-wins rule is enforced in the upsert conditions, so
// concurrent pushes from different sites settle the same way a client
// merge would.
type Store struct {
	pool *Pool
}

func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

func toVector(e identity.Embedding) pgvector.Vector {
	out := make([]float32, len(e))
	for i, v := range e {
		out[i] = float32(v)
	}
	return pgvector.NewVector(out)
}

func fromVector(v pgvector.Vector) identity.Embedding {
	raw := v.Slice()
	out := make(identity.Embedding, len(raw))
	for i, f := range raw {
		out[i] = float64(f)
	}
	return out
}

// Snapshot loads all identities with their embeddings plus the
// attendance records of one day.
func (s *Store) Snapshot(ctx context.Context, day string) (snapshot.Snapshot, error) {
	snap := snapshot.Empty()

	ids, err := s.loadIdentities(ctx)
	if err != nil {
		return snap, err
	}
	snap.Identities = ids

	logs, err := s.loadDay(ctx, day)
	if err != nil {
		return snap, err
	}
	snap.Logs = logs

	return snap, nil
}

func (s *Store) loadIdentities(ctx context.Context) ([]identity.Identity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, entity, duplicate_of, has_image, created_at, last_updated, origin
		FROM identities
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var ids []identity.Identity
	index := make(map[string]int)
	for rows.Next() {
		var rec identity.Identity
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Entity, &rec.DuplicateOf,
			&rec.HasImage, &rec.CreatedAt, &rec.LastUpdated, &rec.Origin); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		index[rec.ID] = len(ids)
		ids = append(ids, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	embRows, err := s.pool.Query(ctx, `
		SELECT identity_id, embedding
		FROM identity_embeddings
		ORDER BY identity_id, pose_index
	`)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer embRows.Close()

	for embRows.Next() {
		var id string
		var vec pgvector.Vector
		if err := embRows.Scan(&id, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		if i, ok := index[id]; ok {
			ids[i].Embeddings = append(ids[i].Embeddings, fromVector(vec))
		}
	}
	if err := embRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}

	return ids, nil
}

func (s *Store) loadDay(ctx context.Context, day string) (map[string]attendance.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, entity, first_seen, last_seen, manual_in, manual_out, last_updated, origin
		FROM attendance
		WHERE day = $1
	`, day)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	logs := make(map[string]attendance.Record)
	for rows.Next() {
		var rec attendance.Record
		var manualIn, manualOut sql.NullTime
		if err := rows.Scan(&rec.Name, &rec.Entity, &rec.FirstSeen, &rec.LastSeen,
			&manualIn, &manualOut, &rec.LastUpdated, &rec.Origin); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		if manualIn.Valid {
			t := manualIn.Time
			rec.ManualIn = &t
		}
		if manualOut.Valid {
			t := manualOut.Time
			rec.ManualOut = &t
		}
		logs[rec.Name] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return logs, nil
}

// Merge applies a pushed snapshot per record. A pushed record wins when
// its lastUpdated is newer, or equal with a greater origin, matching the
// merge clients apply locally.
func (s *Store) Merge(ctx context.Context, day string, pushed snapshot.Snapshot) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range pushed.Identities {
		if err := mergeIdentity(ctx, tx, &pushed.Identities[i]); err != nil {
			return err
		}
	}
	for _, rec := range pushed.Logs {
		if err := mergeRecord(ctx, tx, day, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

func mergeIdentity(ctx context.Context, tx *sql.Tx, rec *identity.Identity) error {
	var id string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO identities (id, name, entity, duplicate_of, has_image, created_at, last_updated, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			entity = EXCLUDED.entity,
			duplicate_of = EXCLUDED.duplicate_of,
			has_image = EXCLUDED.has_image,
			last_updated = EXCLUDED.last_updated,
			origin = EXCLUDED.origin
		WHERE EXCLUDED.last_updated > identities.last_updated
		   OR (EXCLUDED.last_updated = identities.last_updated AND EXCLUDED.origin > identities.origin)
		RETURNING id
	`, rec.ID, rec.Name, rec.Entity, rec.DuplicateOf, rec.HasImage,
		rec.CreatedAt, rec.LastUpdated, rec.Origin).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// Stored row is newer, the pushed record loses.
		return nil
	}
	if err != nil {
		return fmt.Errorf("upsert identity %s: %w", rec.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM identity_embeddings WHERE identity_id = $1", rec.ID); err != nil {
		return fmt.Errorf("clear embeddings %s: %w", rec.ID, err)
	}
	for i, emb := range rec.Embeddings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO identity_embeddings (identity_id, pose_index, embedding)
			VALUES ($1, $2, $3::vector)
		`, rec.ID, i, toVector(emb)); err != nil {
			return fmt.Errorf("insert embedding %s/%d: %w", rec.ID, i, err)
		}
	}
	return nil
}

func mergeRecord(ctx context.Context, tx *sql.Tx, day string, rec attendance.Record) error {
	var manualIn, manualOut sql.NullTime
	if rec.ManualIn != nil {
		manualIn = sql.NullTime{Time: *rec.ManualIn, Valid: true}
	}
	if rec.ManualOut != nil {
		manualOut = sql.NullTime{Time: *rec.ManualOut, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO attendance (day, name, entity, first_seen, last_seen, manual_in, manual_out, last_updated, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (day, name) DO UPDATE SET
			entity = EXCLUDED.entity,
			first_seen = EXCLUDED.first_seen,
			last_seen = EXCLUDED.last_seen,
			manual_in = EXCLUDED.manual_in,
			manual_out = EXCLUDED.manual_out,
			last_updated = EXCLUDED.last_updated,
			origin = EXCLUDED.origin
		WHERE EXCLUDED.last_updated > attendance.last_updated
		   OR (EXCLUDED.last_updated = attendance.last_updated AND EXCLUDED.origin > attendance.origin)
	`, day, rec.Name, rec.Entity, rec.FirstSeen, rec.LastSeen,
		manualIn, manualOut, rec.LastUpdated, rec.Origin)
	if err != nil {
		return fmt.Errorf("upsert attendance %s/%s: %w", day, rec.Name, err)
	}
	return nil
}

// DeleteIdentity removes an identity and its embeddings.
func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM identities WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete identity %s: %w", id, err)
	}
	return nil
}

// Wipe clears all identities and attendance records.
func (s *Store) Wipe(ctx context.Context) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM identities"); err != nil {
		return fmt.Errorf("wipe identities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance"); err != nil {
		return fmt.Errorf("wipe attendance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit wipe: %w", err)
	}
	return nil
}
