package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the schema. The embedding dimension is fixed at table
// creation, changing it later needs a manual migration of the stored
// vectors.
func (p *Pool) Migrate(ctx context.Context, embeddingDim int) error {
	if _, err := p.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createIdentities := `
		CREATE TABLE IF NOT EXISTS identities (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			entity       TEXT NOT NULL DEFAULT '',
			duplicate_of TEXT NOT NULL DEFAULT '',
			has_image    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_updated BIGINT NOT NULL DEFAULT 0,
			origin       TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := p.db.ExecContext(ctx, createIdentities); err != nil {
		return fmt.Errorf("failed to create identities table: %w", err)
	}

	createEmbeddings := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS identity_embeddings (
			identity_id  TEXT NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
			pose_index   INTEGER NOT NULL,
			embedding    vector(%d) NOT NULL,
			PRIMARY KEY (identity_id, pose_index)
		)
	`, embeddingDim)
	if _, err := p.db.ExecContext(ctx, createEmbeddings); err != nil {
		return fmt.Errorf("failed to create identity_embeddings table: %w", err)
	}

	createAttendance := `
		CREATE TABLE IF NOT EXISTS attendance (
			day          TEXT NOT NULL,
			name         TEXT NOT NULL,
			entity       TEXT NOT NULL DEFAULT '',
			first_seen   TIMESTAMPTZ NOT NULL,
			last_seen    TIMESTAMPTZ NOT NULL,
			manual_in    TIMESTAMPTZ,
			manual_out   TIMESTAMPTZ,
			last_updated BIGINT NOT NULL DEFAULT 0,
			origin       TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (day, name)
		)
	`
	if _, err := p.db.ExecContext(ctx, createAttendance); err != nil {
		return fmt.Errorf("failed to create attendance table: %w", err)
	}

	createIndex := "CREATE INDEX IF NOT EXISTS idx_attendance_day ON attendance(day)"
	if _, err := p.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create attendance index: %w", err)
	}

	return nil
}
