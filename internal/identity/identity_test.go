package identity

import (
	"testing"
	"time"
)

func TestEmbeddingValidate(t *testing.T) {
	emb := Embedding{0.1, 0.2, 0.3}

	if err := emb.Validate(3); err != nil {
		t.Errorf("expected valid embedding, got %v", err)
	}
	if err := emb.Validate(4); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestIdentityValidate(t *testing.T) {
	id := Identity{
		ID:         "Asha_001",
		Name:       "Asha",
		Embeddings: []Embedding{{0.1, 0.2}, {0.3, 0.4}},
	}

	if err := id.Validate(2); err != nil {
		t.Fatalf("expected valid identity, got %v", err)
	}

	// Mixed dimensionality must be rejected.
	id.Embeddings = append(id.Embeddings, Embedding{0.1})
	if err := id.Validate(2); err == nil {
		t.Error("expected error for mixed-dimension embeddings")
	}
}

func TestIdentityValidate_Empty(t *testing.T) {
	var id Identity
	if err := id.Validate(2); err == nil {
		t.Error("expected error for empty identity")
	}

	id.ID = "x"
	if err := id.Validate(2); err == nil {
		t.Error("expected error for identity without embeddings")
	}
}

func TestTouch(t *testing.T) {
	var id Identity
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id.Touch("client-a", now)

	if id.LastUpdated != now.UnixMilli() {
		t.Errorf("expected lastUpdated %d, got %d", now.UnixMilli(), id.LastUpdated)
	}
	if id.Origin != "client-a" {
		t.Errorf("expected origin client-a, got %q", id.Origin)
	}
}

func TestNewID_SerialDisambiguation(t *testing.T) {
	existing := []Identity{
		{ID: "John_Smith_001", Name: "John Smith"},
		{ID: "John_Smith_002", Name: "john smith"},
		{ID: "Asha_001", Name: "Asha"},
	}

	got := NewID("John  Smith", existing)
	if got != "John_Smith_003" {
		t.Errorf("expected John_Smith_003, got %s", got)
	}

	got = NewID("Ravi", existing)
	if got != "Ravi_001" {
		t.Errorf("expected Ravi_001, got %s", got)
	}
}

func TestNormalizeName_Diacritics(t *testing.T) {
	if got := NormalizeName("Jiří  Novák"); got != "jiri novak" {
		t.Errorf("expected 'jiri novak', got %q", got)
	}
}
