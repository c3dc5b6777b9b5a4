package check

import (
	"context"

	"github.com/google/uuid"
)

// MaxListLimit caps how many records a single listing returns, regardless
// of what the caller asks for.
const MaxListLimit = 50

// RecordRepository is the persistence contract for symptom check records.
// Records are immutable: there is deliberately no update method.
type RecordRepository interface {
	// Save writes a fully-built record. Partially-built records are never
	// written; the pipeline only calls Save after every stage completed.
	Save(ctx context.Context, rec *SymptomCheckRecord) error
	// FindByUser returns up to limit records for a user, newest first.
	// Limits above MaxListLimit are clamped.
	FindByUser(ctx context.Context, userID string, limit int) ([]*SymptomCheckRecord, error)
	// FindByID returns the record and whether it exists.
	FindByID(ctx context.Context, id uuid.UUID) (*SymptomCheckRecord, bool, error)
	// Delete removes a record and reports whether it existed. Deleting an
	// already-deleted record returns false, not an error.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
