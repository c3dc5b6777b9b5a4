package check

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/symcheck/symcheck/internal/platform/reasoner"
)

// Service fronts the pipeline and the record store for the HTTP layer.
type Service struct {
	pipeline *Pipeline
	records  RecordRepository
	reasoner reasoner.Client
	idem     *IdempotencyCache
	logger   zerolog.Logger
}

func NewService(pipeline *Pipeline, records RecordRepository, client reasoner.Client, idem *IdempotencyCache, logger zerolog.Logger) *Service {
	return &Service{
		pipeline: pipeline,
		records:  records,
		reasoner: client,
		idem:     idem,
		logger:   logger,
	}
}

// RunCheck validates the request and executes the pipeline. When a known
// idempotency key is presented and its record still exists, the original
// record is returned instead of running the pipeline again.
func (s *Service) RunCheck(ctx context.Context, req CheckRequest, idempotencyKey string) (*SymptomCheckRecord, error) {
	originalSex := req.Sex
	coerced, err := ValidateCheckRequest(&req)
	if err != nil {
		return nil, err
	}
	if coerced {
		s.logger.Warn().
			Str("user_id", req.UserID).
			Str("submitted_sex", originalSex).
			Msg("unrecognized sex value coerced to male")
	}

	if idempotencyKey != "" {
		if recordID, ok := s.idem.Get(idempotencyKey); ok {
			rec, found, err := s.records.FindByID(ctx, recordID)
			if err == nil && found {
				return rec, nil
			}
			// Record gone or lookup failed: fall through and run fresh.
		}
	}

	rec, err := s.pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		s.idem.Put(idempotencyKey, rec.ID)
	}
	return rec, nil
}

// ListByUser returns the user's records, newest first, capped at
// MaxListLimit.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]*SymptomCheckRecord, error) {
	if userID == "" {
		return nil, newValidationError("userId", "is required")
	}
	records, err := s.records.FindByUser(ctx, userID, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return records, nil
}

// GetByID returns one record or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*SymptomCheckRecord, error) {
	rec, found, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	if !found {
		return nil, ErrNotFound
	}
	return rec, nil
}

// DeleteRecord removes a record. Deletion is not idempotent: deleting an
// id that does not exist returns ErrNotFound.
func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	found, err := s.records.Delete(ctx, id)
	if err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Health probes the reasoning service with the configured credentials.
func (s *Service) Health(ctx context.Context) error {
	return s.reasoner.Ping(ctx)
}
