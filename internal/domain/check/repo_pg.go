package check

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable { return r.pool }

const recCols = `id, user_id, original_text, evidence, diagnosis_candidates,
	triage, age, sex, created_at`

func (r *recordRepoPG) scanRow(row pgx.Row) (*SymptomCheckRecord, error) {
	var (
		rec           SymptomCheckRecord
		evidenceRaw   []byte
		candidatesRaw []byte
		triageRaw     []byte
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.OriginalText, &evidenceRaw,
		&candidatesRaw, &triageRaw, &rec.Age, &rec.Sex, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(evidenceRaw, &rec.Evidence); err != nil {
		return nil, fmt.Errorf("decode evidence: %w", err)
	}
	if err := json.Unmarshal(candidatesRaw, &rec.DiagnosisCandidates); err != nil {
		return nil, fmt.Errorf("decode diagnosis candidates: %w", err)
	}
	if err := json.Unmarshal(triageRaw, &rec.Triage); err != nil {
		return nil, fmt.Errorf("decode triage: %w", err)
	}
	return &rec, nil
}

func (r *recordRepoPG) Save(ctx context.Context, rec *SymptomCheckRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	evidenceRaw, err := json.Marshal(rec.Evidence)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	candidatesRaw, err := json.Marshal(rec.DiagnosisCandidates)
	if err != nil {
		return fmt.Errorf("encode diagnosis candidates: %w", err)
	}
	triageRaw, err := json.Marshal(rec.Triage)
	if err != nil {
		return fmt.Errorf("encode triage: %w", err)
	}

	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO symptom_check_records (id, user_id, original_text,
			evidence, diagnosis_candidates, triage, age, sex)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		rec.ID, rec.UserID, rec.OriginalText,
		evidenceRaw, candidatesRaw, triageRaw, rec.Age, rec.Sex)
	return row.Scan(&rec.CreatedAt)
}

func (r *recordRepoPG) FindByUser(ctx context.Context, userID string, limit int) ([]*SymptomCheckRecord, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recCols+` FROM symptom_check_records
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SymptomCheckRecord
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *recordRepoPG) FindByID(ctx context.Context, id uuid.UUID) (*SymptomCheckRecord, bool, error) {
	rec, err := r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recCols+` FROM symptom_check_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return rec, true, nil
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM symptom_check_records WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
