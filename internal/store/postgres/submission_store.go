package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veloxdex/velox-go/internal/domain"
)

// SubmissionStore implements domain.SubmissionStore using PostgreSQL.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

// NewSubmissionStore creates a new SubmissionStore backed by the given
// connection pool.
func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

// RecordSubmission appends one broadcast transaction to the audit trail.
func (s *SubmissionStore) RecordSubmission(ctx context.Context, sub domain.Submission) error {
	const query = `
		INSERT INTO submissions (id, tx_hash, orderbook, op, payload, sender, nonce, gas_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, query,
		sub.ID, sub.TxHash, sub.Orderbook, sub.Op, sub.Payload, sub.Sender,
		int64(sub.Nonce), sub.GasPrice,
	)
	if err != nil {
		return fmt.Errorf("postgres: record submission %s: %w", sub.ID, err)
	}
	return nil
}

// RecordResults stores the reconciled outcome of one transaction. Created
// orders and cancellations are stored as JSONB detail rows keyed by tx hash.
func (s *SubmissionStore) RecordResults(ctx context.Context, txHash string, created []domain.OrderResult, canceled []domain.CancelResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin results tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `INSERT INTO submission_results (tx_hash, kind, detail) VALUES ($1, $2, $3)`

	for _, result := range created {
		detail, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("postgres: marshal order result: %w", err)
		}
		if _, err := tx.Exec(ctx, query, txHash, "created", detail); err != nil {
			return fmt.Errorf("postgres: record order result: %w", err)
		}
	}
	for _, result := range canceled {
		detail, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("postgres: marshal cancel result: %w", err)
		}
		if _, err := tx.Exec(ctx, query, txHash, "canceled", detail); err != nil {
			return fmt.Errorf("postgres: record cancel result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit results: %w", err)
	}
	return nil
}

// ListSubmissions returns the most recent submissions, newest first.
func (s *SubmissionStore) ListSubmissions(ctx context.Context, limit int) ([]domain.Submission, error) {
	query := `
		SELECT id, tx_hash, orderbook, op, payload, sender, nonce, gas_price, created_at
		FROM submissions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var sub domain.Submission
		var nonce int64
		if err := rows.Scan(&sub.ID, &sub.TxHash, &sub.Orderbook, &sub.Op, &sub.Payload,
			&sub.Sender, &nonce, &sub.GasPrice, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan submission: %w", err)
		}
		sub.Nonce = uint64(nonce)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list submissions rows: %w", err)
	}
	return out, nil
}

var _ domain.SubmissionStore = (*SubmissionStore)(nil)
