package domain

import (
	"context"
	"time"
)

// Submission is one broadcast order transaction, recorded for audit. GasPrice
// is kept as a decimal string so the record survives values beyond int64.
type Submission struct {
	ID        string    `json:"id"` // client-assigned uuid
	TxHash    string    `json:"tx_hash"`
	Orderbook string    `json:"orderbook"`
	Op        string    `json:"op"` // create_limit, update_limit, cancel, create_market
	Payload   string    `json:"payload"`
	Sender    string    `json:"sender"`
	Nonce     uint64    `json:"nonce"`
	GasPrice  string    `json:"gas_price"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionStore persists submissions and their reconciled results. The
// chain module works without one; wiring installs it only when a database is
// configured.
type SubmissionStore interface {
	RecordSubmission(ctx context.Context, s Submission) error
	RecordResults(ctx context.Context, txHash string, created []OrderResult, canceled []CancelResult) error
	ListSubmissions(ctx context.Context, limit int) ([]Submission, error)
}
