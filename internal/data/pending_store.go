package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cryptoforge/internal/config"
)

//go:generate mockgen -source=pending_store.go -destination=../mocks/pending_store.go -package=mocks

var ErrPendingNotFound = errors.New("pending request not found")

// PendingRequest is the ledger entry kept for a submission the CA left awaiting approval.
// The request id is the only handle for collecting the certificate later.
type PendingRequest struct {
	RequestID     string    `json:"request_id"`
	Server        string    `json:"server,omitempty"`
	Template      string    `json:"template"`
	SecretPath    string    `json:"secret_path"`
	Encoding      string    `json:"encoding"`
	CommonName    string    `json:"common_name,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
	LastCheckedAt time.Time `json:"last_checked_at,omitempty"`
}

type PendingStore interface {
	Put(ctx context.Context, req PendingRequest) error
	Get(ctx context.Context, requestID string) (PendingRequest, error)
	List(ctx context.Context) ([]PendingRequest, error)
	Delete(ctx context.Context, requestID string) error
}

// NewPendingStore returns the ledger selected by pending.store. client is only used for
// the redis store and may be nil otherwise.
func NewPendingStore(cfg *config.Config, client RedisPendingClient, logger *slog.Logger) (PendingStore, error) {
	switch cfg.Pending.Store {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis pending store requires a redis client")
		}
		return NewRedisPendingStore(client, cfg.Pending.TTL, logger), nil
	case "memory", "":
		return NewMemPendingStore(cfg.Pending.TTL), nil
	default:
		return nil, fmt.Errorf("unknown pending store %q", cfg.Pending.Store)
	}
}
