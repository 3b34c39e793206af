package store

import (
	"context"

	"sigcopy/internal/store/model"
)

// UnitOfWork defines a transaction scope.
type UnitOfWork interface {
	// Commit commits the transaction.
	Commit() error
	// Rollback rolls back the transaction.
	Rollback() error

	// Signals returns the signal repository within this transaction.
	Signals() SignalRepository
	// Executions returns the execution repository within this transaction.
	Executions() ExecutionRepository
}

// Store is the entry point for database access.
type Store interface {
	// Begin starts a new UnitOfWork (transaction).
	Begin(ctx context.Context) (UnitOfWork, error)
	// Signals returns a repository outside any transaction.
	Signals() SignalRepository
	// Executions returns a repository outside any transaction.
	Executions() ExecutionRepository
	// Close closes the store connection.
	Close() error
}

// SignalRepository handles signal persistence.
type SignalRepository interface {
	// Insert stores sig unless a row with its signal id exists; returns the
	// stored row and whether it was already present.
	Insert(ctx context.Context, sig *model.SignalModel) (*model.SignalModel, bool, error)
	FindByID(ctx context.Context, signalID string) (*model.SignalModel, error)
	ListRecent(ctx context.Context, limit int) ([]model.SignalModel, error)
	Count(ctx context.Context) (int64, error)
}

// ExecutionRepository handles execution-attempt persistence.
type ExecutionRepository interface {
	Append(ctx context.Context, rec *model.ExecutionModel) error
	ListBySignal(ctx context.Context, signalID string) ([]model.ExecutionModel, error)
	CountByStatus(ctx context.Context) (map[model.ExecutionStatus]int64, error)
}
