// Package jobs hosts the background worker and its scheduled tasks.
package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeCurrencyRefresh re-primes the cached currency snapshot.
	TaskTypeCurrencyRefresh = "currency:refresh"
)

// NewCurrencyRefreshTask builds the snapshot refresh task.
func NewCurrencyRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskTypeCurrencyRefresh, nil)
}

// SnapshotRefresher re-primes an external snapshot cache.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) error
}

// NewCurrencyRefreshHandler returns the asynq handler for currency refreshes.
func NewCurrencyRefreshHandler(cache SnapshotRefresher) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return cache.Refresh(ctx)
	}
}
