package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving build events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBuildID retrieves all events for a specific build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// RecentBuilds returns the most recent build_finished events, newest first.
	RecentBuilds(ctx context.Context, limit int) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// NopStore discards all events; used when no history database is configured.
type NopStore struct{}

func (NopStore) Append(context.Context, string, string, []byte, map[string]string) error {
	return nil
}
func (NopStore) GetByBuildID(context.Context, string) ([]Event, error)    { return nil, nil }
func (NopStore) RecentBuilds(context.Context, int) ([]Event, error)       { return nil, nil }
func (NopStore) GetRange(context.Context, time.Time, time.Time) ([]Event, error) { return nil, nil }
func (NopStore) Close() error                                             { return nil }
