package eventstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndGetByBuildID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "b1", TypeBuildStarted, []byte(`{}`), nil))
	require.NoError(t, store.Append(ctx, "b1", TypeBuildFinished, []byte(`{"outcome":"success"}`), map[string]string{"trigger": "cli"}))
	require.NoError(t, store.Append(ctx, "b2", TypeBuildStarted, []byte(`{}`), nil))

	events, err := store.GetByBuildID(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, TypeBuildStarted, events[0].Type)
	require.Equal(t, TypeBuildFinished, events[1].Type)
	require.Equal(t, "cli", events[1].Metadata["trigger"])
}

func TestRecentBuilds_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b1", "b2", "b3"} {
		payload, _ := json.Marshal(FinishedPayload{Outcome: "success", Documents: 2})
		require.NoError(t, store.Append(ctx, id, TypeBuildFinished, payload, nil))
	}

	events, err := store.RecentBuilds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "b3", events[0].BuildID)
	require.Equal(t, "b2", events[1].BuildID)

	var payload FinishedPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	require.Equal(t, 2, payload.Documents)
}

func TestGetRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "b1", TypeDocumentError, []byte(`{}`), nil))

	events, err := store.GetRange(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = store.GetRange(ctx, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.Empty(t, events)
}
