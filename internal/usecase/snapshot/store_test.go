package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookv1 "github.com/tickerforge/book-engine/internal/domain/book/v1"
	snapshotv1 "github.com/tickerforge/book-engine/internal/domain/snapshot/v1"
	"github.com/tickerforge/book-engine/pkg/logger"
	redis_mock "github.com/tickerforge/book-engine/pkg/redis/mock"
)

func newTestStore(t *testing.T) (*Store, *redis_mock.MockClient) {
	ctrl := gomock.NewController(t)

	log, err := logger.NewLogger()
	require.NoError(t, err)

	mockRedis := redis_mock.NewMockClient(ctrl)
	return NewSnapshotStore(mockRedis, "BTC-USD", log), mockRedis
}

func testSnapshot() *snapshotv1.Snapshot {
	return &snapshotv1.Snapshot{
		Symbol:      "BTC-USD",
		OrderOffset: 42,
		BookState: snapshotv1.BookState{
			Orders: []snapshotv1.BookOrder{
				{OrderID: "a", Side: bookv1.SideBid, Price: 100, Volume: 5, Timestamp: 1, Sequence: 0},
				{OrderID: "b", Side: bookv1.SideAsk, Price: 101, Volume: 3, Timestamp: 2, Sequence: 1},
			},
			OrderSeq:      2,
			LastEventTime: 2,
		},
	}
}

func TestStore_Store(t *testing.T) {
	t.Run("stores snapshot under the symbol key", func(t *testing.T) {
		store, mockRedis := newTestStore(t)
		snap := testSnapshot()

		mockRedis.EXPECT().
			Set(gomock.Any(), "book:snapshot:BTC-USD", gomock.Any(), time.Duration(0)).
			DoAndReturn(func(_ context.Context, _ string, value any, _ time.Duration) error {
				buf, ok := value.([]byte)
				require.True(t, ok)

				var stored snapshotv1.Snapshot
				require.NoError(t, json.Unmarshal(buf, &stored))
				assert.Equal(t, *snap, stored)
				return nil
			}).
			Times(1)

		err := store.Store(context.Background(), snap)
		assert.NoError(t, err)
	})

	t.Run("propagates redis failure", func(t *testing.T) {
		store, mockRedis := newTestStore(t)

		mockRedis.EXPECT().
			Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("connection refused")).
			Times(1)

		err := store.Store(context.Background(), testSnapshot())
		assert.Error(t, err)
	})
}

func TestStore_LoadStore(t *testing.T) {
	t.Run("returns nil when no snapshot exists", func(t *testing.T) {
		store, mockRedis := newTestStore(t)

		mockRedis.EXPECT().
			Get(gomock.Any(), "book:snapshot:BTC-USD").
			Return("", nil).
			Times(1)

		snap, err := store.LoadStore(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("round-trips a stored snapshot", func(t *testing.T) {
		store, mockRedis := newTestStore(t)
		want := testSnapshot()

		buf, err := json.Marshal(want)
		require.NoError(t, err)

		mockRedis.EXPECT().
			Get(gomock.Any(), "book:snapshot:BTC-USD").
			Return(string(buf), nil).
			Times(1)

		got, err := store.LoadStore(context.Background())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, got)
	})

	t.Run("propagates redis failure", func(t *testing.T) {
		store, mockRedis := newTestStore(t)

		mockRedis.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return("", errors.New("connection refused")).
			Times(1)

		snap, err := store.LoadStore(context.Background())
		assert.Error(t, err)
		assert.Nil(t, snap)
	})

	t.Run("rejects corrupted payload", func(t *testing.T) {
		store, mockRedis := newTestStore(t)

		mockRedis.EXPECT().
			Get(gomock.Any(), "book:snapshot:BTC-USD").
			Return("{not json", nil).
			Times(1)

		snap, err := store.LoadStore(context.Background())
		assert.Error(t, err)
		assert.Nil(t, snap)
	})
}
