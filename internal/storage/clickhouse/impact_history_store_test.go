package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-liquidity-lab/internal/domain"
)

func historyRun(id, startedAt int64) *domain.LadderRun {
	return &domain.LadderRun{
		ID:          id,
		StartedAt:   startedAt,
		PairAddress: "0xpool",
		BaseUSD:     0.1,
	}
}

func TestImpactHistoryStore_AppendAndGetByPair(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewImpactHistoryStore(conn)
	ctx := context.Background()

	run := historyRun(1, 1700000000)
	points := []*domain.LadderPoint{
		{RunID: 1, USD: 100, BuyBps: ptr(42.5), SellBps: nil},
		{RunID: 1, USD: 5, BuyBps: ptr(0.0), SellBps: ptr(0.0)},
	}
	require.NoError(t, store.AppendRun(ctx, run, points))

	rows, err := store.GetByPair(ctx, "0xpool", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Ordered by run time then rung size.
	assert.Equal(t, int64(5), rows[0].USD)
	assert.Equal(t, int64(100), rows[1].USD)
	assert.Equal(t, 42.5, *rows[1].BuyBps)
	assert.Nil(t, rows[1].SellBps, "absent metric stays absent in the mirror")
	assert.Equal(t, 0.1, rows[0].BaseUSD)
}

func TestImpactHistoryStore_LimitBoundsRuns(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewImpactHistoryStore(conn)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		run := historyRun(i, 1700000000+i*100)
		points := []*domain.LadderPoint{
			{RunID: i, USD: 5, BuyBps: ptr(float64(i))},
			{RunID: i, USD: 100, BuyBps: ptr(float64(i * 10))},
		}
		require.NoError(t, store.AppendRun(ctx, run, points))
	}

	rows, err := store.GetByPair(ctx, "0xpool", 2)
	require.NoError(t, err)
	require.Len(t, rows, 4, "2 most recent runs x 2 rungs")

	for _, r := range rows {
		assert.Greater(t, r.RunID, int64(1), "oldest run excluded by limit")
	}
}

func TestImpactHistoryStore_EmptyAppendIsNoop(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewImpactHistoryStore(conn)
	ctx := context.Background()

	require.NoError(t, store.AppendRun(ctx, historyRun(9, 1700000000), nil))

	rows, err := store.GetByPair(ctx, "0xpool", 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestImpactHistoryStore_UnknownPair(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewImpactHistoryStore(conn)

	rows, err := store.GetByPair(context.Background(), "0xmissing", 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
