package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
)

func testRun() *domain.LadderRun {
	return &domain.LadderRun{
		StartedAt:        1700000000,
		PairAddress:      "0xpool",
		BaseAddress:      "0xtok",
		BaseSymbol:       ptr("TOK"),
		BaseDecimals:     18,
		QuoteAddress:     "0xweth",
		QuoteSymbol:      ptr("WETH"),
		QuoteDecimals:    18,
		BaselineUSD:      5,
		QuoteUSD:         2000,
		BaseUSD:          0.1,
		UnitBuyBaseline:  "20000",
		UnitSellBaseline: "0.00005",
		USDLadder:        []int64{1, 5, 25, 100},
	}
}

func TestRunStore_CreateAndGetRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	id, err := store.CreateRun(ctx, testRun())
	require.NoError(t, err)
	require.NotZero(t, id)

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, int64(1700000000), run.StartedAt)
	assert.Equal(t, "0xpool", run.PairAddress)
	assert.Equal(t, "TOK", *run.BaseSymbol)
	assert.Equal(t, int64(5), run.BaselineUSD)
	assert.Equal(t, "20000", run.UnitBuyBaseline)
	assert.Equal(t, "0.00005", run.UnitSellBaseline)
	assert.Equal(t, []int64{1, 5, 25, 100}, run.USDLadder, "ladder must round-trip in order")
}

func TestRunStore_GetRunNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)

	_, err := store.GetRun(context.Background(), 424242)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_ZeroPointRunIsReadable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	id, err := store.CreateRun(ctx, testRun())
	require.NoError(t, err)

	points, err := store.GetPoints(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestRunStore_SavePointsUpsertsOnRunAndUSD(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	id, err := store.CreateRun(ctx, testRun())
	require.NoError(t, err)

	first := []*domain.LadderPoint{
		{RunID: id, USD: 5, BuyBps: ptr(0.0), SellBps: ptr(0.0), BuyLiquidityAvailable: ptr(true)},
		{RunID: id, USD: 100, BuyBps: ptr(120.5), SellBps: ptr(98.2), BuyTopSource: ptr("Uniswap_V3")},
	}
	require.NoError(t, store.SavePoints(ctx, id, first))

	// Re-measuring the $100 rung overwrites in place.
	second := []*domain.LadderPoint{
		{RunID: id, USD: 100, BuyBps: ptr(250.0), SellBps: nil, BuyTopSource: ptr("Aerodrome")},
	}
	require.NoError(t, store.SavePoints(ctx, id, second))

	points, err := store.GetPoints(ctx, id)
	require.NoError(t, err)
	require.Len(t, points, 2, "upsert must not duplicate the rung")

	assert.Equal(t, int64(5), points[0].USD)
	assert.Equal(t, int64(100), points[1].USD)
	assert.Equal(t, 250.0, *points[1].BuyBps)
	assert.Nil(t, points[1].SellBps, "overwritten metric must become absent")
	assert.Equal(t, "Aerodrome", *points[1].BuyTopSource)
}

func TestRunStore_GetPointsOrderedByUSD(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	id, err := store.CreateRun(ctx, testRun())
	require.NoError(t, err)

	// Insert out of order.
	points := []*domain.LadderPoint{
		{RunID: id, USD: 500},
		{RunID: id, USD: 1},
		{RunID: id, USD: 25},
	}
	require.NoError(t, store.SavePoints(ctx, id, points))

	got, err := store.GetPoints(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].USD)
	assert.Equal(t, int64(25), got[1].USD)
	assert.Equal(t, int64(500), got[2].USD)
}

func TestRunStore_NullableMetricsRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	id, err := store.CreateRun(ctx, testRun())
	require.NoError(t, err)

	// A rung whose buy quote failed: buy side fully absent.
	point := &domain.LadderPoint{
		RunID:                         id,
		USD:                           25,
		SellBps:                       ptr(-12.5),
		SellLiquidityAvailable:        ptr(true),
		SellTopSource:                 ptr("Uniswap_V3"),
		SellRouteConcentrationPercent: ptr(87.5),
	}
	require.NoError(t, store.SavePoints(ctx, id, []*domain.LadderPoint{point}))

	got, err := store.GetPoints(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Nil(t, got[0].BuyBps)
	assert.Nil(t, got[0].BuyLiquidityAvailable)
	assert.Nil(t, got[0].BuyTopSource)
	assert.Nil(t, got[0].BuyRouteConcentrationPercent)
	assert.Equal(t, -12.5, *got[0].SellBps)
	assert.Equal(t, 87.5, *got[0].SellRouteConcentrationPercent)
}

func TestRunStore_ListRunsNewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	older := testRun()
	older.StartedAt = 1700000000
	newer := testRun()
	newer.StartedAt = 1700009999

	olderID, err := store.CreateRun(ctx, older)
	require.NoError(t, err)
	newerID, err := store.CreateRun(ctx, newer)
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newerID, runs[0].ID)
	assert.Equal(t, olderID, runs[1].ID)

	// Pagination.
	page, err := store.ListRuns(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, olderID, page[0].ID)
}

func TestRunStore_ListRunsByPair(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	mine := testRun()
	other := testRun()
	other.PairAddress = "0xother"

	mineID, err := store.CreateRun(ctx, mine)
	require.NoError(t, err)
	_, err = store.CreateRun(ctx, other)
	require.NoError(t, err)

	runs, err := store.ListRunsByPair(ctx, "0xpool", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, mineID, runs[0].ID)
}

func TestRunStore_DeleteRunCascades(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	id, err := store.CreateRun(ctx, testRun())
	require.NoError(t, err)
	survivorID, err := store.CreateRun(ctx, testRun())
	require.NoError(t, err)

	require.NoError(t, store.SavePoints(ctx, id, []*domain.LadderPoint{{RunID: id, USD: 5}}))
	require.NoError(t, store.SavePoints(ctx, survivorID, []*domain.LadderPoint{{RunID: survivorID, USD: 5}}))

	deleted, err := store.DeleteRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.GetRun(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Points went with the run; the survivor is untouched.
	var orphaned int
	err = pool.QueryRow(ctx, "SELECT COUNT(*) FROM ladder_points WHERE run_id = $1", id).Scan(&orphaned)
	require.NoError(t, err)
	assert.Zero(t, orphaned)

	survivorPoints, err := store.GetPoints(ctx, survivorID)
	require.NoError(t, err)
	assert.Len(t, survivorPoints, 1)

	// Deleting again reports nothing removed.
	deleted, err = store.DeleteRun(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
