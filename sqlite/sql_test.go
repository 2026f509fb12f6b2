package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hoshinonyaruko/snake-loop/structs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "game.db"))
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func record(score int, ended time.Time) structs.GameRecord {
	return structs.GameRecord{
		Score:       score,
		FinalSpeed:  5.25,
		BoardWidth:  10,
		BoardHeight: 8,
		Ticks:       17,
		StartedAt:   ended.Add(-5 * time.Second),
		EndedAt:     ended,
	}
}

func TestStorage_InsertGameRecord(t *testing.T) {
	// Given: an empty database
	ctx := context.Background()
	store := newStorage(t)
	ended := time.UnixMilli(1_700_000_000_000)

	// When: a finished game is stored
	id, err := store.InsertGameRecord(ctx, record(10, ended))
	require.NoError(t, err)
	require.Positive(t, id)

	// Then: it reads back unchanged
	games, err := store.RecentGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, games, 1)

	expected := record(10, ended)
	expected.ID = id
	assert.Equal(t, expected.ID, games[0].ID)
	assert.Equal(t, expected.Score, games[0].Score)
	assert.InDelta(t, expected.FinalSpeed, games[0].FinalSpeed, 1e-9)
	assert.Equal(t, expected.Ticks, games[0].Ticks)
	assert.True(t, expected.StartedAt.Equal(games[0].StartedAt))
	assert.True(t, expected.EndedAt.Equal(games[0].EndedAt))
}

func TestStorage_TopScores(t *testing.T) {
	ctx := context.Background()
	store := newStorage(t)
	base := time.UnixMilli(1_700_000_000_000)

	for i, score := range []int{10, 40, 0, 40, 20} {
		_, err := store.InsertGameRecord(ctx, record(score, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	top, err := store.TopScores(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)

	assert.Equal(t, []int{40, 40, 20}, []int{top[0].Score, top[1].Score, top[2].Score})
	// ties go to the earlier game
	assert.True(t, top[0].EndedAt.Before(top[1].EndedAt))

	recent, err := store.RecentGames(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 20, recent[0].Score)
	assert.Equal(t, 40, recent[1].Score)
}

func TestStorage_BestScore(t *testing.T) {
	ctx := context.Background()
	store := newStorage(t)

	_, err := store.BestScore(ctx)
	require.ErrorIs(t, err, ErrNoRecords)

	_, err = store.InsertGameRecord(ctx, record(30, time.Now()))
	require.NoError(t, err)

	best, err := store.BestScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, best)
}

func TestStorage_Empty(t *testing.T) {
	store := newStorage(t)

	top, err := store.TopScores(context.Background(), 5)

	require.NoError(t, err)
	assert.Empty(t, top)
}
