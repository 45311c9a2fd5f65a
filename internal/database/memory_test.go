package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	round := RoundRecord{
		ID:        "t1",
		Players:   []string{"a", "b", "c", "d"},
		TurnCount: 3,
		Stats:     StatsRecord{Score: map[string]int{"a": 11}, Tricks: map[string]int{"a": 1}},
		Exchange:  []ExchangeRecord{{Players: [2]string{"a", "b"}, Cards: map[string][]int{"a": {1, 2}}}},
	}
	require.NoError(t, s.Save(ctx,
		PlayerRecord{ID: "a", Name: "alice", Cards: []int{4, 5}},
		PlayerRecord{ID: "b", Name: "bob"},
		round,
	))
	assert.Equal(t, 3, s.Len())

	var got RoundRecord
	require.NoError(t, s.Fetch(ctx, TypeRound, "t1", &got))
	assert.Equal(t, round, got)

	players, err := s.QueryByType(ctx, TypePlayer)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "player-a", players[0].Key)
	var alice PlayerRecord
	require.NoError(t, players[0].Decode(&alice))
	assert.Equal(t, []int{4, 5}, alice.Cards)

	require.NoError(t, s.Delete(ctx, Key(TypePlayer, "a"), "missing-key"))
	assert.ErrorIs(t, s.Fetch(ctx, TypePlayer, "a", &alice), ErrNotFound)
}

func TestMemoryStoreFailure(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	boom := errors.New("boom")

	s.FailSaves(boom)
	assert.ErrorIs(t, s.Save(ctx, TrickRecord{ID: "t1-1"}), boom)
	assert.Equal(t, 0, s.Len())

	s.FailSaves(nil)
	assert.NoError(t, s.Save(ctx, TrickRecord{ID: "t1-1"}))
	assert.Equal(t, 1, s.Len())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "couch"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	s, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}

func TestRebind(t *testing.T) {
	s := &SQLStore{driver: "pgx"}
	assert.Equal(t, "a = $1 AND b IN ($2, $3)", s.rebind("a = ? AND b IN (?, ?)"))
	s.driver = "sqlite3"
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQL(ctx, "sqlite3", ":memory:")
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Save(ctx, TableRecord{ID: "t1", Name: "Table 1", Players: []string{"a"}}))
	require.NoError(t, s.Save(ctx, TableRecord{ID: "t1", Name: "Renamed"}))

	var table TableRecord
	require.NoError(t, s.Fetch(ctx, TypeTable, "t1", &table))
	assert.Equal(t, "Renamed", table.Name)

	docs, err := s.QueryByType(ctx, TypeTable)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, s.Delete(ctx, Key(TypeTable, "t1")))
	assert.ErrorIs(t, s.Fetch(ctx, TypeTable, "t1", &table), ErrNotFound)
}
