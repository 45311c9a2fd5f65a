package game

import (
	"slices"
	"testing"

	"doko3000/internal/shared"

	"github.com/stretchr/testify/require"
)

// Eichel Ober, first and second copy
const (
	marker1 = 21
	marker2 = 45
)

func keepOrder([]int) {}

// frontShuffle moves the given cards to the front, keeping the rest in catalog order.
func frontShuffle(front ...int) func([]int) {
	return func(ids []int) {
		rest := slices.DeleteFunc(slices.Clone(ids), func(id int) bool { return slices.Contains(front, id) })
		copy(ids, append(slices.Clone(front), rest...))
	}
}

type fixture struct {
	game    *Game
	table   *Table
	players []*shared.Player // P1..Pn in seating order
}

func (f *fixture) id(n int) string {
	return f.players[n-1].ID
}

func (f *fixture) round() *Round {
	return f.table.Round()
}

// newFixture seats n players named P1..Pn at a table without nines.
func newFixture(t *testing.T, n int, opts ...Option) *fixture {
	t.Helper()
	opts = append([]Option{WithShuffler(keepOrder), WithNine(false)}, opts...)
	g := New(opts...)
	table, err := g.AddTable("Table 1")
	require.NoError(t, err)

	f := &fixture{game: g, table: table}
	for i := 1; i <= n; i++ {
		p, err := g.AddPlayer("P"+string(rune('0'+i)), "pw")
		require.NoError(t, err)
		require.NoError(t, g.EnterTable(p.ID, table.ID))
		f.players = append(f.players, p)
	}
	return f
}

// started returns a fixture with a dealt round.
func started(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := newFixture(t, 4, opts...)
	require.NoError(t, f.table.Start())
	return f
}

// allCards gathers every card in hands and tricks of the round.
func (f *fixture) allCards() []int {
	var cards []int
	for _, id := range f.round().Players {
		cards = append(cards, f.game.Players[id].Cards...)
	}
	for _, trick := range f.round().Tricks() {
		cards = append(cards, trick.Cards...)
	}
	return cards
}

// playTrick lets the current player and the three after them play their first card.
func (f *fixture) playTrick(t *testing.T) {
	t.Helper()
	for i := 0; i < shared.TurnsPerTrick; i++ {
		current := f.round().CurrentPlayerID
		p := f.game.Players[current]
		require.NotEmpty(t, p.Cards)
		_, err := f.round().PlayCard(current, p.Cards[0])
		require.NoError(t, err)
	}
}
