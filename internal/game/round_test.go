package game

import (
	"slices"
	"testing"

	"doko3000/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealAndPlay(t *testing.T) {
	f := started(t)
	r := f.round()

	assert.Equal(t, f.id(2), r.CurrentPlayerID)
	assert.Equal(t, Dealt, r.Phase())
	assert.Equal(t, []string{f.id(2), f.id(3), f.id(4), f.id(1)}, r.TrickOrder)

	seen := map[int]bool{}
	for _, p := range f.players {
		assert.Len(t, p.Cards, r.TotalCards()/4)
		for _, c := range p.Cards {
			assert.False(t, seen[c], "card %d dealt twice", c)
			seen[c] = true
		}
	}

	p2 := f.players[1]
	card := p2.Cards[3]
	trick, err := r.PlayCard(p2.ID, card)
	require.NoError(t, err)
	assert.Same(t, r.Trick(1), trick)
	assert.Equal(t, []int{card}, trick.Cards)
	assert.False(t, p2.HasCard(card))
	assert.Equal(t, f.id(3), r.CurrentPlayerID)
	assert.Equal(t, InProgress, r.Phase())
	assert.ElementsMatch(t, f.game.Deck().IDs(false), f.allCards())
}

func TestPlayCardRejections(t *testing.T) {
	f := started(t)
	r := f.round()
	p2, p3 := f.players[1], f.players[2]

	tests := []struct {
		name   string
		player string
		card   int
		err    error
	}{
		{"unknown card", p2.ID, 99, shared.ErrUnknownCard},
		{"wrong turn", p3.ID, p3.Cards[0], ErrNotYourTurn},
		{"not in hand", p2.ID, p3.Cards[0], ErrCardNotInHand},
		{"not in round", "stranger", 1, ErrNotInRound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.PlayCard(tt.player, tt.card)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 0, r.TurnCount)
			assert.Equal(t, p2.ID, r.CurrentPlayerID)
			assert.Equal(t, 0, r.Trick(1).Len())
		})
	}

	f.playTrick(t)
	assert.Equal(t, TrickClaimable, r.Phase())
	current := r.CurrentPlayerID
	_, err := r.PlayCard(current, f.game.Players[current].Cards[0])
	assert.ErrorIs(t, err, ErrTrickNotClaimed)
	assert.Equal(t, 4, r.TurnCount)
}

func TestTrickOffsets(t *testing.T) {
	f := started(t)
	r := f.round()

	assert.Nil(t, r.PreviousTrick())
	_, err := r.TakeTrick(f.id(1))
	assert.ErrorIs(t, err, ErrNoTrick)

	f.playTrick(t)
	assert.Same(t, r.Trick(1), r.CurrentTrick())

	res, err := r.TakeTrick(f.id(3))
	require.NoError(t, err)
	assert.Equal(t, ClaimResult{Trick: 1}, res)
	assert.Equal(t, 1, r.TrickCount())
	assert.Same(t, r.Trick(2), r.CurrentTrick())
	assert.Same(t, r.Trick(1), r.PreviousTrick())
	assert.Equal(t, f.id(3), r.CurrentPlayerID)
	assert.Equal(t, []string{f.id(3), f.id(4), f.id(1), f.id(2)}, r.TrickOrder)

	// a second claim before the next card corrects the owner
	res, err = r.TakeTrick(f.id(4))
	require.NoError(t, err)
	assert.True(t, res.Reclaimed)
	assert.Equal(t, f.id(4), r.Trick(1).Owner)
	assert.Equal(t, 1, r.TrickCount())
	assert.Equal(t, 1, r.Stats.Tricks[f.id(4)])
	assert.Equal(t, 0, r.Stats.Tricks[f.id(3)])

	// an incomplete trick cannot be claimed
	current := r.CurrentPlayerID
	_, err = r.PlayCard(current, f.game.Players[current].Cards[0])
	require.NoError(t, err)
	_, err = r.TakeTrick(current)
	assert.ErrorIs(t, err, ErrTrickIncomplete)
}

func TestFullRound(t *testing.T) {
	f := started(t)
	r := f.round()
	require.Equal(t, 10, r.CardsPerPlayer())

	var last ClaimResult
	for n := 1; n <= r.CardsPerPlayer(); n++ {
		require.False(t, r.IsFinished())
		f.playTrick(t)
		assert.ElementsMatch(t, f.game.Deck().IDs(false), f.allCards())

		// rotate the winner so everybody takes something
		var err error
		last, err = r.TakeTrick(r.Players[n%4])
		require.NoError(t, err)
		if n < r.CardsPerPlayer() {
			assert.False(t, last.Finished)
		}
	}

	assert.True(t, last.Finished)
	assert.True(t, r.IsFinished())
	assert.Equal(t, Finished, r.Phase())
	assert.True(t, r.NeedsDealing())

	sum := 0
	for _, score := range r.Stats.Score {
		sum += score
	}
	assert.Equal(t, f.game.Deck().Value(f.game.Deck().IDs(false)), sum)
	assert.Equal(t, 240, sum)

	// reclaiming the last trick does not finish the round twice
	res, err := r.TakeTrick(r.Players[0])
	require.NoError(t, err)
	assert.True(t, res.Reclaimed)
	assert.False(t, res.Finished)

	_, err = r.PlayCard(r.CurrentPlayerID, 0)
	assert.ErrorIs(t, err, ErrRoundFinished)
}

func TestUndo(t *testing.T) {
	f := started(t)
	r := f.round()

	assert.ErrorIs(t, r.Undo(), ErrNothingToUndo)

	p2 := f.players[1]
	before := slices.Clone(p2.Cards)
	_, err := r.PlayCard(p2.ID, p2.Cards[0])
	require.NoError(t, err)

	require.NoError(t, r.Undo())
	assert.Equal(t, before, p2.Cards)
	assert.Equal(t, 0, r.TurnCount)
	assert.Equal(t, p2.ID, r.CurrentPlayerID)
	assert.Equal(t, 0, r.Trick(1).Len())

	// a card from the middle of the hand goes back to the middle
	_, err = r.PlayCard(p2.ID, p2.Cards[4])
	require.NoError(t, err)
	require.NoError(t, r.Undo())
	assert.Equal(t, before, p2.Cards)

	// undo after a claim takes back the previous trick
	hands := map[string][]int{}
	for _, p := range f.players {
		hands[p.ID] = slices.Clone(p.Cards)
	}
	f.playTrick(t)
	_, err = r.TakeTrick(f.id(1))
	require.NoError(t, err)
	require.NoError(t, r.Undo())
	assert.Equal(t, 0, r.TrickCount())
	assert.Equal(t, 0, r.TurnCount)
	assert.Equal(t, p2.ID, r.CurrentPlayerID)
	assert.Equal(t, 0, r.Stats.Score[f.id(1)])
	for _, p := range f.players {
		assert.Equal(t, hands[p.ID], p.Cards)
	}

	r.AllowUndo = false
	_, err = r.PlayCard(p2.ID, p2.Cards[0])
	require.NoError(t, err)
	assert.ErrorIs(t, r.Undo(), ErrUndoNotAllowed)
	assert.Equal(t, 1, r.TurnCount)
}

func TestResetDealsFreshCards(t *testing.T) {
	f := started(t)
	r := f.round()
	stamp := r.CardsTimestamp

	f.playTrick(t)
	_, err := r.TakeTrick(f.id(1))
	require.NoError(t, err)

	require.NoError(t, r.Reset(r.Players))
	assert.Greater(t, r.CardsTimestamp, stamp)
	assert.Equal(t, 0, r.TurnCount)
	assert.Equal(t, 0, r.TrickCount())
	assert.Empty(t, r.Exchange)
	for _, p := range f.players {
		assert.Len(t, p.Cards, 10)
	}

	assert.ErrorIs(t, r.Reset(r.Players[:3]), ErrNotEnoughPlayers)
}

func TestWithNine(t *testing.T) {
	f := started(t, WithNine(true))
	r := f.round()
	assert.Equal(t, 12, r.CardsPerPlayer())
	for _, p := range f.players {
		assert.Len(t, p.Cards, 12)
	}
}

func TestNineSettingAppliesAtNextDeal(t *testing.T) {
	f := started(t, WithNine(true))
	r := f.round()
	f.table.SetWithNine(false)
	assert.Equal(t, 12, r.CardsPerPlayer())

	for n := 1; n <= 10; n++ {
		f.playTrick(t)
		_, err := r.TakeTrick(f.id(1))
		require.NoError(t, err)
	}
	assert.False(t, r.IsFinished())
	for _, p := range f.players {
		assert.Len(t, p.Cards, 2)
	}

	for n := 11; n <= 12; n++ {
		f.playTrick(t)
		res, err := r.TakeTrick(f.id(1))
		require.NoError(t, err)
		assert.Equal(t, n == 12, res.Finished)
	}
	assert.True(t, r.IsFinished())
	assert.Equal(t, 240, r.Stats.Score[f.id(1)])

	require.NoError(t, f.table.ResetRound())
	assert.Equal(t, 10, r.CardsPerPlayer())
	for _, p := range f.players {
		assert.Len(t, p.Cards, 10)
	}
}

func TestParties(t *testing.T) {
	f := started(t)
	// catalog order hands each of P2 and P4 one Eichel Ober
	assert.Equal(t, shared.PartyContra, f.players[0].Party())
	assert.Equal(t, shared.PartyRe, f.players[1].Party())
	assert.Equal(t, shared.PartyContra, f.players[2].Party())
	assert.Equal(t, shared.PartyRe, f.players[3].Party())
}
