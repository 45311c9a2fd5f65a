package game

import (
	"testing"

	"doko3000/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPair(t *testing.T) {
	assert.Equal(t, NewPair("a", "b"), NewPair("b", "a"))
	p := NewPair("x", "c")
	assert.Equal(t, "c", p.A)
	assert.Equal(t, "x", p.Peer("c"))
	assert.Equal(t, "c", p.Peer("x"))
	assert.True(t, p.Has("x"))
	assert.False(t, p.Has("y"))
}

func TestMarriageExchange(t *testing.T) {
	f := started(t, WithShuffler(frontShuffle(marker1, marker2)))
	r := f.round()
	p1, p3 := f.players[0], f.players[2]
	require.Equal(t, shared.PartyMarriage, p1.Party())

	// only the marriage holder may start
	_, err := r.ExchangePeers(p3.ID)
	assert.ErrorIs(t, err, ErrExchangeNotAllowed)
	peers, err := r.ExchangePeers(p1.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.id(2), f.id(3), f.id(4)}, peers)

	require.NoError(t, r.ProposeExchange(p1.ID, p3.ID))
	require.NoError(t, r.AcceptExchange(p3.ID, p1.ID))
	assert.True(t, r.IsExchangeNeeded(p1.ID))
	assert.True(t, r.IsExchangeNeeded(p3.ID))

	// nobody plays while cards are being swapped
	_, err = r.PlayCard(r.CurrentPlayerID, f.game.Players[r.CurrentPlayerID].Cards[0])
	assert.ErrorIs(t, err, ErrExchangePending)

	give1, give3 := p1.Cards[5], p3.Cards[2]
	res, err := r.CommitExchange(p1.ID, []int{give1})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Equal(t, []int{give1}, r.CommittedCards(p1.ID))
	assert.True(t, r.IsExchangeNeeded(p1.ID))

	res, err = r.CommitExchange(p3.ID, []int{give3})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, p1.ID, res.Peer)

	assert.True(t, p1.HasCard(give3))
	assert.False(t, p1.HasCard(give1))
	assert.True(t, p3.HasCard(give1))
	assert.False(t, p3.HasCard(give3))
	assert.False(t, r.IsExchangeNeeded(p1.ID))
	assert.False(t, r.IsExchangeNeeded(p3.ID))
	assert.Empty(t, r.Exchange)
	assert.Empty(t, p1.ExchangePeerID)
	assert.Empty(t, p3.ExchangePeerID)
	assert.Len(t, p1.Cards, 10)
	assert.ElementsMatch(t, f.game.Deck().IDs(false), f.allCards())
}

func TestExchangeSameParty(t *testing.T) {
	f := started(t)
	r := f.round()

	// P1 and P3 are contra, P2 and P4 re
	peers, err := r.ExchangePeers(f.id(1))
	require.NoError(t, err)
	assert.Equal(t, []string{f.id(3)}, peers)

	assert.ErrorIs(t, r.ProposeExchange(f.id(1), f.id(2)), ErrExchangeNotAllowed)
	require.NoError(t, r.ProposeExchange(f.id(2), f.id(4)))

	// accepting a proposal nobody made fails
	assert.ErrorIs(t, r.AcceptExchange(f.id(3), f.id(1)), ErrNoExchange)

	proposer, err := r.DenyExchange(f.id(4))
	require.NoError(t, err)
	assert.Equal(t, f.id(2), proposer)
	assert.Empty(t, f.players[1].ExchangePeerID)
	assert.Empty(t, r.Exchange)

	// after a denial a new proposal is fine
	require.NoError(t, r.ProposeExchange(f.id(1), f.id(3)))
	require.NoError(t, r.AcceptExchange(f.id(3), f.id(1)))
	_, err = r.ExchangePeers(f.id(2))
	assert.ErrorIs(t, err, ErrExchangePending)

	peer, err := r.CancelExchange(f.id(3))
	require.NoError(t, err)
	assert.Equal(t, f.id(1), peer)
	assert.Empty(t, r.Exchange)
	assert.Empty(t, f.players[0].ExchangePeerID)
}

func TestExchangeIsAtomic(t *testing.T) {
	f := started(t)
	r := f.round()
	p1, p3 := f.players[0], f.players[2]
	require.NoError(t, r.ProposeExchange(p1.ID, p3.ID))
	require.NoError(t, r.AcceptExchange(p3.ID, p1.ID))

	hand1 := append([]int{}, p1.Cards...)
	hand3 := append([]int{}, p3.Cards...)

	_, err := r.CommitExchange(p1.ID, []int{p1.Cards[0], p1.Cards[1]})
	require.NoError(t, err)

	tests := []struct {
		name  string
		cards []int
		err   error
	}{
		{"count differs", []int{p3.Cards[0]}, ErrExchangeMismatch},
		{"not in hand", []int{p1.Cards[2], p3.Cards[0]}, ErrCardNotInHand},
		{"duplicate", []int{p3.Cards[0], p3.Cards[0]}, ErrExchangeMismatch},
		{"empty", nil, ErrExchangeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.CommitExchange(p3.ID, tt.cards)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, hand1, p1.Cards)
			assert.Equal(t, hand3, p3.Cards)
			assert.Len(t, r.Exchange, 1)
		})
	}

	_, err = r.CommitExchange(f.id(2), []int{f.players[1].Cards[0]})
	assert.ErrorIs(t, err, ErrNoExchange)
}

func TestExchangeBlockedAfterPlay(t *testing.T) {
	f := started(t)
	r := f.round()
	_, err := r.PlayCard(f.id(2), f.players[1].Cards[0])
	require.NoError(t, err)

	_, err = r.ExchangePeers(f.id(1))
	assert.ErrorIs(t, err, ErrExchangeNotAllowed)

	r.AllowExchange = false
	require.NoError(t, r.Undo())
	_, err = r.ExchangePeers(f.id(1))
	assert.ErrorIs(t, err, ErrExchangeNotAllowed)
}
