package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDeck(t *testing.T) {
	d := DefaultDeck()
	assert.Equal(t, 48, d.Len())
	assert.Equal(t, 12, d.MaxTricks())
	assert.Len(t, d.IDs(true), 48)
	assert.Len(t, d.IDs(false), 40)
	assert.Same(t, d, DefaultDeck())

	// nines are worth nothing, so both decks count the same
	assert.Equal(t, 240, d.Value(d.IDs(true)))
	assert.Equal(t, 240, d.Value(d.IDs(false)))

	markers := 0
	for _, id := range d.IDs(true) {
		if d.IsMarker(id) {
			markers++
		}
	}
	assert.Equal(t, 2, markers)
}

func TestGetCards(t *testing.T) {
	d := DefaultDeck()

	cards, err := d.GetCards([]int{0, 47})
	require.NoError(t, err)
	assert.Equal(t, "Schell-Neun", cards[0].Name)
	assert.Equal(t, "Eichel-Ass", cards[1].Name)
	assert.Equal(t, 11, cards[1].Value)

	_, err = d.GetCards([]int{1, 48})
	assert.ErrorIs(t, err, ErrUnknownCard)
}

func TestIDsAreFresh(t *testing.T) {
	d := DefaultDeck()
	ids := d.IDs(true)
	ids[0] = 99
	assert.Equal(t, 0, d.IDs(true)[0])
}

func TestShuffleKeepsCards(t *testing.T) {
	d := DefaultDeck()
	ids := d.IDs(false)
	Shuffle(ids)
	assert.ElementsMatch(t, d.IDs(false), ids)
}

func TestDeal(t *testing.T) {
	ids := DefaultDeck().IDs(false)
	hands := Deal(ids, Players)
	require.Len(t, hands, Players)
	for i, hand := range hands {
		assert.Len(t, hand, 10)
		assert.Equal(t, ids[i*10], hand[0])
	}
	assert.Nil(t, Deal(ids, 3))
}
