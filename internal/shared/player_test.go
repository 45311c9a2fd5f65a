package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassword(t *testing.T) {
	p := NewPlayer("p1", "alice")
	assert.False(t, p.CheckPassword(""))
	assert.ErrorIs(t, p.SetPassword(""), ErrEmptyPassword)

	assert.NoError(t, p.SetPassword("secret"))
	assert.NotEqual(t, "secret", p.PasswordHash)
	assert.True(t, p.CheckPassword("secret"))
	assert.False(t, p.CheckPassword("Secret"))
}

func TestRemoveCards(t *testing.T) {
	assert := assert.New(t)

	p := NewPlayer("p1", "alice")
	p.AddCards(1, 2, 3, 4)

	assert.True(p.RemoveCard(2))
	assert.False(p.RemoveCard(2))
	assert.Equal([]int{1, 3, 4}, p.Cards)

	// all or nothing
	assert.False(p.RemoveCards([]int{1, 7}))
	assert.Equal([]int{1, 3, 4}, p.Cards)

	assert.True(p.RemoveCards([]int{4, 1}))
	assert.Equal([]int{3}, p.Cards)

	p.RemoveAllCards()
	assert.Empty(p.Cards)
}

func TestInsertCard(t *testing.T) {
	p := NewPlayer("p1", "alice")
	p.AddCards(1, 3)
	p.InsertCard(1, 2)
	p.InsertCard(0, 0)
	p.InsertCard(-1, 4)
	p.InsertCard(99, 5)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, p.Cards)
}

func TestSortCards(t *testing.T) {
	p := NewPlayer("p1", "alice")
	p.AddCards(5, 6, 7)

	assert.True(t, p.SortCards([]int{7, 5, 6}))
	assert.Equal(t, []int{7, 5, 6}, p.Cards)

	assert.False(t, p.SortCards([]int{7, 5}))
	assert.False(t, p.SortCards([]int{7, 7, 5}))
	assert.False(t, p.SortCards([]int{7, 5, 8}))
	assert.Equal(t, []int{7, 5, 6}, p.Cards)
}

func TestParty(t *testing.T) {
	d := DefaultDeck()
	p := NewPlayer("p1", "alice")

	// ids 21 and 45 are the two Eichel Ober
	p.AddCards(21, 45, 1)
	p.CountMarkers(d)
	assert.Equal(t, PartyMarriage, p.Party())

	p.RemoveCard(45)
	p.CountMarkers(d)
	assert.Equal(t, PartyRe, p.Party())

	p.RemoveAllCards()
	p.CountMarkers(d)
	assert.Equal(t, PartyContra, p.Party())

	assert.True(t, SameParty(PartyRe, PartyRe))
	assert.False(t, SameParty(PartyRe, PartyContra))
	assert.False(t, SameParty(PartyMarriage, PartyMarriage))
}

func TestDropUnknownCards(t *testing.T) {
	p := NewPlayer("p1", "alice")
	p.AddCards(1, 100, 2, -1)
	p.Clean()

	assert.Equal(t, 2, p.DropUnknownCards(DefaultDeck()))
	assert.Equal(t, []int{1, 2}, p.Cards)
	assert.True(t, p.Dirty())
}
