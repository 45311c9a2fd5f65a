package shared

import (
	"errors"
	"fmt"
)

// TurnsPerTrick is the number of cards that make a complete trick.
const TurnsPerTrick = Players

var ErrTrickFull = errors.New("trick already complete")

// Trick represents a single trick. Players[i] played Cards[i] from hand index Positions[i].
type Trick struct {
	ID        string   // "<table id>-<number>"
	Players   []string // Player ids in playing order
	Cards     []int    // Card ids in playing order
	Positions []int    // Hand index each card was taken from, -1 if unknown
	Owner     string   // Player who claimed the trick, "" while unclaimed

	Tracker
}

// NewTrick creates a new empty trick instance.
func NewTrick(id string) *Trick {
	t := &Trick{
		ID:        id,
		Players:   []string{},
		Cards:     []int{},
		Positions: []int{},
	}
	t.Touch()
	return t
}

// TrickID builds the id of trick number n of a table.
func TrickID(tableID string, n int) string {
	return fmt.Sprintf("%s-%d", tableID, n)
}

// Len is the number of cards in the trick.
func (t *Trick) Len() int {
	return len(t.Cards)
}

// AddTurn adds a card, the player who played it and where it sat in their hand.
func (t *Trick) AddTurn(playerID string, cardID, handIndex int) error {
	if len(t.Cards) >= TurnsPerTrick {
		return ErrTrickFull
	}
	t.Players = append(t.Players, playerID)
	t.Cards = append(t.Cards, cardID)
	t.Positions = append(t.Positions, handIndex)
	t.Touch()
	return nil
}

// IsLastTurn reports whether the trick is complete.
func (t *Trick) IsLastTurn() bool {
	return len(t.Cards) >= TurnsPerTrick
}

// Turn returns the nth play of the trick, counting from 1.
func (t *Trick) Turn(n int) (string, int, bool) {
	if n < 1 || n > len(t.Cards) {
		return "", 0, false
	}
	return t.Players[n-1], t.Cards[n-1], true
}

// Position returns the hand index the nth card was played from, counting from 1.
// It is -1 when unknown.
func (t *Trick) Position(n int) int {
	if n < 1 || n > len(t.Positions) {
		return -1
	}
	return t.Positions[n-1]
}

// Leader is the player who opened the trick.
func (t *Trick) Leader() string {
	if len(t.Players) == 0 {
		return ""
	}
	return t.Players[0]
}

// SetOwner records who took the trick.
func (t *Trick) SetOwner(playerID string) {
	t.Owner = playerID
	t.Touch()
}

// Reset empties the trick so the slot can be reused.
func (t *Trick) Reset() {
	if len(t.Cards) == 0 && len(t.Players) == 0 && len(t.Positions) == 0 && t.Owner == "" {
		return
	}
	t.Players = []string{}
	t.Cards = []int{}
	t.Positions = []int{}
	t.Owner = ""
	t.Touch()
}
