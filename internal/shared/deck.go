package shared

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Copies is how often every card exists in the deck.
const Copies = 2

// Players is the number of players taking part in one round.
const Players = 4

var ErrUnknownCard = errors.New("unknown card")

var (
	suits = []Suit{Schell, Herz, Gruen, Eichel}
	ranks = []Rank{Neun, Zehn, Unter, Ober, Koenig, Ass}
)

// Deck is the read-only catalog of all cards, keyed by card id.
type Deck struct {
	cards map[int]Card
	ids   []int
}

var (
	deckOnce    sync.Once
	defaultDeck *Deck
)

// DefaultDeck returns the process-wide Doppelkopf deck with 48 cards.
func DefaultDeck() *Deck {
	deckOnce.Do(func() {
		defaultDeck = NewDeck(suits, ranks, Copies)
	})
	return defaultDeck
}

// NewDeck creates a catalog from suits x ranks x copies. Ids are dense and start at 0.
func NewDeck(suits []Suit, ranks []Rank, copies int) *Deck {
	d := &Deck{cards: make(map[int]Card)}
	id := 0
	for n := 0; n < copies; n++ {
		for _, suit := range suits {
			for _, rank := range ranks {
				value, ok := cardValues[rank]
				if !ok {
					log.Errorf("Invalid rank '%s' encountered during deck creation.", rank)
					continue
				}
				d.cards[id] = Card{
					ID:    id,
					Suit:  suit,
					Rank:  rank,
					Value: value,
					Name:  fmt.Sprintf("%s-%s", suit, rank),
				}
				d.ids = append(d.ids, id)
				id++
			}
		}
	}
	return d
}

// Len is the size of the full catalog.
func (d *Deck) Len() int {
	return len(d.ids)
}

// MaxTricks is the number of tricks a round with the full catalog has.
func (d *Deck) MaxTricks() int {
	return len(d.ids) / Players
}

// Card looks up a single card.
func (d *Deck) Card(id int) (Card, bool) {
	c, ok := d.cards[id]
	return c, ok
}

// Has reports whether id belongs to the catalog.
func (d *Deck) Has(id int) bool {
	_, ok := d.cards[id]
	return ok
}

// GetCards resolves ids to cards, keeping their order.
func (d *Deck) GetCards(ids []int) ([]Card, error) {
	cards := make([]Card, 0, len(ids))
	for _, id := range ids {
		c, ok := d.cards[id]
		if !ok {
			return nil, fmt.Errorf("card %d: %w", id, ErrUnknownCard)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// IDs returns a fresh list of card ids, with or without the nines.
func (d *Deck) IDs(withNine bool) []int {
	ids := make([]int, 0, len(d.ids))
	for _, id := range d.ids {
		if !withNine && d.cards[id].Rank == Neun {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsMarker reports whether id is one of the marker cards.
func (d *Deck) IsMarker(id int) bool {
	c, ok := d.cards[id]
	return ok && c.IsMarker()
}

// Value sums the points of the given cards. Unknown ids count zero.
func (d *Deck) Value(ids []int) int {
	sum := 0
	for _, id := range ids {
		sum += d.cards[id].Value
	}
	return sum
}

// Shuffle permutes ids in place. Every call seeds its own generator.
func Shuffle(ids []int) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		log.Warnf("Seeding shuffle failed, using runtime source: %v", err)
		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		return
	}
	r := rand.New(rand.NewChaCha8(seed))
	r.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	log.Debugf("Shuffled %d cards.", len(ids))
}

// Deal splits ids into equal contiguous hands. Returns nil if the cards can't be split evenly.
func Deal(ids []int, numPlayers int) [][]int {
	if numPlayers <= 0 || len(ids)%numPlayers != 0 {
		log.Errorf("Cannot deal %d cards to %d players.", len(ids), numPlayers)
		return nil
	}
	cardsPerPlayer := len(ids) / numPlayers

	dealt := make([][]int, numPlayers)
	for i := 0; i < numPlayers; i++ {
		// Copy so the hand does not alias the working list
		hand := make([]int, cardsPerPlayer)
		copy(hand, ids[i*cardsPerPlayer:(i+1)*cardsPerPlayer])
		dealt[i] = hand
	}
	log.Debugf("Dealt %d cards to %d players.", cardsPerPlayer, numPlayers)
	return dealt
}
