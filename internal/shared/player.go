package shared

import (
	"errors"
	"slices"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("empty password")

// Player represents a registered user. A player sits at no more than one table.
type Player struct {
	ID               string // Unique identifier for the player
	Name             string // Unique login name
	PasswordHash     string // bcrypt hash, never the password itself
	Cards            []int  // Card ids currently held
	Table            string // Id of the table the player sits at, "" if none
	IsAdmin          bool
	IsSpectatorOnly  bool // Never dealt in, only watches
	AllowsSpectators bool // Spectators may see this player's hand
	MarkerCount      int  // Marker cards dealt to the player this round
	ExchangePeerID   string

	Tracker
}

// NewPlayer creates a new player with the given ID and name.
func NewPlayer(id string, name string) *Player {
	p := &Player{
		ID:               id,
		Name:             name,
		Cards:            []int{},
		AllowsSpectators: true,
	}
	p.Touch()
	return p
}

// SetPassword stores a bcrypt hash of password.
func (p *Player) SetPassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hash)
	p.Touch()
	return nil
}

// CheckPassword compares password against the stored hash in constant time.
func (p *Player) CheckPassword(password string) bool {
	if p.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) == nil
}

// HasCard reports whether the card is in the player's hand.
func (p *Player) HasCard(id int) bool {
	return slices.Contains(p.Cards, id)
}

// HasCards reports whether every card is in the player's hand.
func (p *Player) HasCards(ids []int) bool {
	for _, id := range ids {
		if !p.HasCard(id) {
			return false
		}
	}
	return true
}

// AddCards appends cards to the player's hand.
func (p *Player) AddCards(ids ...int) {
	p.Cards = append(p.Cards, ids...)
	p.Touch()
}

// InsertCard puts a card back at index i, or at the end if i is out of range.
func (p *Player) InsertCard(i, id int) {
	if i < 0 || i > len(p.Cards) {
		i = len(p.Cards)
	}
	p.Cards = slices.Insert(p.Cards, i, id)
	p.Touch()
}

// RemoveCard removes a card from the player's hand.
func (p *Player) RemoveCard(id int) bool {
	for i, c := range p.Cards {
		if c == id {
			p.Cards = append(p.Cards[:i:i], p.Cards[i+1:]...)
			p.Touch()
			return true
		}
	}
	return false
}

// RemoveCards removes all given cards or none of them.
func (p *Player) RemoveCards(ids []int) bool {
	if !p.HasCards(ids) {
		return false
	}
	remaining := make([]int, 0, len(p.Cards))
	for _, c := range p.Cards {
		if !slices.Contains(ids, c) {
			remaining = append(remaining, c)
		}
	}
	p.Cards = remaining
	p.Touch()
	return true
}

// RemoveAllCards empties the hand.
func (p *Player) RemoveAllCards() {
	if len(p.Cards) == 0 {
		return
	}
	p.Cards = []int{}
	p.Touch()
}

// SortCards replaces the hand with the client's ordering if it contains exactly the same cards.
func (p *Player) SortCards(ids []int) bool {
	if len(ids) != len(p.Cards) || !p.HasCards(ids) {
		return false
	}
	sorted := make([]int, len(ids))
	copy(sorted, ids)
	// Guard against duplicates masking a missing card
	check := slices.Clone(sorted)
	slices.Sort(check)
	if len(slices.Compact(check)) != len(ids) {
		return false
	}
	p.Cards = sorted
	p.Touch()
	return true
}

// DropUnknownCards removes ids the deck does not know. Returns how many were dropped.
func (p *Player) DropUnknownCards(d *Deck) int {
	kept := make([]int, 0, len(p.Cards))
	for _, c := range p.Cards {
		if d.Has(c) {
			kept = append(kept, c)
		}
	}
	dropped := len(p.Cards) - len(kept)
	if dropped > 0 {
		log.Warnf("Dropped %d unknown cards from hand of player %s.", dropped, p.Name)
		p.Cards = kept
		p.Touch()
	}
	return dropped
}

// CountMarkers recounts the marker cards in the current hand.
func (p *Player) CountMarkers(d *Deck) {
	count := 0
	for _, c := range p.Cards {
		if d.IsMarker(c) {
			count++
		}
	}
	p.MarkerCount = count
	p.Touch()
}

// Party derives the player's side from the markers dealt to them.
func (p *Player) Party() Party {
	return PartyOf(p.MarkerCount)
}

// SetTable records the table the player sits at.
func (p *Player) SetTable(tableID string) {
	if p.Table == tableID {
		return
	}
	p.Table = tableID
	p.Touch()
}

// ExchangeNew remembers the peer of a card exchange.
func (p *Player) ExchangeNew(peerID string) {
	p.ExchangePeerID = peerID
	p.Touch()
}

// ExchangeClear forgets any exchange peer.
func (p *Player) ExchangeClear() {
	if p.ExchangePeerID == "" {
		return
	}
	p.ExchangePeerID = ""
	p.Touch()
}
