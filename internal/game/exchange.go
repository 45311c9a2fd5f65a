package game

import (
	"fmt"
	"slices"
)

// Pair is an unordered pair of player ids. Always build it with NewPair.
type Pair struct {
	A, B string
}

// NewPair canonicalizes the pair so that NewPair(x, y) == NewPair(y, x).
func NewPair(x, y string) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

func (p Pair) Has(id string) bool {
	return p.A == id || p.B == id
}

// Peer returns the other member of the pair.
func (p Pair) Peer(id string) string {
	if p.A == id {
		return p.B
	}
	return p.A
}

// Exchange holds the cards each side committed to give away.
type Exchange struct {
	Pair  Pair
	Cards map[string][]int
}

// ExchangeResult tells the caller what a commit did.
type ExchangeResult struct {
	Peer      string
	Completed bool
	Given     []int
	Received  []int
}

func (r *Round) exchangeOf(playerID string) *Exchange {
	for pair, ex := range r.Exchange {
		if pair.Has(playerID) {
			return ex
		}
	}
	return nil
}

func (r *Round) marriageHolder() string {
	for _, id := range r.Players {
		if p, ok := r.registry.player(id); ok && p.MarkerCount >= 2 {
			return id
		}
	}
	return ""
}

// canExchange checks the round level preconditions of any exchange step.
func (r *Round) canExchange(playerID string) error {
	if !r.AllowExchange {
		return ErrExchangeNotAllowed
	}
	if !r.HasPlayer(playerID) {
		return ErrNotInRound
	}
	if r.CardPlayed() {
		return fmt.Errorf("%w: cards already played", ErrExchangeNotAllowed)
	}
	return nil
}

// ExchangePeers lists who playerID may propose an exchange to. With a marriage in the round
// only its holder may start one, with anybody. Otherwise partners of the same party may swap.
func (r *Round) ExchangePeers(playerID string) ([]string, error) {
	if err := r.canExchange(playerID); err != nil {
		return nil, err
	}
	if len(r.Exchange) > 0 {
		return nil, ErrExchangePending
	}
	p, ok := r.registry.player(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}

	holder := r.marriageHolder()
	var peers []string
	for _, id := range r.Players {
		if id == playerID {
			continue
		}
		q, ok := r.registry.player(id)
		if !ok {
			continue
		}
		if holder != "" {
			if playerID == holder {
				peers = append(peers, id)
			}
			continue
		}
		if p.Party() == q.Party() {
			peers = append(peers, id)
		}
	}
	if len(peers) == 0 {
		return nil, ErrExchangeNotAllowed
	}
	return peers, nil
}

// ProposeExchange asks peerID to exchange cards with playerID.
func (r *Round) ProposeExchange(playerID, peerID string) error {
	peers, err := r.ExchangePeers(playerID)
	if err != nil {
		return err
	}
	if !slices.Contains(peers, peerID) {
		return fmt.Errorf("%w: %s is no valid partner", ErrExchangeNotAllowed, peerID)
	}
	p, _ := r.registry.player(playerID)
	p.ExchangeNew(peerID)
	return nil
}

// AcceptExchange opens the exchange record once the asked player agrees.
func (r *Round) AcceptExchange(peerID, playerID string) error {
	if err := r.canExchange(peerID); err != nil {
		return err
	}
	if len(r.Exchange) > 0 {
		return ErrExchangePending
	}
	p, ok := r.registry.player(playerID)
	if !ok || p.ExchangePeerID != peerID {
		return ErrNoExchange
	}
	q, ok := r.registry.player(peerID)
	if !ok {
		return ErrUnknownPlayer
	}
	q.ExchangeNew(playerID)

	pair := NewPair(playerID, peerID)
	r.Exchange[pair] = &Exchange{Pair: pair, Cards: map[string][]int{}}
	r.Touch()
	return nil
}

// DenyExchange drops the proposal made to peerID and returns who proposed it.
func (r *Round) DenyExchange(peerID string) (string, error) {
	for _, id := range r.Players {
		p, ok := r.registry.player(id)
		if !ok || p.ExchangePeerID != peerID {
			continue
		}
		if r.exchangeOf(id) != nil {
			continue
		}
		p.ExchangeClear()
		return id, nil
	}
	return "", ErrNoExchange
}

// CancelExchange aborts any proposal or open exchange of playerID and returns the peer.
func (r *Round) CancelExchange(playerID string) (string, error) {
	p, ok := r.registry.player(playerID)
	if !ok {
		return "", ErrUnknownPlayer
	}
	peerID := p.ExchangePeerID
	if ex := r.exchangeOf(playerID); ex != nil {
		peerID = ex.Pair.Peer(playerID)
		delete(r.Exchange, ex.Pair)
		r.Touch()
	}
	if peerID == "" {
		return "", ErrNoExchange
	}
	p.ExchangeClear()
	if q, ok := r.registry.player(peerID); ok && q.ExchangePeerID == playerID {
		q.ExchangeClear()
	}
	return peerID, nil
}

// CommitExchange records the cards playerID gives away. When the peer has committed as well both
// hands are swapped at once and the record is removed.
func (r *Round) CommitExchange(playerID string, cards []int) (ExchangeResult, error) {
	ex := r.exchangeOf(playerID)
	if ex == nil {
		return ExchangeResult{}, ErrNoExchange
	}
	if r.CardPlayed() {
		return ExchangeResult{}, fmt.Errorf("%w: cards already played", ErrExchangeNotAllowed)
	}
	if len(cards) == 0 || hasDuplicates(cards) {
		return ExchangeResult{}, ErrExchangeMismatch
	}
	p, ok := r.registry.player(playerID)
	if !ok {
		return ExchangeResult{}, ErrUnknownPlayer
	}
	if !p.HasCards(cards) {
		return ExchangeResult{}, ErrCardNotInHand
	}

	peerID := ex.Pair.Peer(playerID)
	result := ExchangeResult{Peer: peerID}
	theirs := ex.Cards[peerID]
	if len(theirs) == 0 {
		ex.Cards[playerID] = slices.Clone(cards)
		r.Touch()
		return result, nil
	}
	if len(theirs) != len(cards) {
		return result, fmt.Errorf("%w: peer gives %d cards", ErrExchangeMismatch, len(theirs))
	}
	q, ok := r.registry.player(peerID)
	if !ok {
		return result, ErrUnknownPlayer
	}
	if !q.HasCards(theirs) {
		return result, fmt.Errorf("%w: peer no longer holds the committed cards", ErrExchangeMismatch)
	}

	// both checks passed, nothing below can fail
	p.RemoveCards(cards)
	q.RemoveCards(theirs)
	p.AddCards(theirs...)
	q.AddCards(cards...)
	delete(r.Exchange, ex.Pair)
	p.ExchangeClear()
	q.ExchangeClear()
	r.Touch()

	result.Completed = true
	result.Given = slices.Clone(cards)
	result.Received = slices.Clone(theirs)
	return result, nil
}

// IsExchangeNeeded reports whether playerID still has to act on, or wait for, an exchange.
func (r *Round) IsExchangeNeeded(playerID string) bool {
	ex := r.exchangeOf(playerID)
	if ex == nil {
		return false
	}
	own := ex.Cards[playerID]
	if len(own) == 0 {
		return true
	}
	peerID := ex.Pair.Peer(playerID)
	if len(ex.Cards[peerID]) == 0 {
		return true
	}
	q, ok := r.registry.player(peerID)
	if !ok {
		return true
	}
	return !q.HasCards(own)
}

// CommittedCards returns what playerID currently offers in an open exchange.
func (r *Round) CommittedCards(playerID string) []int {
	if ex := r.exchangeOf(playerID); ex != nil {
		return slices.Clone(ex.Cards[playerID])
	}
	return nil
}

func hasDuplicates(ids []int) bool {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
