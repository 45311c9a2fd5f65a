package game

import (
	"fmt"
	"slices"
	"time"

	"doko3000/internal/shared"

	log "github.com/sirupsen/logrus"
)

// Phase is derived from the round state, it is never stored.
type Phase string

const (
	Waiting        Phase = "Waiting"        // No four players dealt in yet
	Dealt          Phase = "Dealt"          // Cards dealt, nothing played
	InProgress     Phase = "InProgress"     // Current trick accepts cards
	TrickClaimable Phase = "TrickClaimable" // Current trick is complete and must be claimed
	Finished       Phase = "Finished"       // All tricks played and claimed
)

// Stats are points and tricks per player, recomputed from the trick owners.
type Stats struct {
	Score  map[string]int `json:"score"`
	Tricks map[string]int `json:"tricks"`
}

// registry resolves player ids. Implemented by Game.
type registry interface {
	player(id string) (*shared.Player, bool)
}

// Round is the state machine of one table. It survives resets and shares the table's id.
type Round struct {
	ID                string
	Players           []string // The active four, index 0 is the dealer
	TurnCount         int      // Cards played since the last reset
	CurrentPlayerID   string
	TrickOrder        []string // Players rotated so the leading player comes first
	WithNine          bool // Applies from the next deal on
	DealtCards        int  // Cards dealt at the last reset
	AllowUndo         bool
	AllowExchange     bool
	CardsTimestamp    int64
	Stats             Stats
	Exchange          map[Pair]*Exchange
	PlayerShowingHand string

	tricks   map[int]*shared.Trick // Pre-allocated slots 1..MaxTricks
	cards    []int
	deck     *shared.Deck
	shuffle  func([]int)
	registry registry

	shared.Tracker
}

func newRound(id string, deck *shared.Deck, shuffle func([]int), reg registry) *Round {
	r := &Round{
		ID:            id,
		Players:       []string{},
		TrickOrder:    []string{},
		WithNine:      true,
		AllowUndo:     true,
		AllowExchange: true,
		Stats:         Stats{Score: map[string]int{}, Tricks: map[string]int{}},
		Exchange:      map[Pair]*Exchange{},
		tricks:        make(map[int]*shared.Trick, deck.MaxTricks()),
		deck:          deck,
		shuffle:       shuffle,
		registry:      reg,
	}
	for n := 1; n <= deck.MaxTricks(); n++ {
		r.tricks[n] = shared.NewTrick(shared.TrickID(id, n))
	}
	r.Touch()
	return r
}

// Trick returns slot n, counting from 1.
func (r *Round) Trick(n int) *shared.Trick {
	return r.tricks[n]
}

// Tricks returns all slots in order.
func (r *Round) Tricks() []*shared.Trick {
	tricks := make([]*shared.Trick, 0, len(r.tricks))
	for n := 1; n <= len(r.tricks); n++ {
		tricks = append(tricks, r.tricks[n])
	}
	return tricks
}

// CardsPerPlayer is the hand size of the current deal. Before the first deal it follows
// the nines setting.
func (r *Round) CardsPerPlayer() int {
	return r.TotalCards() / shared.Players
}

// TotalCards is the number of cards in the current deal.
func (r *Round) TotalCards() int {
	if r.DealtCards > 0 {
		return r.DealtCards
	}
	return len(r.deck.IDs(r.WithNine))
}

// TrickCount is the number of claimed tricks.
func (r *Round) TrickCount() int {
	n := 0
	for i := 1; i <= len(r.tricks); i++ {
		if r.tricks[i].Owner == "" {
			break
		}
		n++
	}
	return n
}

// CurrentTrick is the first unclaimed slot, nil once every slot is claimed.
func (r *Round) CurrentTrick() *shared.Trick {
	return r.tricks[r.TrickCount()+1]
}

// PreviousTrick is the last claimed slot, nil before the first claim.
func (r *Round) PreviousTrick() *shared.Trick {
	return r.tricks[r.TrickCount()]
}

func (r *Round) HasPlayer(id string) bool {
	return slices.Contains(r.Players, id)
}

func (r *Round) CardPlayed() bool {
	return r.TurnCount > 0
}

func (r *Round) IsReset() bool {
	return r.TurnCount == 0
}

func (r *Round) IsFinished() bool {
	return len(r.Players) == shared.Players && r.TurnCount == r.TotalCards()
}

// NeedsTrickClaiming is true while a complete trick waits for its owner.
func (r *Round) NeedsTrickClaiming() bool {
	t := r.CurrentTrick()
	return t != nil && t.IsLastTurn()
}

// NeedsDealing is true when there is no playable deal.
func (r *Round) NeedsDealing() bool {
	return len(r.Players) < shared.Players || (r.IsFinished() && r.TrickCount() >= r.CardsPerPlayer())
}

func (r *Round) Phase() Phase {
	switch {
	case len(r.Players) < shared.Players:
		return Waiting
	case r.NeedsTrickClaiming():
		return TrickClaimable
	case r.IsFinished():
		return Finished
	case r.IsReset():
		return Dealt
	default:
		return InProgress
	}
}

// Reset deals a new round to players.
func (r *Round) Reset(players []string) error {
	if len(players) != shared.Players {
		return fmt.Errorf("%w: got %d", ErrNotEnoughPlayers, len(players))
	}
	seated := make([]*shared.Player, 0, len(players))
	for _, id := range players {
		p, ok := r.registry.player(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
		}
		seated = append(seated, p)
	}

	r.Players = slices.Clone(players)
	r.TurnCount = 0
	r.PlayerShowingHand = ""
	r.Exchange = map[Pair]*Exchange{}
	for _, t := range r.tricks {
		t.Reset()
	}
	// The player after the dealer leads
	r.CurrentPlayerID = r.Players[1]

	r.cards = r.deck.IDs(r.WithNine)
	r.shuffle(r.cards)
	r.deal(seated)
	r.DealtCards = len(r.cards)

	r.CardsTimestamp = nextTimestamp(r.CardsTimestamp)
	r.calculateTrickOrder()
	r.CalculateStats()
	r.Touch()
	log.Infof("Round %s: dealt %d cards to %v.", r.ID, len(r.cards), r.Players)
	return nil
}

func (r *Round) deal(seated []*shared.Player) {
	hands := shared.Deal(r.cards, len(seated))
	for i, p := range seated {
		p.RemoveAllCards()
		p.ExchangeClear()
		p.AddCards(hands[i]...)
		p.CountMarkers(r.deck)
	}
}

func nextTimestamp(prev int64) int64 {
	now := time.Now().UnixNano()
	if now <= prev {
		return prev + 1
	}
	return now
}

// PlayCard puts cardID from the player's hand into the current trick.
func (r *Round) PlayCard(playerID string, cardID int) (*shared.Trick, error) {
	if !r.deck.Has(cardID) {
		return nil, fmt.Errorf("card %d: %w", cardID, shared.ErrUnknownCard)
	}
	if !r.HasPlayer(playerID) {
		return nil, ErrNotInRound
	}
	if r.IsFinished() {
		return nil, ErrRoundFinished
	}
	if playerID != r.CurrentPlayerID {
		return nil, ErrNotYourTurn
	}
	if len(r.Exchange) > 0 {
		return nil, ErrExchangePending
	}
	trick := r.CurrentTrick()
	if trick == nil {
		return nil, ErrRoundFinished
	}
	if trick.IsLastTurn() {
		return nil, ErrTrickNotClaimed
	}
	p, ok := r.registry.player(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	pos := slices.Index(p.Cards, cardID)
	if pos < 0 {
		return nil, ErrCardNotInHand
	}

	if err := trick.AddTurn(playerID, cardID, pos); err != nil {
		return nil, err
	}
	p.RemoveCard(cardID)
	r.TurnCount++
	r.nextPlayer()
	r.Touch()
	return trick, nil
}

// nextPlayer advances the turn, wrapping after the fourth player.
func (r *Round) nextPlayer() string {
	i := slices.Index(r.Players, r.CurrentPlayerID)
	if i < 0 {
		return r.CurrentPlayerID
	}
	r.CurrentPlayerID = r.Players[(i+1)%len(r.Players)]
	return r.CurrentPlayerID
}

// ClaimResult describes what TakeTrick changed.
type ClaimResult struct {
	Trick     int  // Number of the claimed slot
	Reclaimed bool // An already claimed trick changed hands
	Finished  bool // This claim completed the round
}

// TakeTrick gives the complete current trick to playerID. If nothing was played since the
// last claim the previous trick is reassigned instead, so the latest claim wins.
func (r *Round) TakeTrick(playerID string) (ClaimResult, error) {
	if !r.HasPlayer(playerID) {
		return ClaimResult{}, ErrNotInRound
	}
	var result ClaimResult
	current := r.CurrentTrick()
	if current != nil && current.Len() > 0 {
		if !current.IsLastTurn() {
			return result, ErrTrickIncomplete
		}
		current.SetOwner(playerID)
		result.Trick = r.TrickCount()
	} else {
		n := r.TrickCount()
		if n == 0 {
			return result, ErrNoTrick
		}
		r.tricks[n].SetOwner(playerID)
		result.Trick = n
		result.Reclaimed = true
	}

	r.CurrentPlayerID = playerID
	r.calculateTrickOrder()
	r.CalculateStats()
	r.Touch()
	result.Finished = !result.Reclaimed && r.IsFinished()
	return result, nil
}

// Undo takes back the cards of the current trick, or of the previous one if the current
// trick is still empty.
func (r *Round) Undo() error {
	if !r.AllowUndo {
		return ErrUndoNotAllowed
	}
	if !r.CardPlayed() {
		return ErrNothingToUndo
	}
	if r.IsFinished() && !r.NeedsTrickClaiming() {
		return ErrRoundFinished
	}
	t := r.CurrentTrick()
	if t == nil || t.Len() == 0 {
		t = r.PreviousTrick()
	}
	if t == nil || t.Len() == 0 {
		return ErrNothingToUndo
	}

	// latest play first, so every card goes back where it was
	for n := t.Len(); n >= 1; n-- {
		id, card, _ := t.Turn(n)
		if p, ok := r.registry.player(id); ok {
			p.InsertCard(t.Position(n), card)
		}
	}
	r.TurnCount -= t.Len()
	r.CurrentPlayerID = t.Leader()
	t.Reset()

	r.calculateTrickOrder()
	r.CalculateStats()
	r.Touch()
	return nil
}

func (r *Round) calculateTrickOrder() {
	i := slices.Index(r.Players, r.CurrentPlayerID)
	if i < 0 {
		r.TrickOrder = slices.Clone(r.Players)
		return
	}
	r.TrickOrder = append(slices.Clone(r.Players[i:]), r.Players[:i]...)
}

// CalculateStats recounts score and tricks of the round players from the claimed tricks.
func (r *Round) CalculateStats() {
	stats := Stats{
		Score:  make(map[string]int, len(r.Players)),
		Tricks: make(map[string]int, len(r.Players)),
	}
	for _, id := range r.Players {
		stats.Score[id] = 0
		stats.Tricks[id] = 0
	}
	for _, t := range r.tricks {
		if _, ok := stats.Score[t.Owner]; !ok {
			continue
		}
		stats.Score[t.Owner] += r.deck.Value(t.Cards)
		stats.Tricks[t.Owner]++
	}
	r.Stats = stats
}

// RemovePlayer drops id from the round roster and any exchange it takes part in.
func (r *Round) RemovePlayer(id string) {
	if !r.HasPlayer(id) && !slices.Contains(r.TrickOrder, id) && r.CurrentPlayerID != id {
		return
	}
	if ex := r.exchangeOf(id); ex != nil {
		if q, ok := r.registry.player(ex.Pair.Peer(id)); ok {
			q.ExchangeClear()
		}
		delete(r.Exchange, ex.Pair)
	}
	r.Players = slices.DeleteFunc(slices.Clone(r.Players), func(p string) bool { return p == id })
	r.TrickOrder = slices.DeleteFunc(slices.Clone(r.TrickOrder), func(p string) bool { return p == id })
	if r.CurrentPlayerID == id {
		r.CurrentPlayerID = ""
	}
	if r.PlayerShowingHand == id {
		r.PlayerShowingHand = ""
	}
	r.Touch()
}

// ShowHand marks playerID as revealing their hand to the table.
func (r *Round) ShowHand(playerID string) error {
	if !r.HasPlayer(playerID) {
		return ErrNotInRound
	}
	r.PlayerShowingHand = playerID
	r.Touch()
	return nil
}

// TableCards returns what lies on the table: the current trick, or the previous one while the
// current is still empty.
func (r *Round) TableCards() []int {
	t := r.CurrentTrick()
	if t == nil || t.Len() == 0 {
		t = r.PreviousTrick()
	}
	if t == nil {
		return []int{}
	}
	return slices.Clone(t.Cards)
}
