package game

import (
	"fmt"
	"slices"
	"sync"

	"doko3000/internal/shared"

	log "github.com/sirupsen/logrus"
)

// Table seats players and owns one round with the same id.
type Table struct {
	ID           string
	Name         string
	Players      []string // Everybody seated, spectators included
	Order        []string // Active players in dealing rotation, Order[0] deals
	PlayersReady []string
	Locked       bool
	IsDebugging  bool
	SyncCount    int

	round    *Round
	registry registry
	mu       sync.Mutex

	shared.Tracker
}

// Lock serializes the table actor with readers outside the global lock.
func (t *Table) Lock() { t.mu.Lock() }

func (t *Table) Unlock() { t.mu.Unlock() }

func newTable(id, name string, round *Round, reg registry) *Table {
	t := &Table{
		ID:           id,
		Name:         name,
		Players:      []string{},
		Order:        []string{},
		PlayersReady: []string{},
		round:        round,
		registry:     reg,
	}
	t.Touch()
	return t
}

// Round returns the round of the table.
func (t *Table) Round() *Round {
	return t.round
}

func (t *Table) HasPlayer(id string) bool {
	return slices.Contains(t.Players, id)
}

// Dealer is the first player in order.
func (t *Table) Dealer() string {
	if len(t.Order) == 0 {
		return ""
	}
	return t.Order[0]
}

func (t *Table) isSpectatorOnly(id string) bool {
	p, ok := t.registry.player(id)
	return ok && p.IsSpectatorOnly
}

// PlayersActive are the seated players who may be dealt in.
func (t *Table) PlayersActive() []string {
	active := []string{}
	for _, id := range t.Players {
		if !t.isSpectatorOnly(id) {
			active = append(active, id)
		}
	}
	return active
}

// PlayersSpectatorOnly are the seated players who only watch.
func (t *Table) PlayersSpectatorOnly() []string {
	spectators := []string{}
	for _, id := range t.Players {
		if t.isSpectatorOnly(id) {
			spectators = append(spectators, id)
		}
	}
	return spectators
}

// PlayersIdle are the players in order beyond the active four.
func (t *Table) PlayersIdle() []string {
	if len(t.Order) <= shared.Players {
		return []string{}
	}
	return slices.Clone(t.Order[shared.Players:])
}

// NextPlayers are the four who get dealt in at the next start.
func (t *Table) NextPlayers() []string {
	if len(t.Order) < shared.Players {
		return slices.Clone(t.Order)
	}
	return slices.Clone(t.Order[:shared.Players])
}

// IsIdle reports whether a seated player has no place in the current round.
func (t *Table) IsIdle(id string) bool {
	return !t.round.HasPlayer(id)
}

// CanEnter checks the lock. Members and admins may always enter.
func (t *Table) CanEnter(p *shared.Player) error {
	if t.Locked && !t.HasPlayer(p.ID) && !p.IsAdmin {
		return ErrTableLocked
	}
	return nil
}

// AddPlayer seats p. Adding a seated player again changes nothing.
func (t *Table) AddPlayer(p *shared.Player) error {
	if err := t.CanEnter(p); err != nil {
		return err
	}
	if !t.HasPlayer(p.ID) {
		t.Players = append(t.Players, p.ID)
		t.Touch()
	}
	if !p.IsSpectatorOnly && !slices.Contains(t.Order, p.ID) {
		t.Order = append(t.Order, p.ID)
		t.Touch()
	}
	if t.IsIdle(p.ID) {
		p.RemoveAllCards()
	}
	p.SetTable(t.ID)
	return nil
}

// RemovePlayer takes id off the table and out of the round. Returns false if id was not seated.
func (t *Table) RemovePlayer(id string) bool {
	seated := t.HasPlayer(id) || slices.Contains(t.Order, id) || t.round.HasPlayer(id)
	if !seated {
		return false
	}
	without := func(ids []string) []string {
		return slices.DeleteFunc(slices.Clone(ids), func(p string) bool { return p == id })
	}
	t.Players = without(t.Players)
	t.Order = without(t.Order)
	t.PlayersReady = without(t.PlayersReady)
	t.round.RemovePlayer(id)
	t.Touch()

	if p, ok := t.registry.player(id); ok && p.Table == t.ID {
		p.SetTable("")
		p.RemoveAllCards()
		p.ExchangeClear()
	}
	log.Infof("Table %s: removed player %s.", t.Name, id)
	return true
}

// Start reinitializes the table from the setup dialog and deals.
func (t *Table) Start() error {
	t.PlayersReady = []string{}
	t.Order = t.PlayersActive()
	t.SyncCount = 0
	t.Touch()
	return t.ResetRound()
}

// ResetRound deals a new round to the first four players in order.
func (t *Table) ResetRound() error {
	if len(t.Order) < shared.Players {
		return fmt.Errorf("%w: %d at table %s", ErrNotEnoughPlayers, len(t.Order), t.Name)
	}
	if err := t.round.Reset(t.NextPlayers()); err != nil {
		return err
	}
	// Idle players never keep cards
	for _, id := range t.Players {
		if t.IsIdle(id) {
			if p, ok := t.registry.player(id); ok {
				p.RemoveAllCards()
				p.ExchangeClear()
			}
		}
	}
	t.PlayersReady = []string{}
	t.IncreaseSyncCount()
	return nil
}

// ShiftPlayers moves the dealer to the end of the rotation.
func (t *Table) ShiftPlayers() {
	if len(t.Order) == 0 {
		return
	}
	t.Order = append(slices.Clone(t.Order[1:]), t.Order[0])
	players := slices.Clone(t.Order)
	for _, id := range t.Players {
		if !slices.Contains(players, id) {
			players = append(players, id)
		}
	}
	t.Players = players
	t.Touch()
}

// SetOrder applies a reordering from the setup dialog. It has to keep every active player.
func (t *Table) SetOrder(order []string) error {
	for _, id := range t.Order {
		if !slices.Contains(order, id) {
			return ErrInvalidOrder
		}
	}
	for _, id := range order {
		if !t.HasPlayer(id) {
			return fmt.Errorf("%w: %s not seated", ErrInvalidOrder, id)
		}
	}
	if hasDuplicateIDs(order) {
		return ErrInvalidOrder
	}

	players := slices.Clone(order)
	for _, id := range t.Players {
		if !slices.Contains(players, id) {
			players = append(players, id)
		}
	}
	active := []string{}
	for _, id := range players {
		if !t.isSpectatorOnly(id) {
			active = append(active, id)
		}
	}
	t.Players = players
	t.Order = active
	t.Touch()
	return nil
}

// UpdateSpectator moves a seated player in or out of the rotation after the flag changed.
func (t *Table) UpdateSpectator(p *shared.Player) {
	if !t.HasPlayer(p.ID) {
		return
	}
	inOrder := slices.Contains(t.Order, p.ID)
	switch {
	case p.IsSpectatorOnly && inOrder:
		t.Order = slices.DeleteFunc(slices.Clone(t.Order), func(id string) bool { return id == p.ID })
		t.Touch()
	case !p.IsSpectatorOnly && !inOrder:
		t.Order = append(t.Order, p.ID)
		t.Touch()
	}
}

// AddReadyPlayer registers a vote. Voting twice counts once.
func (t *Table) AddReadyPlayer(id string) {
	if slices.Contains(t.PlayersReady, id) {
		return
	}
	t.PlayersReady = append(t.PlayersReady, id)
	t.Touch()
}

func (t *Table) ResetReadyPlayers() {
	t.PlayersReady = []string{}
	t.Touch()
}

// AllReady reports whether every round player has voted.
func (t *Table) AllReady() bool {
	if len(t.round.Players) == 0 {
		return false
	}
	for _, id := range t.round.Players {
		if !slices.Contains(t.PlayersReady, id) {
			return false
		}
	}
	return true
}

func (t *Table) SetLocked(locked bool) {
	t.Locked = locked
	t.Touch()
}

func (t *Table) SetDebugging(on bool) {
	t.IsDebugging = on
	t.Touch()
}

func (t *Table) SetWithNine(on bool) {
	t.round.WithNine = on
	t.round.Touch()
}

func (t *Table) SetAllowUndo(on bool) {
	t.round.AllowUndo = on
	t.round.Touch()
}

func (t *Table) SetAllowExchange(on bool) {
	t.round.AllowExchange = on
	t.round.Touch()
}

// IncreaseSyncCount marks a state change clients have to pick up.
func (t *Table) IncreaseSyncCount() {
	t.SyncCount++
	t.Touch()
}

func hasDuplicateIDs(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
