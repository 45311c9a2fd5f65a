package game

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"doko3000/internal/database"
	"doko3000/internal/shared"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// AdminName is the player created when the game starts without any players.
const AdminName = "admin"

// Game is the registry of all players and tables. It is not safe for concurrent use;
// the service layer serializes access.
type Game struct {
	Players map[string]*shared.Player
	Tables  map[string]*Table

	deck     *shared.Deck
	shuffle  func([]int)
	withNine bool
	newID    func() string
	deleted  []string // Document keys waiting to be removed from the store
}

// Option configures a Game.
type Option func(*Game)

// WithShuffler replaces the random shuffle, for deterministic deals.
func WithShuffler(shuffle func([]int)) Option {
	return func(g *Game) { g.shuffle = shuffle }
}

// WithNine sets whether new tables play with the nines.
func WithNine(on bool) Option {
	return func(g *Game) { g.withNine = on }
}

// WithDeck replaces the default deck.
func WithDeck(d *shared.Deck) Option {
	return func(g *Game) { g.deck = d }
}

// New initializes an empty game.
func New(opts ...Option) *Game {
	g := &Game{
		Players:  make(map[string]*shared.Player),
		Tables:   make(map[string]*Table),
		deck:     shared.DefaultDeck(),
		shuffle:  shared.Shuffle,
		withNine: true,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) Deck() *shared.Deck {
	return g.deck
}

func (g *Game) player(id string) (*shared.Player, bool) {
	p, ok := g.Players[id]
	return p, ok
}

// Player looks up a player by id.
func (g *Game) Player(id string) (*shared.Player, error) {
	p, ok := g.Players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	return p, nil
}

// PlayerByName looks up a player by login name.
func (g *Game) PlayerByName(name string) (*shared.Player, bool) {
	for _, p := range g.Players {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Table looks up a table by id.
func (g *Game) Table(id string) (*Table, error) {
	t, ok := g.Tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, id)
	}
	return t, nil
}

func (g *Game) tableByName(name string) (*Table, bool) {
	for _, t := range g.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// PlayerList returns all players sorted by name.
func (g *Game) PlayerList() []*shared.Player {
	players := make([]*shared.Player, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	return players
}

// TableList returns all tables sorted by name.
func (g *Game) TableList() []*Table {
	tables := make([]*Table, 0, len(g.Tables))
	for _, t := range g.Tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables
}

// allocateID returns an id that is not used by any player or table.
func (g *Game) allocateID() string {
	for {
		id := g.newID()
		_, player := g.Players[id]
		_, table := g.Tables[id]
		if !player && !table {
			return id
		}
		log.Warnf("Generated id %s collides, retrying.", id)
	}
}

// AddPlayer registers a new player. An empty password leaves the player unable to log in.
func (g *Game) AddPlayer(name, password string) (*shared.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if _, exists := g.PlayerByName(name); exists {
		return nil, fmt.Errorf("%w: %s", ErrPlayerExists, name)
	}
	p := shared.NewPlayer(g.allocateID(), name)
	if password != "" {
		if err := p.SetPassword(password); err != nil {
			return nil, err
		}
	}
	g.Players[p.ID] = p
	log.Infof("Added player %s (%s).", p.Name, p.ID)
	return p, nil
}

// AddTable creates a table together with its round and trick slots.
func (g *Game) AddTable(name string) (*Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if _, exists := g.tableByName(name); exists {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	id := g.allocateID()
	round := newRound(id, g.deck, g.shuffle, g)
	round.WithNine = g.withNine
	t := newTable(id, name, round, g)
	g.Tables[id] = t
	log.Infof("Added table %s (%s).", t.Name, t.ID)
	return t, nil
}

// EnterTable seats a player, leaving any other table first.
func (g *Game) EnterTable(playerID, tableID string) error {
	p, err := g.Player(playerID)
	if err != nil {
		return err
	}
	t, err := g.Table(tableID)
	if err != nil {
		return err
	}
	if err := t.CanEnter(p); err != nil {
		return err
	}
	if p.Table != "" && p.Table != tableID {
		if old, ok := g.Tables[p.Table]; ok {
			old.RemovePlayer(p.ID)
		}
	}
	// A player may still be listed somewhere else after a crash
	for _, other := range g.Tables {
		if other.ID != tableID && other.HasPlayer(p.ID) {
			other.RemovePlayer(p.ID)
		}
	}
	if err := t.AddPlayer(p); err != nil {
		return err
	}
	g.CheckTables()
	return nil
}

// LeaveTable removes a player from the table they sit at.
func (g *Game) LeaveTable(playerID string) error {
	p, err := g.Player(playerID)
	if err != nil {
		return err
	}
	if t, ok := g.Tables[p.Table]; ok {
		t.RemovePlayer(p.ID)
	}
	p.SetTable("")
	g.CheckTables()
	return nil
}

// DeletePlayer scrubs the player from every table and round before removing them.
func (g *Game) DeletePlayer(id string) error {
	p, err := g.Player(id)
	if err != nil {
		return err
	}
	for _, t := range g.Tables {
		t.RemovePlayer(id)
	}
	delete(g.Players, id)
	g.deleted = append(g.deleted, database.Key(database.TypePlayer, id))
	log.Infof("Deleted player %s.", p.Name)
	g.CheckTables()
	return nil
}

// DeleteTable removes an empty table with its round and tricks.
func (g *Game) DeleteTable(id string) error {
	t, err := g.Table(id)
	if err != nil {
		return err
	}
	if len(t.Players) > 0 {
		return fmt.Errorf("%w: %d players seated", ErrTableNotEmpty, len(t.Players))
	}
	for _, p := range g.Players {
		if p.Table == id {
			p.SetTable("")
		}
	}
	delete(g.Tables, id)
	g.deleted = append(g.deleted,
		database.Key(database.TypeTable, id),
		database.Key(database.TypeRound, id))
	for _, trick := range t.round.Tricks() {
		g.deleted = append(g.deleted, database.Key(database.TypeTrick, trick.ID))
	}
	log.Infof("Deleted table %s.", t.Name)
	return nil
}

// CheckTables unlocks every locked table nobody sits at. Returns the unlocked ids.
func (g *Game) CheckTables() []string {
	var unlocked []string
	for _, t := range g.Tables {
		if t.Locked && len(t.Players) == 0 {
			t.SetLocked(false)
			unlocked = append(unlocked, t.ID)
		}
	}
	sort.Strings(unlocked)
	return unlocked
}

// SetSpectatorOnly changes the flag and moves the player in or out of the rotation.
func (g *Game) SetSpectatorOnly(playerID string, on bool) error {
	p, err := g.Player(playerID)
	if err != nil {
		return err
	}
	p.IsSpectatorOnly = on
	p.Touch()
	if t, ok := g.Tables[p.Table]; ok {
		t.UpdateSpectator(p)
	}
	return nil
}

// Hand returns the cards of a player. Idle players hold nothing, stale cards are dropped.
func (g *Game) Hand(playerID string) ([]shared.Card, error) {
	p, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	t, ok := g.Tables[p.Table]
	if !ok || t.IsIdle(p.ID) {
		p.RemoveAllCards()
		return []shared.Card{}, nil
	}
	p.DropUnknownCards(g.deck)
	return g.deck.GetCards(p.Cards)
}

// Bootstrap creates the admin player if the game has no players at all.
func (g *Game) Bootstrap(adminPassword string) (*shared.Player, bool, error) {
	if len(g.Players) > 0 {
		return nil, false, nil
	}
	p, err := g.AddPlayer(AdminName, adminPassword)
	if err != nil {
		return nil, false, err
	}
	p.IsAdmin = true
	p.Touch()
	log.Infof("Bootstrapped %s player.", AdminName)
	return p, true, nil
}

// Repair fixes references that do not add up, as they may after a crash or manual edits.
func (g *Game) Repair() int {
	fixes := 0
	for _, t := range g.Tables {
		known := func(ids []string) []string {
			return slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
				_, ok := g.Players[id]
				return !ok
			})
		}
		refs := slices.Concat(t.round.Players, t.round.TrickOrder, []string{t.round.CurrentPlayerID})
		slices.Sort(refs)
		for _, id := range slices.Compact(refs) {
			if _, ok := g.Players[id]; id != "" && !ok {
				log.Warnf("Table %s: dropped unknown player %s from the round.", t.Name, id)
				t.round.RemovePlayer(id)
				fixes++
			}
		}
		players, order := known(t.Players), known(t.Order)
		if len(players) != len(t.Players) || len(order) != len(t.Order) {
			log.Warnf("Table %s: dropped unknown players.", t.Name)
			t.Players, t.Order = players, order
			t.PlayersReady = known(t.PlayersReady)
			t.Touch()
			fixes++
		}
	}
	for _, p := range g.Players {
		fixes += p.DropUnknownCards(g.deck)
		t, ok := g.Tables[p.Table]
		if p.Table != "" && (!ok || !t.HasPlayer(p.ID)) {
			log.Warnf("Player %s: cleared stale table %s.", p.Name, p.Table)
			p.SetTable("")
			fixes++
		}
		if (!ok || t.IsIdle(p.ID)) && len(p.Cards) > 0 {
			log.Warnf("Player %s: idle player held %d cards.", p.Name, len(p.Cards))
			p.RemoveAllCards()
			fixes++
		}
	}
	return fixes
}

// TakeDeleted returns and forgets the keys of deleted documents.
func (g *Game) TakeDeleted() []string {
	keys := g.deleted
	g.deleted = nil
	return keys
}

// RequeueDeleted hands keys back after removing them from the store failed.
func (g *Game) RequeueDeleted(keys []string) {
	g.deleted = append(keys, g.deleted...)
}
