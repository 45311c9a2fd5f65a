package game

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"doko3000/internal/database"
	"doko3000/internal/shared"

	log "github.com/sirupsen/logrus"
)

type cleaner interface {
	Dirty() bool
	Clean()
}

// batch collects dirty entities for one Store.Save call.
type batch struct {
	docs     []database.Document
	entities []cleaner
}

func (b *batch) add(e cleaner, doc func() database.Document) {
	if !e.Dirty() {
		return
	}
	b.docs = append(b.docs, doc())
	b.entities = append(b.entities, e)
}

func (b *batch) addTable(t *Table) {
	b.add(t, func() database.Document { return tableRecord(t) })
	b.add(t.round, func() database.Document { return roundRecord(t.round) })
	for _, trick := range t.round.Tricks() {
		b.add(trick, func() database.Document { return trickRecord(trick) })
	}
}

func (b *batch) clean() {
	for _, e := range b.entities {
		e.Clean()
	}
}

// TableDocuments returns the unsaved documents of one table: the table, its round and tricks and
// every player seated or dealt in there. Call the returned func after saving succeeded.
func (g *Game) TableDocuments(tableID string) ([]database.Document, func()) {
	b := &batch{}
	t, ok := g.Tables[tableID]
	if !ok {
		return nil, func() {}
	}
	b.addTable(t)
	ids := slices.Clone(t.Players)
	for _, id := range t.round.Players {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		if p, ok := g.Players[id]; ok {
			b.add(p, func() database.Document { return playerRecord(p) })
		}
	}
	return b.docs, b.clean
}

// Documents returns every unsaved document of the game.
func (g *Game) Documents() ([]database.Document, func()) {
	b := &batch{}
	for _, t := range g.Tables {
		b.addTable(t)
	}
	for _, p := range g.Players {
		b.add(p, func() database.Document { return playerRecord(p) })
	}
	return b.docs, b.clean
}

func playerRecord(p *shared.Player) database.PlayerRecord {
	return database.PlayerRecord{
		ID:               p.ID,
		Name:             p.Name,
		PasswordHash:     p.PasswordHash,
		Cards:            slices.Clone(p.Cards),
		Table:            p.Table,
		IsAdmin:          p.IsAdmin,
		IsSpectatorOnly:  p.IsSpectatorOnly,
		AllowsSpectators: p.AllowsSpectators,
		MarkerCount:      p.MarkerCount,
		ExchangePeerID:   p.ExchangePeerID,
	}
}

func tableRecord(t *Table) database.TableRecord {
	return database.TableRecord{
		ID:           t.ID,
		Name:         t.Name,
		Players:      slices.Clone(t.Players),
		Order:        slices.Clone(t.Order),
		PlayersReady: slices.Clone(t.PlayersReady),
		Locked:       t.Locked,
		IsDebugging:  t.IsDebugging,
		SyncCount:    t.SyncCount,
	}
}

func roundRecord(r *Round) database.RoundRecord {
	exchanges := make([]database.ExchangeRecord, 0, len(r.Exchange))
	for pair, ex := range r.Exchange {
		cards := make(map[string][]int, len(ex.Cards))
		for id, c := range ex.Cards {
			cards[id] = slices.Clone(c)
		}
		exchanges = append(exchanges, database.ExchangeRecord{Players: [2]string{pair.A, pair.B}, Cards: cards})
	}
	return database.RoundRecord{
		ID:                r.ID,
		Players:           slices.Clone(r.Players),
		TurnCount:         r.TurnCount,
		CurrentPlayerID:   r.CurrentPlayerID,
		WithNine:          r.WithNine,
		DealtCards:        r.DealtCards,
		AllowUndo:         r.AllowUndo,
		AllowExchange:     r.AllowExchange,
		CardsTimestamp:    r.CardsTimestamp,
		Stats:             database.StatsRecord{Score: maps.Clone(r.Stats.Score), Tricks: maps.Clone(r.Stats.Tricks)},
		Exchange:          exchanges,
		PlayerShowingHand: r.PlayerShowingHand,
	}
}

func trickRecord(t *shared.Trick) database.TrickRecord {
	return database.TrickRecord{
		ID:        t.ID,
		Players:   slices.Clone(t.Players),
		Cards:     slices.Clone(t.Cards),
		Positions: slices.Clone(t.Positions),
		Owner:     t.Owner,
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Load replaces the game state with everything in the store and repairs it.
func (g *Game) Load(ctx context.Context, store database.Store) error {
	players, err := database.Query[database.PlayerRecord](ctx, store, database.TypePlayer)
	if err != nil {
		return err
	}
	tables, err := database.Query[database.TableRecord](ctx, store, database.TypeTable)
	if err != nil {
		return err
	}
	rounds, err := database.Query[database.RoundRecord](ctx, store, database.TypeRound)
	if err != nil {
		return err
	}
	tricks, err := database.Query[database.TrickRecord](ctx, store, database.TypeTrick)
	if err != nil {
		return err
	}

	g.Players = make(map[string]*shared.Player, len(players))
	for _, rec := range players {
		p := &shared.Player{
			ID:               rec.ID,
			Name:             rec.Name,
			PasswordHash:     rec.PasswordHash,
			Cards:            orEmpty(rec.Cards),
			Table:            rec.Table,
			IsAdmin:          rec.IsAdmin,
			IsSpectatorOnly:  rec.IsSpectatorOnly,
			AllowsSpectators: rec.AllowsSpectators,
			MarkerCount:      rec.MarkerCount,
			ExchangePeerID:   rec.ExchangePeerID,
		}
		g.Players[p.ID] = p
	}

	roundsByID := make(map[string]database.RoundRecord, len(rounds))
	for _, rec := range rounds {
		roundsByID[rec.ID] = rec
	}
	tricksByID := make(map[string]database.TrickRecord, len(tricks))
	for _, rec := range tricks {
		tricksByID[rec.ID] = rec
	}

	g.Tables = make(map[string]*Table, len(tables))
	for _, rec := range tables {
		round := newRound(rec.ID, g.deck, g.shuffle, g)
		if rr, ok := roundsByID[rec.ID]; ok {
			restoreRound(round, rr)
		} else {
			log.Warnf("Table %s: no round stored, starting empty.", rec.Name)
		}
		for _, trick := range round.Tricks() {
			if tr, ok := tricksByID[trick.ID]; ok {
				restoreTrick(trick, tr)
			}
		}
		round.calculateTrickOrder()
		round.CalculateStats()

		t := newTable(rec.ID, rec.Name, round, g)
		t.Players = orEmpty(rec.Players)
		t.Order = orEmpty(rec.Order)
		t.PlayersReady = orEmpty(rec.PlayersReady)
		t.Locked = rec.Locked
		t.IsDebugging = rec.IsDebugging
		t.SyncCount = rec.SyncCount
		t.Clean()
		g.Tables[t.ID] = t
	}

	fixes := g.Repair()
	log.Infof("Loaded %d players and %d tables, %d repairs.", len(g.Players), len(g.Tables), fixes)
	return nil
}

func restoreTrick(t *shared.Trick, rec database.TrickRecord) {
	if len(rec.Players) != len(rec.Cards) || len(rec.Cards) > shared.TurnsPerTrick {
		log.Warnf("Trick %s: players and cards differ, resetting.", t.ID)
		t.Players, t.Cards, t.Positions, t.Owner = []string{}, []int{}, []int{}, ""
		t.Touch()
		return
	}
	t.Players = slices.Clone(rec.Players)
	t.Cards = slices.Clone(rec.Cards)
	t.Positions = slices.Clone(rec.Positions)
	if len(t.Positions) != len(t.Cards) {
		// unknown positions put undone cards at the end of the hand
		t.Positions = slices.Repeat([]int{-1}, len(t.Cards))
	}
	t.Owner = rec.Owner
	t.Clean()
}

func restoreRound(r *Round, rec database.RoundRecord) {
	r.Players = orEmpty(rec.Players)
	r.TurnCount = rec.TurnCount
	r.CurrentPlayerID = rec.CurrentPlayerID
	r.WithNine = rec.WithNine
	r.DealtCards = rec.DealtCards
	r.AllowUndo = rec.AllowUndo
	r.AllowExchange = rec.AllowExchange
	r.CardsTimestamp = rec.CardsTimestamp
	r.PlayerShowingHand = rec.PlayerShowingHand
	r.Exchange = make(map[Pair]*Exchange, len(rec.Exchange))
	for _, ex := range rec.Exchange {
		pair := NewPair(ex.Players[0], ex.Players[1])
		cards := ex.Cards
		if cards == nil {
			cards = map[string][]int{}
		}
		r.Exchange[pair] = &Exchange{Pair: pair, Cards: cards}
	}
	r.Clean()
}

// Result archives the scores of a finished round under player names.
func (g *Game) Result(tableID string) (database.ResultRecord, error) {
	t, err := g.Table(tableID)
	if err != nil {
		return database.ResultRecord{}, err
	}
	r := t.round
	if !r.IsFinished() {
		return database.ResultRecord{}, fmt.Errorf("table %s: %w", t.Name, ErrNotFinished)
	}
	name := func(id string) string {
		if p, ok := g.Players[id]; ok {
			return p.Name
		}
		return id
	}
	res := database.ResultRecord{
		ID:        g.newID(),
		TableID:   t.ID,
		TableName: t.Name,
		CreatedAt: time.Now().UTC(),
		Players:   make([]string, 0, len(r.Players)),
		Score:     map[string]int{},
		Tricks:    map[string]int{},
		Parties:   map[string]string{},
	}
	for _, id := range r.Players {
		n := name(id)
		res.Players = append(res.Players, n)
		res.Score[n] = r.Stats.Score[id]
		res.Tricks[n] = r.Stats.Tricks[id]
		if p, ok := g.Players[id]; ok {
			res.Parties[n] = string(p.Party())
		}
	}
	return res, nil
}
