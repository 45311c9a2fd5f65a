package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"doko3000/internal/database"
	"doko3000/internal/game"
	"doko3000/internal/protocol"

	log "github.com/sirupsen/logrus"
)

const (
	inboxSize    = 64
	storeTimeout = 5 * time.Second
)

var ErrClosed = errors.New("service closed")

// Publisher delivers outbound events, to local websocket sessions or through a broker.
type Publisher interface {
	Publish(ev protocol.Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ev protocol.Event) error

func (f PublisherFunc) Publish(ev protocol.Event) error { return f(ev) }

// outcome is what a handler hands back: events to publish and extra documents to save.
type outcome struct {
	events []protocol.Event
	docs   []database.Document
}

func (o *outcome) emit(evs ...protocol.Event) {
	o.events = append(o.events, evs...)
}

// request is one command queued at a table actor.
type request struct {
	ctx      context.Context
	playerID string
	cmd      tableCommand
	reply    chan error
}

// tableActor serializes all commands of one table.
type tableActor struct {
	id    string
	inbox chan request
	stop  chan struct{}
	done  chan struct{}
}

// Service owns the game. Every table has its own actor goroutine; commands spanning several
// tables take the exclusive lock, which waits for running actors to finish their command.
type Service struct {
	game  *game.Game
	store database.Store
	pub   Publisher

	mu sync.RWMutex // shared while an actor runs a command, exclusive for global commands

	actorsMu sync.Mutex
	actors   map[string]*tableActor
	closed   bool
	wg       sync.WaitGroup
}

// New creates the service. Events are dropped until a publisher is set.
func New(g *game.Game, store database.Store) *Service {
	return &Service{
		game:   g,
		store:  store,
		pub:    PublisherFunc(func(protocol.Event) error { return nil }),
		actors: make(map[string]*tableActor),
	}
}

// SetPublisher must be called before the first command.
func (s *Service) SetPublisher(pub Publisher) {
	s.pub = pub
}

// Load reads the game from the store and creates the admin on an empty installation.
func (s *Service) Load(ctx context.Context, adminPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.Load(ctx, s.store); err != nil {
		return err
	}
	if _, _, err := s.game.Bootstrap(adminPassword); err != nil {
		return err
	}
	s.flushAll(ctx, nil)
	return nil
}

// Dispatch decodes and executes one inbound message of playerID.
func (s *Service) Dispatch(ctx context.Context, playerID string, msg protocol.Message) error {
	cmd, err := Decode(msg, s.TableOf(playerID))
	if err != nil {
		return err
	}
	return s.Execute(ctx, playerID, cmd)
}

// Execute runs a command on behalf of playerID and publishes the resulting events.
func (s *Service) Execute(ctx context.Context, playerID string, cmd Command) error {
	if tc, ok := cmd.(tableCommand); ok && tc.table() != "" {
		return s.send(ctx, playerID, tc)
	}
	return s.runGlobal(ctx, playerID, cmd)
}

func (s *Service) actor(tableID string) (*tableActor, error) {
	s.actorsMu.Lock()
	defer s.actorsMu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if a, ok := s.actors[tableID]; ok {
		return a, nil
	}
	a := &tableActor{
		id:    tableID,
		inbox: make(chan request, inboxSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	s.actors[tableID] = a
	s.wg.Add(1)
	go s.run(a)
	return a, nil
}

func (s *Service) hasTable(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.game.Tables[id]
	return ok
}

// retire drops a if it is still the registered actor of its table.
func (s *Service) retire(a *tableActor) {
	s.actorsMu.Lock()
	defer s.actorsMu.Unlock()
	if s.actors[a.id] == a {
		close(a.stop)
		delete(s.actors, a.id)
	}
}

func (s *Service) stopActor(tableID string) {
	s.actorsMu.Lock()
	defer s.actorsMu.Unlock()
	if a, ok := s.actors[tableID]; ok {
		close(a.stop)
		delete(s.actors, tableID)
	}
}

func (s *Service) run(a *tableActor) {
	defer s.wg.Done()
	defer close(a.done)
	log.Debugf("Actor for table %s started.", a.id)
	for {
		select {
		case req := <-a.inbox:
			err := s.handle(req)
			req.reply <- err
			if errors.Is(err, game.ErrUnknownTable) {
				// the table was deleted between lookup and delivery
				s.retire(a)
			}
		case <-a.stop:
			log.Debugf("Actor for table %s stopped.", a.id)
			return
		}
	}
}

func (s *Service) send(ctx context.Context, playerID string, cmd tableCommand) error {
	if !s.hasTable(cmd.table()) {
		return game.ErrUnknownTable
	}
	a, err := s.actor(cmd.table())
	if err != nil {
		return err
	}
	req := request{ctx: ctx, playerID: playerID, cmd: cmd, reply: make(chan error, 1)}
	select {
	case a.inbox <- req:
	case <-a.done:
		return game.ErrUnknownTable
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-a.done:
		// the actor may have answered right before stopping
		select {
		case err := <-req.reply:
			return err
		default:
			return game.ErrUnknownTable
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handle runs inside the table actor.
func (s *Service) handle(req request) error {
	s.mu.RLock()
	t, err := s.game.Table(req.cmd.table())
	if err != nil {
		s.mu.RUnlock()
		return err
	}
	t.Lock()
	out, err := s.handleTable(req.playerID, t, req.cmd)
	s.flushTable(req.ctx, t.ID, out.docs)
	debugging := t.IsDebugging
	t.Unlock()
	s.mu.RUnlock()

	s.publish(out.events, debugging)
	return err
}

func (s *Service) runGlobal(ctx context.Context, playerID string, cmd Command) error {
	s.mu.Lock()
	out, err := s.handleGlobal(playerID, cmd)
	s.flushAll(ctx, out.docs)
	s.mu.Unlock()

	s.publish(out.events, false)
	return err
}

func storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	// a client hanging up must not abort the write
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

// flushTable saves the dirty entities of one table in a single batch. On failure they stay
// dirty and go out with the next command.
func (s *Service) flushTable(ctx context.Context, tableID string, extra []database.Document) {
	docs, clean := s.game.TableDocuments(tableID)
	docs = append(docs, extra...)
	if len(docs) == 0 {
		return
	}
	ctx, cancel := storeContext(ctx)
	defer cancel()
	if err := s.store.Save(ctx, docs...); err != nil {
		log.WithError(err).WithField("table", tableID).Errorf("Saving %d documents failed.", len(docs))
		return
	}
	clean()
}

func (s *Service) flushAll(ctx context.Context, extra []database.Document) {
	ctx, cancel := storeContext(ctx)
	defer cancel()

	docs, clean := s.game.Documents()
	docs = append(docs, extra...)
	if len(docs) > 0 {
		if err := s.store.Save(ctx, docs...); err != nil {
			log.WithError(err).Errorf("Saving %d documents failed.", len(docs))
		} else {
			clean()
		}
	}
	if keys := s.game.TakeDeleted(); len(keys) > 0 {
		if err := s.store.Delete(ctx, keys...); err != nil {
			log.WithError(err).Errorf("Deleting %d documents failed.", len(keys))
			s.game.RequeueDeleted(keys)
		}
	}
}

func (s *Service) publish(events []protocol.Event, debugging bool) {
	for _, ev := range events {
		if debugging {
			log.WithFields(log.Fields{
				"table":   ev.Room,
				"event":   ev.Name,
				"session": ev.Session,
			}).Infof("%+v", ev.Payload)
		}
		if err := s.pub.Publish(ev); err != nil {
			log.WithError(err).Errorf("Publishing %s failed.", ev.Name)
		}
	}
}

// Close stops all actors.
func (s *Service) Close() {
	s.actorsMu.Lock()
	s.closed = true
	for id, a := range s.actors {
		close(a.stop)
		delete(s.actors, id)
	}
	s.actorsMu.Unlock()
	s.wg.Wait()
}

// TableOf returns the table a player sits at.
func (s *Service) TableOf(playerID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.game.Players[playerID]; ok {
		return p.Table
	}
	return ""
}

// Authenticate checks name and password and returns the player.
func (s *Service) Authenticate(name, password string) (protocol.PlayerInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.game.PlayerByName(name)
	if !ok || !p.CheckPassword(password) {
		return protocol.PlayerInfo{}, false
	}
	return playerInfo(p), true
}

// Players lists all players.
func (s *Service) Players() []protocol.PlayerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := s.game.PlayerList()
	infos := make([]protocol.PlayerInfo, 0, len(players))
	for _, p := range players {
		infos = append(infos, playerInfo(p))
	}
	return infos
}

// Tables lists all tables.
func (s *Service) Tables() []protocol.TableInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tables := s.game.TableList()
	infos := make([]protocol.TableInfo, 0, len(tables))
	for _, t := range tables {
		t.Lock()
		infos = append(infos, tableInfo(t))
		t.Unlock()
	}
	return infos
}

// Results returns archived round results, optionally only those a player took part in.
func (s *Service) Results(ctx context.Context, playerName string) ([]database.ResultRecord, error) {
	results, err := database.Query[database.ResultRecord](ctx, s.store, database.TypeResult)
	if err != nil {
		return nil, err
	}
	if playerName == "" {
		return results, nil
	}
	filtered := []database.ResultRecord{}
	for _, r := range results {
		for _, name := range r.Players {
			if name == playerName {
				filtered = append(filtered, r)
				break
			}
		}
	}
	return filtered, nil
}
