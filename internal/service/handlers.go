package service

import (
	"fmt"
	"maps"
	"slices"

	"doko3000/internal/game"
	"doko3000/internal/protocol"
	"doko3000/internal/shared"
)

// handleTable runs a table scoped command. Called by the table actor under the shared lock.
func (s *Service) handleTable(playerID string, t *game.Table, cmd tableCommand) (outcome, error) {
	var out outcome
	p, err := s.game.Player(playerID)
	if err != nil {
		return out, err
	}
	if c, ok := cmd.(WhoAmI); ok {
		if p.Table != c.TableID {
			out.emit(whoAmI(p, nil))
			return out, nil
		}
		out.emit(whoAmI(p, t))
		return out, nil
	}
	if p.Table != t.ID || !t.HasPlayer(p.ID) {
		return out, game.ErrNotAtTable
	}

	switch c := cmd.(type) {
	case PlayCard:
		return s.playCard(p, t, c)
	case SortCards:
		if !p.SortCards(c.HandIDs) {
			out.emit(s.yourCards(p, t))
			return out, game.ErrHandMismatch
		}
		return out, nil
	case ClaimTrick:
		return s.claimTrick(p, t)
	case DealCards:
		return s.dealCards(p, t)
	case MyCards:
		out.emit(s.yourCards(p, t))
		return out, nil
	case ShowHand:
		if err := t.Round().ShowHand(p.ID); err != nil {
			return out, err
		}
		t.IncreaseSyncCount()
		out.emit(protocol.ToRoom(t.ID, protocol.PlayerShowsHand, protocol.ShowHandPayload{
			TableID:   t.ID,
			PlayerID:  p.ID,
			Cards:     s.cards(p.Cards),
			SyncCount: t.SyncCount,
		}))
		return out, nil
	case FinalResult:
		out.emit(protocol.ToSession(p.ID, protocol.RoundFinished, s.roundFinished(t)))
		return out, nil
	case RequestPoll:
		return s.requestPoll(p, t, c.Gate)
	case Vote:
		return s.vote(p, t, c.Gate)
	case RequestExchange:
		peers, err := t.Round().ExchangePeers(p.ID)
		if err != nil {
			return out, err
		}
		out.emit(protocol.ToSession(p.ID, protocol.ConfirmExchange, protocol.ExchangePeersPayload{
			TableID:            t.ID,
			PlayersForExchange: peers,
			SyncCount:          t.SyncCount,
		}))
		return out, nil
	case StartExchange:
		if err := t.Round().ProposeExchange(p.ID, c.PeerID); err != nil {
			return out, err
		}
		t.IncreaseSyncCount()
		out.emit(protocol.ToSession(c.PeerID, protocol.ExchangeAskPlayer2, exchangeAsk(t, p.ID, c.PeerID)))
		return out, nil
	case AcceptExchange:
		if err := t.Round().AcceptExchange(p.ID, c.ProposerID); err != nil {
			return out, err
		}
		t.IncreaseSyncCount()
		ask := exchangeAsk(t, c.ProposerID, p.ID)
		out.emit(
			protocol.ToSession(c.ProposerID, protocol.ExchangeStarted, ask),
			protocol.ToSession(p.ID, protocol.ExchangeStarted, ask),
		)
		return out, nil
	case DenyExchange:
		proposer, err := t.Round().DenyExchange(p.ID)
		if err != nil {
			return out, err
		}
		out.emit(protocol.ToSession(proposer, protocol.ExchangeDenied, exchangeAsk(t, proposer, p.ID)))
		return out, nil
	case CancelExchange:
		peer, err := t.Round().CancelExchange(p.ID)
		if err != nil {
			return out, err
		}
		t.IncreaseSyncCount()
		ask := exchangeAsk(t, p.ID, peer)
		out.emit(
			protocol.ToSession(peer, protocol.ExchangeCancelled, ask),
			protocol.ToSession(p.ID, protocol.ExchangeCancelled, ask),
		)
		return out, nil
	case CommitExchange:
		return s.commitExchange(p, t, c)
	}
	return out, fmt.Errorf("%w: %T", ErrUnknownEvent, cmd)
}

func exchangeAsk(t *game.Table, player1, player2 string) protocol.ExchangeAskPayload {
	return protocol.ExchangeAskPayload{
		TableID:   t.ID,
		Player1ID: player1,
		Player2ID: player2,
		SyncCount: t.SyncCount,
	}
}

// handMatches checks the client's remaining hand against the server's hand minus the played card.
func handMatches(hand, remaining []int, played int) bool {
	if len(remaining)+1 != len(hand) {
		return false
	}
	expected := slices.DeleteFunc(slices.Clone(hand), func(id int) bool { return id == played })
	if len(expected) != len(remaining) {
		return false
	}
	a, b := slices.Clone(expected), slices.Clone(remaining)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

func (s *Service) playCard(p *shared.Player, t *game.Table, c PlayCard) (outcome, error) {
	var out outcome
	if c.HandIDs != nil && !handMatches(p.Cards, c.HandIDs, c.CardID) {
		out.emit(s.yourCards(p, t))
		return out, game.ErrHandMismatch
	}
	r := t.Round()
	trick, err := r.PlayCard(p.ID, c.CardID)
	if err != nil {
		return out, err
	}
	t.IncreaseSyncCount()
	card, _ := s.game.Deck().Card(c.CardID)
	out.emit(protocol.ToRoom(t.ID, protocol.CardPlayedBy, protocol.CardPlayedPayload{
		PlayerID:             p.ID,
		TableID:              t.ID,
		Card:                 card,
		IsLastTurn:           trick.IsLastTurn(),
		CurrentPlayerID:      r.CurrentPlayerID,
		PlayersIdle:          t.PlayersIdle(),
		PlayersSpectatorOnly: t.PlayersSpectatorOnly(),
		TurnCount:            r.TurnCount,
		CardsTable:           s.tableCards(t),
		SyncCount:            t.SyncCount,
	}))
	return out, nil
}

func (s *Service) claimTrick(p *shared.Player, t *game.Table) (outcome, error) {
	var out outcome
	r := t.Round()
	res, err := r.TakeTrick(p.ID)
	if err != nil {
		return out, err
	}
	t.IncreaseSyncCount()
	if !res.Finished {
		out.emit(protocol.ToRoom(t.ID, protocol.NextTrick, protocol.NextTrickPayload{
			TableID:         t.ID,
			CurrentPlayerID: r.CurrentPlayerID,
			TrickOrder:      slices.Clone(r.TrickOrder),
			Score:           maps.Clone(r.Stats.Score),
			SyncCount:       t.SyncCount,
		}))
		return out, nil
	}

	if result, err := s.game.Result(t.ID); err == nil {
		out.docs = append(out.docs, result)
	}
	t.ShiftPlayers()
	out.emit(protocol.ToRoom(t.ID, protocol.RoundFinished, s.roundFinished(t)))
	return out, nil
}

func (s *Service) dealCards(p *shared.Player, t *game.Table) (outcome, error) {
	var out outcome
	if p.ID != t.Dealer() && !p.IsAdmin {
		return out, game.ErrPermissionDenied
	}
	if err := t.ResetRound(); err != nil {
		return out, err
	}
	out.emit(protocol.ToRoom(t.ID, protocol.GrabYourCards, protocol.TablePayload{TableID: t.ID, SyncCount: t.SyncCount}))
	return out, nil
}

func (s *Service) requestPoll(p *shared.Player, t *game.Table, g gate) (outcome, error) {
	var out outcome
	if !t.Round().HasPlayer(p.ID) {
		return out, game.ErrNotInRound
	}
	var name string
	switch g {
	case gateUndo:
		if !t.Round().AllowUndo {
			return out, game.ErrUndoNotAllowed
		}
		name = protocol.UndoRequested
	case gateRoundReset:
		name = protocol.RoundResetRequested
	case gateRoundFinish:
		name = protocol.RoundFinishRequested
	default:
		return out, fmt.Errorf("%w: no request for gate %d", ErrBadRequest, g)
	}
	t.ResetReadyPlayers()
	t.AddReadyPlayer(p.ID)
	t.IncreaseSyncCount()
	out.emit(protocol.ToRoom(t.ID, name, readyPayload(t, p.ID)))
	return out, nil
}

func readyPayload(t *game.Table, playerID string) protocol.ReadyPlayerPayload {
	return protocol.ReadyPlayerPayload{
		TableID:       t.ID,
		PlayerReadyID: playerID,
		PlayersReady:  slices.Clone(t.PlayersReady),
		SyncCount:     t.SyncCount,
	}
}

// vote adds a ready vote and runs the gated action once every round player agreed.
func (s *Service) vote(p *shared.Player, t *game.Table, g gate) (outcome, error) {
	var out outcome
	r := t.Round()
	if !r.HasPlayer(p.ID) {
		return out, game.ErrNotInRound
	}
	t.AddReadyPlayer(p.ID)
	out.emit(protocol.ToRoom(t.ID, protocol.ReadyPlayerAdded, readyPayload(t, p.ID)))
	if !t.AllReady() {
		return out, nil
	}

	t.ResetReadyPlayers()
	switch g {
	case gateUndo:
		if err := r.Undo(); err != nil {
			return out, err
		}
		t.IncreaseSyncCount()
		out.emit(protocol.ToRoom(t.ID, protocol.UndoDone, protocol.TablePayload{TableID: t.ID, SyncCount: t.SyncCount}))
	case gateRoundReset:
		if err := t.ResetRound(); err != nil {
			return out, err
		}
		out.emit(protocol.ToRoom(t.ID, protocol.RoundReset, protocol.TablePayload{TableID: t.ID, SyncCount: t.SyncCount}))
	case gateRoundFinish:
		t.ShiftPlayers()
		t.IncreaseSyncCount()
		out.emit(protocol.ToRoom(t.ID, protocol.RoundFinished, s.roundFinished(t)))
	case gateNextRound:
		t.IncreaseSyncCount()
		out.emit(protocol.ToRoom(t.ID, protocol.StartNextRound, protocol.StartNextRoundPayload{
			TableID:     t.ID,
			Dealer:      t.Dealer(),
			NextPlayers: t.NextPlayers(),
			PlayersIdle: t.PlayersIdle(),
			SyncCount:   t.SyncCount,
		}))
	}
	return out, nil
}

func (s *Service) commitExchange(p *shared.Player, t *game.Table, c CommitExchange) (outcome, error) {
	var out outcome
	r := t.Round()
	res, err := r.CommitExchange(p.ID, c.CardIDs)
	if err != nil {
		return out, err
	}
	if !res.Completed {
		out.emit(protocol.ToSession(p.ID, protocol.ExchangeCardsToClient, protocol.ExchangeCardsPayload{
			TableID:        t.ID,
			PlayerID:       p.ID,
			CardsHand:      s.cards(p.Cards),
			CardsExchange:  s.cards(r.CommittedCards(p.ID)),
			ExchangeNeeded: true,
			SyncCount:      t.SyncCount,
		}))
		return out, nil
	}

	t.IncreaseSyncCount()
	for _, id := range []string{p.ID, res.Peer} {
		q, ok := s.game.Players[id]
		if !ok {
			continue
		}
		out.emit(protocol.ToSession(id, protocol.ExchangeCardsToClient, protocol.ExchangeCardsPayload{
			TableID:   t.ID,
			PlayerID:  id,
			CardsHand: s.cards(q.Cards),
			SyncCount: t.SyncCount,
		}))
	}
	out.emit(protocol.ToRoom(t.ID, protocol.ExchangeFinished, protocol.NextTrickPayload{
		TableID:         t.ID,
		CurrentPlayerID: r.CurrentPlayerID,
		TrickOrder:      slices.Clone(r.TrickOrder),
		SyncCount:       t.SyncCount,
	}))
	return out, nil
}
