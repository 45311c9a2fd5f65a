package service

import (
	"maps"
	"slices"

	"doko3000/internal/game"
	"doko3000/internal/protocol"
	"doko3000/internal/shared"

	log "github.com/sirupsen/logrus"
)

func playerInfo(p *shared.Player) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:               p.ID,
		Name:             p.Name,
		Table:            p.Table,
		IsAdmin:          p.IsAdmin,
		IsSpectatorOnly:  p.IsSpectatorOnly,
		AllowsSpectators: p.AllowsSpectators,
	}
}

func tableInfo(t *game.Table) protocol.TableInfo {
	return protocol.TableInfo{
		ID:      t.ID,
		Name:    t.Name,
		Players: slices.Clone(t.Players),
		Order:   slices.Clone(t.Order),
		Locked:  t.Locked,
	}
}

func (s *Service) cards(ids []int) []shared.Card {
	cards, err := s.game.Deck().GetCards(ids)
	if err != nil {
		log.WithError(err).Error("Resolving cards failed.")
		return []shared.Card{}
	}
	return cards
}

// tableCards is what the table shows: a revealed hand or the cards of the latest trick.
func (s *Service) tableCards(t *game.Table) []shared.Card {
	r := t.Round()
	if r.PlayerShowingHand != "" {
		if p, ok := s.game.Players[r.PlayerShowingHand]; ok {
			return s.cards(p.Cards)
		}
	}
	return s.cards(r.TableCards())
}

// parties maps round players to their party.
func (s *Service) parties(r *game.Round) map[string]string {
	parties := make(map[string]string, len(r.Players))
	for _, id := range r.Players {
		if p, ok := s.game.Players[id]; ok {
			parties[id] = string(p.Party())
		}
	}
	return parties
}

func (s *Service) roundFinished(t *game.Table) protocol.RoundFinishedPayload {
	r := t.Round()
	return protocol.RoundFinishedPayload{
		TableID:   t.ID,
		Score:     maps.Clone(r.Stats.Score),
		Tricks:    maps.Clone(r.Stats.Tricks),
		Parties:   s.parties(r),
		SyncCount: t.SyncCount,
	}
}

func whoAmI(p *shared.Player, t *game.Table) protocol.Event {
	payload := protocol.YouAreWhatYouIsPayload{PlayerID: p.ID}
	if t != nil {
		r := t.Round()
		payload.TableID = t.ID
		payload.SyncCount = t.SyncCount
		payload.CurrentPlayerID = r.CurrentPlayerID
		payload.RoundFinished = r.IsFinished()
		payload.RoundReset = r.IsReset()
	}
	return protocol.ToSession(p.ID, protocol.YouAreWhatYouIs, payload)
}

// yourCards sends a round player their hand, and everybody else the spectator view.
func (s *Service) yourCards(p *shared.Player, t *game.Table) protocol.Event {
	r := t.Round()
	if !r.HasPlayer(p.ID) {
		return s.spectatorView(p, t)
	}
	hand, err := s.game.Hand(p.ID)
	if err != nil {
		log.WithError(err).Errorf("Hand of %s unavailable.", p.Name)
	}
	return protocol.ToSession(p.ID, protocol.YourCards, protocol.YourCardsPayload{
		PlayerID:           p.ID,
		TableID:            t.ID,
		CardsHand:          hand,
		CardsTable:         s.tableCards(t),
		CardsTimestamp:     r.CardsTimestamp,
		CurrentPlayerID:    r.CurrentPlayerID,
		Dealer:             t.Dealer(),
		TurnCount:          r.TurnCount,
		CardsPerPlayer:     r.CardsPerPlayer(),
		Party:              p.Party(),
		NeedsDealing:       r.NeedsDealing(),
		NeedsTrickClaiming: r.NeedsTrickClaiming(),
		ExchangeNeeded:     r.IsExchangeNeeded(p.ID),
		PlayerShowingHand:  r.PlayerShowingHand,
		SyncCount:          t.SyncCount,
	})
}

func (s *Service) spectatorView(p *shared.Player, t *game.Table) protocol.Event {
	r := t.Round()
	if t.IsIdle(p.ID) {
		p.RemoveAllCards()
	}

	hands := map[string][]shared.Card{}
	for _, id := range r.Players {
		if q, ok := s.game.Players[id]; ok && q.AllowsSpectators {
			hands[id] = s.cards(q.Cards)
		}
	}
	return protocol.ToSession(p.ID, protocol.SorryNoCardsForYou, protocol.SpectatorPayload{
		TableID:           t.ID,
		PlayersCards:      hands,
		CardsTable:        s.tableCards(t),
		CurrentPlayerID:   r.CurrentPlayerID,
		PlayerShowingHand: r.PlayerShowingHand,
		SyncCount:         t.SyncCount,
	})
}

func tableChanged(t *game.Table, action, playerID string) protocol.Event {
	return protocol.ToRoom(t.ID, protocol.TableChanged, protocol.SetupChangedPayload{
		TableID:   t.ID,
		PlayerID:  playerID,
		Action:    action,
		Players:   slices.Clone(t.Players),
		Order:     slices.Clone(t.Order),
		SyncCount: t.SyncCount,
	})
}

func indexChanged(list string) protocol.Event {
	return protocol.Broadcast(protocol.IndexListChanged, protocol.IndexListChangedPayload{Table: list})
}
