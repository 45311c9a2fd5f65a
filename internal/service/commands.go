package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"doko3000/internal/protocol"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadRequest   = errors.New("bad request")
)

// Command is one decoded client action.
type Command interface {
	command()
}

// tableCommand is executed by the actor of its table.
type tableCommand interface {
	Command
	table() string
}

// gate is a readiness poll that needs a vote of every round player.
type gate int

const (
	gateUndo gate = iota + 1
	gateRoundReset
	gateRoundFinish
	gateNextRound
)

type tableRef struct {
	TableID string
}

func (tableRef) command() {}
func (r tableRef) table() string { return r.TableID }

type (
	WhoAmI      struct{ tableRef }
	ClaimTrick  struct{ tableRef }
	DealCards   struct{ tableRef }
	MyCards     struct{ tableRef }
	ShowHand    struct{ tableRef }
	FinalResult struct{ tableRef }

	PlayCard struct {
		tableRef
		CardID  int
		HandIDs []int // Remaining hand as the client sees it, nil skips the check
	}
	SortCards struct {
		tableRef
		HandIDs []int
	}
	RequestPoll struct {
		tableRef
		Gate gate
	}
	Vote struct {
		tableRef
		Gate gate
	}

	RequestExchange struct{ tableRef }
	StartExchange   struct {
		tableRef
		PeerID string
	}
	AcceptExchange struct {
		tableRef
		ProposerID string
	}
	DenyExchange   struct{ tableRef }
	CancelExchange struct{ tableRef }
	CommitExchange struct {
		tableRef
		CardIDs []int
	}
)

// Commands that touch more than one table run under the exclusive lock.
type (
	EnterTable struct {
		TableID string
	}
	SetupTable struct {
		TableID  string
		Action   protocol.TableAction
		PlayerID string
		Order    []string
	}
	SetupPlayer struct {
		PlayerID string
		Action   protocol.PlayerAction
		Password string
	}
	CreateTable struct {
		Name string
	}
	CreatePlayer struct {
		Name     string
		Password string
	}
	DeleteTable struct {
		TableID string
	}
	DeletePlayer struct {
		PlayerID string
	}
)

func (EnterTable) command() {}
func (SetupTable) command() {}
func (SetupPlayer) command() {}
func (CreateTable) command() {}
func (CreatePlayer) command() {}
func (DeleteTable) command() {}
func (DeletePlayer) command() {}

// Decode turns an inbound message into a command. Table scoped commands without a table id
// use defaultTable, the table the sender sits at.
func Decode(msg protocol.Message, defaultTable string) (Command, error) {
	var req protocol.Request
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	ref := tableRef{TableID: req.TableID}
	if ref.TableID == "" {
		ref.TableID = defaultTable
	}

	switch msg.Type {
	case protocol.WhoAmI:
		return WhoAmI{ref}, nil
	case protocol.CardPlayed:
		if req.CardID == nil {
			return nil, fmt.Errorf("%w: card_id missing", ErrBadRequest)
		}
		return PlayCard{tableRef: ref, CardID: *req.CardID, HandIDs: req.CardsHandIDs}, nil
	case protocol.SortedCards:
		return SortCards{tableRef: ref, HandIDs: req.CardsHandIDs}, nil
	case protocol.ClaimTrick:
		return ClaimTrick{ref}, nil
	case protocol.DealCards:
		return DealCards{ref}, nil
	case protocol.MyCardsPlease:
		return MyCards{ref}, nil
	case protocol.ShowHand:
		return ShowHand{ref}, nil
	case protocol.NeedFinalResult:
		return FinalResult{ref}, nil
	case protocol.RequestUndo:
		return RequestPoll{ref, gateUndo}, nil
	case protocol.RequestRoundReset:
		return RequestPoll{ref, gateRoundReset}, nil
	case protocol.RequestRoundFinish:
		return RequestPoll{ref, gateRoundFinish}, nil
	case protocol.ReadyForUndo:
		return Vote{ref, gateUndo}, nil
	case protocol.ReadyForRoundReset:
		return Vote{ref, gateRoundReset}, nil
	case protocol.ReadyForRoundFinish:
		return Vote{ref, gateRoundFinish}, nil
	case protocol.ReadyForNextRound:
		return Vote{ref, gateNextRound}, nil
	case protocol.RequestExchange:
		return RequestExchange{ref}, nil
	case protocol.ExchangeStart:
		return StartExchange{tableRef: ref, PeerID: req.Player2ID}, nil
	case protocol.ExchangePlayer2Ok:
		return AcceptExchange{tableRef: ref, ProposerID: req.Player1ID}, nil
	case protocol.ExchangePlayer2Deny:
		return DenyExchange{ref}, nil
	case protocol.ExchangeCancel:
		return CancelExchange{ref}, nil
	case protocol.ExchangeCards:
		return CommitExchange{tableRef: ref, CardIDs: req.CardsExchangeIDs}, nil

	case protocol.EnterTable:
		return EnterTable{TableID: req.TableID}, nil
	case protocol.SetupTableChange:
		action, err := protocol.ParseTableAction(req.Action)
		if err != nil {
			return nil, err
		}
		return SetupTable{TableID: ref.TableID, Action: action, PlayerID: req.PlayerID, Order: req.Order}, nil
	case protocol.SetupPlayerChange:
		action, err := protocol.ParsePlayerAction(req.Action)
		if err != nil {
			return nil, err
		}
		return SetupPlayer{PlayerID: req.PlayerID, Action: action, Password: req.Password}, nil
	case protocol.CreateTable:
		return CreateTable{Name: req.Name}, nil
	case protocol.CreatePlayer:
		return CreatePlayer{Name: req.Name, Password: req.Password}, nil
	case protocol.DeleteTable:
		return DeleteTable{TableID: req.TableID}, nil
	case protocol.DeletePlayer:
		return DeletePlayer{PlayerID: req.PlayerID}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, msg.Type)
}
