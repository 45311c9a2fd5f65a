package protocol

import (
	"encoding/json"

	"doko3000/internal/shared"
)

// Message represents a generic WebSocket message structure.
type Message struct {
	Type    string          `json:"type"`              // Event name, e.g. "card-played"
	Payload json.RawMessage `json:"payload,omitempty"` // Raw JSON payload, decoded per type
}

// --- Client -> Server Payload Structs ---

// Request carries the fields any inbound event may use. Which ones are read depends on the type.
type Request struct {
	TableID          string   `json:"table_id,omitempty"`
	PlayerID         string   `json:"player_id,omitempty"` // Target player of admin actions
	CardID           *int     `json:"card_id,omitempty"`
	CardsHandIDs     []int    `json:"cards_hand_ids,omitempty"`
	CardsExchangeIDs []int    `json:"cards_exchange_ids,omitempty"`
	Player1ID        string   `json:"player1_id,omitempty"`
	Player2ID        string   `json:"player2_id,omitempty"`
	Action           string   `json:"action,omitempty"`
	Order            []string `json:"order,omitempty"`
	Name             string   `json:"name,omitempty"`
	Password         string   `json:"password,omitempty"`
}

// --- Server -> Client Payload Structs ---

type PlayerInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Table            string `json:"table,omitempty"`
	IsAdmin          bool   `json:"is_admin"`
	IsSpectatorOnly  bool   `json:"is_spectator_only"`
	AllowsSpectators bool   `json:"allows_spectators"`
}

type TableInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
	Order   []string `json:"order"`
	Locked  bool     `json:"locked"`
}

type YouAreWhatYouIsPayload struct {
	PlayerID        string `json:"player_id"`
	TableID         string `json:"table_id"`
	SyncCount       int    `json:"sync_count"`
	CurrentPlayerID string `json:"current_player_id"`
	RoundFinished   bool   `json:"round_finished"`
	RoundReset      bool   `json:"round_reset"`
}

type CardPlayedPayload struct {
	PlayerID             string        `json:"player_id"`
	TableID              string        `json:"table_id"`
	Card                 shared.Card   `json:"card"`
	IsLastTurn           bool          `json:"is_last_turn"`
	CurrentPlayerID      string        `json:"current_player_id"`
	PlayersIdle          []string      `json:"idle_players"`
	PlayersSpectatorOnly []string      `json:"players_spectator_only"`
	TurnCount            int           `json:"played_cards"`
	CardsTable           []shared.Card `json:"cards_table"`
	SyncCount            int           `json:"sync_count"`
}

type NextTrickPayload struct {
	TableID         string         `json:"table_id"`
	CurrentPlayerID string         `json:"current_player_id"`
	TrickOrder      []string       `json:"trick_order"`
	Score           map[string]int `json:"score"`
	SyncCount       int            `json:"sync_count"`
}

type RoundFinishedPayload struct {
	TableID   string            `json:"table_id"`
	Score     map[string]int    `json:"score"`
	Tricks    map[string]int    `json:"tricks"`
	Parties   map[string]string `json:"parties"`
	SyncCount int               `json:"sync_count"`
}

type TablePayload struct {
	TableID   string `json:"table_id"`
	SyncCount int    `json:"sync_count"`
}

type ReadyPlayerPayload struct {
	TableID       string   `json:"table_id"`
	PlayerReadyID string   `json:"player_ready_id"`
	PlayersReady  []string `json:"players_ready"`
	SyncCount     int      `json:"sync_count"`
}

type StartNextRoundPayload struct {
	TableID     string   `json:"table_id"`
	Dealer      string   `json:"dealer"`
	NextPlayers []string `json:"next_players"`
	PlayersIdle []string `json:"idle_players"`
	SyncCount   int      `json:"sync_count"`
}

type YourCardsPayload struct {
	PlayerID           string        `json:"player_id"`
	TableID            string        `json:"table_id"`
	CardsHand          []shared.Card `json:"cards_hand"`
	CardsTable         []shared.Card `json:"cards_table"`
	CardsTimestamp     int64         `json:"cards_timestamp"`
	CurrentPlayerID    string        `json:"current_player_id"`
	Dealer             string        `json:"dealer"`
	TurnCount          int           `json:"turn_count"`
	CardsPerPlayer     int           `json:"cards_per_player"`
	Party              shared.Party  `json:"party"`
	NeedsDealing       bool          `json:"needs_dealing"`
	NeedsTrickClaiming bool          `json:"needs_trick_claiming"`
	ExchangeNeeded     bool          `json:"exchange_needed"`
	PlayerShowingHand  string        `json:"player_showing_hand,omitempty"`
	SyncCount          int           `json:"sync_count"`
}

type SpectatorPayload struct {
	TableID           string                   `json:"table_id"`
	PlayersCards      map[string][]shared.Card `json:"players_cards"`
	CardsTable        []shared.Card            `json:"cards_table"`
	CurrentPlayerID   string                   `json:"current_player_id"`
	PlayerShowingHand string                   `json:"player_showing_hand,omitempty"`
	SyncCount         int                      `json:"sync_count"`
}

type ShowHandPayload struct {
	TableID   string        `json:"table_id"`
	PlayerID  string        `json:"player_id"`
	Cards     []shared.Card `json:"cards"`
	SyncCount int           `json:"sync_count"`
}

type ExchangePeersPayload struct {
	TableID            string   `json:"table_id"`
	PlayersForExchange []string `json:"players_for_exchange"`
	SyncCount          int      `json:"sync_count"`
}

type ExchangeAskPayload struct {
	TableID   string `json:"table_id"`
	Player1ID string `json:"player1_id"`
	Player2ID string `json:"player2_id"`
	SyncCount int    `json:"sync_count"`
}

type ExchangeCardsPayload struct {
	TableID        string        `json:"table_id"`
	PlayerID       string        `json:"player_id"`
	CardsHand      []shared.Card `json:"cards_hand"`
	CardsExchange  []shared.Card `json:"cards_exchange"`
	ExchangeNeeded bool          `json:"exchange_needed"`
	SyncCount      int           `json:"sync_count"`
}

type SetupChangedPayload struct {
	TableID   string   `json:"table_id,omitempty"`
	PlayerID  string   `json:"player_id,omitempty"`
	Action    string   `json:"action"`
	Players   []string `json:"players,omitempty"`
	Order     []string `json:"order,omitempty"`
	SyncCount int      `json:"sync_count,omitempty"`
}

type IndexListChangedPayload struct {
	Table string `json:"table"` // "tables" or "players"
}

type ErrorPayload struct {
	Type    string `json:"type,omitempty"` // Inbound type that failed
	Message string `json:"message"`
}

// Helper function to create a JSON message
func NewMessage(msgType string, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Type: msgType})
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := Message{
		Type:    msgType,
		Payload: payloadBytes,
	}
	return json.Marshal(msg)
}
