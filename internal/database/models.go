package database

import "time"

// Document types, stored next to every record.
const (
	TypePlayer = "player"
	TypeTable  = "table"
	TypeRound  = "round"
	TypeTrick  = "trick"
	TypeResult = "result"
)

// Document is a record that can be written to a Store.
type Document interface {
	DocType() string
	DocID() string
}

// Key builds the storage key "<type>-<id>".
func Key(docType, id string) string {
	return docType + "-" + id
}

// KeyOf returns the storage key of a document.
func KeyOf(d Document) string {
	return Key(d.DocType(), d.DocID())
}

type PlayerRecord struct {
	ID               string `json:"id" bson:"id"`
	Name             string `json:"name" bson:"name"`
	PasswordHash     string `json:"password_hash" bson:"password_hash"`
	Cards            []int  `json:"cards" bson:"cards"`
	Table            string `json:"table" bson:"table"`
	IsAdmin          bool   `json:"is_admin" bson:"is_admin"`
	IsSpectatorOnly  bool   `json:"is_spectator_only" bson:"is_spectator_only"`
	AllowsSpectators bool   `json:"allows_spectators" bson:"allows_spectators"`
	MarkerCount      int    `json:"marker_count" bson:"marker_count"`
	ExchangePeerID   string `json:"exchange_peer_id" bson:"exchange_peer_id"`
}

func (r PlayerRecord) DocType() string { return TypePlayer }
func (r PlayerRecord) DocID() string { return r.ID }

type TableRecord struct {
	ID           string   `json:"id" bson:"id"`
	Name         string   `json:"name" bson:"name"`
	Players      []string `json:"players" bson:"players"`
	Order        []string `json:"order" bson:"order"`
	PlayersReady []string `json:"players_ready" bson:"players_ready"`
	Locked       bool     `json:"locked" bson:"locked"`
	IsDebugging  bool     `json:"is_debugging" bson:"is_debugging"`
	SyncCount    int      `json:"sync_count" bson:"sync_count"`
}

func (r TableRecord) DocType() string { return TypeTable }
func (r TableRecord) DocID() string { return r.ID }

// StatsRecord holds per player points and trick counts of a round.
type StatsRecord struct {
	Score  map[string]int `json:"score" bson:"score"`
	Tricks map[string]int `json:"tricks" bson:"tricks"`
}

// ExchangeRecord is one pending card exchange. Players is the unordered pair, stored sorted.
type ExchangeRecord struct {
	Players [2]string        `json:"players" bson:"players"`
	Cards   map[string][]int `json:"cards" bson:"cards"`
}

// RoundRecord has the same id as its table.
type RoundRecord struct {
	ID                string           `json:"id" bson:"id"`
	Players           []string         `json:"players" bson:"players"`
	TurnCount         int              `json:"turn_count" bson:"turn_count"`
	CurrentPlayerID   string           `json:"current_player_id" bson:"current_player_id"`
	WithNine          bool             `json:"with_9" bson:"with_9"`
	DealtCards        int              `json:"dealt_cards" bson:"dealt_cards"`
	AllowUndo         bool             `json:"allow_undo" bson:"allow_undo"`
	AllowExchange     bool             `json:"allow_exchange" bson:"allow_exchange"`
	CardsTimestamp    int64            `json:"cards_timestamp" bson:"cards_timestamp"`
	Stats             StatsRecord      `json:"stats" bson:"stats"`
	Exchange          []ExchangeRecord `json:"exchange" bson:"exchange"`
	PlayerShowingHand string           `json:"player_showing_hand" bson:"player_showing_hand"`
}

func (r RoundRecord) DocType() string { return TypeRound }
func (r RoundRecord) DocID() string { return r.ID }

type TrickRecord struct {
	ID        string   `json:"id" bson:"id"`
	Players   []string `json:"players" bson:"players"`
	Cards     []int    `json:"cards" bson:"cards"`
	Positions []int    `json:"positions" bson:"positions"` // Hand index of each card when played
	Owner     string   `json:"owner" bson:"owner"`
}

func (r TrickRecord) DocType() string { return TypeTrick }
func (r TrickRecord) DocID() string { return r.ID }

// ResultRecord archives the outcome of a finished round.
type ResultRecord struct {
	ID        string            `json:"id" bson:"id"`
	TableID   string            `json:"table_id" bson:"table_id"`
	TableName string            `json:"table_name" bson:"table_name"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	Players   []string          `json:"players" bson:"players"` // Player names
	Score     map[string]int    `json:"score" bson:"score"`     // Points by player name
	Tricks    map[string]int    `json:"tricks" bson:"tricks"`
	Parties   map[string]string `json:"parties" bson:"parties"`
}

func (r ResultRecord) DocType() string { return TypeResult }
func (r ResultRecord) DocID() string { return r.ID }
