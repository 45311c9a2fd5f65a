package protocol

// Inbound event names, as sent by the browser client.
const (
	WhoAmI              = "who-am-i"
	EnterTable          = "enter-table"
	CardPlayed          = "card-played"
	SortedCards         = "sorted-cards"
	ClaimTrick          = "claim-trick"
	DealCards           = "deal-cards"
	MyCardsPlease       = "my-cards-please"
	ShowHand            = "show-hand"
	RequestUndo         = "request-undo"
	ReadyForUndo        = "ready-for-undo"
	RequestRoundReset   = "request-round-reset"
	ReadyForRoundReset  = "ready-for-round-reset"
	RequestRoundFinish  = "request-round-finish"
	ReadyForRoundFinish = "ready-for-round-finish"
	ReadyForNextRound   = "ready-for-next-round"
	NeedFinalResult     = "need-final-result"
	RequestExchange     = "request-exchange"
	ExchangeStart       = "exchange-start"
	ExchangePlayer2Ok   = "exchange-player2-ready"
	ExchangePlayer2Deny = "exchange-player2-deny"
	ExchangeCancel      = "exchange-cancel-player1"
	ExchangeCards       = "exchange-cards"
	SetupTableChange    = "setup-table-change"
	SetupPlayerChange   = "setup-player-change"
	CreateTable         = "create-table"
	CreatePlayer        = "create-player"
	DeleteTable         = "delete-table"
	DeletePlayer        = "delete-player"
)

// Outbound event names.
const (
	YouAreWhatYouIs       = "you-are-what-you-is"
	CardPlayedBy          = "card-played-by-player"
	NextTrick             = "next-trick"
	RoundFinished         = "round-finished"
	RoundReset            = "round-reset"
	GrabYourCards         = "grab-your-cards"
	YourCards             = "your-cards-please"
	SorryNoCardsForYou    = "sorry-no-cards-for-you"
	PlayerShowsHand       = "show-hand"
	UndoRequested         = "undo-requested"
	UndoDone              = "undo"
	RoundResetRequested   = "round-reset-requested"
	RoundFinishRequested  = "round-finish-requested"
	ReadyPlayerAdded      = "ready-player-added"
	StartNextRound        = "start-next-round"
	ConfirmExchange       = "confirm-exchange"
	ExchangeAskPlayer2    = "exchange-ask-player2"
	ExchangeStarted       = "exchange-player-cards-to-server"
	ExchangeDenied        = "exchange-player2-denied"
	ExchangeCancelled     = "exchange-player-cancelled"
	ExchangeCardsToClient = "exchange-player-cards-to-client"
	ExchangeFinished      = "exchange-players-finished"
	TableChanged          = "table-changed"
	PlayerChanged         = "player-changed"
	IndexListChanged      = "index-list-changed"
	ErrorEvent            = "error"
)

// Event is an outbound notification. Room addresses all sessions at a table, Session a
// single player; with neither set the event goes to everybody.
type Event struct {
	Name    string `json:"name"`
	Room    string `json:"room,omitempty"`
	Session string `json:"session,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// ToRoom addresses everyone at a table.
func ToRoom(tableID, name string, payload any) Event {
	return Event{Name: name, Room: tableID, Payload: payload}
}

// ToSession addresses one player.
func ToSession(playerID, name string, payload any) Event {
	return Event{Name: name, Session: playerID, Payload: payload}
}

// Broadcast addresses every connected session.
func Broadcast(name string, payload any) Event {
	return Event{Name: name, Payload: payload}
}

// Frame encodes the event as the message the client receives.
func (e Event) Frame() ([]byte, error) {
	return NewMessage(e.Name, e.Payload)
}
