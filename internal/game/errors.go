package game

import "errors"

var (
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrUnknownTable       = errors.New("unknown table")
	ErrPlayerExists       = errors.New("player name already taken")
	ErrTableExists        = errors.New("table name already taken")
	ErrInvalidName        = errors.New("invalid name")
	ErrNotAtTable         = errors.New("player is not at this table")
	ErrNotInRound         = errors.New("player is not part of the round")
	ErrNotEnoughPlayers   = errors.New("need four active players")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrCardNotInHand      = errors.New("card not in hand")
	ErrTrickNotClaimed    = errors.New("trick must be claimed first")
	ErrTrickIncomplete    = errors.New("trick is not complete")
	ErrNoTrick            = errors.New("no trick to claim")
	ErrRoundFinished      = errors.New("round already finished")
	ErrUndoNotAllowed     = errors.New("undo not allowed")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrExchangeNotAllowed = errors.New("exchange not allowed")
	ErrExchangePending    = errors.New("exchange in progress")
	ErrNoExchange         = errors.New("no exchange in progress")
	ErrExchangeMismatch   = errors.New("exchange commitments do not match")
	ErrTableLocked        = errors.New("table is locked")
	ErrTableNotEmpty      = errors.New("table is not empty")
	ErrPlayerSeated       = errors.New("player is seated at a table")
	ErrInvalidOrder       = errors.New("order must contain every active player")
	ErrHandMismatch       = errors.New("hand does not match")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFinished        = errors.New("round not finished")
)
