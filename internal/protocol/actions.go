package protocol

import (
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("unknown action")

// TableAction is a change from the table setup dialog.
type TableAction int

const (
	RemovePlayer TableAction = iota + 1
	LockTable
	UnlockTable
	PlayWithNine
	PlayWithoutNine
	AllowUndo
	ProhibitUndo
	AllowExchange
	ProhibitExchange
	EnableDebugging
	DisableDebugging
	ChangedOrder
	StartTable
	TableFinished
)

var tableActions = map[string]TableAction{
	"remove_player":     RemovePlayer,
	"lock_table":        LockTable,
	"unlock_table":      UnlockTable,
	"play_with_9":       PlayWithNine,
	"play_without_9":    PlayWithoutNine,
	"allow_undo":        AllowUndo,
	"prohibit_undo":     ProhibitUndo,
	"allow_exchange":    AllowExchange,
	"prohibit_exchange": ProhibitExchange,
	"enable_debugging":  EnableDebugging,
	"disable_debugging": DisableDebugging,
	"changed_order":     ChangedOrder,
	"start_table":       StartTable,
	"finished":          TableFinished,
}

func ParseTableAction(s string) (TableAction, error) {
	a, ok := tableActions[s]
	if !ok {
		return 0, fmt.Errorf("%w: table %q", ErrUnknownAction, s)
	}
	return a, nil
}

func (a TableAction) String() string {
	for s, v := range tableActions {
		if v == a {
			return s
		}
	}
	return fmt.Sprintf("TableAction(%d)", int(a))
}

// PlayerAction is a change from the player setup dialog.
type PlayerAction int

const (
	MakeAdmin PlayerAction = iota + 1
	RevokeAdmin
	AllowSpectators
	DenySpectators
	MakeSpectatorOnly
	RevokeSpectatorOnly
	NewPassword
	PlayerFinished
)

var playerActions = map[string]PlayerAction{
	"is_admin":              MakeAdmin,
	"is_no_admin":           RevokeAdmin,
	"allows_spectators":     AllowSpectators,
	"denies_spectators":     DenySpectators,
	"is_spectator_only":     MakeSpectatorOnly,
	"not_is_spectator_only": RevokeSpectatorOnly,
	"new_password":          NewPassword,
	"finished":              PlayerFinished,
}

func ParsePlayerAction(s string) (PlayerAction, error) {
	a, ok := playerActions[s]
	if !ok {
		return 0, fmt.Errorf("%w: player %q", ErrUnknownAction, s)
	}
	return a, nil
}

func (a PlayerAction) String() string {
	for s, v := range playerActions {
		if v == a {
			return s
		}
	}
	return fmt.Sprintf("PlayerAction(%d)", int(a))
}
