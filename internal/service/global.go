package service

import (
	"fmt"

	"doko3000/internal/game"
	"doko3000/internal/protocol"
	"doko3000/internal/shared"

	log "github.com/sirupsen/logrus"
)

// handleGlobal runs commands that may touch several tables. Called under the exclusive lock.
func (s *Service) handleGlobal(playerID string, cmd Command) (outcome, error) {
	var out outcome
	p, err := s.game.Player(playerID)
	if err != nil {
		return out, err
	}

	switch c := cmd.(type) {
	case WhoAmI:
		t, _ := s.game.Table(p.Table)
		out.emit(whoAmI(p, t))
		return out, nil
	case EnterTable:
		return s.enterTable(p, c)
	case SetupTable:
		return s.setupTable(p, c)
	case SetupPlayer:
		return s.setupPlayer(p, c)
	case CreateTable:
		if !p.IsAdmin {
			return out, game.ErrPermissionDenied
		}
		if _, err := s.game.AddTable(c.Name); err != nil {
			return out, err
		}
		out.emit(indexChanged("tables"))
		return out, nil
	case CreatePlayer:
		if !p.IsAdmin {
			return out, game.ErrPermissionDenied
		}
		if _, err := s.game.AddPlayer(c.Name, c.Password); err != nil {
			return out, err
		}
		out.emit(indexChanged("players"))
		return out, nil
	case DeleteTable:
		if !p.IsAdmin {
			return out, game.ErrPermissionDenied
		}
		if err := s.game.DeleteTable(c.TableID); err != nil {
			return out, err
		}
		s.stopActor(c.TableID)
		out.emit(indexChanged("tables"))
		return out, nil
	case DeletePlayer:
		return s.deletePlayer(p, c)
	case tableCommand:
		return out, game.ErrNotAtTable
	}
	return out, fmt.Errorf("%w: %T", ErrUnknownEvent, cmd)
}

func (s *Service) enterTable(p *shared.Player, c EnterTable) (outcome, error) {
	var out outcome
	previous := p.Table
	if err := s.game.EnterTable(p.ID, c.TableID); err != nil {
		return out, err
	}
	t, err := s.game.Table(c.TableID)
	if err != nil {
		return out, err
	}
	t.IncreaseSyncCount()
	out.emit(tableChanged(t, "enter_table", p.ID))
	if previous != "" && previous != t.ID {
		if old, err := s.game.Table(previous); err == nil {
			old.IncreaseSyncCount()
			out.emit(tableChanged(old, "leave_table", p.ID))
		}
	}
	out.emit(indexChanged("tables"))
	return out, nil
}

func (s *Service) setupTable(p *shared.Player, c SetupTable) (outcome, error) {
	var out outcome
	t, err := s.game.Table(c.TableID)
	if err != nil {
		return out, err
	}
	if !p.IsAdmin && !t.HasPlayer(p.ID) {
		return out, game.ErrPermissionDenied
	}

	broadcast := false
	switch c.Action {
	case protocol.RemovePlayer:
		target := c.PlayerID
		if target == "" {
			target = p.ID
		}
		if target != p.ID && !p.IsAdmin {
			return out, game.ErrPermissionDenied
		}
		if !t.RemovePlayer(target) {
			return out, game.ErrNotAtTable
		}
		s.game.CheckTables()
		broadcast = true
	case protocol.LockTable:
		t.SetLocked(true)
		broadcast = true
	case protocol.UnlockTable:
		t.SetLocked(false)
		broadcast = true
	case protocol.PlayWithNine:
		t.SetWithNine(true)
	case protocol.PlayWithoutNine:
		t.SetWithNine(false)
	case protocol.AllowUndo:
		t.SetAllowUndo(true)
	case protocol.ProhibitUndo:
		t.SetAllowUndo(false)
	case protocol.AllowExchange:
		t.SetAllowExchange(true)
	case protocol.ProhibitExchange:
		t.SetAllowExchange(false)
	case protocol.EnableDebugging:
		t.SetDebugging(true)
	case protocol.DisableDebugging:
		t.SetDebugging(false)
	case protocol.ChangedOrder:
		if err := t.SetOrder(c.Order); err != nil {
			return out, err
		}
	case protocol.StartTable:
		if err := t.Start(); err != nil {
			return out, err
		}
		out.emit(tableChanged(t, c.Action.String(), p.ID))
		out.emit(protocol.ToRoom(t.ID, protocol.GrabYourCards, protocol.TablePayload{TableID: t.ID, SyncCount: t.SyncCount}))
		log.Infof("Table %s started by %s.", t.Name, p.Name)
		return out, nil
	case protocol.TableFinished:
	default:
		return out, fmt.Errorf("%w: %s", protocol.ErrUnknownAction, c.Action)
	}

	t.IncreaseSyncCount()
	out.emit(tableChanged(t, c.Action.String(), c.PlayerID))
	if broadcast {
		out.emit(indexChanged("tables"))
	}
	return out, nil
}

func (s *Service) setupPlayer(p *shared.Player, c SetupPlayer) (outcome, error) {
	var out outcome
	targetID := c.PlayerID
	if targetID == "" {
		targetID = p.ID
	}
	target, err := s.game.Player(targetID)
	if err != nil {
		return out, err
	}
	switch c.Action {
	case protocol.MakeAdmin, protocol.RevokeAdmin:
		if !p.IsAdmin || target.ID == p.ID {
			return out, game.ErrPermissionDenied
		}
	default:
		if !p.IsAdmin && target.ID != p.ID {
			return out, game.ErrPermissionDenied
		}
	}

	switch c.Action {
	case protocol.MakeAdmin:
		target.IsAdmin = true
		target.Touch()
	case protocol.RevokeAdmin:
		target.IsAdmin = false
		target.Touch()
	case protocol.AllowSpectators:
		target.AllowsSpectators = true
		target.Touch()
	case protocol.DenySpectators:
		target.AllowsSpectators = false
		target.Touch()
	case protocol.MakeSpectatorOnly:
		if err := s.game.SetSpectatorOnly(target.ID, true); err != nil {
			return out, err
		}
	case protocol.RevokeSpectatorOnly:
		if err := s.game.SetSpectatorOnly(target.ID, false); err != nil {
			return out, err
		}
	case protocol.NewPassword:
		if err := target.SetPassword(c.Password); err != nil {
			return out, err
		}
	case protocol.PlayerFinished:
	default:
		return out, fmt.Errorf("%w: %s", protocol.ErrUnknownAction, c.Action)
	}

	out.emit(protocol.ToSession(target.ID, protocol.PlayerChanged, playerInfo(target)))
	if t, err := s.game.Table(target.Table); err == nil {
		t.IncreaseSyncCount()
		out.emit(tableChanged(t, c.Action.String(), target.ID))
	}
	out.emit(indexChanged("players"))
	return out, nil
}

func (s *Service) deletePlayer(p *shared.Player, c DeletePlayer) (outcome, error) {
	var out outcome
	if !p.IsAdmin || c.PlayerID == p.ID {
		return out, game.ErrPermissionDenied
	}
	target, err := s.game.Player(c.PlayerID)
	if err != nil {
		return out, err
	}
	tableID := target.Table
	if err := s.game.DeletePlayer(target.ID); err != nil {
		return out, err
	}
	if t, err := s.game.Table(tableID); err == nil {
		t.IncreaseSyncCount()
		out.emit(tableChanged(t, "delete_player", target.ID))
	}
	out.emit(indexChanged("players"))
	return out, nil
}
