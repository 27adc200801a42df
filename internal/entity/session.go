package entity

import (
	"github.com/playgrid/tictactoe-engine/internal/engine"
)

// Session is the wire and storage representation of one game session. It
// carries a full controller snapshot plus the session id; the engine state is
// rehydrated from it on every operation.
type Session struct {
	ID             string    `json:"id"`
	JoinCode       string    `json:"join_code,omitempty"`
	Mode           string    `json:"mode"`
	HumanMark      string    `json:"human_mark,omitempty"`
	BotMark        string    `json:"bot_mark,omitempty"`
	Board          [9]string `json:"board"`
	Turn           string    `json:"player_turn,omitempty"`
	Status         string    `json:"status"`
	Winner         string    `json:"winner,omitempty"`
	WinningLine    *[3]int   `json:"winning_line,omitempty"`
	BotTurnPending bool      `json:"bot_turn_pending,omitempty"`
}

func NewSession(id, joinCode string, snap engine.Snapshot) *Session {
	that := &Session{ID: id, JoinCode: joinCode}
	that.ApplySnapshot(snap)

	return that
}

// ApplySnapshot overwrites the session state with a controller snapshot.
func (that *Session) ApplySnapshot(snap engine.Snapshot) {
	that.Mode = snap.Mode
	that.HumanMark = snap.HumanMark
	that.BotMark = snap.BotMark
	that.Board = snap.Board
	that.Turn = snap.ActiveMark
	that.Status = snap.Status
	that.Winner = snap.Winner
	that.BotTurnPending = snap.BotTurnPending

	that.WinningLine = nil
	if snap.WinningLine != nil {
		line := *snap.WinningLine
		that.WinningLine = &line
	}
}

// Snapshot converts the stored state back into a controller snapshot.
func (that *Session) Snapshot() engine.Snapshot {
	snap := engine.Snapshot{
		Board:          that.Board,
		ActiveMark:     that.Turn,
		Status:         that.Status,
		Winner:         that.Winner,
		Mode:           that.Mode,
		HumanMark:      that.HumanMark,
		BotMark:        that.BotMark,
		BotTurnPending: that.BotTurnPending,
	}

	if that.WinningLine != nil {
		line := *that.WinningLine
		snap.WinningLine = &line
	}

	return snap
}

func (that *Session) IsFinished() bool {
	return that.Status == engine.StatusWon || that.Status == engine.StatusDrawn
}

func (that *Session) IsWithBot() bool {
	return that.Mode == engine.ModePlayerVsBot
}
