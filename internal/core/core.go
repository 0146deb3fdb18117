package core

import "strings"

type State int

const (
	StateOngoing State = iota
	StatePending       // AI move request in flight
	StateWhiteWins
	StateBlackWins
	StateDraw
	StateStalemate
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateWhiteWins:
		return "white wins"
	case StateBlackWins:
		return "black wins"
	case StateDraw:
		return "draw"
	case StateStalemate:
		return "stalemate"
	case StateOngoing:
		return "ongoing"
	default:
		return "unknown"
	}
}

// IsOver reports whether the game has reached a terminal state
func (s State) IsOver() bool {
	switch s {
	case StateWhiteWins, StateBlackWins, StateDraw, StateStalemate:
		return true
	}
	return false
}

type Color byte

const (
	ColorWhite Color = iota + 1
	ColorBlack
)

// String returns the FEN side-to-move letter
func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "w"
	case ColorBlack:
		return "b"
	default:
		return "-"
	}
}

// Name returns the lowercase colour name used in prompts and API bodies
func (c Color) Name() string {
	switch c {
	case ColorWhite:
		return "white"
	case ColorBlack:
		return "black"
	default:
		return ""
	}
}

// ParseColor accepts "white"/"black" and "w"/"b"
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return ColorWhite, true
	case "black", "b":
		return ColorBlack, true
	}
	return 0, false
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// MoveSource tells where an applied move came from
type MoveSource string

const (
	SourceHuman    MoveSource = "human"
	SourceAI       MoveSource = "ai"
	SourceFallback MoveSource = "fallback"
)
