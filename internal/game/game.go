package game

import (
	"fmt"
	"time"

	"aichess/internal/core"
	"aichess/internal/rules"
)

type Snapshot struct {
	Position rules.Position  // Board state at this point
	Move     rules.LegalMove // Move that created this position (zero for initial)
	Source   core.MoveSource
}

// MoveResult describes the last applied move
type MoveResult struct {
	Move    rules.LegalMove
	Player  core.Color
	Source  core.MoveSource
	Notice  string // degraded-mode message for fallback moves
	RawText string // AI response text, when there was one
	Stage   string // resolver stage that produced an AI move
}

type Game struct {
	id         string
	snapshots  []Snapshot
	players    map[core.Color]*core.Player
	humanColor core.Color
	state      core.State
	lastResult *MoveResult
	startedAt  time.Time
}

func New(id string, initial rules.Position, human, ai *core.Player) *Game {
	g := &Game{
		id:         id,
		snapshots:  []Snapshot{{Position: initial}},
		players:    map[core.Color]*core.Player{human.Color: human, ai.Color: ai},
		humanColor: human.Color,
		startedAt:  time.Now().UTC(),
	}
	g.state = g.derivedState()
	return g
}

func (g *Game) ID() string {
	return g.id
}

func (g *Game) CurrentSnapshot() Snapshot {
	return g.snapshots[len(g.snapshots)-1]
}

func (g *Game) CurrentPosition() rules.Position {
	return g.CurrentSnapshot().Position
}

func (g *Game) CurrentFEN() string {
	return g.CurrentPosition().FEN()
}

func (g *Game) NextTurn() core.Color {
	return g.CurrentPosition().Turn()
}

func (g *Game) NextPlayer() *core.Player {
	return g.players[g.NextTurn()]
}

func (g *Game) Player(c core.Color) *core.Player {
	return g.players[c]
}

func (g *Game) HumanColor() core.Color {
	return g.humanColor
}

func (g *Game) AIColor() core.Color {
	return core.OppositeColor(g.humanColor)
}

// IsAITurn reports whether the side to move is the AI
func (g *Game) IsAITurn() bool {
	return g.NextTurn() == g.AIColor()
}

// Model is the AI opponent's model selector
func (g *Game) Model() string {
	return g.players[g.AIColor()].Model
}

// SetModel swaps the AI opponent for a new player on another model
func (g *Game) SetModel(model string) {
	g.players[g.AIColor()] = core.NewAIPlayer(model, g.AIColor())
}

// AddSnapshot appends a position and re-derives the game state from it
func (g *Game) AddSnapshot(pos rules.Position, move rules.LegalMove, source core.MoveSource) {
	g.snapshots = append(g.snapshots, Snapshot{
		Position: pos,
		Move:     move,
		Source:   source,
	})
	g.state = g.derivedState()
}

func (g *Game) UndoMoves(count int) error {
	if count < 1 {
		return fmt.Errorf("invalid undo count: %d", count)
	}

	availableMoves := len(g.snapshots) - 1
	if availableMoves < count {
		return fmt.Errorf("cannot undo %d moves: only %d moves available", count, availableMoves)
	}

	g.snapshots = g.snapshots[:len(g.snapshots)-count]
	g.state = g.derivedState()
	g.lastResult = nil
	return nil
}

// MoveCount is the number of half-moves played
func (g *Game) MoveCount() int {
	return len(g.snapshots) - 1
}

// Moves returns the history in SAN
func (g *Game) Moves() []string {
	moves := make([]string, 0, g.MoveCount())
	for _, s := range g.snapshots[1:] {
		moves = append(moves, s.Move.SAN)
	}
	return moves
}

// MovesUCI returns the history in coordinate notation
func (g *Game) MovesUCI() []string {
	moves := make([]string, 0, g.MoveCount())
	for _, s := range g.snapshots[1:] {
		moves = append(moves, s.Move.UCI())
	}
	return moves
}

func (g *Game) State() core.State {
	return g.state
}

func (g *Game) SetState(s core.State) {
	g.state = s
}

// ClearPending returns a pending game to the state its position implies
func (g *Game) ClearPending() {
	if g.state == core.StatePending {
		g.state = g.derivedState()
	}
}

func (g *Game) derivedState() core.State {
	return g.CurrentPosition().Status().State()
}

func (g *Game) SetLastResult(result *MoveResult) {
	g.lastResult = result
}

func (g *Game) LastResult() *MoveResult {
	return g.lastResult
}

func (g *Game) InitialFEN() string {
	return g.snapshots[0].Position.FEN()
}

func (g *Game) StartedAt() time.Time {
	return g.startedAt
}
