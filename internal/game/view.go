package game

import (
	"aichess/internal/core"
	"aichess/internal/rules"
)

// View is a value copy of a game taken under the owner's lock. Positions
// are immutable, so a View stays valid after the game moves on.
type View struct {
	ID         string
	Position   rules.Position
	State      core.State
	Status     rules.Status
	HumanColor core.Color
	Model      string
	White      core.Player
	Black      core.Player
	Moves      []string
	MovesUCI   []string
	LastResult *MoveResult
	InitialFEN string
}

func (v View) MoveCount() int {
	return len(v.Moves)
}

func (v View) Turn() core.Color {
	return v.Position.Turn()
}

func (v View) AIColor() core.Color {
	return core.OppositeColor(v.HumanColor)
}

func (v View) IsAITurn() bool {
	return v.Turn() == v.AIColor()
}

// View snapshots g
func (g *Game) View() View {
	v := View{
		ID:         g.id,
		Position:   g.CurrentPosition(),
		State:      g.state,
		Status:     g.CurrentPosition().Status(),
		HumanColor: g.humanColor,
		Model:      g.Model(),
		White:      *g.players[core.ColorWhite],
		Black:      *g.players[core.ColorBlack],
		Moves:      g.Moves(),
		MovesUCI:   g.MovesUCI(),
		InitialFEN: g.InitialFEN(),
	}
	if g.lastResult != nil {
		r := *g.lastResult
		v.LastResult = &r
	}
	return v
}

// Response renders the view for the API
func (v View) Response() core.GameResponse {
	white, black := v.White, v.Black
	resp := core.GameResponse{
		GameID:     v.ID,
		FEN:        v.Position.FEN(),
		Turn:       v.Turn().String(),
		State:      v.State.String(),
		Status:     v.Status.Message(),
		Moves:      v.Moves,
		MovesUCI:   v.MovesUCI,
		Players:    core.PlayersResponse{White: &white, Black: &black},
		Model:      v.Model,
		AIThinking: v.State == core.StatePending,
	}

	if r := v.LastResult; r != nil {
		resp.LastMove = &core.MoveInfo{
			Move:        r.Move.UCI(),
			SAN:         r.Move.SAN,
			PlayerColor: r.Player.String(),
			Source:      r.Source,
			Notice:      r.Notice,
			RawText:     r.RawText,
		}
	}

	return resp
}
