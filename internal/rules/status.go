package rules

import (
	"aichess/internal/core"

	"github.com/notnil/chess"
)

// Status summarises the game-over and check predicates of a position
type Status struct {
	Turn       core.Color
	Check      bool
	Checkmate  bool
	Stalemate  bool
	Draw       bool
	DrawReason string // engine method name, e.g. "ThreefoldRepetition"
	GameOver   bool
	Winner     core.Color // zero unless checkmate
}

func (p Position) Status() Status {
	g := p.game
	st := Status{
		Turn:     fromChessColor(g.Position().Turn()),
		GameOver: g.Outcome() != chess.NoOutcome,
	}

	// Derived from the board, not the last move's tag, so positions loaded
	// from FEN with the side to move in check report it too
	st.Check = inCheck(g.Position())

	switch g.Outcome() {
	case chess.WhiteWon:
		st.Checkmate = g.Method() == chess.Checkmate
		st.Winner = core.ColorWhite
	case chess.BlackWon:
		st.Checkmate = g.Method() == chess.Checkmate
		st.Winner = core.ColorBlack
	case chess.Draw:
		st.Draw = true
		st.Stalemate = g.Method() == chess.Stalemate
		st.DrawReason = g.Method().String()
	}

	return st
}

// inCheck reports whether the king of the side to move is attacked
func inCheck(pos *chess.Position) bool {
	b := pos.Board()
	turn := pos.Turn()
	for sq, pc := range b.SquareMap() {
		if pc.Type() == chess.King && pc.Color() == turn {
			return attacked(b, sq, turn.Other())
		}
	}
	return false
}

var (
	knightSteps = [][2]int{{1, 2}, {2, 1}, {-1, 2}, {-2, 1}, {1, -2}, {2, -1}, {-1, -2}, {-2, -1}}
	kingSteps   = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// attacked reports whether any piece of colour by attacks sq
func attacked(b *chess.Board, sq chess.Square, by chess.Color) bool {
	file, rank := int(sq.File()), int(sq.Rank())

	pieceAt := func(df, dr int) (chess.Piece, bool) {
		f, r := file+df, rank+dr
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece, false
		}
		return b.Piece(chess.NewSquare(chess.File(f), chess.Rank(r))), true
	}
	isAttacker := func(p chess.Piece, types ...chess.PieceType) bool {
		if p == chess.NoPiece || p.Color() != by {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	// Pawns capture towards the opponent: a white pawn one rank below sq
	pawnRank := -1
	if by == chess.Black {
		pawnRank = 1
	}
	for _, df := range []int{-1, 1} {
		if p, _ := pieceAt(df, pawnRank); isAttacker(p, chess.Pawn) {
			return true
		}
	}

	for _, s := range knightSteps {
		if p, _ := pieceAt(s[0], s[1]); isAttacker(p, chess.Knight) {
			return true
		}
	}

	for i, s := range kingSteps {
		if p, _ := pieceAt(s[0], s[1]); isAttacker(p, chess.King) {
			return true
		}

		// first four steps are orthogonal rays, the rest diagonal
		sliders := []chess.PieceType{chess.Rook, chess.Queen}
		if i >= 4 {
			sliders = []chess.PieceType{chess.Bishop, chess.Queen}
		}
		for n := 1; ; n++ {
			p, onBoard := pieceAt(s[0]*n, s[1]*n)
			if !onBoard {
				break
			}
			if p == chess.NoPiece {
				continue
			}
			if isAttacker(p, sliders...) {
				return true
			}
			break
		}
	}

	return false
}

// State maps the status onto the server's game state
func (s Status) State() core.State {
	switch {
	case s.Winner == core.ColorWhite:
		return core.StateWhiteWins
	case s.Winner == core.ColorBlack:
		return core.StateBlackWins
	case s.Stalemate:
		return core.StateStalemate
	case s.Draw:
		return core.StateDraw
	default:
		return core.StateOngoing
	}
}

// Message returns the player-facing status line, empty when there is
// nothing to report
func (s Status) Message() string {
	if s.Checkmate {
		if s.Winner == core.ColorBlack {
			return "Black wins by checkmate! Game over."
		}
		return "White wins by checkmate! Game over."
	}
	if s.Draw {
		switch s.DrawReason {
		case chess.Stalemate.String():
			return "Game drawn by stalemate! No legal moves available."
		case chess.InsufficientMaterial.String():
			return "Game drawn by insufficient material!"
		case chess.ThreefoldRepetition.String(), chess.FivefoldRepetition.String():
			return "Game drawn by threefold repetition!"
		}
		return "Game drawn!"
	}
	if s.Check {
		if s.Turn == core.ColorWhite {
			return "White is in check!"
		}
		return "Black is in check!"
	}
	return ""
}
