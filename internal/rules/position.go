// Package rules adapts the notnil/chess rules engine to the positions and
// moves the rest of the server works with. Nothing here decides legality on
// its own: every move is matched against the engine's valid move list.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"aichess/internal/core"

	"github.com/notnil/chess"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrGameOver    = errors.New("game is over")
)

// Position is an immutable game position. Apply never touches the receiver,
// it returns the next Position.
type Position struct {
	game *chess.Game
}

// StartingPosition returns the standard initial position
func StartingPosition() Position {
	return Position{game: chess.NewGame()}
}

// NewPosition builds a position from FEN; an empty string means the
// standard starting position
func NewPosition(fen string) (Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return StartingPosition(), nil
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return Position{game: chess.NewGame(opt)}, nil
}

// IsZero reports whether p was never initialised
func (p Position) IsZero() bool {
	return p.game == nil
}

func (p Position) FEN() string {
	return p.game.FEN()
}

// Turn returns the side to move
func (p Position) Turn() core.Color {
	return fromChessColor(p.game.Position().Turn())
}

// LegalMoves returns every legal move for the side to move, in engine order.
// The slice is empty once the game is over.
func (p Position) LegalMoves() []LegalMove {
	if p.game.Outcome() != chess.NoOutcome {
		return nil
	}

	pos := p.game.Position()
	side := fromChessColor(pos.Turn())
	valid := p.game.ValidMoves()

	moves := make([]LegalMove, 0, len(valid))
	for _, m := range valid {
		moves = append(moves, LegalMove{
			From:      m.S1().String(),
			To:        m.S2().String(),
			Promotion: promotionLetter(m.Promo()),
			SAN:       chess.AlgebraicNotation{}.Encode(pos, m),
			Side:      side,
			move:      m,
		})
	}
	return moves
}

// Apply plays a coordinate move. A missing promotion piece defaults to
// queen, and a non-promoting move between the same squares is accepted
// whatever promotion letter was given.
func (p Position) Apply(cm CoordMove) (Position, LegalMove, error) {
	lm, ok := p.Find(cm)
	if !ok {
		return Position{}, LegalMove{}, fmt.Errorf("%w: %s", ErrIllegalMove, cm)
	}
	next, err := p.ApplyMove(lm)
	return next, lm, err
}

// ApplySAN plays a move given in standard algebraic notation
func (p Position) ApplySAN(san string) (Position, LegalMove, error) {
	san = strings.TrimSpace(san)
	for _, lm := range p.LegalMoves() {
		if lm.SAN == san || strings.TrimRight(lm.SAN, "+#") == strings.TrimRight(san, "+#") {
			next, err := p.ApplyMove(lm)
			return next, lm, err
		}
	}
	return Position{}, LegalMove{}, fmt.Errorf("%w: %s", ErrIllegalMove, san)
}

// Find returns the legal move a coordinate move refers to, if any
func (p Position) Find(cm CoordMove) (LegalMove, bool) {
	promo := cm.Promotion
	if promo == "" {
		promo = PromoteQueen
	}
	for _, lm := range p.LegalMoves() {
		if lm.From != cm.From || lm.To != cm.To {
			continue
		}
		if lm.Promotion == "" || lm.Promotion == promo {
			return lm, true
		}
	}
	return LegalMove{}, false
}

// ApplyMove plays a move previously returned by LegalMoves for this position
func (p Position) ApplyMove(lm LegalMove) (Position, error) {
	if p.game.Outcome() != chess.NoOutcome {
		return Position{}, ErrGameOver
	}

	m := lm.move
	if m == nil {
		found, ok := p.Find(CoordMove{From: lm.From, To: lm.To, Promotion: lm.Promotion})
		if !ok {
			return Position{}, fmt.Errorf("%w: %s", ErrIllegalMove, lm.UCI())
		}
		m = found.move
	}

	next := p.game.Clone()
	if err := next.Move(m); err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	claimDraw(next)

	return Position{game: next}, nil
}

// claimDraw settles draws the engine only marks as claimable, so that a
// repeated or stale position ends the game the way players expect
func claimDraw(g *chess.Game) {
	if g.Outcome() != chess.NoOutcome {
		return
	}
	for _, method := range g.EligibleDraws() {
		if method != chess.ThreefoldRepetition && method != chess.FiftyMoveRule {
			continue
		}
		// Draw only rejects methods missing from EligibleDraws; try the next one
		if err := g.Draw(method); err == nil {
			return
		}
	}
}

// Board renders the position as ASCII
func (p Position) Board() string {
	return p.game.Position().Board().Draw()
}

// PGN returns the moves played since this position's root in PGN
func (p Position) PGN() string {
	return p.game.String()
}

func fromChessColor(c chess.Color) core.Color {
	if c == chess.Black {
		return core.ColorBlack
	}
	return core.ColorWhite
}
