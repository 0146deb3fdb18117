package rules

import (
	"strings"

	"aichess/internal/core"

	"github.com/notnil/chess"
)

// Promotion piece letters, lowercase as in coordinate notation
const (
	PromoteQueen  = "q"
	PromoteRook   = "r"
	PromoteBishop = "b"
	PromoteKnight = "n"
)

// LegalMove is a rules-engine-validated move for one position
type LegalMove struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	Promotion string     `json:"promotion,omitempty"`
	SAN       string     `json:"san"`
	Side      core.Color `json:"side"`

	move *chess.Move
}

// UCI returns the move in coordinate notation
func (m LegalMove) UCI() string {
	return m.From + m.To + m.Promotion
}

func (m LegalMove) String() string {
	return m.SAN
}

// CoordMove is an unvalidated source/destination move
type CoordMove struct {
	From      string
	To        string
	Promotion string
}

func (c CoordMove) String() string {
	return c.From + c.To + c.Promotion
}

// ParseCoord parses "e2e4" or "e7e8q" (case-insensitive)
func ParseCoord(s string) (CoordMove, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 4 || len(s) > 5 {
		return CoordMove{}, false
	}
	if !isSquare(s[0:2]) || !isSquare(s[2:4]) {
		return CoordMove{}, false
	}

	cm := CoordMove{From: s[0:2], To: s[2:4]}
	if len(s) == 5 {
		switch p := s[4:]; p {
		case PromoteQueen, PromoteRook, PromoteBishop, PromoteKnight:
			cm.Promotion = p
		default:
			return CoordMove{}, false
		}
	}
	return cm, true
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

func promotionLetter(pt chess.PieceType) string {
	switch pt {
	case chess.Queen:
		return PromoteQueen
	case chess.Rook:
		return PromoteRook
	case chess.Bishop:
		return PromoteBishop
	case chess.Knight:
		return PromoteKnight
	default:
		return ""
	}
}

// SANs returns the algebraic notation of each move, preserving order
func SANs(moves []LegalMove) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.SAN
	}
	return out
}
