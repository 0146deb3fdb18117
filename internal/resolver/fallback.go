package resolver

import (
	"errors"
	"math/rand"

	"aichess/internal/rules"
)

var ErrNoLegalMoves = errors.New("no legal moves to choose from")

// Picker returns an index in [0, n)
type Picker func(n int) int

// RandomPicker picks uniformly at random
func RandomPicker(n int) int {
	return rand.Intn(n)
}

// Fallback picks one move from a non-empty legal set. An empty set means
// the game is already over and is a caller error.
func Fallback(legal []rules.LegalMove, pick Picker) (rules.LegalMove, error) {
	if len(legal) == 0 {
		return rules.LegalMove{}, ErrNoLegalMoves
	}
	if pick == nil {
		pick = RandomPicker
	}

	i := pick(len(legal))
	if i < 0 || i >= len(legal) {
		i = 0
	}
	return legal[i], nil
}
