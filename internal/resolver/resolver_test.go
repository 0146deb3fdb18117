package resolver

import (
	"errors"
	"testing"

	"aichess/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPosition(t *testing.T, fen string) rules.Position {
	t.Helper()
	p, err := rules.NewPosition(fen)
	require.NoError(t, err)
	return p
}

func TestResolvePrefixedCoordinate(t *testing.T) {
	res, err := Resolve("Move: e2e4", rules.StartingPosition())
	require.NoError(t, err)

	assert.Equal(t, "e2", res.Move.From)
	assert.Equal(t, "e4", res.Move.To)
	assert.Empty(t, res.Move.Promotion)
	assert.Equal(t, StageCoordinate, res.Stage)
}

func TestResolveSAN(t *testing.T) {
	res, err := Resolve("Nf3", rules.StartingPosition())
	require.NoError(t, err)

	assert.Equal(t, "g1f3", res.Move.UCI())
	assert.Equal(t, StageExactSAN, res.Stage)
}

func TestResolveProseFails(t *testing.T) {
	_, err := Resolve("I think the best move is e4", rules.StartingPosition())

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "I think the best move is e4", resErr.Text)
}

func TestResolvePromotion(t *testing.T) {
	p := mustPosition(t, "8/4P3/8/8/8/8/k7/7K w - - 0 1")

	res, err := Resolve("e7e8q", p)
	require.NoError(t, err)
	assert.Equal(t, "e7", res.Move.From)
	assert.Equal(t, "e8", res.Move.To)
	assert.Equal(t, rules.PromoteQueen, res.Move.Promotion)

	res, err = Resolve("e7e8N", p)
	require.NoError(t, err)
	assert.Equal(t, rules.PromoteKnight, res.Move.Promotion, "promotion letter is case-insensitive")

	// squares must be lowercase; the uppercase token is not a coordinate
	_, err = Resolve("E7E8N", p)
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)

	res, err = Resolve("e7e8", p)
	require.NoError(t, err)
	assert.Equal(t, rules.PromoteQueen, res.Move.Promotion, "missing promotion defaults to queen")
}

func TestResolveEveryLegalSAN(t *testing.T) {
	positions := []rules.Position{
		rules.StartingPosition(),
		mustPosition(t, "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4"),
		mustPosition(t, "8/4P3/8/8/8/8/k7/7K w - - 0 1"),
	}

	for _, p := range positions {
		for _, lm := range p.LegalMoves() {
			res, err := Resolve(lm.SAN, p)
			require.NoError(t, err, lm.SAN)
			assert.Equal(t, lm.UCI(), res.Move.UCI(), lm.SAN)
		}
	}
}

func TestResolveEveryLegalCoordinate(t *testing.T) {
	p := mustPosition(t, "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4")

	for _, lm := range p.LegalMoves() {
		res, err := Resolve(lm.UCI(), p)
		require.NoError(t, err, lm.UCI())
		assert.Equal(t, lm.UCI(), res.Move.UCI())
		assert.Equal(t, StageCoordinate, res.Stage)
	}
}

func TestResolveIllegalCoordinateFallsThrough(t *testing.T) {
	p := rules.StartingPosition()

	_, err := Resolve("e2e5", p)
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)

	// Only the first coordinate token is tried
	_, err = Resolve("e2e5 or maybe e2e4", p)
	require.ErrorAs(t, err, &resErr)
}

func TestResolveLooseSAN(t *testing.T) {
	p := rules.StartingPosition()

	res, err := Resolve("nf3", p)
	require.NoError(t, err)
	assert.Equal(t, StageCaseInsensitiveSAN, res.Stage)
	assert.Equal(t, "g1f3", res.Move.UCI())

	res, err = Resolve("  White plays: N-f3! ", p)
	require.NoError(t, err)
	assert.Equal(t, StageNormalizedSAN, res.Stage)
	assert.Equal(t, "g1f3", res.Move.UCI())

	check := mustPosition(t, "rnbqkbnr/ppppp1pp/5p2/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2")
	res, err = Resolve("Qh5", check)
	require.NoError(t, err)
	assert.Equal(t, "Qh5+", res.Move.SAN)
}

func TestResolveAmbiguousNeverGuesses(t *testing.T) {
	// Bishop and b-pawn can both take on c6: "bxc6" and "Bxc6"
	p := mustPosition(t, "7k/8/2n5/1P6/4B3/8/8/4K3 w - - 0 1")

	_, err := Resolve("BXC6", p)
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "BXC6", resErr.Text)

	res, err := Resolve("Bxc6", p)
	require.NoError(t, err)
	assert.Equal(t, "e4c6", res.Move.UCI())
}

func TestResolveEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "Move: "} {
		_, err := Resolve(text, rules.StartingPosition())
		var resErr *ResolutionError
		require.ErrorAs(t, err, &resErr, "%q", text)
		assert.Contains(t, resErr.Reason, ErrEmptyText.Error())
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	p := rules.StartingPosition()
	for _, text := range []string{"Move: e2e4", "nf3", "garbage"} {
		a, errA := Resolve(text, p)
		b, errB := Resolve(text, p)
		assert.Equal(t, a.Move.UCI(), b.Move.UCI())
		assert.Equal(t, a.Stage, b.Stage)
		assert.Equal(t, errA == nil, errB == nil)
	}
	assert.Equal(t, rules.StartingFEN, p.FEN())
}

func TestResolveMovesUsesApply(t *testing.T) {
	legal := rules.StartingPosition().LegalMoves()
	calls := 0
	apply := func(cm rules.CoordMove) (rules.LegalMove, error) {
		calls++
		return rules.LegalMove{}, errors.New("rejected")
	}

	_, err := ResolveMoves("g1f3", legal, apply)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"Move: e2e4":          "e2e4",
		"ai move: Nf3":        "Nf3",
		"  Black plays:  e5 ": "e5",
		"WHITE PLAYS: O-O":    "O-O",
		"Nf3":                 "Nf3",
	}
	for in, want := range cases {
		assert.Equal(t, want, Clean(in), in)
	}
}
