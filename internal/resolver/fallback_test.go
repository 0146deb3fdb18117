package resolver

import (
	"testing"

	"aichess/internal/rules"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackDeterministicPicker(t *testing.T) {
	legal := rules.StartingPosition().LegalMoves()

	var got []string
	for i := range legal {
		idx := i
		lm, err := Fallback(legal, func(n int) int { return idx })
		require.NoError(t, err)
		got = append(got, lm.UCI())
	}

	want := make([]string, len(legal))
	for i, lm := range legal {
		want[i] = lm.UCI()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fallback picks mismatch (-want +got):\n%s", diff)
	}
}

func TestFallbackNeverLeavesLegalSet(t *testing.T) {
	legal := rules.StartingPosition().LegalMoves()
	set := make(map[string]bool, len(legal))
	for _, lm := range legal {
		set[lm.UCI()] = true
	}

	for i := 0; i < 200; i++ {
		lm, err := Fallback(legal, nil)
		require.NoError(t, err)
		assert.True(t, set[lm.UCI()], lm.UCI())
	}

	lm, err := Fallback(legal, func(n int) int { return n + 5 })
	require.NoError(t, err)
	assert.True(t, set[lm.UCI()])
}

func TestFallbackEmpty(t *testing.T) {
	_, err := Fallback(nil, RandomPicker)
	assert.ErrorIs(t, err, ErrNoLegalMoves)
}
