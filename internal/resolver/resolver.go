// Package resolver maps free-form AI response text onto exactly one legal
// move, and picks a random legal move when that is not possible.
package resolver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"aichess/internal/rules"
)

// Stage identifies which resolution step produced a move
type Stage int

const (
	StageNone Stage = iota
	StageCoordinate
	StageExactSAN
	StageCaseInsensitiveSAN
	StageNormalizedSAN
)

func (s Stage) String() string {
	switch s {
	case StageCoordinate:
		return "coordinate"
	case StageExactSAN:
		return "san-exact"
	case StageCaseInsensitiveSAN:
		return "san-case-insensitive"
	case StageNormalizedSAN:
		return "san-normalized"
	default:
		return "none"
	}
}

var (
	// Filler the models like to put in front of the move, stripped in order
	prefixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Move:\s*`),
		regexp.MustCompile(`(?i)^AI Move:\s*`),
		regexp.MustCompile(`(?i)^Black plays:\s*`),
		regexp.MustCompile(`(?i)^White plays:\s*`),
	}

	coordPattern  = regexp.MustCompile(`\b([a-h][1-8][a-h][1-8][qrbnQRBN]?)\b`)
	nonAlphanumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

var ErrEmptyText = errors.New("empty response text")

// ResolutionError reports text that could not be attributed to a single
// legal move. Text is the cleaned response.
type ResolutionError struct {
	Text   string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("Illegal, ambiguous, or unrecognized move: %s (%s)", e.Text, e.Reason)
}

// ApplyFunc asks the rules engine whether a coordinate move is legal and
// returns the legal move it denotes
type ApplyFunc func(rules.CoordMove) (rules.LegalMove, error)

// Result is a resolved move together with the stage that found it
type Result struct {
	Move  rules.LegalMove
	Stage Stage
	Text  string // cleaned text
}

// Resolve resolves text against a position. It never mutates pos.
func Resolve(text string, pos rules.Position) (Result, error) {
	return ResolveMoves(text, pos.LegalMoves(), func(cm rules.CoordMove) (rules.LegalMove, error) {
		lm, ok := pos.Find(cm)
		if !ok {
			return rules.LegalMove{}, fmt.Errorf("%w: %s", rules.ErrIllegalMove, cm)
		}
		return lm, nil
	})
}

// ResolveMoves runs the staged resolution over an explicit legal move set.
// Stages run in order and the first one yielding exactly one move wins.
func ResolveMoves(text string, legal []rules.LegalMove, apply ApplyFunc) (Result, error) {
	cleaned := Clean(text)
	if cleaned == "" {
		return Result{}, &ResolutionError{Text: cleaned, Reason: ErrEmptyText.Error()}
	}

	// Only the first coordinate-shaped token is tried; an illegal one falls
	// through to notation matching
	if cm, ok := ExtractCoordinate(cleaned); ok && apply != nil {
		if lm, err := apply(cm); err == nil {
			return Result{Move: lm, Stage: StageCoordinate, Text: cleaned}, nil
		}
	}

	if lm, ok := uniqueMatch(legal, func(san string) bool {
		return san == cleaned
	}); ok {
		return Result{Move: lm, Stage: StageExactSAN, Text: cleaned}, nil
	}

	lower := strings.ToLower(cleaned)
	if lm, ok := uniqueMatch(legal, func(san string) bool {
		return strings.ToLower(san) == lower
	}); ok {
		return Result{Move: lm, Stage: StageCaseInsensitiveSAN, Text: cleaned}, nil
	}

	normalized := normalize(cleaned)
	if normalized != "" {
		if lm, ok := uniqueMatch(legal, func(san string) bool {
			return normalize(san) == normalized
		}); ok {
			return Result{Move: lm, Stage: StageNormalizedSAN, Text: cleaned}, nil
		}
	}

	return Result{}, &ResolutionError{Text: cleaned, Reason: "no single legal move matched"}
}

// Clean trims whitespace and strips the known leading filler phrases
func Clean(text string) string {
	s := strings.TrimSpace(text)
	for _, re := range prefixPatterns {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// ExtractCoordinate returns the first coordinate-notation token in s
func ExtractCoordinate(s string) (rules.CoordMove, bool) {
	m := coordPattern.FindStringSubmatch(s)
	if m == nil {
		return rules.CoordMove{}, false
	}
	return rules.ParseCoord(m[1])
}

func normalize(s string) string {
	return strings.ToLower(nonAlphanumRe.ReplaceAllString(s, ""))
}

// uniqueMatch returns the only move whose SAN satisfies match. Ambiguity is
// a miss.
func uniqueMatch(legal []rules.LegalMove, match func(string) bool) (rules.LegalMove, bool) {
	var (
		found rules.LegalMove
		count int
	)
	for _, lm := range legal {
		if match(lm.SAN) {
			found = lm
			count++
		}
	}
	return found, count == 1
}
