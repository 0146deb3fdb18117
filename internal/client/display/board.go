package display

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// RenderBoard writes the server's board drawing with colored pieces.
// Both letter (PNBRQK/pnbrqk) and figurine pieces are recognized.
func RenderBoard(w io.Writer, board string) {
	for _, line := range strings.Split(board, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		header := isFileHeader(line)
		for _, ch := range line {
			switch {
			case header && ch != ' ':
				fmt.Fprintf(w, "%s%c%s", Cyan, ch, Reset)
			case ch >= '1' && ch <= '8':
				fmt.Fprintf(w, "%s%c%s", Cyan, ch, Reset)
			case isWhitePiece(ch):
				fmt.Fprintf(w, "%s%c%s", Blue, ch, Reset)
			case isBlackPiece(ch):
				fmt.Fprintf(w, "%s%c%s", Red, ch, Reset)
			default:
				fmt.Fprintf(w, "%c", ch)
			}
		}
		fmt.Fprintln(w)
	}
}

// isFileHeader matches the "a b c ... h" line in either case
func isFileHeader(line string) bool {
	f := strings.Fields(line)
	return len(f) == 8 && strings.EqualFold(f[0], "a") && strings.EqualFold(f[7], "h")
}

func isWhitePiece(ch rune) bool {
	return strings.ContainsRune("PNBRQK", ch) || (ch >= '♔' && ch <= '♙')
}

func isBlackPiece(ch rune) bool {
	return strings.ContainsRune("pnbrqk", ch) || (ch >= '♚' && ch <= '♟')
}

// ColorForTurn returns colored turn indicator
func ColorForTurn(turn string) string {
	if turn == "w" {
		return Blue + "White" + Reset
	}
	return Red + "Black" + Reset
}

// ColorName returns "White" or "Black", capitalized, for a color name or letter
func ColorName(c string) string {
	if c == "" {
		return ""
	}
	switch c {
	case "w":
		return "White"
	case "b":
		return "Black"
	}
	r := []rune(c)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
