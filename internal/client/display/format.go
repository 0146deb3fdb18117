package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"aichess/internal/core"
)

// PrettyPrintJSON prints formatted JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", Red, err.Error(), Reset)
		return
	}
	fmt.Fprintln(w, string(data))
}

// MoveLine describes the last move, flagging AI fallbacks
func MoveLine(m *core.MoveInfo) string {
	if m == nil {
		return ""
	}

	san := m.SAN
	if san == "" {
		san = m.Move
	}

	who := ColorName(m.PlayerColor)
	switch m.Source {
	case core.SourceAI:
		return fmt.Sprintf("%s%s (AI) played %s%s", Magenta, who, san, Reset)
	case core.SourceFallback:
		return fmt.Sprintf("%s%s (AI) played %s at random%s", Yellow, who, san, Reset)
	default:
		return fmt.Sprintf("%s played %s", who, san)
	}
}

// NoticeLine renders the fallback notice and the text the AI sent, if any
func NoticeLine(m *core.MoveInfo) string {
	if m == nil || m.Notice == "" {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s%s", Red, m.Notice, Reset)
	if m.RawText != "" {
		raw := m.RawText
		if len(raw) > 120 {
			raw = raw[:117] + "..."
		}
		fmt.Fprintf(&b, "\n%sAI said: %q%s", Yellow, raw, Reset)
	}
	return b.String()
}

// MoveList formats SAN moves as numbered pairs: "1. e4 e5 2. Nf3"
func MoveList(moves []string, whiteFirst bool) string {
	var b strings.Builder
	n := 1
	i := 0
	if !whiteFirst && len(moves) > 0 {
		fmt.Fprintf(&b, "1... %s", moves[0])
		n, i = 2, 1
	}
	for ; i < len(moves); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d. %s", n, moves[i])
		if i+1 < len(moves) {
			fmt.Fprintf(&b, " %s", moves[i+1])
		}
		n++
	}
	return b.String()
}
