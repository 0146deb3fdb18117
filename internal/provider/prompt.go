package provider

import (
	"fmt"
	"strings"

	"aichess/internal/core"
)

const systemPrompt = "Choose only from the provided legal moves. Respond with UCI notation only."

func buildPrompt(req core.MoveRelayRequest) string {
	return fmt.Sprintf(`You are a chess grandmaster playing as %[1]s. The user is playing as %[2]s.
It is %[1]s's turn to move.

Current board (FEN): %[3]s
Legal moves for %[1]s: %[4]s

You must respond with a single move in UCI notation, and nothing else.
Do NOT use algebraic notation like e5, Nxe5, exf6, etc.
For example, if the move is pawn from e7 to e5, respond with 'e7e5'.
If the move is knight from g8 to f6, respond with 'g8f6'.
Do not include any explanation, prefix, or extra text.
Only output the move string itself.`,
		req.Color, req.UserColor, req.CurrentBoard, strings.Join(req.LegalMoves, ", "))
}
