package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"aichess/internal/client/api"
	"aichess/internal/client/display"
	"aichess/internal/client/session"
	"aichess/internal/core"
)

// maxPolls bounds how many long-poll windows the client waits for an AI
// reply before handing control back
const maxPolls = 4

var (
	errNoGame    = errors.New("no active game (use 'new' or 'join')")
	errAIPending = errors.New("the AI is still thinking; use 'wait' for its move first")
)

func (r *Registry) registerGameCommands() {
	for _, cmd := range []*Command{
		{Name: "new", ShortName: "n", Description: "Start a game against the AI", Usage: "new [white|black] [model]", Handler: r.newGameHandler},
		{Name: "join", ShortName: "j", Description: "Resume a game by ID", Usage: "join <gameId>", Handler: r.joinGameHandler},
		{Name: "move", ShortName: "m", Description: "Make a move", Usage: "move <e2e4|Nf3|O-O>", Handler: r.moveHandler},
		{Name: "undo", ShortName: "u", Description: "Take back moves", Usage: "undo [count]", Handler: r.undoHandler},
		{Name: "wait", ShortName: "w", Description: "Wait for the AI's move", Usage: "wait", Handler: r.waitHandler},
		{Name: "opponent", ShortName: "o", Description: "Change the AI model", Usage: "opponent <model>", Handler: r.opponentHandler},
		{Name: "show", ShortName: "h", Description: "Show board and game state", Usage: "show", Handler: r.showHandler},
		{Name: "state", ShortName: "s", Description: "Show raw game JSON", Usage: "state", Handler: r.stateHandler},
		{Name: "pgn", ShortName: "g", Description: "Print the game in PGN", Usage: "pgn", Handler: r.pgnHandler},
		{Name: "delete", ShortName: "d", Description: "Delete the current game", Usage: "delete", Handler: r.deleteHandler},
	} {
		cmd.Group = "Game"
		r.Register(cmd)
	}
}

func (r *Registry) newGameHandler(s *session.Session, args []string) error {
	if s.AIThinking() {
		// Re-check before refusing; the reply may already have landed
		if g, err := s.Client.GetGame(s.CurrentGame); err == nil {
			s.SetGameState(g)
		}
		if s.AIThinking() {
			return errAIPending
		}
	}

	req := core.CreateGameRequest{HumanColor: "white"}
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "white", "w":
			req.HumanColor = "white"
		case "black", "b":
			req.HumanColor = "black"
		default:
			req.Model = arg
		}
	}

	g, err := s.Client.CreateGame(req)
	if err != nil {
		return err
	}
	s.SetGameState(g)
	s.PlayerColor = req.HumanColor[:1]

	fmt.Fprintf(r.out, "%sGame created: %s%s\n", display.Green, g.GameID, display.Reset)
	fmt.Fprintf(r.out, "You play %s against %s%s%s\n",
		display.ColorForTurn(s.PlayerColor), display.Magenta, g.Model, display.Reset)

	if g.AIThinking {
		return r.awaitAI(s)
	}
	r.printGame(s)
	return nil
}

func (r *Registry) joinGameHandler(s *session.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	g, err := s.Client.GetGame(args[0])
	if err != nil {
		return err
	}
	s.SetGameState(g)
	if g.Players.White != nil && g.Players.White.Type == core.PlayerHuman {
		s.PlayerColor = "w"
	} else {
		s.PlayerColor = "b"
	}

	r.printGame(s)
	if g.AIThinking {
		return r.awaitAI(s)
	}
	return nil
}

func (r *Registry) moveHandler(s *session.Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: move <move>")
	}

	g, err := s.Client.MakeMove(s.CurrentGame, args[0])
	if api.IsCode(err, core.ErrAIPending) {
		return errAIPending
	}
	if err != nil {
		return err
	}
	s.SetGameState(g)

	if g.AIThinking {
		fmt.Fprintf(r.out, "%s\n", display.MoveLine(g.LastMove))
		return r.awaitAI(s)
	}
	r.printGame(s)
	return nil
}

func (r *Registry) undoHandler(s *session.Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}

	count := 2 // one full turn: the AI's reply and the player's move
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %s", args[0])
		}
		count = n
	}

	g, err := s.Client.UndoMoves(s.CurrentGame, count)
	if api.IsCode(err, core.ErrAIPending) {
		return errAIPending
	}
	if err != nil {
		return err
	}
	s.SetGameState(g)

	fmt.Fprintf(r.out, "%sUndid %d move(s)%s\n", display.Cyan, count, display.Reset)
	if g.AIThinking {
		return r.awaitAI(s)
	}
	r.printGame(s)
	return nil
}

func (r *Registry) waitHandler(s *session.Session, _ []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	if !s.AIThinking() {
		g, err := s.Client.GetGame(s.CurrentGame)
		if err != nil {
			return err
		}
		s.SetGameState(g)
		if !g.AIThinking {
			fmt.Fprintf(r.out, "It is your move\n")
			return nil
		}
	}
	return r.awaitAI(s)
}

func (r *Registry) opponentHandler(s *session.Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: opponent <model> (see 'models')")
	}

	g, err := s.Client.ConfigureOpponent(s.CurrentGame, args[0])
	if api.IsCode(err, core.ErrAIPending) {
		return errAIPending
	}
	if err != nil {
		return err
	}
	s.SetGameState(g)

	fmt.Fprintf(r.out, "%sOpponent set to %s%s\n", display.Green, g.Model, display.Reset)
	return nil
}

func (r *Registry) showHandler(s *session.Session, _ []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	g, err := s.Client.GetGame(s.CurrentGame)
	if err != nil {
		return err
	}
	s.SetGameState(g)
	r.printGame(s)
	return nil
}

func (r *Registry) stateHandler(s *session.Session, _ []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	g, err := s.Client.GetGame(s.CurrentGame)
	if err != nil {
		return err
	}
	s.SetGameState(g)
	display.PrettyPrintJSON(r.out, g)
	return nil
}

func (r *Registry) pgnHandler(s *session.Session, _ []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	p, err := s.Client.GetPGN(s.CurrentGame)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, p.PGN)
	return nil
}

func (r *Registry) deleteHandler(s *session.Session, _ []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	err := s.Client.DeleteGame(s.CurrentGame)
	if api.IsCode(err, core.ErrAIPending) {
		return errAIPending
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%sGame deleted: %s%s\n", display.Green, s.CurrentGame, display.Reset)
	s.ClearGame()
	return nil
}

// awaitAI long-polls until the AI has moved, then shows the result
func (r *Registry) awaitAI(s *session.Session) error {
	fmt.Fprintf(r.out, "%s%s is thinking...%s\n", display.Magenta, s.CurrentGameState.Model, display.Reset)

	for i := 0; i < maxPolls; i++ {
		g, err := s.Client.GetGameWithPoll(s.CurrentGame, s.LastMoveCount)
		if err != nil {
			return err
		}
		s.SetGameState(g)
		if !g.AIThinking {
			r.printGame(s)
			return nil
		}
	}

	fmt.Fprintf(r.out, "%sStill waiting on the AI; try 'wait' again%s\n", display.Yellow, display.Reset)
	return nil
}

// printGame shows the board, the last move with any AI notice, and status
func (r *Registry) printGame(s *session.Session) {
	g := s.CurrentGameState
	if g == nil {
		return
	}

	if b, err := s.Client.GetBoard(g.GameID); err == nil {
		fmt.Fprintln(r.out)
		display.RenderBoard(r.out, b.Board)
		fmt.Fprintln(r.out)
	}

	if line := display.MoveLine(g.LastMove); line != "" {
		fmt.Fprintln(r.out, line)
	}
	if notice := display.NoticeLine(g.LastMove); notice != "" {
		fmt.Fprintln(r.out, notice)
	}
	if len(g.Moves) > 0 {
		fmt.Fprintf(r.out, "Moves: %s\n", display.MoveList(g.Moves, true))
	}

	switch {
	case g.State != "ongoing" && g.State != "pending":
		fmt.Fprintf(r.out, "%sGame over: %s%s\n", display.Green, g.State, display.Reset)
	case g.Status != "":
		fmt.Fprintf(r.out, "%s%s%s\n", display.Yellow, g.Status, display.Reset)
	default:
		fmt.Fprintf(r.out, "%s to move\n", display.ColorForTurn(g.Turn))
	}
}
