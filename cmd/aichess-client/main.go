// Package main implements the terminal client for playing against the AI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"aichess/internal/client/commands"
	"aichess/internal/client/display"
	"aichess/internal/client/session"

	"github.com/chzyer/readline"
)

func main() {
	defaultURL := os.Getenv("AICHESS_SERVER")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	server := flag.String("server", defaultURL, "Chess server base URL")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	if *noColor {
		display.Disable()
	}

	s := session.New(strings.TrimRight(*server, "/"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     ".aichess_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%sChess vs AI%s\n", display.Cyan, display.Reset)
	fmt.Printf("%sAPI: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	fmt.Printf("Type 'help' for commands, 'new' to start\n\n")

	registry := commands.NewRegistry(s, rl.Stdout())

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		if strings.HasSuffix(line, " -v") {
			s.Verbose = true
			line = strings.TrimSuffix(line, " -v")
		} else {
			s.Verbose = false
		}

		if registry.Execute(line) {
			break
		}
	}
}

func buildPrompt(s *session.Session) string {
	prompt := "chess"
	g := s.CurrentGameState
	if g == nil {
		return display.Prompt(prompt)
	}

	prompt += fmt.Sprintf("%s [%s%s%s vs %s%s%s]",
		display.Yellow,
		display.White, g.GameID[:8], display.Reset,
		display.Magenta, g.Model, display.Yellow)

	switch {
	case g.AIThinking:
		prompt += " - AI thinking"
	case g.State == "ongoing":
		who := "you"
		if g.Turn != s.PlayerColor {
			who = "AI"
		}
		prompt += fmt.Sprintf(" - %s%s(%s)", display.ColorForTurn(g.Turn), display.Yellow, who)
	default:
		prompt += " - " + g.State
	}

	return display.Prompt(prompt)
}
