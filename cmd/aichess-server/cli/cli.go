package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"aichess/internal/storage"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Run is the entry point for the database mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, moves, archive")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:], os.Stdin, os.Stdout)
	case "query":
		return runQuery(args[1:], os.Stdout)
	case "moves":
		return runMoves(args[1:], os.Stdout)
	case "archive":
		return runArchive(args[1:], os.Stdout)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func openStore(path string) (*storage.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	store, err := storage.NewStore(path, false, zerolog.Nop())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Printf("Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string, in *os.File, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	force := fs.Bool("force", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only ask when a person is at the keyboard; scripts pass -force
	if !*force && term.IsTerminal(int(in.Fd())) {
		fmt.Fprintf(out, "Delete %s and all recorded games? [y/N] ", *path)
		answer, _ := bufio.NewReader(in).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", *path)
	return nil
}

func runQuery(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	gameID := fs.String("gameId", "", "Game ID to filter (optional, * for all)")
	model := fs.String("model", "", "AI model to filter (optional, * for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(*gameID, *model)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	printGames(out, games)
	return nil
}

func runMoves(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("moves", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	gameID := fs.String("gameId", "", "Game ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *gameID == "" {
		return fmt.Errorf("game ID required")
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	moves, err := store.QueryMoves(*gameID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	printMoves(out, moves)
	return nil
}

func runArchive(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("archive", flag.ContinueOnError)
	uri := fs.String("uri", os.Getenv("MONGO_URI"), "MongoDB connection URI")
	database := fs.String("database", "aichess", "Database name")
	collection := fs.String("collection", "games", "Collection name")
	gameID := fs.String("gameId", "", "Show the moves of one game")
	model := fs.String("model", "", "AI model to filter")
	limit := fs.Int64("limit", 20, "Maximum games listed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uri == "" {
		return fmt.Errorf("MongoDB URI required (-uri or MONGO_URI)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	archive, err := storage.NewArchive(ctx, *uri, *database, *collection, zerolog.Nop())
	if err != nil {
		return err
	}
	defer archive.Close()

	if *gameID != "" {
		g, err := archive.FindGame(ctx, *gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", *gameID, err)
		}
		printGames(out, []storage.GameRecord{g.GameRecord})
		fmt.Fprintln(out)
		printMoves(out, g.Moves)
		return nil
	}

	games, err := archive.RecentGames(ctx, *model, *limit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	records := make([]storage.GameRecord, len(games))
	for i, g := range games {
		records[i] = g.GameRecord
	}
	printGames(out, records)
	return nil
}

func printGames(out io.Writer, games []storage.GameRecord) {
	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tHuman\tPlayer\tModel\tStart Time")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			g.GameID,
			g.HumanColor,
			g.PlayerName,
			g.Model,
			g.StartTimeUTC.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
}

func printMoves(out io.Writer, moves []storage.MoveRecord) {
	if len(moves) == 0 {
		fmt.Fprintln(out, "No moves recorded")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tColor\tSAN\tUCI\tSource\tRaw Text")
	for _, m := range moves {
		raw := m.RawText
		if len(raw) > 40 {
			raw = raw[:37] + "..."
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%q\n",
			m.MoveNumber, m.PlayerColor, m.MoveSAN, m.MoveUCI, m.Source, raw)
	}
	w.Flush()
}
