package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"aichess/internal/client/display"
	"aichess/internal/client/session"
)

func (r *Registry) registerUtilCommands() {
	for _, cmd := range []*Command{
		{Name: "models", ShortName: "l", Description: "List available AI opponents", Usage: "models", Handler: r.modelsHandler},
		{Name: "health", ShortName: ".", Description: "Check server health", Usage: "health", Handler: r.healthHandler},
		{Name: "url", ShortName: "/", Description: "Show or set the server URL", Usage: "url [http://host:port]", Handler: r.urlHandler},
		{Name: "clear", ShortName: "-", Description: "Clear the screen", Usage: "clear", Handler: r.clearHandler},
	} {
		cmd.Group = "Utility"
		r.Register(cmd)
	}
}

func (r *Registry) modelsHandler(s *session.Session, _ []string) error {
	models, err := s.Client.Models()
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(r.out, "No AI providers configured on the server")
		return nil
	}

	current := ""
	if s.CurrentGameState != nil {
		current = s.CurrentGameState.Model
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tModel\tName\tProvider\tStyle")
	for _, m := range models {
		mark := ""
		if m.ID == current {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, m.ID, m.Name, m.Provider, m.Description)
	}
	return w.Flush()
}

func (r *Registry) healthHandler(s *session.Session, _ []string) error {
	h, err := s.Client.Health()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%sServer: %v%s  storage: %v\n", display.Green, h["status"], display.Reset, h["storage"])
	return nil
}

func (r *Registry) urlHandler(s *session.Session, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "API: %s\n", s.APIBaseURL)
		return nil
	}

	url := args[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	s.APIBaseURL = strings.TrimRight(url, "/")
	s.Client.SetBaseURL(s.APIBaseURL)
	s.ClearGame()

	fmt.Fprintf(r.out, "%sAPI set to: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	return nil
}

func (r *Registry) clearHandler(*session.Session, []string) error {
	fmt.Fprint(r.out, "\033[H\033[2J")
	return nil
}
