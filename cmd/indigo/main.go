package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"indigo/internal/api"
	"indigo/internal/calendar"
	"indigo/internal/config"
	appLog "indigo/internal/log"
	"indigo/internal/ui"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config file (optional)")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "indigo: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "indigo: %v\n", err)
		os.Exit(1)
	}

	if err := appLog.Init(conf.LogPath); err != nil {
		fmt.Fprintf(os.Stderr, "indigo: cannot open log file: %v\n", err)
		os.Exit(1)
	}
	appLog.Info("indigo starting", "base_url", conf.BaseURL)

	client := api.New(conf.BaseURL, conf.Token)
	store := calendar.NewStore()

	program := tea.NewProgram(ui.New(conf, client, store), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		appLog.Error("session ended with error", err)
		fmt.Fprintf(os.Stderr, "indigo: %v\n", err)
		os.Exit(1)
	}
	appLog.Info("indigo exiting")
}
