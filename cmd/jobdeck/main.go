package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jobdeck/jobdeck/internal/app"
	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/store"
)

func main() {
	if os.Getenv("JOBDECK_DEBUG") != "" {
		f, err := tea.LogToFile("jobdeck-debug.log", "debug")
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(os.Stderr)
	}

	configPath := os.Getenv("JOBDECK_CONFIG")
	if configPath == "" {
		configPath = model.DefaultConfigPath()
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	dbPath := filepath.Join(filepath.Dir(configPath), "jobdeck.db")
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening local store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	p := tea.NewProgram(
		app.New(cfg, configPath, st),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "jobdeck: %v\n", err)
		os.Exit(1)
	}
}
