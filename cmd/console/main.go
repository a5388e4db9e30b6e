package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jwebster45206/crawl-engine/internal/handlers"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    30 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	// CRAWL_ID resumes a saved run (use /copy in a previous session to grab
	// it). Otherwise CRAWL_SEED replays a known dungeon; unset means a fresh
	// random one.
	var session *handlers.CrawlResponse
	if idStr := os.Getenv("CRAWL_ID"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid CRAWL_ID %q: %v\n", idStr, err)
			os.Exit(1)
		}
		session, err = getCrawl(client, cfg.APIBaseURL, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resume crawl: %v\n", err)
			os.Exit(1)
		}
	} else {
		var seed uint64
		if s := os.Getenv("CRAWL_SEED"); s != "" {
			parsed, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid CRAWL_SEED %q: %v\n", s, err)
				os.Exit(1)
			}
			seed = parsed
		}

		created, err := createCrawl(client, cfg.APIBaseURL, seed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start crawl: %v\n", err)
			os.Exit(1)
		}
		session = created
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client, session),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
