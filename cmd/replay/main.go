package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
	"github.com/jwebster45206/crawl-engine/pkg/replay"
)

func main() {
	scenarioID := flag.String("scenario", "", "scenario to run (one of: "+strings.Join(replay.ScenarioIDs(), ", ")+")")
	seed := flag.Uint64("seed", 1, "random seed for the run")
	dataDir := flag.String("data", "./data", "directory containing rooms.json")
	flag.Parse()

	if *scenarioID == "" {
		flag.Usage()
		os.Exit(1)
	}

	cat, err := catalog.LoadFile(filepath.Join(*dataDir, "rooms.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}

	rec, err := replay.Run(*scenarioID, *seed, cat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode record: %v\n", err)
		os.Exit(1)
	}
}
