package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <rooms.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &CatalogValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Catalog file is valid!")
}

type CatalogValidator struct {
	errors []string
}

func (v *CatalogValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	if !strings.HasSuffix(filepath.Base(filename), ".json") {
		return fmt.Errorf("catalog file must have .json extension: %s", filepath.Base(filename))
	}

	cat, err := catalog.LoadFile(filename)
	if err != nil {
		var le *catalog.LoadError
		if errors.As(err, &le) {
			return fmt.Errorf("record %d rejected: %s", le.Record, le.Reason)
		}
		return err
	}

	v.errors = nil
	v.validateCatalog(cat)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	fmt.Printf("%d room templates loaded\n", len(cat))
	return nil
}

// validateCatalog applies lint checks beyond what the loader enforces.
func (v *CatalogValidator) validateCatalog(cat catalog.Catalog) {
	names := make(map[string]int)
	tiers := make(map[catalog.Tier]int)

	for _, tpl := range cat {
		if prev, ok := names[tpl.Name]; ok {
			v.addError(fmt.Sprintf("room %d reuses the name %q of room %d", tpl.ID, tpl.Name, prev))
		}
		names[tpl.Name] = tpl.ID
		tiers[tpl.Difficulty]++

		if strings.TrimSpace(tpl.Flavor) == "" {
			v.addError(fmt.Sprintf("room %d (%q) has empty flavor text", tpl.ID, tpl.Name))
		}
		if len(tpl.Threats) == 0 && tpl.Difficulty != catalog.TierEasy {
			v.addError(fmt.Sprintf("room %d (%q) is %s but lists no threats", tpl.ID, tpl.Name, tpl.Difficulty))
		}
	}

	// Every floor band must have at least one template to draw from.
	for _, tier := range []catalog.Tier{catalog.TierEasy, catalog.TierMedium, catalog.TierHard} {
		if tiers[tier] == 0 {
			v.addError(fmt.Sprintf("no %s templates: floors in that band would fall back to the whole catalog", tier))
		}
	}
}

func (v *CatalogValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}
