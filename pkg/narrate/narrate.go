// Package narrate defines the single callback through which the engine
// emits human-readable narration. Tags are presentational hints only; no
// logic inside the engine keys off them.
package narrate

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Presentational tags attached to narration lines.
const (
	TagSystem  = "system"
	TagPlayer  = "player"
	TagEnemy   = "enemy"
	TagCrit    = "crit"
	TagLoot    = "loot"
	TagSuccess = "success"
)

// Sink receives narration lines as they are produced.
type Sink func(message, tag string)

// Discard drops all narration.
func Discard(string, string) {}

// Line is one recorded narration entry.
type Line struct {
	Message string `json:"message"`
	Tag     string `json:"tag"`
}

// Recorder collects narration in order, for API responses, the replay
// runner, and tests.
type Recorder struct {
	Lines []Line
}

// Sink is the callback to inject into the engine.
func (r *Recorder) Sink(message, tag string) {
	r.Lines = append(r.Lines, Line{Message: message, Tag: tag})
}

// Messages returns just the ordered message strings.
func (r *Recorder) Messages() []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Message
	}
	return out
}

var titleCaser = cases.Title(language.English)

// Title renders a threat or item name in display casing.
func Title(s string) string {
	return titleCaser.String(s)
}
