// Package extract infers directional exits from a parsed story file.
//
// Two strategies exist. Compiled Infocom-style dictionaries attach extra
// bytes to each word; any extra byte in the property range names the object
// property a movement word resolves through (strategy A). Dictionaries
// without extra bytes fall back to the conventional fixed
// property-to-direction table used by the reference compiler toolchain
// (strategy B).
package extract

import (
	"strings"

	"github.com/dyuri/zatlas/internal/model"
)

// DefaultExcludedWords are vocabulary entries with fixed system meanings.
// They structurally never encode movement, so they are dropped before the
// word-to-property mapping is built. Nothing else is filtered: "jump",
// "pray" and "launch" are evaluated exactly like "north".
var DefaultExcludedWords = []string{
	"brief", "superbrief", "verbose",
	"save", "restore", "restart", "quit",
	"script", "unscript", "version",
}

// Mapping is the one-pass dictionary analysis shared by the classifier and
// the exit extractor.
type Mapping struct {
	// PropToWord maps a property number (1..31) to the first dictionary
	// word carrying that number among its extra bytes.
	PropToWord map[int]string

	// PropOrder holds the mapped property numbers in dictionary order so
	// iteration stays deterministic.
	PropOrder []int

	// HasTails reports whether any dictionary entry carries extra bytes
	// at all. When false, strategy B engages.
	HasTails bool
}

// AnalyzeDictionary builds the word-to-property mapping from dictionary
// extra bytes. excluded extends DefaultExcludedWords; pass nil for the
// default behavior.
func AnalyzeDictionary(gf *model.GameFile, excluded []string) Mapping {
	skip := make(map[string]bool, len(DefaultExcludedWords)+len(excluded))
	for _, w := range DefaultExcludedWords {
		skip[w] = true
	}
	for _, w := range excluded {
		skip[strings.ToLower(w)] = true
	}

	m := Mapping{PropToWord: make(map[int]string)}
	for _, entry := range gf.Dictionary {
		if len(entry.Tail) == 0 {
			continue
		}
		m.HasTails = true

		word := strings.ToLower(strings.TrimSpace(entry.Word))
		if word == "" || skip[word] {
			continue
		}
		// Compiled dictionaries front-load part-of-speech flag bytes, so
		// the property number can sit at any tail offset. Every byte in
		// the 1..31 range counts; first word per property wins, in
		// dictionary order.
		for _, b := range entry.Tail {
			prop := int(b)
			if prop < 1 || prop > 31 {
				continue
			}
			if _, taken := m.PropToWord[prop]; !taken {
				m.PropToWord[prop] = word
				m.PropOrder = append(m.PropOrder, prop)
			}
		}
	}
	return m
}

// MovementProps returns the property numbers relevant to the strategy the
// mapping selects: the dictionary-named set for strategy A, the fixed 1-12
// range for strategy B.
func (m Mapping) MovementProps() map[int]bool {
	props := make(map[int]bool)
	if m.HasTails {
		for p := range m.PropToWord {
			props[p] = true
		}
		return props
	}
	for p := 1; p <= len(fallbackDirections); p++ {
		props[p] = true
	}
	return props
}
