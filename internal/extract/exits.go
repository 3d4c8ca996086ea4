package extract

import "github.com/dyuri/zatlas/internal/model"

// fallbackDirections is the conventional assignment of properties 1-12
// used by the reference compiler's toolchain when words carry no mapping.
var fallbackDirections = []string{
	"north", "south", "east", "west",
	"northeast", "northwest", "southeast", "southwest",
	"up", "down", "in", "out",
}

const (
	confidenceDictionary = 0.9
	confidenceFallback   = 0.6
)

// Result is the full inferred exit set for one story file.
type Result struct {
	Exits    []model.Exit
	Strategy model.Strategy
}

// Extract infers all exits for the room-eligible objects in rooms.
// Strategy A runs whenever the dictionary carries extra bytes; strategy B
// engages only when it does not. If both ever produce an exit for the same
// (room, property) pair, the dictionary-derived one wins.
func Extract(gf *model.GameFile, m Mapping, rooms map[int]bool) Result {
	res := Result{Strategy: model.StrategyDictionary}
	if m.HasTails {
		res.Exits = extractDictionary(gf, m, rooms)
	} else {
		res.Strategy = model.StrategyFallback
		res.Exits = extractFallback(gf, rooms)
	}
	return res
}

// extractDictionary is strategy A: every mapped word is tested against
// every room's properties, directional-looking or not.
func extractDictionary(gf *model.GameFile, m Mapping, rooms map[int]bool) []model.Exit {
	var exits []model.Exit
	count := len(gf.Objects)
	for i := range gf.Objects {
		obj := &gf.Objects[i]
		if !rooms[obj.ID] {
			continue
		}
		for _, prop := range obj.PropOrder {
			word, mapped := m.PropToWord[prop]
			if !mapped {
				continue
			}
			target := firstValidTarget(obj.Properties[prop].Data, count, obj.ID)
			if target == 0 {
				continue
			}
			exits = append(exits, model.Exit{
				From:       obj.ID,
				Label:      word,
				To:         target,
				Property:   prop,
				Strategy:   model.StrategyDictionary,
				Confidence: confidenceDictionary,
			})
		}
	}
	return exits
}

// extractFallback is strategy B: the fixed 1-12 property range with
// canonical direction names.
func extractFallback(gf *model.GameFile, rooms map[int]bool) []model.Exit {
	var exits []model.Exit
	count := len(gf.Objects)
	for i := range gf.Objects {
		obj := &gf.Objects[i]
		if !rooms[obj.ID] {
			continue
		}
		for prop := 1; prop <= len(fallbackDirections); prop++ {
			pe, ok := obj.Properties[prop]
			if !ok {
				continue
			}
			target := firstValidTarget(pe.Data, count, obj.ID)
			if target == 0 {
				continue
			}
			exits = append(exits, model.Exit{
				From:       obj.ID,
				Label:      fallbackDirections[prop-1],
				To:         target,
				Property:   prop,
				Strategy:   model.StrategyFallback,
				Confidence: confidenceFallback,
			})
		}
	}
	return exits
}

// firstValidTarget picks the first plausible object id out of property
// data. Single-byte properties hold the id directly; two-byte properties
// are tried as a word first; longer blobs are scanned bytewise. Values
// outside [1, count] and self references are not exits, never errors --
// properties legitimately hold non-object data.
func firstValidTarget(data []byte, count, self int) int {
	valid := func(v int) bool { return v >= 1 && v <= count && v != self }

	switch len(data) {
	case 0:
		return 0
	case 1:
		if valid(int(data[0])) {
			return int(data[0])
		}
		return 0
	case 2:
		if w := int(data[0])<<8 | int(data[1]); valid(w) {
			return w
		}
	}
	for _, b := range data {
		if valid(int(b)) {
			return int(b)
		}
	}
	return 0
}
