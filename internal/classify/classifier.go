// Package classify scores story objects as rooms, takable items, or other.
//
// The scores are heuristics over compiled data with no ground truth, so
// the result is a confidence-carrying partition rather than a boolean
// verdict, and classification never fails: implausible candidates simply
// score low.
package classify

import (
	"unicode"

	"github.com/dyuri/zatlas/internal/model"
)

// Weights tunes the room score. Each component adds its weight when the
// corresponding signal is present; a total strictly above Threshold makes
// the object a room (ties stay non-room).
type Weights struct {
	Parent   float64 // parent is 0 or the designated root container
	Movement float64 // owns a property in the detected movement range
	Early    float64 // declared in the early portion of the object table
	Name     float64 // short name decodes to mostly printable text

	Threshold     float64
	EarlyFraction float64 // portion of the table counted as "early"
}

// DefaultWeights favors the movement-property signal; a container parent
// plus movement properties clears the threshold, an early well-named
// object without either does not.
var DefaultWeights = Weights{
	Parent:        1.0,
	Movement:      1.5,
	Early:         0.5,
	Name:          1.0,
	Threshold:     2.0,
	EarlyFraction: 0.5,
}

// TakableAttr is the default attribute bit marking an object takable.
// No position is format-mandated; bit 26 follows the common convention in
// v1-3 games, and later format families with the widened 48-bit attribute
// space conventionally push shared flags into the extended range. Both
// are config-overridable, this is only the starting guess.
func TakableAttr(version int) int {
	if version <= 3 {
		return 26
	}
	return 42
}

// Options carries the tunables for one classification run.
type Options struct {
	Weights     Weights
	TakableAttr int // attribute bit for takable detection
}

// Classify partitions every object into room / takable / other with a
// confidence score. moveProps is the movement property range of the
// detected exit strategy. The input GameFile is never mutated.
func Classify(gf *model.GameFile, moveProps map[int]bool, opts Options) []model.Classification {
	w := opts.Weights
	root := rootContainer(gf, moveProps)
	maxScore := w.Parent + w.Movement + w.Early + w.Name

	earlyCut := int(float64(len(gf.Objects)) * w.EarlyFraction)
	if earlyCut < 1 {
		earlyCut = 1
	}

	out := make([]model.Classification, 0, len(gf.Objects))
	for i := range gf.Objects {
		obj := &gf.Objects[i]

		score := 0.0
		if obj.Parent == 0 || obj.Parent == root {
			score += w.Parent
		}
		if ownsMovementProp(obj, moveProps) {
			score += w.Movement
		}
		if obj.ID <= earlyCut {
			score += w.Early
		}
		if PlausibleName(obj.Name) {
			score += w.Name
		}

		c := model.Classification{ObjectID: obj.ID, Class: model.ClassOther}
		if maxScore > 0 {
			c.Confidence = score / maxScore
		}
		switch {
		case score > w.Threshold:
			c.Class = model.ClassRoom
		case obj.Attr(opts.TakableAttr):
			// Independent of the room score: the attribute bit decides.
			c.Class = model.ClassTakable
		}
		out = append(out, c)
	}
	return out
}

// rootContainer finds the most common parent among objects holding
// movement-range properties. Compiled games conventionally gather rooms
// under one container object; ties break toward the lower id.
func rootContainer(gf *model.GameFile, moveProps map[int]bool) int {
	counts := make(map[int]int)
	for i := range gf.Objects {
		obj := &gf.Objects[i]
		if obj.Parent != 0 && ownsMovementProp(obj, moveProps) {
			counts[obj.Parent]++
		}
	}
	best, bestCount := 0, 0
	for i := range gf.Objects {
		id := gf.Objects[i].ID
		if n := counts[id]; n > bestCount {
			best, bestCount = id, n
		}
	}
	return best
}

func ownsMovementProp(obj *model.ObjectEntry, moveProps map[int]bool) bool {
	for _, p := range obj.PropOrder {
		if moveProps[p] {
			return true
		}
	}
	return false
}

// PlausibleName reports whether a decoded short name looks like readable
// text: non-empty with at least 70% of its runes printable word-ish
// characters. Garbled names indicate the decoder walked non-text data.
func PlausibleName(name string) bool {
	total, good := 0, 0
	for _, r := range name {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) ||
			r == ' ' || r == '-' || r == '.' || r == ',' ||
			r == '!' || r == '?' || r == '\'' || r == '"' {
			good++
		}
	}
	if total == 0 {
		return false
	}
	return float64(good)/float64(total) >= 0.7
}
