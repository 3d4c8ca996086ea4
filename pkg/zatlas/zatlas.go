// Package zatlas recovers navigable room maps from compiled Z-machine
// story files without executing them.
//
// This package can be used as a library to parse story files and build
// map models programmatically.
//
// Example usage:
//
//	data, _ := os.ReadFile("game.z3")
//
//	gf, err := zatlas.ParseStory(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m := zatlas.BuildMap(gf, zatlas.Options{})
//
//	out, _ := os.Create("map.txt")
//	defer out.Close()
//	zatlas.WriteText(out, m)
package zatlas

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/zatlas/internal/binary"
	"github.com/dyuri/zatlas/internal/blorb"
	"github.com/dyuri/zatlas/internal/classify"
	"github.com/dyuri/zatlas/internal/config"
	"github.com/dyuri/zatlas/internal/extract"
	"github.com/dyuri/zatlas/internal/layout"
	"github.com/dyuri/zatlas/internal/model"
	"github.com/dyuri/zatlas/internal/text"
)

// ParseStory parses an in-memory story file into the internal model.
// Blorb containers are unwrapped transparently; anything else is parsed
// as a bare story file. Input that is neither a container nor starts
// with a plausible version byte yields ErrInvalidFormat.
//
// Example:
//
//	data, _ := os.ReadFile("game.zblorb")
//	gf, err := ParseStory(data)
func ParseStory(data []byte) (*model.GameFile, error) {
	if blorb.IsBlorb(data) {
		story, err := blorb.StoryData(data)
		if err != nil {
			return nil, &Error{Code: "invalid_blorb", Message: "unwrapping blorb container", Cause: err}
		}
		data = story
	} else if len(data) == 0 || data[0] < 1 || data[0] > 8 {
		return nil, ErrInvalidFormat
	}
	gf, err := binary.NewReader(data).Parse()
	if err != nil {
		return nil, &Error{Code: "parse_failed", Message: "parsing story file", Cause: err}
	}
	return gf, nil
}

// Options carries the tunables for one map build.
type Options struct {
	// Config overrides the heuristic tuning; nil uses the defaults.
	Config *config.Config

	// Logger receives diagnostics (strategy fallback, low-confidence
	// results); nil uses the logrus standard logger.
	Logger logrus.FieldLogger
}

// BuildMap runs the full inference pipeline over a parsed story file:
// dictionary analysis, room/takable classification, exit extraction and
// grid layout. It never fails; a hostile or atypical file yields an empty
// or low-confidence map, with diagnostics on the logger.
func BuildMap(gf *model.GameFile, opts Options) *model.MapModel {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	mapping := extract.AnalyzeDictionary(gf, cfg.Extract.ExcludedWords)
	moveProps := mapping.MovementProps()

	takableAttr := classify.TakableAttr(gf.Header.Version)
	if gf.Header.Version <= 3 && cfg.Classifier.TakableAttrV3 >= 0 {
		takableAttr = cfg.Classifier.TakableAttrV3
	} else if gf.Header.Version > 3 && cfg.Classifier.TakableAttrV4 >= 0 {
		takableAttr = cfg.Classifier.TakableAttrV4
	}

	classes := classify.Classify(gf, moveProps, classify.Options{
		Weights: classify.Weights{
			Parent:        cfg.Classifier.ParentWeight,
			Movement:      cfg.Classifier.MovementWeight,
			Early:         cfg.Classifier.EarlyWeight,
			Name:          cfg.Classifier.NameWeight,
			Threshold:     cfg.Classifier.Threshold,
			EarlyFraction: cfg.Classifier.EarlyFraction,
		},
		TakableAttr: takableAttr,
	})

	m := &model.MapModel{
		Version: gf.Header.Version,
		Release: gf.Header.Release,
		Serial:  gf.Header.Serial,
		Rooms:   []model.Room{},
		Exits:   []model.Exit{},
	}

	roomSet := make(map[int]bool)
	for _, c := range classes {
		obj := &gf.Objects[c.ObjectID-1]
		switch c.Class {
		case model.ClassRoom:
			roomSet[c.ObjectID] = true
			m.Rooms = append(m.Rooms, model.Room{
				ID:         c.ObjectID,
				Name:       obj.Name,
				Confidence: c.Confidence,
			})
		case model.ClassTakable:
			m.Takables = append(m.Takables, model.Takable{
				ID:     c.ObjectID,
				Name:   obj.Name,
				Holder: obj.Parent,
			})
		}
	}

	res := extract.Extract(gf, mapping, roomSet)
	m.Exits = res.Exits
	m.Strategy = res.Strategy

	if res.Strategy == model.StrategyFallback {
		log.Info("dictionary carries no word data; falling back to the fixed direction property convention")
	}
	if len(m.Rooms) > 0 && len(m.Exits) == 0 {
		log.WithField("rooms", len(m.Rooms)).Warn("no exits inferred; map will be disconnected")
	}

	m.Layout = layout.Layout(m.Rooms, m.Exits, layout.Options{
		OverflowColumns: cfg.Layout.OverflowColumns,
		MaxRing:         layout.DefaultOptions.MaxRing,
	})

	for _, e := range gf.Dictionary {
		m.Vocabulary = append(m.Vocabulary, e.Word)
	}

	return m
}

// WriteText writes a map model as a human-readable summary.
func WriteText(w io.Writer, m *model.MapModel) error {
	writer := text.NewWriter(w)
	return writer.Write(m)
}

// Common errors
var (
	ErrInvalidFormat = &Error{Code: "invalid_format", Message: "invalid file format"}
)

// Error represents a zatlas error
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}
