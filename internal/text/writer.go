// Package text renders a recovered map as a human-readable summary.
package text

import (
	"fmt"
	"io"

	"github.com/dyuri/zatlas/internal/model"
)

// Writer handles writing map data in plain text format
type Writer struct {
	w io.Writer
}

// NewWriter creates a new text format writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write outputs the map summary: file identification, then one block per
// room with its exits and grid position, then the takable objects.
func (w *Writer) Write(m *model.MapModel) error {
	if err := w.writeHeader(m); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	exitsFrom := make(map[int][]model.Exit)
	for _, e := range m.Exits {
		exitsFrom[e.From] = append(exitsFrom[e.From], e)
	}

	for _, r := range m.Rooms {
		if err := w.writeRoom(r, exitsFrom[r.ID], m.Layout[r.ID]); err != nil {
			return fmt.Errorf("write room %d: %w", r.ID, err)
		}
	}

	if err := w.writeTakables(m.Takables); err != nil {
		return fmt.Errorf("write takables: %w", err)
	}

	return nil
}

// writeHeader writes the file identification block
func (w *Writer) writeHeader(m *model.MapModel) error {
	_, err := fmt.Fprintf(w.w, "z-machine version %d, release %d", m.Version, m.Release)
	if err != nil {
		return err
	}

	if m.Serial != "" {
		fmt.Fprintf(w.w, ", serial %s", m.Serial)
	}
	fmt.Fprintf(w.w, "\n")

	fmt.Fprintf(w.w, "rooms: %d  exits: %d  takables: %d  strategy: %s\n",
		len(m.Rooms), len(m.Exits), len(m.Takables), m.Strategy)

	_, err = fmt.Fprintf(w.w, "\n")
	return err
}

// writeRoom writes one room block with its grid cell and exits
func (w *Writer) writeRoom(r model.Room, exits []model.Exit, node model.LayoutNode) error {
	name := r.Name
	if name == "" {
		name = "(unnamed)"
	}

	_, err := fmt.Fprintf(w.w, "[%d] %s\n", r.ID, name)
	if err != nil {
		return err
	}

	pos := fmt.Sprintf("(%d, %d)", node.X, node.Y)
	if node.Layer != 0 {
		pos = fmt.Sprintf("(%d, %d) layer %+d", node.X, node.Y, node.Layer)
	}
	if node.Status == model.PlacedInOverflow {
		pos += " [unreachable]"
	}
	fmt.Fprintf(w.w, "    at %s, confidence %.2f\n", pos, r.Confidence)

	for _, e := range exits {
		fmt.Fprintf(w.w, "    %-10s -> %d\n", e.Label, e.To)
	}

	_, err = fmt.Fprintf(w.w, "\n")
	return err
}

// writeTakables writes the takable object list (if not empty)
func (w *Writer) writeTakables(takables []model.Takable) error {
	if len(takables) == 0 {
		return nil
	}

	_, err := fmt.Fprintf(w.w, "takable objects:\n")
	if err != nil {
		return err
	}

	for _, t := range takables {
		name := t.Name
		if name == "" {
			name = "(unnamed)"
		}
		if t.Holder != 0 {
			fmt.Fprintf(w.w, "    [%d] %s  (held by %d)\n", t.ID, name, t.Holder)
		} else {
			fmt.Fprintf(w.w, "    [%d] %s\n", t.ID, name)
		}
	}

	_, err = fmt.Fprintf(w.w, "\n")
	return err
}
