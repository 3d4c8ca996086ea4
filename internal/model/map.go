package model

// Class is the heuristic classification of an object.
type Class int

const (
	ClassOther Class = iota
	ClassRoom
	ClassTakable
)

// String returns the JSON/display name of the class.
func (c Class) String() string {
	switch c {
	case ClassRoom:
		return "room"
	case ClassTakable:
		return "takable"
	default:
		return "other"
	}
}

// MarshalText makes Class encode as its display name in JSON output.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Classification is the scored result for a single object. The confidence
// is kept alongside the label so borderline cases stay inspectable.
type Classification struct {
	ObjectID   int     `json:"object"`
	Class      Class   `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Room is an object classified as a room.
type Room struct {
	ID         int     `json:"id"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Strategy identifies how an exit was inferred.
type Strategy int

const (
	// StrategyDictionary means the direction label is the verbatim
	// dictionary word whose extra byte named the property.
	StrategyDictionary Strategy = iota
	// StrategyFallback means the label is the canonical direction name
	// from the fixed property 1-12 mapping.
	StrategyFallback
)

func (s Strategy) String() string {
	if s == StrategyDictionary {
		return "dictionary"
	}
	return "fallback"
}

// MarshalText makes Strategy encode as its display name in JSON output.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Exit is one inferred directional connection between objects.
type Exit struct {
	From       int      `json:"from"`
	Label      string   `json:"label"`
	To         int      `json:"to"`
	Property   int      `json:"property"`
	Strategy   Strategy `json:"strategy"`
	Confidence float64  `json:"confidence"`
}

// PlacementStatus records how a room received its grid cell.
type PlacementStatus int

const (
	PlacedByTraversal PlacementStatus = iota
	PlacedInOverflow
)

func (p PlacementStatus) String() string {
	if p == PlacedInOverflow {
		return "overflow"
	}
	return "traversal"
}

// MarshalText makes PlacementStatus encode as its display name.
func (p PlacementStatus) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// LayoutNode is the grid position assigned to one room. Layer counts
// vertical (up/down) moves away from the start room's layer.
type LayoutNode struct {
	RoomID int             `json:"room"`
	X      int             `json:"x"`
	Y      int             `json:"y"`
	Layer  int             `json:"layer"`
	Status PlacementStatus `json:"status"`
}

// Takable is an object carrying the takable attribute that is not a room.
type Takable struct {
	ID     int    `json:"id"`
	Name   string `json:"name,omitempty"`
	Holder int    `json:"holder"` // parent object at compile time, 0 = nowhere
}

// MapModel is the finished room/exit/layout aggregate handed to the
// external renderer. Rooms and Exits are in deterministic order (table
// order, then property order).
type MapModel struct {
	Version    int                `json:"version"`
	Release    int                `json:"release"`
	Serial     string             `json:"serial"`
	Rooms      []Room             `json:"rooms"`
	Exits      []Exit             `json:"exits"`
	Layout     map[int]LayoutNode `json:"layout"`
	Takables   []Takable          `json:"takables"`
	Vocabulary []string           `json:"vocabulary"`

	// Strategy records which exit-inference strategy produced the graph.
	Strategy Strategy `json:"strategy"`
}
