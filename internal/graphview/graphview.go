// Package graphview builds the knowledge-graph view model: nodes with their
// mastery state and edges with an emphasis tier. Rendering is left to the
// caller.
package graphview

import (
	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/mastery"
)

// Emphasis is the display tier of an edge.
type Emphasis string

const (
	EmphasisStrong  Emphasis = "strong"
	EmphasisWarning Emphasis = "warning"
	EmphasisActive  Emphasis = "active"
	EmphasisDormant Emphasis = "dormant"
)

// Style is the stroke used for an emphasis tier.
type Style struct {
	Color string  `json:"color"`
	Width int     `json:"width"`
	Alpha float64 `json:"alpha"`
}

var styles = map[Emphasis]Style{
	EmphasisStrong:  {Color: "#10b981", Width: 3, Alpha: 1},
	EmphasisWarning: {Color: "#f59e0b", Width: 2, Alpha: 0.7},
	EmphasisActive:  {Color: "#60a5fa", Width: 2, Alpha: 0.7},
	EmphasisDormant: {Color: "#6b7280", Width: 2, Alpha: 0.7},
}

// Style returns the stroke for the tier.
func (e Emphasis) Style() Style {
	return styles[e]
}

// Node is a capsule on the graph canvas.
type Node struct {
	ID      string               `json:"id"`
	Label   string               `json:"label"`
	X       float64              `json:"x"`
	Y       float64              `json:"y"`
	State   mastery.MasteryState `json:"state"`
	Current bool                 `json:"current"`
}

// Edge is a dependency line between two nodes.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Emphasis Emphasis `json:"emphasis"`
	Style    Style    `json:"style"`
}

// View is the full graph view model.
type View struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// EdgeEmphasis maps the states of an edge's endpoints to an emphasis tier.
// Rules are checked in order: both mastered, either weak, either viewed.
func EdgeEmphasis(from, to mastery.MasteryState) Emphasis {
	switch {
	case from == mastery.StateMastered && to == mastery.StateMastered:
		return EmphasisStrong
	case from == mastery.StateWeak || to == mastery.StateWeak:
		return EmphasisWarning
	case from == mastery.StateViewed || to == mastery.StateViewed:
		return EmphasisActive
	default:
		return EmphasisDormant
	}
}

// Build assembles the view for the given states. Nodes and edges follow
// catalog order; capsules missing from states are shown as locked.
// current is the sequence index of the current capsule, or -1 for none.
func Build(cat *catalog.Catalog, states map[string]mastery.MasteryState, current int) View {
	stateOf := func(id string) mastery.MasteryState {
		if st, ok := states[id]; ok {
			return st
		}
		return mastery.StateLocked
	}

	v := View{
		Nodes: make([]Node, 0, cat.Len()),
		Edges: make([]Edge, 0, len(cat.Edges)),
	}
	for i := range cat.Capsules {
		c := &cat.Capsules[i]
		v.Nodes = append(v.Nodes, Node{
			ID:      c.ID,
			Label:   c.DisplayLabel(),
			X:       c.Position.X,
			Y:       c.Position.Y,
			State:   stateOf(c.ID),
			Current: i == current,
		})
	}
	for _, e := range cat.Edges {
		em := EdgeEmphasis(stateOf(e.From), stateOf(e.To))
		v.Edges = append(v.Edges, Edge{From: e.From, To: e.To, Emphasis: em, Style: em.Style()})
	}
	return v
}

// Node returns the node with the given ID.
func (v View) Node(id string) (Node, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
