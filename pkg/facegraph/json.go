package facegraph

import "encoding/json"

// Overview is a human-readable projection of a graph for inspection
// tooling: structure and labels without the feature tensors.
type Overview struct {
	Source         string         `json:"source"`
	SchemaVersion  int            `json:"schema_version"`
	GridResolution int            `json:"grid_resolution"`
	EdgeSamples    int            `json:"edge_samples"`
	NodeCount      int            `json:"node_count"`
	EdgeCount      int            `json:"edge_count"`
	SurfaceTypes   map[string]int `json:"surface_types"`
	Nodes          []NodeOverview `json:"nodes"`
	Edges          []EdgeOverview `json:"edges"`
}

type NodeOverview struct {
	ID          int     `json:"id"`
	SurfaceType string  `json:"surface_type"`
	Visibility  float64 `json:"visibility"`
}

type EdgeOverview struct {
	A         int    `json:"a"`
	B         int    `json:"b"`
	Convexity string `json:"convexity"`
}

// Overview builds the projection. The graph is not mutated.
func (g *Graph) Overview() Overview {
	o := Overview{
		Source:         g.Source,
		SchemaVersion:  g.SchemaVersion,
		GridResolution: g.GridResolution,
		EdgeSamples:    g.EdgeSamples,
		NodeCount:      len(g.Nodes),
		EdgeCount:      len(g.Edges),
		SurfaceTypes:   make(map[string]int),
	}
	for _, n := range g.Nodes {
		o.SurfaceTypes[n.SurfaceType.String()]++
		o.Nodes = append(o.Nodes, NodeOverview{
			ID:          n.ID,
			SurfaceType: n.SurfaceType.String(),
			Visibility:  n.Visibility,
		})
	}
	for _, e := range g.Edges {
		o.Edges = append(o.Edges, EdgeOverview{
			A:         e.A,
			B:         e.B,
			Convexity: e.Convexity.String(),
		})
	}
	return o
}

// JSON renders the overview with stable indentation.
func (o Overview) JSON() ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}
