package render

import "fmt"

// Theme holds colors for DOT rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	EntryBorder string // first vertex of the trace
	ForeignFill string // foreign call markers
	ForeignText string
	LoopFill    string // blocks inside a strongly connected region

	Edge     string
	BackEdge string // edge to a lower or equal address
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EntryBorder: "#0B3D91", // NASA blue
	ForeignFill: "#ECEFF1",
	ForeignText: "#757575",
	LoopFill:    "#FFF3E0",

	Edge:     "#424242",
	BackEdge: "#FC3D21", // NASA red
}

// Night is a dark variant for viewers with a black background.
var Night = Theme{
	Background: "#1E1E1E",
	NodeFill:   "#252526",
	NodeBorder: "#858585",
	TextColor:  "#D4D4D4",

	EntryBorder: "#4FC1FF",
	ForeignFill: "#2D2D30",
	ForeignText: "#EBC2ED",
	LoopFill:    "#3A2F1E",

	Edge:     "#9E9E9E",
	BackEdge: "#FF5F87",
}

// ThemeByName resolves "nasa" or "night".
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "", "nasa":
		return NASA, nil
	case "night":
		return Night, nil
	}
	return Theme{}, fmt.Errorf("unknown theme %q", name)
}
