package render

// Theme holds colors for slice graph rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Edge colors by share of all instructions in the report.
	EdgeHot   string // >= HotShare
	EdgeWarm  string // >= WarmShare
	EdgeCold  string
	EdgeFlush string // slices closed at shutdown (callee "<none>")

	// Node accents.
	NoneFill     string // the "<none>" pseudo-function
	ExternalText string

	// Cluster styling (one cluster per source file).
	ClusterBorder string
	ClusterLabel  string
}

// Share thresholds in percent of all instructions.
const (
	HotShare  = 25.0
	WarmShare = 5.0
)

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeHot:   "#FC3D21", // NASA red
	EdgeWarm:  "#E65100", // deep orange
	EdgeCold:  "#424242", // dark gray
	EdgeFlush: "#9E9E9E", // gray

	NoneFill:     "#ECEFF1", // blue-gray 50
	ExternalText: "#9E9E9E",

	ClusterBorder: "#BDBDBD",
	ClusterLabel:  "#757575",
}

func (t Theme) edgeColor(share float64) string {
	switch {
	case share >= HotShare:
		return t.EdgeHot
	case share >= WarmShare:
		return t.EdgeWarm
	default:
		return t.EdgeCold
	}
}
