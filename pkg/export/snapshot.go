// Package export renders static snapshots of the displayed register
// subtree, for handover briefings and printed wall copies.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"

	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
)

// SnapshotOptions controls subtree snapshot export behaviour.
type SnapshotOptions struct {
	SVGPath string // when set, an SVG is written here
	PNGPath string // when set, a PNG is written here
	Title   string // optional title rendered in the summary block
	Preset  string // layout preset: "compact" (default) or "roomy"
	Tree    *hierarchy.Tree
	Stats   hierarchy.TreeStats
}

// SaveSnapshot renders the tree to the requested formats. Both formats
// render in parallel when both paths are set. The visual language is
// deliberately plain so a printed copy survives a bad photocopier.
func SaveSnapshot(opts SnapshotOptions) error {
	if opts.Tree == nil || opts.Tree.Root() == nil {
		return fmt.Errorf("no subtree to export")
	}
	if opts.SVGPath == "" && opts.PNGPath == "" {
		return fmt.Errorf("output path is required")
	}

	layout := buildLayout(opts)

	var g errgroup.Group
	if opts.SVGPath != "" {
		g.Go(func() error { return renderSVG(opts.SVGPath, layout) })
	}
	if opts.PNGPath != "" {
		g.Go(func() error { return renderPNG(opts.PNGPath, layout) })
	}
	return g.Wait()
}

// --- layout computation ----------------------------------------------------

type layoutNode struct {
	ID       string
	Label    string
	Category string
	Depth    int
	X, Y     float64
	NodeW    float64
	NodeH    float64
}

type layoutEdge struct {
	From string
	To   string
}

type layoutResult struct {
	Nodes   []layoutNode
	Edges   []layoutEdge
	Width   int
	Height  int
	Header  float64
	Summary summaryInfo
}

type summaryInfo struct {
	Title      string
	Base       string
	Items      int
	Containers int
	MaxDepth   int
}

func buildLayout(opts SnapshotOptions) layoutResult {
	const (
		nodeWCompact  = 190.0
		nodeHCompact  = 52.0
		nodeWRoomy    = 220.0
		nodeHRoomy    = 64.0
		colGapCompact = 60.0
		rowGapCompact = 18.0
		colGapRoomy   = 90.0
		rowGapRoomy   = 28.0
		padding       = 36.0
		headerHeight  = 104.0
	)

	roomy := strings.EqualFold(opts.Preset, "roomy")
	nodeW := nodeWCompact
	nodeH := nodeHCompact
	colGap := colGapCompact
	rowGap := rowGapCompact
	if roomy {
		nodeW = nodeWRoomy
		nodeH = nodeHRoomy
		colGap = colGapRoomy
		rowGap = rowGapRoomy
	}

	// Depth-first walk: each node takes a row, depth picks the column.
	// Parent-child edges stay short because children follow their
	// parent immediately.
	var (
		nodes    []layoutNode
		edges    []layoutEdge
		maxDepth int
		walk     func(n *hierarchy.Node, row *int)
	)
	walk = func(n *hierarchy.Node, row *int) {
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
		nodes = append(nodes, layoutNode{
			ID:       n.ID,
			Label:    truncate(n.Label, 40),
			Category: n.Category,
			Depth:    n.Depth,
			X:        padding + float64(n.Depth)*(nodeW+colGap),
			Y:        padding + headerHeight + float64(*row)*(nodeH+rowGap),
			NodeW:    nodeW,
			NodeH:    nodeH,
		})
		*row++
		for _, c := range n.Children {
			edges = append(edges, layoutEdge{From: n.ID, To: c.ID})
			walk(c, row)
		}
	}
	row := 0
	walk(opts.Tree.Root(), &row)

	width := int(padding*2 + float64(maxDepth+1)*(nodeW+colGap))
	if width < 640 {
		width = 640
	}
	height := int(padding*2 + headerHeight + float64(row)*(nodeH+rowGap))
	if height < 400 {
		height = 400
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Register Snapshot"
	}

	return layoutResult{
		Nodes:  nodes,
		Edges:  edges,
		Width:  width,
		Height: height,
		Header: headerHeight,
		Summary: summaryInfo{
			Title:      title,
			Base:       opts.Tree.Root().Label,
			Items:      opts.Stats.Items,
			Containers: opts.Stats.Containers,
			MaxDepth:   opts.Stats.MaxDepth,
		},
	}
}

// --- rendering -------------------------------------------------------------

var (
	colorEvacuation = color.RGBA{0xd1, 0xc4, 0xe9, 0xff}
	colorStation    = color.RGBA{0xbb, 0xde, 0xfb, 0xff}
	colorContainer  = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorPerson     = color.RGBA{0xff, 0xf3, 0xe0, 0xff}
	colorVehicle    = color.RGBA{0xff, 0xcd, 0xd2, 0xff}
	colorSupply     = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorOther      = color.RGBA{0xee, 0xee, 0xee, 0xff}
	colorStroke     = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge       = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText       = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle     = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop   = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG   = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG   = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func categoryColor(cat string) color.RGBA {
	switch cat {
	case "evacuation":
		return colorEvacuation
	case "station":
		return colorStation
	case "container":
		return colorContainer
	case "person":
		return colorPerson
	case "vehicle":
		return colorVehicle
	case "supply":
		return colorSupply
	default:
		return colorOther
	}
}

func renderPNG(path string, layout layoutResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	// header
	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)

	drawSummaryBlock(dc, layout)
	drawLegend(dc, layout)

	nodePos := make(map[string]layoutNode, len(layout.Nodes))
	for _, n := range layout.Nodes {
		nodePos[n.ID] = n
	}
	dc.SetColor(colorEdge)
	dc.SetLineWidth(2)
	for _, e := range layout.Edges {
		from := nodePos[e.From]
		to := nodePos[e.To]
		x1 := from.X + from.NodeW
		y1 := from.Y + from.NodeH/2
		x2 := to.X
		y2 := to.Y + to.NodeH/2
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
		drawArrow(dc, x2, y2, -8, 0)
	}

	for _, n := range layout.Nodes {
		drawNode(dc, n)
	}

	return dc.SavePNG(path)
}

func renderSVG(path string, layout layoutResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderSVGToWriter(file, layout)
}

func renderSVGToWriter(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, int(layout.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummaryBlockSVG(canvas, layout)
	drawLegendSVG(canvas, layout)

	nodePos := make(map[string]layoutNode, len(layout.Nodes))
	for _, n := range layout.Nodes {
		nodePos[n.ID] = n
	}

	for _, e := range layout.Edges {
		from := nodePos[e.From]
		to := nodePos[e.To]
		x1 := int(from.X + from.NodeW)
		y1 := int(from.Y + from.NodeH/2)
		x2 := int(to.X)
		y2 := int(to.Y + to.NodeH/2)
		canvas.Line(x1, y1, x2, y2, fmt.Sprintf("stroke:%s;stroke-width:2", css(colorEdge)))
		// simple arrow head
		canvas.Polygon(
			[]int{x2, x2 + 8, x2 + 8},
			[]int{y2, y2 + 4, y2 - 4},
			fmt.Sprintf("fill:%s", css(colorEdge)),
		)
	}

	for _, n := range layout.Nodes {
		x := int(n.X)
		y := int(n.Y)
		canvas.Roundrect(x, y, int(n.NodeW), int(n.NodeH), 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(categoryColor(n.Category)), css(colorStroke)))
		canvas.Text(x+10, y+20, n.Label, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
		canvas.Text(x+10, y+38, n.Category, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

func drawNode(dc *gg.Context, n layoutNode) {
	dc.SetColor(categoryColor(n.Category))
	dc.DrawRoundedRectangle(n.X, n.Y, n.NodeW, n.NodeH, 8)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1.2)
	dc.DrawRoundedRectangle(n.X, n.Y, n.NodeW, n.NodeH, 8)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(n.Label, n.X+10, n.Y+16, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(n.Category, n.X+10, n.Y+34, 0, 0.5)
}

func drawArrow(dc *gg.Context, x, y, dx, dy float64) {
	dc.SetColor(colorEdge)
	dc.NewSubPath()
	dc.MoveTo(x, y)
	dc.LineTo(x+dx, y+dy+4)
	dc.LineTo(x+dx, y+dy-4)
	dc.ClosePath()
	dc.Fill()
}

func drawSummaryBlock(dc *gg.Context, layout layoutResult) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Summary.Title, 32, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("base: %s", layout.Summary.Base), 32, 60, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("items: %d  containers: %d  depth: %d",
		layout.Summary.Items, layout.Summary.Containers, layout.Summary.MaxDepth), 32, 80, 0, 0.5)
}

func drawLegend(dc *gg.Context, layout layoutResult) {
	boxW := 170.0
	boxH := 112.0
	x := float64(layout.Width) - boxW - 20
	y := 24.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Legend", x+12, y+16, 0, 0.5)
	drawLegendRow(dc, x+12, y+34, colorStation, "Station")
	drawLegendRow(dc, x+12, y+50, colorContainer, "Container")
	drawLegendRow(dc, x+12, y+66, colorPerson, "Person")
	drawLegendRow(dc, x+12, y+82, colorVehicle, "Vehicle")
	drawLegendRow(dc, x+12, y+98, colorSupply, "Supply")
}

func drawLegendRow(dc *gg.Context, x, y float64, c color.RGBA, label string) {
	dc.SetColor(c)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Stroke()
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(label, x+20, y, 0, 0.5)
}

func drawSummaryBlockSVG(canvas *svg.SVG, layout layoutResult) {
	canvas.Text(32, 44, layout.Summary.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 64, fmt.Sprintf("base: %s", layout.Summary.Base), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 84, fmt.Sprintf("items: %d  containers: %d  depth: %d",
		layout.Summary.Items, layout.Summary.Containers, layout.Summary.MaxDepth),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
}

func drawLegendSVG(canvas *svg.SVG, layout layoutResult) {
	boxW := 170
	boxH := 112
	x := layout.Width - boxW - 20
	y := 24
	canvas.Roundrect(x, y, boxW, boxH, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(x+12, y+18, "Legend", fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	drawLegendRowSVG(canvas, x+12, y+36, colorStation, "Station")
	drawLegendRowSVG(canvas, x+12, y+52, colorContainer, "Container")
	drawLegendRowSVG(canvas, x+12, y+68, colorPerson, "Person")
	drawLegendRowSVG(canvas, x+12, y+84, colorVehicle, "Vehicle")
	drawLegendRowSVG(canvas, x+12, y+100, colorSupply, "Supply")
}

func drawLegendRowSVG(canvas *svg.SVG, x, y int, c color.RGBA, label string) {
	canvas.Roundrect(x, y-8, 14, 14, 3, 3, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(c), css(colorStroke)))
	canvas.Text(x+20, y, label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
