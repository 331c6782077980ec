package canopy

import (
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// rectCommand is a single draw instruction emitted during tree traversal.
type rectCommand struct {
	node          *Node
	x, y          float64
	width, height float64
	color         Color // alpha already multiplied by the inherited alpha
}

// worldState is the transform and alpha a node inherits from its ancestors.
type worldState struct {
	x, y           float64
	scaleX, scaleY float64
	alpha          float64
}

var rootState = worldState{scaleX: 1, scaleY: 1, alpha: 1}

// collect walks the tree depth-first and appends a command for every visible
// node with a positive size. Siblings are visited in ascending ZIndex order;
// equal ZIndex keeps child order.
func collect(n *Node, parent worldState, cmds []rectCommand) []rectCommand {
	if n == nil || !n.Visible {
		return cmds
	}
	ws := worldState{
		x:      parent.x + n.X*parent.scaleX,
		y:      parent.y + n.Y*parent.scaleY,
		scaleX: parent.scaleX * n.ScaleX,
		scaleY: parent.scaleY * n.ScaleY,
		alpha:  parent.alpha * n.Alpha,
	}
	if ws.alpha <= 0 {
		return cmds
	}
	if n.Width > 0 && n.Height > 0 {
		c := n.Color
		c.A *= ws.alpha
		cmds = append(cmds, rectCommand{
			node:   n,
			x:      ws.x,
			y:      ws.y,
			width:  n.Width * ws.scaleX,
			height: n.Height * ws.scaleY,
			color:  c,
		})
	}
	for _, child := range sortedChildren(n) {
		cmds = collect(child, ws, cmds)
	}
	return cmds
}

func sortedChildren(n *Node) []*Node {
	if len(n.children) < 2 {
		return n.children
	}
	sorted := true
	for i := 1; i < len(n.children); i++ {
		if n.children[i].ZIndex < n.children[i-1].ZIndex {
			sorted = false
			break
		}
	}
	if sorted {
		return n.children
	}
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// Draw renders the tree under root onto screen. Sized nodes draw as tinted
// rectangles; all nodes contribute their offset, scale and alpha to their
// descendants.
func Draw(screen *ebiten.Image, root *Node) {
	cmds := collect(root, rootState, nil)
	if len(cmds) == 0 {
		return
	}
	white := ensureWhitePixel()
	var op ebiten.DrawImageOptions
	for i := range cmds {
		c := &cmds[i]
		op.GeoM.Reset()
		op.GeoM.Scale(c.width, c.height)
		op.GeoM.Translate(c.x, c.y)
		op.ColorScale.Reset()
		op.ColorScale.Scale(float32(c.color.R*c.color.A), float32(c.color.G*c.color.A),
			float32(c.color.B*c.color.A), float32(c.color.A))
		screen.DrawImage(white, &op)
	}
}
