package asset

import "image"

// MaxPivots is the fixed number of pivot slots every mode carries. Slots at
// or beyond a mode's NumPivots are present but zero-filled so all pivot
// sequences share the same length.
const MaxPivots = 4

// NoRoot is the Composite.Root sentinel for a composite without a root child.
const NoRoot = -1

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// Asset is implemented by Folder, Part, and Composite.
type Asset interface {
	// ID returns the asset's registry reference.
	ID() Ref
}

// Folder groups assets into a forest. Parent is a folder ref, null for
// roots. The file format provides no guarantee against parent cycles and
// this layer does not detect them.
type Folder struct {
	Ref    Ref
	Name   string
	Parent Ref
}

func (f *Folder) ID() Ref { return f.Ref }

// Mode is one named animation variant of a part: a fixed-size sprite
// sheet's worth of frames, anchors, and pivots.
type Mode struct {
	Width           int
	Height          int
	NumFrames       int
	NumPivots       int
	FramesPerSecond int

	// Frames holds one decoded bitmap per frame, len == NumFrames. The
	// bitmaps are shared handles: the load-time image cache creates them
	// and modes reference them without copying pixel data.
	Frames []image.Image

	// Anchor holds one anchor point per frame, len == NumFrames.
	Anchor []Point

	// Pivots holds MaxPivots sequences of per-frame points, each
	// len == NumFrames. Slots >= NumPivots are zero-filled.
	Pivots [MaxPivots][]Point
}

// Part is a sprite sheet asset with one or more animation modes.
type Part struct {
	Ref        Ref
	Name       string
	Parent     Ref
	Properties string
	Modes      map[string]*Mode
}

func (p *Part) ID() Ref { return p.Ref }

// Child is one node in a composite's tree: a part instance attached to a
// parent child at a pivot, with explicit z-order.
type Child struct {
	Name        string
	Parent      int // index of the parent child, -1 for none
	ParentPivot int
	Z           int
	Part        Ref
	Children    []int // indices of child entries
	Index       int   // document order, assigned at decode
}

// Composite is a skeleton-like tree of part instances.
type Composite struct {
	Ref        Ref
	Name       string
	Properties string
	Parent     Ref
	Root       int // index into Children, or NoRoot
	Children   ChildList
}

func (c *Composite) ID() Ref { return c.Ref }
