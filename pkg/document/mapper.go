package document

import (
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/spritevault/spritevault/pkg/asset"
)

// ImageExt is the record name suffix identifying image records.
const ImageExt = ".png"

// NormalizeName replaces spaces with underscores, the normalization
// applied to every name that ends up inside a record or record name.
func NormalizeName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// FrameRecordName synthesizes the canonical image record name for one
// frame of a part mode. Part and mode names are normalized and the frame
// index is zero-padded to three digits.
func FrameRecordName(partName, modeName string, frame int) string {
	return fmt.Sprintf("%s_%s_%03d%s", NormalizeName(partName), NormalizeName(modeName), frame, ImageExt)
}

// DecodeFolder builds a Folder from its record. The caller supplies the
// ref, since the id lives in the enclosing collection key.
func DecodeFolder(ref asset.Ref, rec FolderRecord) (*asset.Folder, error) {
	parent, err := parseRef(rec.Parent, asset.KindFolder)
	if err != nil {
		return nil, &SchemaError{Msg: fmt.Sprintf("folder %q: parent: %v", rec.Name, err)}
	}
	return &asset.Folder{Ref: ref, Name: rec.Name, Parent: parent}, nil
}

// EncodeFolder is the exact inverse of DecodeFolder, omitting the parent
// when null.
func EncodeFolder(f *asset.Folder) FolderRecord {
	rec := FolderRecord{Name: f.Name}
	if !f.Parent.IsNull() {
		rec.Parent = f.Parent.ID.String()
	}
	return rec
}

// DecodePart builds a Part from its record, resolving every frame's image
// name against the load-time image map. A frame array whose length differs
// from numFrames and an image whose dimensions differ from the mode's are
// schema violations; an unresolved image name is a *MissingImageError.
func DecodePart(ref asset.Ref, rec PartRecord, images map[string]image.Image) (*asset.Part, error) {
	parent, err := parseRef(rec.Parent, asset.KindFolder)
	if err != nil {
		return nil, &SchemaError{Msg: fmt.Sprintf("part %q: parent: %v", rec.Name, err)}
	}

	part := &asset.Part{
		Ref:        ref,
		Name:       rec.Name,
		Parent:     parent,
		Properties: rec.Properties,
		Modes:      make(map[string]*asset.Mode, len(rec.Modes)),
	}
	for name, modeRec := range rec.Modes {
		mode, err := decodeMode(rec.Name, name, modeRec, images)
		if err != nil {
			return nil, err
		}
		part.Modes[name] = mode
	}
	return part, nil
}

func decodeMode(partName, modeName string, rec ModeRecord, images map[string]image.Image) (*asset.Mode, error) {
	if rec.NumPivots < 0 || rec.NumPivots > asset.MaxPivots {
		return nil, &SchemaError{Msg: fmt.Sprintf("part %q mode %q: numPivots %d out of range", partName, modeName, rec.NumPivots)}
	}
	if len(rec.Frames) != rec.NumFrames {
		return nil, &SchemaError{Msg: fmt.Sprintf("part %q mode %q: %d frame entries, numFrames %d", partName, modeName, len(rec.Frames), rec.NumFrames)}
	}

	mode := &asset.Mode{
		Width:           rec.Width,
		Height:          rec.Height,
		NumFrames:       rec.NumFrames,
		NumPivots:       rec.NumPivots,
		FramesPerSecond: rec.FramesPerSecond,
		Frames:          make([]image.Image, 0, rec.NumFrames),
		Anchor:          make([]asset.Point, 0, rec.NumFrames),
	}
	for i := range mode.Pivots {
		mode.Pivots[i] = make([]asset.Point, 0, rec.NumFrames)
	}

	for idx, fr := range rec.Frames {
		img, ok := images[fr.Image]
		if !ok {
			return nil, &MissingImageError{Name: fr.Image}
		}
		if b := img.Bounds(); b.Dx() != rec.Width || b.Dy() != rec.Height {
			return nil, &SchemaError{Msg: fmt.Sprintf(
				"part %q mode %q frame %d: image %s is %dx%d, want %dx%d",
				partName, modeName, idx, fr.Image, b.Dx(), b.Dy(), rec.Width, rec.Height)}
		}
		mode.Frames = append(mode.Frames, img)
		mode.Anchor = append(mode.Anchor, asset.Point{X: fr.AnchorX, Y: fr.AnchorY})

		for p := 0; p < rec.NumPivots; p++ {
			var pt asset.Point
			if p < len(fr.Pivots) {
				pt = fr.Pivots[p]
			}
			mode.Pivots[p] = append(mode.Pivots[p], pt)
		}
		for p := rec.NumPivots; p < asset.MaxPivots; p++ {
			mode.Pivots[p] = append(mode.Pivots[p], asset.Point{})
		}
	}
	return mode, nil
}

// EncodePart is the structural inverse of DecodePart. Each frame's bitmap
// is registered under its synthesized record name in the supplied image
// map, which the caller turns into archive records.
func EncodePart(p *asset.Part, images map[string]image.Image) PartRecord {
	rec := PartRecord{
		Name:       p.Name,
		Properties: p.Properties,
		Modes:      make(map[string]ModeRecord, len(p.Modes)),
	}
	if !p.Parent.IsNull() {
		rec.Parent = p.Parent.ID.String()
	}

	for name, mode := range p.Modes {
		modeRec := ModeRecord{
			Width:           mode.Width,
			Height:          mode.Height,
			NumFrames:       mode.NumFrames,
			NumPivots:       mode.NumPivots,
			FramesPerSecond: mode.FramesPerSecond,
			Frames:          make([]FrameRecord, 0, mode.NumFrames),
		}
		for f := 0; f < mode.NumFrames; f++ {
			imageName := FrameRecordName(p.Name, name, f)
			images[imageName] = mode.Frames[f]

			fr := FrameRecord{
				AnchorX: mode.Anchor[f].X,
				AnchorY: mode.Anchor[f].Y,
				Image:   imageName,
			}
			for pv := 0; pv < mode.NumPivots; pv++ {
				fr.Pivots = append(fr.Pivots, mode.Pivots[pv][f])
			}
			modeRec.Frames = append(modeRec.Frames, fr)
		}
		rec.Modes[name] = modeRec
	}
	return rec
}

// DecodeComposite builds a Composite from its record, assigning each child
// its document-order index.
func DecodeComposite(ref asset.Ref, rec CompositeRecord) (*asset.Composite, error) {
	parent, err := parseRef(rec.Parent, asset.KindFolder)
	if err != nil {
		return nil, &SchemaError{Msg: fmt.Sprintf("composite %q: parent: %v", rec.Name, err)}
	}

	comp := &asset.Composite{
		Ref:        ref,
		Name:       rec.Name,
		Properties: rec.Properties,
		Parent:     parent,
		Root:       rec.Root,
	}
	for i, childRec := range rec.Parts {
		partRef, err := parseRef(childRec.Part, asset.KindPart)
		if err != nil {
			return nil, &SchemaError{Msg: fmt.Sprintf("composite %q child %q: part: %v", rec.Name, childRec.Name, err)}
		}
		child := &asset.Child{
			Name:        childRec.Name,
			Parent:      childRec.Parent,
			ParentPivot: childRec.ParentPivot,
			Z:           childRec.Z,
			Part:        partRef,
			Children:    slices.Clone(childRec.Children),
			Index:       i,
		}
		if err := comp.Children.Add(child); err != nil {
			return nil, &SchemaError{Msg: fmt.Sprintf("composite %q: %v", rec.Name, err)}
		}
	}
	return comp, nil
}

// EncodeComposite is the structural inverse of DecodeComposite. The
// composite's name and every child name are normalized on the way out.
func EncodeComposite(c *asset.Composite) CompositeRecord {
	rec := CompositeRecord{
		Root:       c.Root,
		Name:       NormalizeName(c.Name),
		Properties: c.Properties,
	}
	if !c.Parent.IsNull() {
		rec.Parent = c.Parent.ID.String()
	}
	for _, name := range c.Children.Names() {
		child, _ := c.Children.Get(name)
		childRec := CompositeChildRecord{
			Name:        NormalizeName(name),
			Parent:      child.Parent,
			ParentPivot: child.ParentPivot,
			Z:           child.Z,
			Part:        child.Part.ID.String(),
			Children:    slices.Clone(child.Children),
		}
		rec.Parts = append(rec.Parts, childRec)
	}
	return rec
}

// parseRef parses an optional UUID string into a ref of the given kind.
// The empty string is the null ref.
func parseRef(s string, kind asset.Kind) (asset.Ref, error) {
	if s == "" {
		return asset.Ref{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return asset.Ref{}, err
	}
	if id == uuid.Nil {
		return asset.Ref{}, nil
	}
	return asset.Ref{ID: id, Kind: kind}, nil
}
