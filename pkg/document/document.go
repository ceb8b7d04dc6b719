// Package document serializes the project metadata document: a single
// version-gated JSON object holding folder, part, and composite records,
// and maps those records to and from the in-memory asset graph.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spritevault/spritevault/pkg/asset"
)

// Version is the single supported schema version. There is no migration
// logic; decoding any other version fails.
const Version = 1

// Document is the parsed form of the data record: a version tag plus
// three collections keyed by string-encoded UUID.
type Document struct {
	Version int                        `json:"version"`
	Folders map[string]FolderRecord    `json:"folders"`
	Parts   map[string]PartRecord      `json:"parts"`
	Comps   map[string]CompositeRecord `json:"comps"`
}

// FolderRecord is the schema shape of a folder.
type FolderRecord struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"` // folder UUID, empty for roots
}

// PartRecord is the schema shape of a part. The on-disk object flattens
// modes into the part object itself: "name", "parent", and "properties"
// are reserved keys, and every other object-valued key is a mode.
type PartRecord struct {
	Name       string
	Parent     string
	Properties string
	Modes      map[string]ModeRecord
}

// reservedPartKeys are the part record keys that are not mode names.
var reservedPartKeys = map[string]bool{
	"name":       true,
	"parent":     true,
	"properties": true,
}

// UnmarshalJSON parses the reserved keys first, then every remaining
// object-valued key as a mode. Non-object values under non-reserved keys
// are ignored; empty mode objects are skipped.
func (p *PartRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = PartRecord{Modes: make(map[string]ModeRecord)}
	for key, val := range raw {
		switch key {
		case "name":
			if err := json.Unmarshal(val, &p.Name); err != nil {
				return fmt.Errorf("name: %w", err)
			}
		case "parent":
			if err := json.Unmarshal(val, &p.Parent); err != nil {
				return fmt.Errorf("parent: %w", err)
			}
		case "properties":
			if err := json.Unmarshal(val, &p.Properties); err != nil {
				return fmt.Errorf("properties: %w", err)
			}
		default:
			if !isJSONObject(val) {
				continue
			}
			var keys map[string]json.RawMessage
			if err := json.Unmarshal(val, &keys); err != nil {
				return fmt.Errorf("mode %q: %w", key, err)
			}
			if len(keys) == 0 {
				continue
			}
			var mode ModeRecord
			if err := json.Unmarshal(val, &mode); err != nil {
				return fmt.Errorf("mode %q: %w", key, err)
			}
			p.Modes[key] = mode
		}
	}
	return nil
}

// MarshalJSON is the inverse flattening. A mode named after a reserved key
// would corrupt the record, so it is rejected.
func (p PartRecord) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(p.Modes)+3)
	obj["name"] = p.Name
	if p.Parent != "" {
		obj["parent"] = p.Parent
	}
	if p.Properties != "" {
		obj["properties"] = p.Properties
	}
	for name, mode := range p.Modes {
		if reservedPartKeys[name] {
			return nil, fmt.Errorf("mode name %q collides with a reserved part field", name)
		}
		obj[name] = mode
	}
	return json.Marshal(obj)
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// ModeRecord is the schema shape of one animation mode.
type ModeRecord struct {
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	NumFrames       int           `json:"numFrames"`
	NumPivots       int           `json:"numPivots"`
	FramesPerSecond int           `json:"framesPerSecond"`
	Frames          []FrameRecord `json:"frames"`
}

// FrameRecord is the schema shape of one frame: an anchor point, the name
// of the frame's image record, and per-slot pivot points stored under
// dynamic "p{i}x"/"p{i}y" keys.
type FrameRecord struct {
	AnchorX int
	AnchorY int
	Image   string
	Pivots  []asset.Point
}

// UnmarshalJSON reads ax/ay/image, then probes p0x/p0y, p1x/p1y, ...
// until a slot has neither key. A slot with only one of the pair is
// malformed.
func (f *FrameRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = FrameRecord{}
	if err := unmarshalIntField(raw, "ax", &f.AnchorX); err != nil {
		return err
	}
	if err := unmarshalIntField(raw, "ay", &f.AnchorY); err != nil {
		return err
	}
	if imgRaw, ok := raw["image"]; ok {
		if err := json.Unmarshal(imgRaw, &f.Image); err != nil {
			return fmt.Errorf("image: %w", err)
		}
	}

	for i := 0; ; i++ {
		xKey := fmt.Sprintf("p%dx", i)
		yKey := fmt.Sprintf("p%dy", i)
		_, okX := raw[xKey]
		_, okY := raw[yKey]
		if !okX && !okY {
			break
		}
		if !okX || !okY {
			return fmt.Errorf("pivot %d: incomplete x/y pair", i)
		}
		var pt asset.Point
		if err := unmarshalIntField(raw, xKey, &pt.X); err != nil {
			return err
		}
		if err := unmarshalIntField(raw, yKey, &pt.Y); err != nil {
			return err
		}
		f.Pivots = append(f.Pivots, pt)
	}
	return nil
}

// MarshalJSON writes ax/ay/image and one p{i}x/p{i}y pair per pivot.
func (f FrameRecord) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, 3+2*len(f.Pivots))
	obj["ax"] = f.AnchorX
	obj["ay"] = f.AnchorY
	obj["image"] = f.Image
	for i, pt := range f.Pivots {
		obj[fmt.Sprintf("p%dx", i)] = pt.X
		obj[fmt.Sprintf("p%dy", i)] = pt.Y
	}
	return json.Marshal(obj)
}

func unmarshalIntField(raw map[string]json.RawMessage, key string, dst *int) error {
	val, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// CompositeRecord is the schema shape of a composite. Children live in the
// "parts" array; their document order assigns each child its index.
type CompositeRecord struct {
	Root       int                    `json:"root"`
	Name       string                 `json:"name"`
	Properties string                 `json:"properties"`
	Parent     string                 `json:"parent,omitempty"`
	Parts      []CompositeChildRecord `json:"parts"`
}

// CompositeChildRecord is one node of a composite's tree.
type CompositeChildRecord struct {
	Name        string `json:"name"`
	Parent      int    `json:"parent"`
	ParentPivot int    `json:"parentPivot"`
	Z           int    `json:"z"`
	Part        string `json:"part"`
	Children    []int  `json:"children"`
}
