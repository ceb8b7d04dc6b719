package document

import (
	"encoding/json"
	"errors"
	"image"
	"testing"

	"github.com/google/uuid"

	"github.com/spritevault/spritevault/pkg/asset"
)

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestFolderRoundTrip(t *testing.T) {
	ref := asset.NewRef(asset.KindFolder)
	parent := asset.NewRef(asset.KindFolder)
	orig := &asset.Folder{Ref: ref, Name: "characters", Parent: parent}

	got, err := DecodeFolder(ref, EncodeFolder(orig))
	if err != nil {
		t.Fatalf("DecodeFolder: %v", err)
	}
	if got.Name != orig.Name {
		t.Errorf("Name: got %q, want %q", got.Name, orig.Name)
	}
	if !got.Parent.Equal(orig.Parent) {
		t.Errorf("Parent: got %v, want %v", got.Parent, orig.Parent)
	}
}

func TestFolderEncodeOmitsNullParent(t *testing.T) {
	rec := EncodeFolder(&asset.Folder{Ref: asset.NewRef(asset.KindFolder), Name: "root"})
	if rec.Parent != "" {
		t.Errorf("Parent: got %q, want empty", rec.Parent)
	}
	got, err := DecodeFolder(asset.NewRef(asset.KindFolder), rec)
	if err != nil {
		t.Fatalf("DecodeFolder: %v", err)
	}
	if !got.Parent.IsNull() {
		t.Error("decoded parent should be null")
	}
}

func TestFolderDecodeBadParent(t *testing.T) {
	_, err := DecodeFolder(asset.NewRef(asset.KindFolder), FolderRecord{Name: "x", Parent: "not-a-uuid"})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Errorf("got %v, want *SchemaError", err)
	}
}

func TestPartDecode(t *testing.T) {
	recJSON := `{
		"name": "Hero",
		"properties": "{\"blend\":true}",
		"Idle": {
			"width": 32, "height": 32,
			"numFrames": 2, "numPivots": 1, "framesPerSecond": 8,
			"frames": [
				{"ax": 1, "ay": 2, "image": "hero_idle_000.png", "p0x": 5, "p0y": 6},
				{"ax": 3, "ay": 4, "image": "hero_idle_001.png", "p0x": 7, "p0y": 8}
			]
		}
	}`
	var rec PartRecord
	if err := json.Unmarshal([]byte(recJSON), &rec); err != nil {
		t.Fatalf("unmarshal part record: %v", err)
	}

	images := map[string]image.Image{
		"hero_idle_000.png": testImage(32, 32),
		"hero_idle_001.png": testImage(32, 32),
	}
	ref := asset.NewRef(asset.KindPart)
	part, err := DecodePart(ref, rec, images)
	if err != nil {
		t.Fatalf("DecodePart: %v", err)
	}

	if part.Name != "Hero" {
		t.Errorf("Name: got %q", part.Name)
	}
	if part.Properties != `{"blend":true}` {
		t.Errorf("Properties: got %q", part.Properties)
	}
	mode, ok := part.Modes["Idle"]
	if !ok {
		t.Fatal("mode Idle missing")
	}
	if mode.NumFrames != 2 || len(mode.Frames) != 2 || len(mode.Anchor) != 2 {
		t.Fatalf("frame counts: numFrames=%d frames=%d anchors=%d", mode.NumFrames, len(mode.Frames), len(mode.Anchor))
	}
	if mode.Anchor[1] != (asset.Point{X: 3, Y: 4}) {
		t.Errorf("Anchor[1]: got %+v", mode.Anchor[1])
	}
	if mode.Frames[0] != images["hero_idle_000.png"] {
		t.Error("frame 0 should share the cached image handle")
	}
	if mode.Pivots[0][1] != (asset.Point{X: 7, Y: 8}) {
		t.Errorf("Pivots[0][1]: got %+v", mode.Pivots[0][1])
	}
}

func TestPartDecodePivotPadding(t *testing.T) {
	recJSON := `{
		"name": "Hero",
		"Idle": {
			"width": 8, "height": 8, "numFrames": 1, "numPivots": 1, "framesPerSecond": 8,
			"frames": [{"ax": 0, "ay": 0, "image": "f.png", "p0x": 3, "p0y": 4}]
		}
	}`
	var rec PartRecord
	if err := json.Unmarshal([]byte(recJSON), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	part, err := DecodePart(asset.NewRef(asset.KindPart), rec, map[string]image.Image{"f.png": testImage(8, 8)})
	if err != nil {
		t.Fatalf("DecodePart: %v", err)
	}

	mode := part.Modes["Idle"]
	if mode.Pivots[0][0] != (asset.Point{X: 3, Y: 4}) {
		t.Errorf("populated pivot: got %+v", mode.Pivots[0][0])
	}
	// Slots beyond numPivots are present and zero-filled.
	for slot := 1; slot < asset.MaxPivots; slot++ {
		if len(mode.Pivots[slot]) != mode.NumFrames {
			t.Fatalf("pivot slot %d: len %d, want %d", slot, len(mode.Pivots[slot]), mode.NumFrames)
		}
		if mode.Pivots[slot][0] != (asset.Point{}) {
			t.Errorf("pivot slot %d: got %+v, want zero", slot, mode.Pivots[slot][0])
		}
	}
}

func TestPartDecodeFrameCountMismatch(t *testing.T) {
	recJSON := `{
		"name": "Hero",
		"Idle": {
			"width": 8, "height": 8, "numFrames": 2, "numPivots": 0, "framesPerSecond": 8,
			"frames": [{"ax": 0, "ay": 0, "image": "f.png"}]
		}
	}`
	var rec PartRecord
	if err := json.Unmarshal([]byte(recJSON), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	_, err := DecodePart(asset.NewRef(asset.KindPart), rec, map[string]image.Image{"f.png": testImage(8, 8)})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Errorf("got %v, want *SchemaError", err)
	}
}

func TestPartDecodeMissingImage(t *testing.T) {
	recJSON := `{
		"name": "Hero",
		"Idle": {
			"width": 8, "height": 8, "numFrames": 1, "numPivots": 0, "framesPerSecond": 8,
			"frames": [{"ax": 0, "ay": 0, "image": "gone.png"}]
		}
	}`
	var rec PartRecord
	if err := json.Unmarshal([]byte(recJSON), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	_, err := DecodePart(asset.NewRef(asset.KindPart), rec, map[string]image.Image{})
	var mie *MissingImageError
	if !errors.As(err, &mie) {
		t.Fatalf("got %v, want *MissingImageError", err)
	}
	if mie.Name != "gone.png" {
		t.Errorf("Name: got %q", mie.Name)
	}
}

func TestPartDecodeDimensionMismatch(t *testing.T) {
	recJSON := `{
		"name": "Hero",
		"Idle": {
			"width": 32, "height": 32, "numFrames": 1, "numPivots": 0, "framesPerSecond": 8,
			"frames": [{"ax": 0, "ay": 0, "image": "f.png"}]
		}
	}`
	var rec PartRecord
	if err := json.Unmarshal([]byte(recJSON), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	_, err := DecodePart(asset.NewRef(asset.KindPart), rec, map[string]image.Image{"f.png": testImage(16, 16)})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Errorf("got %v, want *SchemaError", err)
	}
}

func TestPartRecordSkipsEmptyAndNonObjectModes(t *testing.T) {
	recJSON := `{"name": "Hero", "stray": 3, "Empty": {}}`
	var rec PartRecord
	if err := json.Unmarshal([]byte(recJSON), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rec.Modes) != 0 {
		t.Errorf("Modes: got %d entries, want 0", len(rec.Modes))
	}
}

func TestPartRoundTrip(t *testing.T) {
	img0 := testImage(16, 16)
	img1 := testImage(16, 16)
	orig := &asset.Part{
		Ref:        asset.NewRef(asset.KindPart),
		Name:       "Old Hero",
		Parent:     asset.NewRef(asset.KindFolder),
		Properties: "props",
		Modes: map[string]*asset.Mode{
			"Walk Cycle": {
				Width: 16, Height: 16, NumFrames: 2, NumPivots: 2, FramesPerSecond: 12,
				Frames: []image.Image{img0, img1},
				Anchor: []asset.Point{{X: 1, Y: 1}, {X: 2, Y: 2}},
				Pivots: [asset.MaxPivots][]asset.Point{
					{{X: 3, Y: 3}, {X: 4, Y: 4}},
					{{X: 5, Y: 5}, {X: 6, Y: 6}},
					{{}, {}},
					{{}, {}},
				},
			},
		},
	}

	images := make(map[string]image.Image)
	rec := EncodePart(orig, images)

	wantName := FrameRecordName("Old Hero", "Walk Cycle", 0)
	if wantName != "Old_Hero_Walk_Cycle_000.png" {
		t.Fatalf("FrameRecordName: got %q", wantName)
	}
	if images[wantName] != img0 {
		t.Error("encode should register frame 0 under its record name")
	}

	got, err := DecodePart(orig.Ref, rec, images)
	if err != nil {
		t.Fatalf("DecodePart: %v", err)
	}
	if got.Name != orig.Name || got.Properties != orig.Properties {
		t.Errorf("identity fields: got %q/%q", got.Name, got.Properties)
	}
	if !got.Parent.Equal(orig.Parent) {
		t.Errorf("Parent: got %v, want %v", got.Parent, orig.Parent)
	}
	mode := got.Modes["Walk Cycle"]
	if mode == nil {
		t.Fatal("mode missing after round-trip")
	}
	origMode := orig.Modes["Walk Cycle"]
	if mode.Width != origMode.Width || mode.NumFrames != origMode.NumFrames ||
		mode.NumPivots != origMode.NumPivots || mode.FramesPerSecond != origMode.FramesPerSecond {
		t.Errorf("mode scalars mismatch: %+v", mode)
	}
	for f := 0; f < origMode.NumFrames; f++ {
		if mode.Anchor[f] != origMode.Anchor[f] {
			t.Errorf("anchor %d: got %+v, want %+v", f, mode.Anchor[f], origMode.Anchor[f])
		}
		for p := 0; p < asset.MaxPivots; p++ {
			if mode.Pivots[p][f] != origMode.Pivots[p][f] {
				t.Errorf("pivot %d frame %d: got %+v, want %+v", p, f, mode.Pivots[p][f], origMode.Pivots[p][f])
			}
		}
	}
}

func TestPartRecordRejectsReservedModeName(t *testing.T) {
	rec := PartRecord{
		Name:  "Hero",
		Modes: map[string]ModeRecord{"properties": {Width: 1, Height: 1}},
	}
	if _, err := json.Marshal(rec); err == nil {
		t.Fatal("expected marshal to reject mode named after a reserved key")
	}
}

func TestCompositeRoundTrip(t *testing.T) {
	partRef := asset.NewRef(asset.KindPart)
	orig := &asset.Composite{
		Ref:        asset.NewRef(asset.KindComposite),
		Name:       "hero_rig",
		Properties: "p",
		Parent:     asset.NewRef(asset.KindFolder),
		Root:       0,
	}
	children := []*asset.Child{
		{Name: "torso", Parent: -1, ParentPivot: -1, Z: 0, Part: partRef, Children: []int{1}, Index: 0},
		{Name: "head", Parent: 0, ParentPivot: 1, Z: 2, Part: partRef, Index: 1},
	}
	for _, c := range children {
		if err := orig.Children.Add(c); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := DecodeComposite(orig.Ref, EncodeComposite(orig))
	if err != nil {
		t.Fatalf("DecodeComposite: %v", err)
	}
	if got.Name != orig.Name || got.Root != orig.Root || got.Properties != orig.Properties {
		t.Errorf("scalar fields mismatch: %+v", got)
	}
	if !got.Parent.Equal(orig.Parent) {
		t.Errorf("Parent: got %v, want %v", got.Parent, orig.Parent)
	}
	if got.Children.Len() != 2 {
		t.Fatalf("Children.Len: got %d, want 2", got.Children.Len())
	}
	for i, want := range children {
		c := got.Children.At(i)
		if c.Name != want.Name || c.Parent != want.Parent || c.ParentPivot != want.ParentPivot ||
			c.Z != want.Z || c.Index != i {
			t.Errorf("child %d mismatch: %+v", i, c)
		}
		if !c.Part.Equal(want.Part) {
			t.Errorf("child %d part: got %v, want %v", i, c.Part, want.Part)
		}
	}
}

func TestCompositeNameNormalizationIdempotent(t *testing.T) {
	build := func(childName string) *asset.Composite {
		c := &asset.Composite{Ref: asset.NewRef(asset.KindComposite), Name: "hero rig", Root: asset.NoRoot}
		if err := c.Children.Add(&asset.Child{Name: childName, Parent: -1, Part: asset.NewRef(asset.KindPart)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
		return c
	}

	withSpaces := EncodeComposite(build("left arm"))
	withUnderscores := EncodeComposite(build("left_arm"))
	if withSpaces.Name != "hero_rig" {
		t.Errorf("composite name: got %q", withSpaces.Name)
	}
	if withSpaces.Parts[0].Name != withUnderscores.Parts[0].Name {
		t.Errorf("child names differ: %q vs %q", withSpaces.Parts[0].Name, withUnderscores.Parts[0].Name)
	}

	// Re-decoding does not reintroduce spaces.
	decoded, err := DecodeComposite(asset.NewRef(asset.KindComposite), withSpaces)
	if err != nil {
		t.Fatalf("DecodeComposite: %v", err)
	}
	reEncoded := EncodeComposite(decoded)
	if reEncoded.Name != withSpaces.Name || reEncoded.Parts[0].Name != withSpaces.Parts[0].Name {
		t.Error("normalization is not idempotent across a decode/encode cycle")
	}
}

func TestCompositeDecodeDuplicateChild(t *testing.T) {
	rec := CompositeRecord{
		Name: "rig",
		Parts: []CompositeChildRecord{
			{Name: "head", Part: uuid.New().String()},
			{Name: "head", Part: uuid.New().String()},
		},
	}
	_, err := DecodeComposite(asset.NewRef(asset.KindComposite), rec)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Errorf("got %v, want *SchemaError", err)
	}
}

func TestFrameRecordName(t *testing.T) {
	got := FrameRecordName("old hero", "walk cycle", 7)
	if got != "old_hero_walk_cycle_007.png" {
		t.Errorf("got %q", got)
	}
	if FrameRecordName("a", "b", 123) != "a_b_123.png" {
		t.Error("frame index should not be truncated")
	}
}
