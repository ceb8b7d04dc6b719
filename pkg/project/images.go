package project

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"maps"
	"slices"
	"strings"

	"github.com/spritevault/spritevault/pkg/archive"
	"github.com/spritevault/spritevault/pkg/document"
)

// decodeImages scans every record whose name carries the image extension
// and decodes it into a name->image map. Part frame resolution depends on
// every referenced name being present, so a record that fails to decode is
// a corrupt file, not a recoverable condition.
func decodeImages(ar *archive.Archive) (map[string]image.Image, error) {
	images := make(map[string]image.Image)
	for _, rec := range ar.Records() {
		if !strings.HasSuffix(rec.Name, document.ImageExt) {
			continue
		}
		img, err := png.Decode(bytes.NewReader(rec.Data))
		if err != nil {
			return nil, fmt.Errorf("decode image %s: %w", rec.Name, err)
		}
		images[rec.Name] = img
	}
	return images, nil
}

// encodeImages encodes every frame bitmap and adds it to the outgoing
// archive, in sorted name order for deterministic output.
func encodeImages(ar *archive.Archive, images map[string]image.Image) error {
	for _, name := range slices.Sorted(maps.Keys(images)) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, images[name]); err != nil {
			return fmt.Errorf("encode image %s: %w", name, err)
		}
		ar.Set(name, buf.Bytes())
	}
	return nil
}
