package document

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrEmptyDocument reports a data record that is empty after NUL trimming.
var ErrEmptyDocument = errors.New("document: empty data record")

// ParseError reports a JSON syntax error in the data record.
type ParseError struct {
	Msg    string
	Offset int64
}

func (e *ParseError) Error() string {
	return "document: parse error: " + e.Msg
}

// SchemaError reports a structurally invalid document: a missing or
// mistyped required field, a version mismatch, or a count mismatch such as
// a frame array shorter than numFrames.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string {
	return "document: " + e.Msg
}

// MissingImageError reports a frame referencing an image record that is
// absent from the archive.
type MissingImageError struct {
	Name string
}

func (e *MissingImageError) Error() string {
	return "document: missing image record " + e.Name
}

// Decode parses the data record into a Document, enforcing the version
// gate. Records are NUL-padded in the container, so the buffer is trimmed
// at the first NUL before parsing.
func Decode(data []byte) (*Document, error) {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return nil, &ParseError{Msg: syn.Error(), Offset: syn.Offset}
		}
		return nil, &SchemaError{Msg: "not an object"}
	}
	if raw == nil {
		return nil, &SchemaError{Msg: "not an object"}
	}

	verRaw, ok := raw["version"]
	if !ok {
		return nil, &SchemaError{Msg: "missing version"}
	}
	var version int
	if err := json.Unmarshal(verRaw, &version); err != nil || version != Version {
		return nil, &SchemaError{Msg: "unsupported version"}
	}

	doc := &Document{Version: version}
	if err := decodeCollection(raw, "folders", &doc.Folders); err != nil {
		return nil, err
	}
	if err := decodeCollection(raw, "parts", &doc.Parts); err != nil {
		return nil, err
	}
	if err := decodeCollection(raw, "comps", &doc.Comps); err != nil {
		return nil, err
	}
	return doc, nil
}

// decodeCollection parses one optional top-level collection. Absence is
// valid and leaves the map empty.
func decodeCollection[R any](raw map[string]json.RawMessage, key string, dst *map[string]R) error {
	*dst = make(map[string]R)
	val, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return &SchemaError{Msg: key + ": " + err.Error()}
	}
	if *dst == nil {
		*dst = make(map[string]R)
	}
	return nil
}

// Encode serializes a document, always writing the supported version.
func Encode(doc *Document) ([]byte, error) {
	out := *doc
	out.Version = Version
	if out.Folders == nil {
		out.Folders = map[string]FolderRecord{}
	}
	if out.Parts == nil {
		out.Parts = map[string]PartRecord{}
	}
	if out.Comps == nil {
		out.Comps = map[string]CompositeRecord{}
	}
	return json.Marshal(&out)
}
