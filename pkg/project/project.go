// Package project owns the loaded asset graph: three identity-keyed
// collections of folders, parts, and composites, and the load/save
// orchestration that moves the graph through the archive container.
package project

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/spritevault/spritevault/pkg/archive"
	"github.com/spritevault/spritevault/pkg/asset"
	"github.com/spritevault/spritevault/pkg/document"
)

const (
	// DataRecord is the archive record holding the metadata document.
	DataRecord = "data.json"
	// PrefsRecord is the optional archive record holding user preferences.
	PrefsRecord = "prefs.json"
)

// MissingRecordError reports an archive lacking a required record.
type MissingRecordError struct {
	Name string
}

func (e *MissingRecordError) Error() string {
	return fmt.Sprintf("missing archive record %q", e.Name)
}

// PrefsStore is the external preferences collaborator. Preferences found
// in a loaded archive are merged into it; on save its contents are
// snapshotted into the prefs record.
type PrefsStore interface {
	Set(key string, value any)
	All() map[string]any
}

// Project is the asset registry. It exclusively owns every asset instance
// it holds; accessors hand out non-owning references. It is not
// internally synchronized: a single logical caller at a time.
type Project struct {
	folders    map[asset.Ref]*asset.Folder
	parts      map[asset.Ref]*asset.Part
	composites map[asset.Ref]*asset.Composite

	fileName string
	prefs    PrefsStore
	logger   *slog.Logger
}

// New returns an empty registry.
func New() *Project {
	return &Project{
		folders:    make(map[asset.Ref]*asset.Folder),
		parts:      make(map[asset.Ref]*asset.Part),
		composites: make(map[asset.Ref]*asset.Composite),
		logger:     slog.Default(),
	}
}

// SetPrefs attaches the preferences store. Without one, prefs records are
// ignored on load and omitted on save.
func (p *Project) SetPrefs(store PrefsStore) {
	p.prefs = store
}

// SetLogger replaces the logger used for lenient-path warnings.
func (p *Project) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

// FileName returns the path of the currently open project file, empty if
// none.
func (p *Project) FileName() string {
	return p.fileName
}

// Clear drops all three collections and the remembered file path.
func (p *Project) Clear() {
	p.folders = make(map[asset.Ref]*asset.Folder)
	p.parts = make(map[asset.Ref]*asset.Part)
	p.composites = make(map[asset.Ref]*asset.Composite)
	p.fileName = ""
}

// Load reads a project file and replaces the registry contents wholesale.
// Load is all-or-nothing: any failure leaves the prior registry state
// untouched. Preferences are merged best-effort and never fail the load.
func (p *Project) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	defer f.Close()

	ar, err := archive.Read(f)
	if err != nil {
		return fmt.Errorf("read project: %w", err)
	}

	data, ok := ar.Get(DataRecord)
	if !ok {
		return &MissingRecordError{Name: DataRecord}
	}

	doc, err := document.Decode(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", DataRecord, err)
	}

	p.mergePrefs(ar)

	images, err := decodeImages(ar)
	if err != nil {
		return err
	}

	folders := make(map[asset.Ref]*asset.Folder, len(doc.Folders))
	for key, rec := range doc.Folders {
		ref, err := collectionRef(key, asset.KindFolder)
		if err != nil {
			return err
		}
		folder, err := document.DecodeFolder(ref, rec)
		if err != nil {
			return err
		}
		folders[ref] = folder
	}

	parts := make(map[asset.Ref]*asset.Part, len(doc.Parts))
	for key, rec := range doc.Parts {
		ref, err := collectionRef(key, asset.KindPart)
		if err != nil {
			return err
		}
		part, err := document.DecodePart(ref, rec, images)
		if err != nil {
			return err
		}
		parts[ref] = part
	}

	composites := make(map[asset.Ref]*asset.Composite, len(doc.Comps))
	for key, rec := range doc.Comps {
		ref, err := collectionRef(key, asset.KindComposite)
		if err != nil {
			return err
		}
		comp, err := document.DecodeComposite(ref, rec)
		if err != nil {
			return err
		}
		composites[ref] = comp
	}

	p.folders = folders
	p.parts = parts
	p.composites = composites
	p.fileName = path
	return nil
}

// Save writes the registry contents to path. The archive is assembled and
// written to a temporary file first and renamed into place on success, so
// a failed save never touches the previously persisted file.
func (p *Project) Save(path string) error {
	doc := document.Document{
		Folders: make(map[string]document.FolderRecord, len(p.folders)),
		Parts:   make(map[string]document.PartRecord, len(p.parts)),
		Comps:   make(map[string]document.CompositeRecord, len(p.composites)),
	}
	images := make(map[string]image.Image)

	for ref, folder := range p.folders {
		doc.Folders[ref.ID.String()] = document.EncodeFolder(folder)
	}
	for ref, part := range p.parts {
		doc.Parts[ref.ID.String()] = document.EncodePart(part, images)
	}
	for ref, comp := range p.composites {
		doc.Comps[ref.ID.String()] = document.EncodeComposite(comp)
	}

	data, err := document.Encode(&doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", DataRecord, err)
	}

	ar := archive.New()
	ar.Set(DataRecord, data)

	if p.prefs != nil {
		prefsData, err := prefsRecord(p.prefs)
		if err != nil {
			return fmt.Errorf("encode %s: %w", PrefsRecord, err)
		}
		ar.Set(PrefsRecord, prefsData)
	}

	if err := encodeImages(ar, images); err != nil {
		return err
	}

	if err := writeFileAtomic(path, ar); err != nil {
		return err
	}
	p.fileName = path
	return nil
}

// writeFileAtomic writes the archive via temp file + rename.
func writeFileAtomic(path string, ar *archive.Archive) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".project-tmp-*")
	if err != nil {
		return fmt.Errorf("save project: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if err := ar.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save project: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save project: rename: %w", err)
	}
	return nil
}

// Asset returns the asset for ref, nil if absent.
func (p *Project) Asset(ref asset.Ref) asset.Asset {
	switch ref.Kind {
	case asset.KindPart:
		if v, ok := p.parts[ref]; ok {
			return v
		}
	case asset.KindComposite:
		if v, ok := p.composites[ref]; ok {
			return v
		}
	case asset.KindFolder:
		if v, ok := p.folders[ref]; ok {
			return v
		}
	}
	return nil
}

// Part returns the part for ref, nil if absent.
func (p *Project) Part(ref asset.Ref) *asset.Part {
	return p.parts[ref]
}

// Composite returns the composite for ref, nil if absent.
func (p *Project) Composite(ref asset.Ref) *asset.Composite {
	return p.composites[ref]
}

// Folder returns the folder for ref, nil if absent.
func (p *Project) Folder(ref asset.Ref) *asset.Folder {
	return p.folders[ref]
}

// HasAsset reports whether ref resolves to any asset.
func (p *Project) HasAsset(ref asset.Ref) bool {
	return p.Asset(ref) != nil
}

// HasPart reports whether ref resolves to a part.
func (p *Project) HasPart(ref asset.Ref) bool {
	return p.parts[ref] != nil
}

// HasComposite reports whether ref resolves to a composite.
func (p *Project) HasComposite(ref asset.Ref) bool {
	return p.composites[ref] != nil
}

// HasFolder reports whether ref resolves to a folder.
func (p *Project) HasFolder(ref asset.Ref) bool {
	return p.folders[ref] != nil
}

// FindPartByName returns the first part with the given name, in undefined
// iteration order, nil if none.
func (p *Project) FindPartByName(name string) *asset.Part {
	for _, part := range p.parts {
		if part.Name == name {
			return part
		}
	}
	return nil
}

// FindCompositeByName returns the first composite with the given name.
func (p *Project) FindCompositeByName(name string) *asset.Composite {
	for _, comp := range p.composites {
		if comp.Name == name {
			return comp
		}
	}
	return nil
}

// FindFolderByName returns the first folder with the given name.
func (p *Project) FindFolderByName(name string) *asset.Folder {
	for _, folder := range p.folders {
		if folder.Name == name {
			return folder
		}
	}
	return nil
}

// AddFolder inserts a folder under its own ref.
func (p *Project) AddFolder(f *asset.Folder) {
	p.folders[f.Ref] = f
}

// AddPart inserts a part under its own ref.
func (p *Project) AddPart(part *asset.Part) {
	p.parts[part.Ref] = part
}

// AddComposite inserts a composite under its own ref.
func (p *Project) AddComposite(c *asset.Composite) {
	p.composites[c.Ref] = c
}

// collectionRef builds the registry key for one collection entry.
func collectionRef(key string, kind asset.Kind) (asset.Ref, error) {
	id, err := uuid.Parse(key)
	if err != nil {
		return asset.Ref{}, fmt.Errorf("%s id %q: %w", kind, key, err)
	}
	return asset.Ref{ID: id, Kind: kind}, nil
}
