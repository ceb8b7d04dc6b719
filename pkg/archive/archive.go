// Package archive reads and writes the named-record container that bundles
// a project's metadata document and image records into one file. The
// on-disk framing is tar, optionally gzip-compressed; this layer knows
// nothing about JSON or images.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// FormatError reports a byte stream that is not a well-formed archive.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return "malformed archive: " + e.Err.Error()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Record is one named byte blob in an archive.
type Record struct {
	Name string
	Data []byte
}

// Archive is an ordered mapping from record name to raw bytes.
type Archive struct {
	order  []string
	byName map[string][]byte
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{byName: make(map[string][]byte)}
}

// Set adds a record, or replaces an existing record in place.
func (a *Archive) Set(name string, data []byte) {
	if _, exists := a.byName[name]; !exists {
		a.order = append(a.order, name)
	}
	a.byName[name] = data
}

// Get returns the record bytes for name.
func (a *Archive) Get(name string) ([]byte, bool) {
	data, ok := a.byName[name]
	return data, ok
}

// Has reports whether a record with the given name exists.
func (a *Archive) Has(name string) bool {
	_, ok := a.byName[name]
	return ok
}

// Len returns the number of records.
func (a *Archive) Len() int {
	return len(a.order)
}

// Records returns all records in insertion order.
func (a *Archive) Records() []Record {
	out := make([]Record, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, Record{Name: name, Data: a.byName[name]})
	}
	return out
}

// Read parses an archive from r, materializing every record in memory.
// Gzip-compressed streams are detected by magic and unwrapped
// transparently. Stream read failures surface as-is; structural problems
// surface as *FormatError.
func Read(r io.Reader) (*Archive, error) {
	br := bufio.NewReader(r)

	src, err := sniffCompression(br)
	if err != nil {
		return nil, err
	}

	tr := tar.NewReader(src)
	a := New()
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &FormatError{Err: err}
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, &FormatError{Err: fmt.Errorf("record %q: %w", hdr.Name, err)}
		}
		a.Set(hdr.Name, data)
	}
	return a, nil
}

// Write serializes the archive to w in record insertion order.
func (a *Archive) Write(w io.Writer) error {
	tw := tar.NewWriter(w)
	for _, rec := range a.Records() {
		hdr := &tar.Header{
			Name:     rec.Name,
			Mode:     0o644,
			Size:     int64(len(rec.Data)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write record header %q: %w", rec.Name, err)
		}
		if _, err := tw.Write(rec.Data); err != nil {
			return fmt.Errorf("write record %q: %w", rec.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

// WriteCompressed serializes the archive to w wrapped in a gzip stream.
// Read unwraps such streams without being told.
func (a *Archive) WriteCompressed(w io.Writer) error {
	gz := gzip.NewWriter(w)
	if err := a.Write(gz); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finish compressed archive: %w", err)
	}
	return nil
}

// sniffCompression peeks at the stream magic and returns a reader that
// yields the uncompressed tar stream.
func sniffCompression(br *bufio.Reader) (io.Reader, error) {
	magic, err := br.Peek(2)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Err: errors.New("stream too short")}
		}
		return nil, err
	}
	if bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, &FormatError{Err: err}
		}
		return gz, nil
	}
	return br, nil
}
