package archive

import (
	"bytes"
	"errors"
	"testing"
)

func buildArchive(t *testing.T) *Archive {
	t.Helper()
	a := New()
	a.Set("data.json", []byte(`{"version":1}`))
	a.Set("prefs.json", []byte(`{}`))
	a.Set("hero_idle_000.png", []byte{0x89, 'P', 'N', 'G'})
	return a
}

func TestArchiveRoundTrip(t *testing.T) {
	orig := buildArchive(t)

	var buf bytes.Buffer
	if err := orig.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Len() != orig.Len() {
		t.Fatalf("Len: got %d, want %d", got.Len(), orig.Len())
	}
	origRecs := orig.Records()
	for i, rec := range got.Records() {
		if rec.Name != origRecs[i].Name {
			t.Errorf("record %d: got %q, want %q (order not preserved)", i, rec.Name, origRecs[i].Name)
		}
		if !bytes.Equal(rec.Data, origRecs[i].Data) {
			t.Errorf("record %q: data mismatch", rec.Name)
		}
	}
}

func TestArchiveCompressedRoundTrip(t *testing.T) {
	orig := buildArchive(t)

	var plain, packed bytes.Buffer
	if err := orig.Write(&plain); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := orig.WriteCompressed(&packed); err != nil {
		t.Fatalf("WriteCompressed: %v", err)
	}
	if packed.Len() >= plain.Len() {
		t.Errorf("compressed archive not smaller: %d >= %d", packed.Len(), plain.Len())
	}

	// Read auto-detects the gzip magic.
	got, err := Read(&packed)
	if err != nil {
		t.Fatalf("Read compressed: %v", err)
	}
	data, ok := got.Get("data.json")
	if !ok {
		t.Fatal("data.json missing after compressed round-trip")
	}
	if !bytes.Equal(data, []byte(`{"version":1}`)) {
		t.Errorf("data.json: got %q", data)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	junk := bytes.Repeat([]byte("not a tar stream "), 100)
	_, err := Read(bytes.NewReader(junk))
	if err == nil {
		t.Fatal("expected error for garbage input")
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Errorf("expected *FormatError, got %T: %v", err, err)
	}
}

func TestReadRejectsEmptyStream(t *testing.T) {
	_, err := Read(bytes.NewReader(nil))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Errorf("expected *FormatError for empty stream, got %v", err)
	}
}

func TestSetReplacesInPlace(t *testing.T) {
	a := New()
	a.Set("a", []byte("1"))
	a.Set("b", []byte("2"))
	a.Set("a", []byte("3"))

	if a.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", a.Len())
	}
	recs := a.Records()
	if recs[0].Name != "a" || !bytes.Equal(recs[0].Data, []byte("3")) {
		t.Error("Set should replace in place, keeping the original position")
	}
	if !a.Has("b") || a.Has("c") {
		t.Error("Has mismatch")
	}
}
