package attach

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagealpha/sagecli/internal/api"
)

type fakeUploader struct {
	failFor string
	calls   int
}

func (f *fakeUploader) Upload(_ context.Context, path string) (*api.Upload, error) {
	f.calls++
	name := filepath.Base(path)
	if name == f.failFor {
		return nil, fmt.Errorf("boom")
	}
	return &api.Upload{
		URL:      "https://files.example/" + name,
		DocID:    "doc-" + name,
		Filename: name,
	}, nil
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestAddRejectsOversizedFileIndividually(t *testing.T) {
	dir := t.TempDir()
	big := writeFile(t, dir, "big.pdf", 64)
	small := writeFile(t, dir, "small.pdf", 16)

	// Sparse file keeps the over-limit fixture cheap.
	f, err := os.Create(big)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.Truncate(MaxFileSize + 1); err != nil {
		f.Close()
		t.Skipf("cannot create sparse file: %v", err)
	}
	f.Close()

	s := NewStaging(&fakeUploader{})
	errs := s.AddAll([]string{big, small})
	if len(errs) != 1 {
		t.Fatalf("expected 1 rejection, got %v", errs)
	}
	if !strings.Contains(errs[0].Error(), "50MB") {
		t.Fatalf("unexpected rejection reason: %v", errs[0])
	}
	if s.Count() != 1 {
		t.Fatalf("expected 1 staged file, got %d", s.Count())
	}
}

func TestAddRejectsUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "malware.exe", 8)

	s := NewStaging(&fakeUploader{})
	if err := s.Add(path); err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("expected type rejection, got %v", err)
	}
	if s.Count() != 0 {
		t.Fatalf("unsupported file was staged")
	}
}

func TestUploadAllReturnsAttachmentsInOrder(t *testing.T) {
	dir := t.TempDir()
	s := NewStaging(&fakeUploader{})
	for _, name := range []string{"a.pdf", "b.csv", "c.txt"} {
		if err := s.Add(writeFile(t, dir, name, 4)); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	atts, err := s.UploadAll(context.Background())
	if err != nil {
		t.Fatalf("UploadAll: %v", err)
	}
	if len(atts) != 3 {
		t.Fatalf("expected 3 attachments, got %d", len(atts))
	}
	if atts[0].Filename != "a.pdf" || atts[2].Filename != "c.txt" {
		t.Fatalf("attachments out of order: %+v", atts)
	}
	for _, f := range s.Files() {
		if !f.Uploaded {
			t.Fatalf("staged file not marked uploaded: %+v", f)
		}
	}
}

func TestUploadAllFailsWholeBatch(t *testing.T) {
	dir := t.TempDir()
	s := NewStaging(&fakeUploader{failFor: "b.csv"})
	for _, name := range []string{"a.pdf", "b.csv"} {
		if err := s.Add(writeFile(t, dir, name, 4)); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	atts, err := s.UploadAll(context.Background())
	if err == nil {
		t.Fatal("expected batch failure")
	}
	if atts != nil {
		t.Fatalf("expected no attachments on failure, got %+v", atts)
	}
}

func TestRemoveAt(t *testing.T) {
	dir := t.TempDir()
	s := NewStaging(&fakeUploader{})
	s.Add(writeFile(t, dir, "a.pdf", 4))
	s.Add(writeFile(t, dir, "b.pdf", 4))

	if !s.RemoveAt(1) {
		t.Fatal("RemoveAt(1) failed")
	}
	files := s.Files()
	if len(files) != 1 || files[0].Name != "b.pdf" {
		t.Fatalf("unexpected staging state: %+v", files)
	}
	if s.RemoveAt(5) {
		t.Fatal("RemoveAt out of range should fail")
	}
}
