// Package attach stages local files for the next outgoing message and runs
// the upload batch against the backend.
package attach

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sagealpha/sagecli/internal/api"
)

// MaxFileSize is the per-file upload cap.
const MaxFileSize = 50 * 1024 * 1024

// Uploader sends one staged file to the backend.
type Uploader interface {
	Upload(ctx context.Context, path string) (*api.Upload, error)
}

// File is one staged attachment. Uploaded, URL, DocID and Filename are
// populated only after a successful upload round-trip.
type File struct {
	ID       string
	Path     string
	Name     string
	Size     int64
	MIMEType string
	Preview  string
	Uploaded bool
	URL      string
	DocID    string
	Filename string
}

// Staging holds files selected for the next message.
type Staging struct {
	mu       sync.Mutex
	files    []*File
	uploader Uploader
}

// mimeByExtension is the upload allow-list: images, pdf/doc, excel, audio
// and plain text/csv. Anything else is rejected at staging time.
var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/m4a",
	".txt":  "text/plain",
	".csv":  "text/csv",
}

// NewStaging creates an empty staging area backed by the given uploader.
func NewStaging(uploader Uploader) *Staging {
	return &Staging{uploader: uploader}
}

// Add validates and stages one file. Violations are rejected individually
// and never affect files already staged.
func (s *Staging) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: is a directory", filepath.Base(path))
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%s: file size exceeds 50MB limit", filepath.Base(path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := mimeByExtension[ext]
	if !ok {
		return fmt.Errorf("%s: file type not supported", filepath.Base(path))
	}

	f := &File{
		ID:       uuid.NewString(),
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: mimeType,
	}

	s.mu.Lock()
	s.files = append(s.files, f)
	s.mu.Unlock()

	if strings.HasPrefix(mimeType, "image/") {
		go s.loadPreview(f.ID, path, mimeType)
	}
	return nil
}

// AddAll stages every valid file in the batch and returns one error per
// rejected file. A bad file never fails the rest of the batch.
func (s *Staging) AddAll(paths []string) []error {
	var errs []error
	for _, p := range paths {
		if err := s.Add(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// loadPreview fills in a data-URL thumbnail source for image files.
func (s *Staging) loadPreview(id, path, mimeType string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	preview := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if f.ID == id {
			f.Preview = preview
			return
		}
	}
}

// Files returns a snapshot of the staged list.
func (s *Staging) Files() []File {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]File, len(s.files))
	for i, f := range s.files {
		out[i] = *f
	}
	return out
}

// Count returns the number of staged files.
func (s *Staging) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// RemoveAt drops the staged file at a one-based position.
func (s *Staging) RemoveAt(pos int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos < 1 || pos > len(s.files) {
		return false
	}
	i := pos - 1
	s.files = append(s.files[:i], s.files[i+1:]...)
	return true
}

// Clear empties the staging area.
func (s *Staging) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
}

// UploadAll uploads every staged file concurrently. The batch is
// all-or-nothing: any single failure fails the whole batch with one error
// and no attachments are returned. On success the staged entries are marked
// uploaded and the attachment descriptors for the outgoing message are
// returned in staging order.
func (s *Staging) UploadAll(ctx context.Context) ([]api.Attachment, error) {
	s.mu.Lock()
	files := make([]*File, len(s.files))
	copy(files, s.files)
	s.mu.Unlock()

	if len(files) == 0 {
		return nil, nil
	}

	results := make([]*api.Upload, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			up, err := s.uploader.Upload(ctx, f.Path)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			results[i] = up
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	attachments := make([]api.Attachment, len(files))
	s.mu.Lock()
	for i, f := range files {
		f.Uploaded = true
		f.URL = results[i].URL
		f.DocID = results[i].DocID
		f.Filename = results[i].Filename
		attachments[i] = api.Attachment{
			Filename: results[i].Filename,
			URL:      results[i].URL,
			MIMEType: f.MIMEType,
		}
	}
	s.mu.Unlock()

	return attachments, nil
}
