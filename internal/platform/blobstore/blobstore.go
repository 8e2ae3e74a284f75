// Package blobstore keeps uploaded files: scans submitted for analysis and
// lab report attachments served back to the patient portal.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
	ErrInvalidCategory    = errors.New("category is not allowed")
)

// MaxFileSize is the largest accepted upload (20 MB).
const MaxFileSize = 20 * 1024 * 1024

var AllowedCategories = map[string]bool{
	"disease-scan":     true,
	"fetal-ultrasound": true,
	"lab-report":       true,
}

// AllowedContentTypes is checked against the sniffed type, not the client's
// header.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"image/bmp":       true,
	"application/pdf": true,
}

// BlobMetadata describes a stored blob. Name is the key used to fetch it.
type BlobMetadata struct {
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	PatientID    string    `json:"patient_id,omitempty"`
	Category     string    `json:"category"`
	Hash         string    `json:"hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// BlobStore is implemented by the filesystem store and the in-memory store.
type BlobStore interface {
	Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, []byte, error)
	Open(ctx context.Context, name string) (io.ReadCloser, *BlobMetadata, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces a client-supplied file name to a safe base name.
// It returns "" when nothing usable remains.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if len(name) > 128 {
		name = name[len(name)-128:]
	}
	return name
}

// prepare validates an upload and fills the derived metadata. It returns the
// content so callers can reuse it without another read.
func prepare(meta BlobMetadata, content io.Reader) (BlobMetadata, []byte, error) {
	clean := SanitizeName(meta.OriginalName)
	if clean == "" {
		return meta, nil, ErrMissingFileName
	}
	if !AllowedCategories[meta.Category] {
		return meta, nil, ErrInvalidCategory
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return meta, nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return meta, nil, ErrFileTooLarge
	}

	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if !AllowedContentTypes[ct] {
		return meta, nil, fmt.Errorf("%w: %s", ErrInvalidContentType, ct)
	}

	h := sha256.Sum256(data)
	meta.Name = meta.Category + "-" + uuid.NewString()[:8] + "-" + clean
	meta.ContentType = ct
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()
	return meta, data, nil
}

// FSBlobStore writes blobs as files in one directory.
type FSBlobStore struct {
	dir string
}

// NewFSBlobStore creates dir if needed.
func NewFSBlobStore(dir string) (*FSBlobStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &FSBlobStore{dir: dir}, nil
}

func (s *FSBlobStore) Dir() string { return s.dir }

func (s *FSBlobStore) Upload(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, []byte, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, nil, err
	}

	path := filepath.Join(s.dir, meta.Name)
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return nil, nil, fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, nil, fmt.Errorf("commit blob: %w", err)
	}
	return &meta, data, nil
}

// Open serves a file by base name. Any directory part of name is discarded.
func (s *FSBlobStore) Open(_ context.Context, name string) (io.ReadCloser, *BlobMetadata, error) {
	clean := SanitizeName(name)
	if clean == "" || clean != filepath.Base(name) || strings.HasSuffix(clean, ".part") {
		return nil, nil, ErrBlobNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, clean))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("open blob: %w", err)
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, nil, ErrBlobNotFound
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("rewind blob: %w", err)
	}

	return f, &BlobMetadata{
		Name:        clean,
		ContentType: http.DetectContentType(head[:n]),
		Size:        info.Size(),
		CreatedAt:   info.ModTime().UTC(),
	}, nil
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

// InMemoryBlobStore is a thread-safe BlobStore for tests and development.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{blobs: make(map[string]*storedBlob)}
}

func (s *InMemoryBlobStore) Upload(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, []byte, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.blobs[meta.Name] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, data, nil
}

// Put stores content under an exact name, bypassing validation. Used to
// seed fixtures.
func (s *InMemoryBlobStore) Put(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = &storedBlob{
		metadata: BlobMetadata{
			Name:        name,
			ContentType: http.DetectContentType(content),
			Size:        int64(len(content)),
			CreatedAt:   time.Now().UTC(),
		},
		content: content,
	}
}

func (s *InMemoryBlobStore) Open(_ context.Context, name string) (io.ReadCloser, *BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[SanitizeName(name)]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}
