package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	config "github.com/mwantia/goforms/internal/config/server"
	"github.com/spf13/afero"
)

var (
	ErrTooLarge    = errors.New("file exceeds the upload size limit")
	ErrInvalidName = errors.New("invalid file name")
)

// Storage is the upload area. Every stored file lives directly in its root
// under a generated name.
type Storage struct {
	fs      afero.Fs
	maxSize int64
	allowed map[string]struct{}
}

func NewStorage(fs afero.Fs, cfg config.UploadsServerConfig) *Storage {
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	return &Storage{
		fs:      fs,
		maxSize: cfg.MaxSize,
		allowed: allowed,
	}
}

// NewLocalStorage roots the upload area at cfg.Directory on the local disk.
func NewLocalStorage(cfg config.UploadsServerConfig) (*Storage, error) {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return NewStorage(afero.NewBasePathFs(afero.NewOsFs(), cfg.Directory), cfg), nil
}

func (s *Storage) MaxSize() int64 {
	return s.maxSize
}

// Accepts reports whether a file with the declared media type and size may
// be stored.
func (s *Storage) Accepts(contentType string, size int64) bool {
	if size < 0 || size > s.maxSize {
		return false
	}

	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	_, ok := s.allowed[mediaType]
	return ok
}

// GenerateName returns a collision resistant name that keeps the extension
// of original.
func GenerateName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) > 16 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return uuid.NewString() + ext
}

// Save writes r as a new file and returns its generated name. Content
// beyond the size limit aborts the write.
func (s *Storage) Save(original string, r io.Reader) (string, error) {
	name := GenerateName(original)

	f, err := s.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create '%s': %w", name, err)
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		err = fmt.Errorf("failed to write '%s': %w", name, err)
		if rmErr := s.fs.Remove(name); rmErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to remove partial '%s': %w", name, rmErr))
		}
		return "", err
	}

	return name, nil
}

func (s *Storage) Open(name string) (afero.File, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return s.fs.Open(name)
}

func (s *Storage) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return s.fs.Remove(name)
}

func (s *Storage) Exists(name string) bool {
	if validName(name) != nil {
		return false
	}
	ok, err := afero.Exists(s.fs, name)
	return err == nil && ok
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
