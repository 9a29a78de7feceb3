// Package files stores uploaded invoices and payment proofs under a
// folder-per-category layout.
package files

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/textileco/pettycash/internal/shared"
)

// Upload categories.
const (
	CategoryInvoices      = "invoices"
	CategoryPaymentProofs = "payment-proofs"
)

const multipartMemory = 8 << 20

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
	".webp": true,
}

var categories = map[string]bool{
	CategoryInvoices:      true,
	CategoryPaymentProofs: true,
}

// Store persists uploads on an afero filesystem rooted at root.
type Store struct {
	fs       afero.Fs
	root     string
	maxBytes int64
}

// NewStore builds a Store. A nil fs uses the OS filesystem.
func NewStore(fs afero.Fs, root string, maxBytes int64) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Store{fs: fs, root: root, maxBytes: maxBytes}
}

// Save writes r under category with a generated name and returns the
// relative path, e.g. "invoices/<uuid>.pdf".
func (s *Store) Save(category, originalName string, r io.Reader) (string, error) {
	if !categories[category] {
		return "", fmt.Errorf("%w: unknown upload category %q", shared.ErrValidation, category)
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: only images (jpg, png, webp) and PDF allowed", shared.ErrValidation)
	}
	dir := filepath.Join(s.root, category)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	f, err := s.fs.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	rel := path.Join(category, name)
	if err == nil && n > s.maxBytes {
		err = fmt.Errorf("%w: file exceeds %d bytes", shared.ErrValidation, s.maxBytes)
	}
	if err != nil {
		_ = s.Remove(rel)
		return "", err
	}
	return rel, nil
}

// SaveForm stores the multipart file in field. It returns an empty path when
// the request carries no such file.
func (s *Store) SaveForm(w http.ResponseWriter, r *http.Request, field, category string) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", fmt.Errorf("%w: file exceeds %d bytes", shared.ErrValidation, s.maxBytes)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	defer file.Close()
	if header.Size > s.maxBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", shared.ErrValidation, s.maxBytes)
	}
	return s.Save(category, header.Filename, file)
}

// Remove deletes a stored file. Missing files are ignored.
func (s *Store) Remove(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Open returns a stored file for reading.
func (s *Store) Open(rel string) (afero.File, os.FileInfo, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, nil, err
	}
	info, err := s.fs.Stat(full)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, nil, fmt.Errorf("%w: file %s", shared.ErrNotFound, rel)
	}
	if err != nil {
		return nil, nil, err
	}
	f, err := s.fs.Open(full)
	if err != nil {
		return nil, nil, err
	}
	return f, info, nil
}

// resolve maps "<category>/<name>" onto the filesystem, refusing anything
// that escapes the category folder.
func (s *Store) resolve(rel string) (string, error) {
	folder, name, ok := strings.Cut(rel, "/")
	if !ok || !categories[folder] || name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid file path", shared.ErrForbidden)
	}
	return filepath.Join(s.root, folder, name), nil
}
