package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/storage"
)

const mirrorFileSuffix = ".json"

var mirrorKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

// FileMirrorRepository keeps each mirror key in its own <key>.json file.
type FileMirrorRepository struct {
	storage *storage.LocalStorage
}

// NewFileMirrorRepository opens (and creates) the mirror directory.
func NewFileMirrorRepository(dir string) (*FileMirrorRepository, error) {
	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		return nil, err
	}
	return &FileMirrorRepository{storage: store}, nil
}

// Dir returns the directory holding the mirror files.
func (r *FileMirrorRepository) Dir() string {
	return r.storage.Dir()
}

// KeyForPath maps a file path inside Dir back to its mirror key.
func (r *FileMirrorRepository) KeyForPath(path string) (string, bool) {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(r.storage.Dir()) {
		return "", false
	}
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, mirrorFileSuffix) {
		return "", false
	}
	key := strings.TrimSuffix(name, mirrorFileSuffix)
	return key, mirrorKeyPattern.MatchString(key)
}

// Get returns the stored value or ErrMirrorMiss.
func (r *FileMirrorRepository) Get(_ context.Context, key string) ([]byte, error) {
	name, err := mirrorFileName(key)
	if err != nil {
		return nil, err
	}
	data, err := r.storage.Read(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, appErrors.ErrMirrorMiss
		}
		return nil, err
	}
	return data, nil
}

// Set replaces the stored value atomically.
func (r *FileMirrorRepository) Set(_ context.Context, key string, value []byte) error {
	name, err := mirrorFileName(key)
	if err != nil {
		return err
	}
	_, err = r.storage.Save(name, value)
	return err
}

// Delete removes key if present.
func (r *FileMirrorRepository) Delete(_ context.Context, key string) error {
	name, err := mirrorFileName(key)
	if err != nil {
		return err
	}
	return r.storage.Delete(name)
}

// Keys lists stored keys in sorted order.
func (r *FileMirrorRepository) Keys(_ context.Context) ([]string, error) {
	names, err := r.storage.List(mirrorFileSuffix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, strings.TrimSuffix(name, mirrorFileSuffix))
	}
	return keys, nil
}

// Clear removes every stored key.
func (r *FileMirrorRepository) Clear(ctx context.Context) error {
	keys, err := r.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := r.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func mirrorFileName(key string) (string, error) {
	if !mirrorKeyPattern.MatchString(key) {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid mirror key %q", key))
	}
	return key + mirrorFileSuffix, nil
}
