// Package media is the local-disk Media Store. Images are normalised to fit
// a maximum box and re-encoded as JPEG; everything else is kept verbatim.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"douro_cms/internal/adapters/observability"
	"douro_cms/internal/domain"
)

type Config struct {
	Dir       string
	BaseURL   string
	MaxWidth  int
	MaxHeight int
	// JPEGQuality defaults to 85.
	JPEGQuality int
}

type Store struct {
	dir     string
	base    string
	maxW    int
	maxH    int
	quality int
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("media dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 1920
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = 1080
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 85
	}
	return &Store{
		dir:     cfg.Dir,
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		maxW:    cfg.MaxWidth,
		maxH:    cfg.MaxHeight,
		quality: cfg.JPEGQuality,
	}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Store(ctx context.Context, data []byte, mimeType, nameHint string) (sm domain.StoredMedia, err error) {
	defer func() { observability.ObserveMedia("store", err) }()
	if err := ctx.Err(); err != nil {
		return domain.StoredMedia{}, err
	}
	if len(data) == 0 {
		return domain.StoredMedia{}, errors.New("empty upload")
	}

	body, ext := data, extension(mimeType, nameHint)
	if isRaster(mimeType) {
		body, err = s.normalise(data)
		if err != nil {
			return domain.StoredMedia{}, err
		}
		ext = ".jpg"
	}

	name := uuid.NewString() + ext
	if err := writeAtomic(filepath.Join(s.dir, name), body); err != nil {
		return domain.StoredMedia{}, err
	}
	return domain.StoredMedia{URL: s.base + "/" + name, Name: name}, nil
}

func (s *Store) normalise(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > s.maxW || b.Dy() > s.maxH {
		img = imaging.Fit(img, s.maxW, s.maxH, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Delete removes a stored object. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, ref string) (err error) {
	defer func() { observability.ObserveMedia("delete", err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validRef(ref) {
		return fmt.Errorf("invalid media ref %q", ref)
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Ref(url string) (string, bool) {
	ref, ok := strings.CutPrefix(url, s.base+"/")
	if !ok || !validRef(ref) {
		return "", false
	}
	return ref, true
}

func validRef(ref string) bool {
	return ref != "" && ref != "." && ref != ".." && !strings.ContainsAny(ref, `/\`)
}

// isRaster reports whether the upload is an image imaging can decode.
func isRaster(mimeType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/bmp", "image/tiff":
		return true
	}
	return false
}

func extension(mimeType, nameHint string) string {
	if ext := strings.ToLower(filepath.Ext(nameHint)); ext != "" && validRef("x"+ext) {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func writeAtomic(path string, body []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
