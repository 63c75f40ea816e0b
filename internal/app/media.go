package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"douro_cms/internal/domain"
)

// Upload is one binary received at the boundary.
type Upload struct {
	Data     []byte
	MimeType string
	Name     string
}

// Uploader stores uploads and cleans up media that no record references anymore.
type Uploader struct {
	media domain.MediaStore
}

func NewUploader(m domain.MediaStore) *Uploader { return &Uploader{media: m} }

// Store uploads one file. A failure aborts the surrounding write.
func (u *Uploader) Store(ctx context.Context, up Upload) (domain.StoredMedia, error) {
	sm, err := u.media.Store(ctx, up.Data, up.MimeType, up.Name)
	if err != nil {
		return domain.StoredMedia{}, &domain.MediaError{Op: "store", Err: err}
	}
	return sm, nil
}

// StoreAll uploads every file or none: on failure the ones already stored are removed.
func (u *Uploader) StoreAll(ctx context.Context, ups []Upload) ([]string, error) {
	urls := make([]string, 0, len(ups))
	for _, up := range ups {
		sm, err := u.Store(ctx, up)
		if err != nil {
			u.Discard(ctx, urls...)
			return nil, err
		}
		urls = append(urls, sm.URL)
	}
	return urls, nil
}

// Discard deletes media best-effort. Failures are logged and swallowed.
func (u *Uploader) Discard(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		ref, ok := u.media.Ref(url)
		if !ok {
			log.Debug().Str("url", url).Msg("media not managed here, skipping delete")
			continue
		}
		if err := u.media.Delete(ctx, ref); err != nil {
			log.Warn().Err(err).Str("ref", ref).Msg("media cleanup failed")
		}
	}
}

// removed returns the entries of before that are absent from after.
func removed(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, a := range after {
		keep[a] = true
	}
	var out []string
	for _, b := range before {
		if b != "" && !keep[b] {
			out = append(out, b)
		}
	}
	return out
}
