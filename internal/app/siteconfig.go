package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"douro_cms/internal/domain"
)

const siteConfigKey = "site:config"

// SiteConfigService owns the site-wide figures. The row is created with zero
// values on first access.
type SiteConfigService struct {
	repo  domain.SiteConfigRepository
	media *Uploader
	cache viewCache
	mu    sync.Mutex
}

func NewSiteConfigService(r domain.SiteConfigRepository, media *Uploader, c domain.Cache, ttl time.Duration) *SiteConfigService {
	return &SiteConfigService{repo: r, media: media, cache: newViewCache(c, ttl)}
}

// SiteImages are the optional uploads of a site config update.
type SiteImages struct {
	Presenter *Upload
	Podcast   *Upload
}

func (s *SiteConfigService) Get(ctx context.Context) (*domain.SiteConfig, error) {
	return cached(ctx, s.cache, siteConfigKey, func() (*domain.SiteConfig, error) {
		return s.load(ctx)
	})
}

func (s *SiteConfigService) load(ctx context.Context) (*domain.SiteConfig, error) {
	c, err := s.repo.FindSiteConfig(ctx)
	if !errors.Is(err, domain.ErrNotFound) {
		return c, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, err := s.repo.FindSiteConfig(ctx); err == nil {
		return c, nil
	}
	t := now()
	c = &domain.SiteConfig{ID: newID(), CreatedAt: t, UpdatedAt: t}
	if err := s.repo.CreateSiteConfig(ctx, c); err != nil {
		if existing, ferr := s.repo.FindSiteConfig(ctx); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	log.Info().Str("id", c.ID).Msg("site config created with defaults")
	return c, nil
}

// Update applies the fields present in patch. New images replace the old
// ones, which are deleted best-effort after the write.
func (s *SiteConfigService) Update(ctx context.Context, patch domain.SiteConfigPatch, imgs SiteImages) (*domain.SiteConfig, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var uploads []Upload
	for _, up := range []*Upload{imgs.Presenter, imgs.Podcast} {
		if up != nil {
			uploads = append(uploads, *up)
		}
	}
	stored, err := s.media.StoreAll(ctx, uploads)
	if err != nil {
		return nil, err
	}
	urls := stored
	var old []string
	if imgs.Presenter != nil {
		old = append(old, c.PresenterImage)
		c.PresenterImage, urls = urls[0], urls[1:]
	}
	if imgs.Podcast != nil {
		old = append(old, c.PodcastImage)
		c.PodcastImage = urls[0]
	}

	patch.Apply(c)
	c.UpdatedAt = now()
	if err := s.repo.UpdateSiteConfig(ctx, c); err != nil {
		s.media.Discard(ctx, stored...)
		return nil, err
	}
	s.cache.evict(ctx, siteConfigKey)
	s.media.Discard(ctx, old...)
	return c, nil
}
