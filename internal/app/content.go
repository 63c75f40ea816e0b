package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"douro_cms/internal/domain"
)

var (
	newID = uuid.NewString
	now   = func() time.Time { return time.Now().UTC() }
)

// ContentService owns the content singletons (About Us, Podcast, Sell Property).
type ContentService struct {
	repo  domain.PageRepository
	tr    *Translator
	cache viewCache
	mu    sync.Mutex
}

func NewContentService(r domain.PageRepository, tr *Translator, c domain.Cache, ttl time.Duration) *ContentService {
	return &ContentService{repo: r, tr: tr, cache: newViewCache(c, ttl)}
}

// Get returns the singleton of kind, creating it from the defaults on first
// access. Creation dispatches a full translation pass.
func (s *ContentService) Get(ctx context.Context, kind domain.PageKind) (*domain.Page, error) {
	schema, ok := domain.SchemaFor(kind)
	if !ok {
		return nil, domain.ErrNotFound
	}
	p, err := s.repo.FindPage(ctx, kind)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, err := s.repo.FindPage(ctx, kind); err == nil {
		return p, nil
	}
	p = schema.NewPage(newID(), now())
	if err := s.repo.CreatePage(ctx, p); err != nil {
		// another process may have won the insert
		if existing, ferr := s.repo.FindPage(ctx, kind); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	log.Info().Str("kind", string(kind)).Str("id", p.ID).Msg("content page created with defaults")
	task := s.tr.Dispatch(ctx, p.Clone(), schema.TextFields, s.afterTranslate(kind))
	select {
	case <-task.Done():
		// synchronous pass: the stored row already carries the translations
		if fresh, err := s.repo.FindPage(ctx, kind); err == nil {
			return fresh, nil
		}
	default:
	}
	return p, nil
}

// GetByLocale returns the flattened view. Right after creation it may still
// show source text for fields whose translation has not landed yet.
func (s *ContentService) GetByLocale(ctx context.Context, kind domain.PageKind, l domain.Locale) (PageView, error) {
	return cached(ctx, s.cache, pageKey(kind, l), func() (PageView, error) {
		p, err := s.Get(ctx, kind)
		if err != nil {
			return nil, err
		}
		return ProjectPage(p, l), nil
	})
}

// Update writes the given source values and attributes, then retranslates
// only the text fields the patch named. It returns the re-read page; with an
// async translator derived values may not be updated yet.
func (s *ContentService) Update(ctx context.Context, kind domain.PageKind, patch domain.PagePatch) (*domain.Page, error) {
	schema, ok := domain.SchemaFor(kind)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := schema.Validate(patch); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, kind)
	if err != nil {
		return nil, err
	}
	p.TextFields() // materialize every schema field
	for k, v := range patch.Texts {
		p.Texts[k].PT = v
	}
	for k, v := range patch.Attrs {
		p.Attrs[k] = v
	}
	p.UpdatedAt = now()
	if err := s.repo.UpdatePage(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, kind)

	if touched := patch.TouchedTexts(); len(touched) > 0 {
		s.tr.Dispatch(ctx, p.Clone(), touched, s.afterTranslate(kind))
	}
	return s.repo.FindPage(ctx, kind)
}

func (s *ContentService) afterTranslate(kind domain.PageKind) func(Report) {
	return func(r Report) {
		if len(r.Saved) > 0 {
			s.invalidate(context.Background(), kind)
		}
	}
}

func (s *ContentService) invalidate(ctx context.Context, kind domain.PageKind) {
	s.cache.drop(ctx, "page:%s:%s", kind)
}

func pageKey(kind domain.PageKind, l domain.Locale) string {
	return "page:" + string(kind) + ":" + string(l)
}
