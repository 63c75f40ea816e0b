package app

import (
	"context"
	"time"

	"douro_cms/internal/domain"
)

// NewsletterService manages newsletter articles. Linked property ids must
// resolve; unknown ones are reported together.
type NewsletterService struct {
	*Collection[domain.Newsletter, *domain.Newsletter]
	props *PropertyService
	media *Uploader
}

func NewNewsletterService(store domain.CollectionStore[domain.Newsletter], props *PropertyService, media *Uploader, c domain.Cache, ttl time.Duration) *NewsletterService {
	return &NewsletterService{
		Collection: NewCollection[domain.Newsletter, *domain.Newsletter]("newsletters", store, nil, c, ttl),
		props:      props,
		media:      media,
	}
}

func (s *NewsletterService) Create(ctx context.Context, n *domain.Newsletter, cover *Upload) (*domain.Newsletter, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	ids, err := s.props.resolve(ctx, "", n.PropertyIDs)
	if err != nil {
		return nil, err
	}
	n.PropertyIDs = ids
	n.ReadingTime = domain.ReadingTime(n.Content)
	if cover != nil {
		sm, err := s.media.Store(ctx, *cover)
		if err != nil {
			return nil, err
		}
		n.CoverImage = sm.URL
	}
	out, err := s.Collection.Create(ctx, n)
	if err != nil {
		s.media.Discard(ctx, n.CoverImage)
		return nil, err
	}
	return out, nil
}

func (s *NewsletterService) Update(ctx context.Context, id string, patch domain.NewsletterPatch, cover *Upload) (*domain.Newsletter, error) {
	if patch.PropertyIDs != nil {
		ids, err := s.props.resolve(ctx, "", *patch.PropertyIDs)
		if err != nil {
			return nil, err
		}
		patch.PropertyIDs = &ids
	}
	var fresh string
	if cover != nil {
		sm, err := s.media.Store(ctx, *cover)
		if err != nil {
			return nil, err
		}
		fresh = sm.URL
	}
	var old string
	n, err := s.Collection.Update(ctx, id, func(n *domain.Newsletter) []string {
		old = n.CoverImage
		patch.Apply(n)
		if fresh != "" {
			n.CoverImage = fresh
		}
		return nil
	})
	if err != nil {
		s.media.Discard(ctx, fresh)
		return nil, err
	}
	if old != n.CoverImage {
		s.media.Discard(ctx, old)
	}
	return n, nil
}

func (s *NewsletterService) Delete(ctx context.Context, id string) error {
	n, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Collection.Delete(ctx, id); err != nil {
		return err
	}
	s.media.Discard(ctx, n.CoverImage)
	return nil
}
