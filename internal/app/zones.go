package app

import (
	"context"
	"strings"
	"time"

	"douro_cms/internal/domain"
)

// ZoneService manages the desired zones of the landing page.
type ZoneService struct {
	*Collection[domain.DesiredZone, *domain.DesiredZone]
	media *Uploader
}

func NewZoneService(store domain.CollectionStore[domain.DesiredZone], media *Uploader, c domain.Cache, ttl time.Duration) *ZoneService {
	return &ZoneService{
		Collection: NewCollection[domain.DesiredZone, *domain.DesiredZone]("zones", store, nil, c, ttl),
		media:      media,
	}
}

// Create stores the image, which every zone needs, then the row. The image
// is removed again when the row is rejected. Country defaults to PT.
func (s *ZoneService) Create(ctx context.Context, z *domain.DesiredZone, image *Upload) (*domain.DesiredZone, error) {
	if image == nil {
		return nil, domain.Invalid("image", "required")
	}
	z.Country = strings.ToUpper(strings.TrimSpace(z.Country))
	if z.Country == "" {
		z.Country = "PT"
	}
	sm, err := s.media.Store(ctx, *image)
	if err != nil {
		return nil, err
	}
	z.Image = sm.URL
	out, err := s.Collection.Create(ctx, z)
	if err != nil {
		s.media.Discard(ctx, z.Image)
		return nil, err
	}
	return out, nil
}

// Active lists the active zones in display order, optionally for one country.
func (s *ZoneService) Active(ctx context.Context, country string) ([]domain.DesiredZone, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	country = strings.ToUpper(country)
	out := make([]domain.DesiredZone, 0, len(all))
	for _, z := range all {
		if z.Active && (country == "" || z.Country == country) {
			out = append(out, z)
		}
	}
	return out, nil
}

func (s *ZoneService) Update(ctx context.Context, id string, patch domain.DesiredZonePatch, image *Upload) (*domain.DesiredZone, error) {
	var fresh string
	if image != nil {
		sm, err := s.media.Store(ctx, *image)
		if err != nil {
			return nil, err
		}
		fresh = sm.URL
	}
	var old string
	z, err := s.Collection.Update(ctx, id, func(z *domain.DesiredZone) []string {
		old = z.Image
		patch.Apply(z)
		if fresh != "" {
			z.Image = fresh
		}
		return nil
	})
	if err != nil {
		s.media.Discard(ctx, fresh)
		return nil, err
	}
	if old != z.Image {
		s.media.Discard(ctx, old)
	}
	return z, nil
}

func (s *ZoneService) Delete(ctx context.Context, id string) error {
	z, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Collection.Delete(ctx, id); err != nil {
		return err
	}
	s.media.Discard(ctx, z.Image)
	return nil
}
