package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"douro_cms/internal/catalog"
	"douro_cms/internal/domain"
)

const featuredLimit = 3

type PropertyService struct {
	repo      domain.PropertyRepository
	children  domain.ChildRepository
	fractions domain.FractionRepository
	media     *Uploader
	tr        *Translator
	cache     viewCache
}

func NewPropertyService(
	repo domain.PropertyRepository,
	children domain.ChildRepository,
	fractions domain.FractionRepository,
	media *Uploader,
	tr *Translator,
	c domain.Cache,
	ttl time.Duration,
) *PropertyService {
	return &PropertyService{
		repo:      repo,
		children:  children,
		fractions: fractions,
		media:     media,
		tr:        tr,
		cache:     newViewCache(c, ttl),
	}
}

// Create validates p, stores the cover and gallery uploads, persists the
// row and its related ids, then dispatches a full translation pass.
func (s *PropertyService) Create(ctx context.Context, p *domain.Property, cover *Upload, gallery []Upload) (*domain.Property, error) {
	if p.Country == "" {
		p.Country = "PT"
	}
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	related, err := s.resolve(ctx, "", p.RelatedIDs)
	if err != nil {
		return nil, err
	}

	var stored []string
	if cover != nil {
		sm, err := s.media.Store(ctx, *cover)
		if err != nil {
			return nil, err
		}
		p.Image = sm.URL
		stored = append(stored, sm.URL)
	}
	urls, err := s.media.StoreAll(ctx, gallery)
	if err != nil {
		s.media.Discard(ctx, stored...)
		return nil, err
	}
	stored = append(stored, urls...)
	p.Images = append(p.Images, urls...)

	t := now()
	p.ID, p.CreatedAt, p.UpdatedAt = newID(), t, t
	if err := s.repo.CreateProperty(ctx, p); err != nil {
		s.media.Discard(ctx, stored...)
		return nil, fmt.Errorf("create property: %w", err)
	}
	if len(related) > 0 {
		if err := s.repo.ReplaceRelated(ctx, p.ID, related); err != nil {
			return nil, fmt.Errorf("create property relations: %w", err)
		}
	}
	p.RelatedIDs = related

	s.translate(ctx, p, domain.FieldNames(p))
	return p, nil
}

func (s *PropertyService) Find(ctx context.Context, id string) (*domain.Property, error) {
	return s.repo.FindProperty(ctx, id, true)
}

// View returns the localized property with its children.
func (s *PropertyService) View(ctx context.Context, id string, l domain.Locale) (PropertyView, error) {
	return cached(ctx, s.cache, propertyKey(id, l), func() (PropertyView, error) {
		p, err := s.repo.FindProperty(ctx, id, true)
		if err != nil {
			return PropertyView{}, err
		}
		return ProjectProperty(p, l), nil
	})
}

func (s *PropertyService) List(ctx context.Context, q domain.PropertyQuery) (domain.PropertyPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = catalog.DefaultLimit
	}
	q.Limit = min(q.Limit, catalog.MaxLimit)
	items, total, err := s.repo.SearchProperties(ctx, q)
	if err != nil {
		return domain.PropertyPage{}, err
	}
	if items == nil {
		items = []domain.Property{}
	}
	return domain.PropertyPage{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: catalog.TotalPages(total, q.Limit),
	}, nil
}

// Featured returns the newest active featured listings.
func (s *PropertyService) Featured(ctx context.Context) ([]domain.Property, error) {
	yes, active := true, domain.StatusActive
	items, _, err := s.repo.SearchProperties(ctx, domain.PropertyQuery{
		Filter: domain.PropertyFilter{IsFeatured: &yes, Status: &active},
		Sort:   domain.Sort{Field: "created_at", Desc: true},
		Page:   1,
		Limit:  featuredLimit,
	})
	return items, err
}

func (s *PropertyService) ToggleFeatured(ctx context.Context, id string) (*domain.Property, error) {
	p, err := s.repo.FindProperty(ctx, id, false)
	if err != nil {
		return nil, err
	}
	p.IsFeatured = !p.IsFeatured
	p.UpdatedAt = now()
	if err := s.repo.UpdateProperty(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return p, nil
}

// Similar lists up to limit active listings close to the given property.
func (s *PropertyService) Similar(ctx context.Context, id string, limit int) ([]domain.Property, error) {
	ref, err := s.repo.FindProperty(ctx, id, false)
	if err != nil {
		return nil, err
	}
	items, _, err := s.repo.SearchProperties(ctx, catalog.Similar(ref, limit))
	return items, err
}

// Update applies a partial update. New uploads are stored first and a failed
// upload aborts the whole update. Media the update no longer references is
// deleted best-effort after the row was written.
func (s *PropertyService) Update(ctx context.Context, id string, patch domain.PropertyPatch, cover *Upload, gallery []Upload) (*domain.Property, error) {
	p, err := s.repo.FindProperty(ctx, id, false)
	if err != nil {
		return nil, err
	}
	before := append([]string{p.Image}, p.Images...)

	touched := patch.Apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var stored []string
	if cover != nil {
		sm, err := s.media.Store(ctx, *cover)
		if err != nil {
			return nil, err
		}
		p.Image = sm.URL
		stored = append(stored, sm.URL)
	} else if patch.ClearImage {
		p.Image = ""
	}
	urls, err := s.media.StoreAll(ctx, gallery)
	if err != nil {
		s.media.Discard(ctx, stored...)
		return nil, err
	}
	stored = append(stored, urls...)
	if patch.Images != nil {
		p.Images = append([]string{}, *patch.Images...)
	}
	p.Images = append(p.Images, urls...)

	p.UpdatedAt = now()
	if err := s.repo.UpdateProperty(ctx, p); err != nil {
		s.media.Discard(ctx, stored...)
		return nil, fmt.Errorf("update property: %w", err)
	}
	s.media.Discard(ctx, removed(before, append([]string{p.Image}, p.Images...))...)
	s.invalidate(ctx, id)

	if len(touched) > 0 {
		s.translate(ctx, p, touched)
	}
	return s.repo.FindProperty(ctx, id, true)
}

// Delete removes the property and its children, then its media best-effort.
func (s *PropertyService) Delete(ctx context.Context, id string) error {
	p, err := s.repo.FindProperty(ctx, id, true)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProperty(ctx, id); err != nil {
		return err
	}
	s.media.Discard(ctx, propertyMedia(p)...)
	s.invalidate(ctx, id)
	log.Info().Str("id", id).Msg("property deleted")
	return nil
}

func propertyMedia(p *domain.Property) []string {
	out := append([]string{p.Image}, p.Images...)
	for _, sec := range p.ImageSections {
		out = append(out, sec.Images...)
	}
	for _, f := range p.Files {
		out = append(out, f.URL)
	}
	for _, f := range p.Fractions {
		out = append(out, f.FloorPlan)
	}
	return out
}

// translate dispatches a pass over a shallow copy; only its Text values are
// written by the translator.
func (s *PropertyService) translate(ctx context.Context, p *domain.Property, fields []string) {
	cp := *p
	s.dispatch(ctx, &cp, p.ID, fields)
}

// dispatch translates e, which must not be shared with the caller, and evicts
// the views of the owning property once something was saved.
func (s *PropertyService) dispatch(ctx context.Context, e domain.Translatable, propertyID string, fields []string) {
	s.tr.Dispatch(ctx, e, fields, func(r Report) {
		if len(r.Saved) > 0 {
			s.invalidate(context.Background(), propertyID)
		}
	})
}

func (s *PropertyService) invalidate(ctx context.Context, id string) {
	s.cache.drop(ctx, "prop:%s:%s", id)
}

func propertyKey(id string, l domain.Locale) string {
	return "prop:" + id + ":" + string(l)
}
