package app

import (
	"context"
	"time"

	"douro_cms/internal/domain"
)

// TeamService manages team members and their photos.
type TeamService struct {
	*Collection[domain.TeamMember, *domain.TeamMember]
	media *Uploader
}

func NewTeamService(store domain.CollectionStore[domain.TeamMember], media *Uploader, c domain.Cache, ttl time.Duration) *TeamService {
	return &TeamService{
		Collection: NewCollection[domain.TeamMember, *domain.TeamMember]("team", store, nil, c, ttl),
		media:      media,
	}
}

func (s *TeamService) Create(ctx context.Context, m *domain.TeamMember, photo *Upload) (*domain.TeamMember, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if photo != nil {
		sm, err := s.media.Store(ctx, *photo)
		if err != nil {
			return nil, err
		}
		m.Photo = sm.URL
	}
	out, err := s.Collection.Create(ctx, m)
	if err != nil {
		s.media.Discard(ctx, m.Photo)
		return nil, err
	}
	return out, nil
}

// Update replaces the photo when one is uploaded; the previous one is
// deleted best-effort after the write.
func (s *TeamService) Update(ctx context.Context, id string, patch domain.TeamMemberPatch, photo *Upload) (*domain.TeamMember, error) {
	var fresh string
	if photo != nil {
		sm, err := s.media.Store(ctx, *photo)
		if err != nil {
			return nil, err
		}
		fresh = sm.URL
	}
	var old string
	m, err := s.Collection.Update(ctx, id, func(m *domain.TeamMember) []string {
		old = m.Photo
		patch.Apply(m)
		switch {
		case fresh != "":
			m.Photo = fresh
		case patch.ClearPhoto:
			m.Photo = ""
		}
		return nil
	})
	if err != nil {
		s.media.Discard(ctx, fresh)
		return nil, err
	}
	if old != m.Photo {
		s.media.Discard(ctx, old)
	}
	return m, nil
}

func (s *TeamService) Delete(ctx context.Context, id string) error {
	m, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Collection.Delete(ctx, id); err != nil {
		return err
	}
	s.media.Discard(ctx, m.Photo)
	return nil
}
