package app

import (
	"context"

	"douro_cms/internal/domain"
)

func (s *PropertyService) ImageSections(ctx context.Context, propertyID string) ([]domain.ImageSection, error) {
	if _, err := s.repo.FindProperty(ctx, propertyID, false); err != nil {
		return nil, err
	}
	return s.children.ListImageSections(ctx, propertyID)
}

func (s *PropertyService) CreateImageSection(ctx context.Context, propertyID string, sec *domain.ImageSection, uploads []Upload) (*domain.ImageSection, error) {
	if _, err := s.repo.FindProperty(ctx, propertyID, false); err != nil {
		return nil, err
	}
	if err := sec.Validate(); err != nil {
		return nil, err
	}
	urls, err := s.media.StoreAll(ctx, uploads)
	if err != nil {
		return nil, err
	}
	t := now()
	sec.ID, sec.PropertyID, sec.CreatedAt, sec.UpdatedAt = newID(), propertyID, t, t
	sec.Images = append(sec.Images, urls...)
	if sec.Images == nil {
		sec.Images = []string{}
	}
	if err := s.children.CreateImageSection(ctx, sec); err != nil {
		s.media.Discard(ctx, urls...)
		return nil, err
	}
	s.invalidate(ctx, propertyID)
	return sec, nil
}

// UpdateImageSection keeps the images the patch lists (or all when it lists
// none), appends uploads and deletes the dropped images after the write.
func (s *PropertyService) UpdateImageSection(ctx context.Context, id string, patch domain.ImageSectionPatch, uploads []Upload) (*domain.ImageSection, error) {
	sec, err := s.children.FindImageSection(ctx, id)
	if err != nil {
		return nil, err
	}
	before := sec.Images
	if patch.Name != nil {
		sec.Name = *patch.Name
	}
	if patch.Order != nil {
		sec.Order = *patch.Order
	}
	if err := sec.Validate(); err != nil {
		return nil, err
	}
	urls, err := s.media.StoreAll(ctx, uploads)
	if err != nil {
		return nil, err
	}
	keep := before
	if patch.Images != nil {
		keep = *patch.Images
	}
	sec.Images = append(append([]string{}, keep...), urls...)
	sec.UpdatedAt = now()
	if err := s.children.UpdateImageSection(ctx, sec); err != nil {
		s.media.Discard(ctx, urls...)
		return nil, err
	}
	s.media.Discard(ctx, removed(before, sec.Images)...)
	s.invalidate(ctx, sec.PropertyID)
	return sec, nil
}

func (s *PropertyService) DeleteImageSection(ctx context.Context, id string) error {
	sec, err := s.children.FindImageSection(ctx, id)
	if err != nil {
		return err
	}
	if err := s.children.DeleteImageSection(ctx, id); err != nil {
		return err
	}
	s.media.Discard(ctx, sec.Images...)
	s.invalidate(ctx, sec.PropertyID)
	return nil
}

// Files lists every document of the property, hidden ones included.
func (s *PropertyService) Files(ctx context.Context, propertyID string) ([]domain.PropertyFile, error) {
	if _, err := s.repo.FindProperty(ctx, propertyID, false); err != nil {
		return nil, err
	}
	return s.children.ListFiles(ctx, propertyID)
}

func (s *PropertyService) UploadFile(ctx context.Context, propertyID string, meta domain.PropertyFilePatch, up Upload) (*domain.PropertyFile, error) {
	if _, err := s.repo.FindProperty(ctx, propertyID, false); err != nil {
		return nil, err
	}
	if len(up.Data) == 0 {
		return nil, domain.Invalid("file", "required")
	}
	sm, err := s.media.Store(ctx, up)
	if err != nil {
		return nil, err
	}
	t := now()
	f := &domain.PropertyFile{
		ID:           newID(),
		PropertyID:   propertyID,
		Visible:      true,
		Filename:     sm.Name,
		OriginalName: up.Name,
		MimeType:     up.MimeType,
		Size:         int64(len(up.Data)),
		URL:          sm.URL,
		CreatedAt:    t,
		UpdatedAt:    t,
	}
	meta.Apply(f)
	if err := s.children.CreateFile(ctx, f); err != nil {
		s.media.Discard(ctx, sm.URL)
		return nil, err
	}
	s.invalidate(ctx, propertyID)
	return f, nil
}

func (s *PropertyService) UpdateFile(ctx context.Context, id string, patch domain.PropertyFilePatch) (*domain.PropertyFile, error) {
	f, err := s.children.FindFile(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(f)
	f.UpdatedAt = now()
	if err := s.children.UpdateFile(ctx, f); err != nil {
		return nil, err
	}
	s.invalidate(ctx, f.PropertyID)
	return f, nil
}

func (s *PropertyService) DeleteFile(ctx context.Context, id string) error {
	f, err := s.children.FindFile(ctx, id)
	if err != nil {
		return err
	}
	if err := s.children.DeleteFile(ctx, id); err != nil {
		return err
	}
	s.media.Discard(ctx, f.URL)
	s.invalidate(ctx, f.PropertyID)
	return nil
}
