package mysql

import (
	"context"
	"database/sql"

	"douro_cms/internal/domain"
)

func scanSection(s scanner) (domain.ImageSection, error) {
	var sec domain.ImageSection
	var images []byte
	if err := s.Scan(&sec.ID, &sec.PropertyID, &sec.Name, &images, &sec.Order, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
		return sec, err
	}
	sec.Images = stringsOf(images)
	return sec, nil
}

func (r *Repo) ListImageSections(ctx context.Context, propertyID string) ([]domain.ImageSection, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sectionCols+" FROM property_image_sections WHERE property_id = ? ORDER BY display_order, created_at", propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.ImageSection{}
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) FindImageSection(ctx context.Context, id string) (*domain.ImageSection, error) {
	s, err := scanSection(r.db.QueryRowContext(ctx, "SELECT "+sectionCols+" FROM property_image_sections WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *Repo) CreateImageSection(ctx context.Context, s *domain.ImageSection) error {
	_, err := r.db.ExecContext(ctx, insertSectionSQL,
		s.ID, s.PropertyID, s.Name, valJSON(nonNil(s.Images)), s.Order, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *Repo) UpdateImageSection(ctx context.Context, s *domain.ImageSection) error {
	return r.execOne(ctx, "property_image_sections", s.ID, updateSectionSQL,
		s.Name, valJSON(nonNil(s.Images)), s.Order, s.UpdatedAt, s.ID)
}

func (r *Repo) DeleteImageSection(ctx context.Context, id string) error {
	return r.execOne(ctx, "property_image_sections", id, "DELETE FROM property_image_sections WHERE id = ?", id)
}

func scanFile(s scanner) (domain.PropertyFile, error) {
	var f domain.PropertyFile
	var title sql.NullString
	if err := s.Scan(&f.ID, &f.PropertyID, &title, &f.Visible, &f.Filename, &f.OriginalName,
		&f.MimeType, &f.Size, &f.URL, &f.Order, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return f, err
	}
	f.Title = strOf(title)
	return f, nil
}

func (r *Repo) ListFiles(ctx context.Context, propertyID string) ([]domain.PropertyFile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+fileCols+" FROM property_files WHERE property_id = ? ORDER BY display_order, created_at", propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.PropertyFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) FindFile(ctx context.Context, id string) (*domain.PropertyFile, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, "SELECT "+fileCols+" FROM property_files WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *Repo) CreateFile(ctx context.Context, f *domain.PropertyFile) error {
	_, err := r.db.ExecContext(ctx, insertFileSQL,
		f.ID, f.PropertyID, valStr(f.Title), f.Visible, f.Filename, f.OriginalName,
		f.MimeType, f.Size, f.URL, f.Order, f.CreatedAt, f.UpdatedAt)
	return err
}

func (r *Repo) UpdateFile(ctx context.Context, f *domain.PropertyFile) error {
	return r.execOne(ctx, "property_files", f.ID, updateFileSQL,
		valStr(f.Title), f.Visible, f.Order, f.UpdatedAt, f.ID)
}

func (r *Repo) DeleteFile(ctx context.Context, id string) error {
	return r.execOne(ctx, "property_files", id, "DELETE FROM property_files WHERE id = ?", id)
}
