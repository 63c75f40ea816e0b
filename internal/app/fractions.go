package app

import (
	"context"

	"douro_cms/internal/domain"
)

func (s *PropertyService) FractionColumns(ctx context.Context, propertyID string) ([]domain.FractionColumn, error) {
	if _, err := s.repo.FindProperty(ctx, propertyID, false); err != nil {
		return nil, err
	}
	return s.fractions.ListFractionColumns(ctx, propertyID)
}

// CreateFractionColumn adds a column to the property's fraction table. Keys
// are unique per property.
func (s *PropertyService) CreateFractionColumn(ctx context.Context, propertyID string, c *domain.FractionColumn) (*domain.FractionColumn, error) {
	cols, err := s.FractionColumns(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, taken := domain.NewColumnRegistry(cols).Column(c.Key); taken {
		return nil, domain.Invalid("column_key", "%q already exists", c.Key)
	}
	t := now()
	c.ID, c.PropertyID, c.CreatedAt, c.UpdatedAt = newID(), propertyID, t, t
	if err := s.fractions.CreateFractionColumn(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, propertyID)
	cp := *c
	s.dispatch(ctx, &cp, propertyID, domain.FieldNames(c))
	return c, nil
}

func (s *PropertyService) UpdateFractionColumn(ctx context.Context, id string, patch domain.FractionColumnPatch) (*domain.FractionColumn, error) {
	c, err := s.fractions.FindFractionColumn(ctx, id)
	if err != nil {
		return nil, err
	}
	touched := patch.Apply(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = now()
	if err := s.fractions.UpdateFractionColumn(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, c.PropertyID)
	if len(touched) > 0 {
		cp := *c
		s.dispatch(ctx, &cp, c.PropertyID, touched)
	}
	return c, nil
}

// DeleteFractionColumn leaves the column's values in the fractions' custom
// data; typed reads skip keys without a column.
func (s *PropertyService) DeleteFractionColumn(ctx context.Context, id string) error {
	c, err := s.fractions.FindFractionColumn(ctx, id)
	if err != nil {
		return err
	}
	if err := s.fractions.DeleteFractionColumn(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, c.PropertyID)
	return nil
}

func (s *PropertyService) Fractions(ctx context.Context, propertyID string) ([]domain.Fraction, error) {
	if _, err := s.repo.FindProperty(ctx, propertyID, false); err != nil {
		return nil, err
	}
	return s.fractions.ListFractions(ctx, propertyID)
}

func (s *PropertyService) CreateFraction(ctx context.Context, propertyID string, f *domain.Fraction, floorPlan *Upload) (*domain.Fraction, error) {
	var up []Upload
	if floorPlan != nil {
		up = []Upload{*floorPlan}
	}
	out, err := s.createFractions(ctx, propertyID, []*domain.Fraction{f}, up)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// CreateFractions inserts every fraction or none. Each one is validated,
// custom data included, before anything is written.
func (s *PropertyService) CreateFractions(ctx context.Context, propertyID string, fs []*domain.Fraction) ([]*domain.Fraction, error) {
	if len(fs) == 0 {
		return nil, domain.Invalid("fractions", "at least one fraction is required")
	}
	return s.createFractions(ctx, propertyID, fs, nil)
}

func (s *PropertyService) createFractions(ctx context.Context, propertyID string, fs []*domain.Fraction, floorPlan []Upload) ([]*domain.Fraction, error) {
	cols, err := s.FractionColumns(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	reg := domain.NewColumnRegistry(cols)
	t := now()
	for _, f := range fs {
		if f.ReservationStatus == "" {
			f.ReservationStatus = domain.ReservationAvailable
		}
		if err := validateFraction(reg, f); err != nil {
			return nil, err
		}
		f.ID, f.PropertyID, f.CreatedAt, f.UpdatedAt = newID(), propertyID, t, t
	}
	urls, err := s.media.StoreAll(ctx, floorPlan)
	if err != nil {
		return nil, err
	}
	if len(urls) == 1 {
		fs[0].FloorPlan = urls[0]
	}
	if err := s.fractions.CreateFractions(ctx, fs); err != nil {
		s.media.Discard(ctx, urls...)
		return nil, err
	}
	s.invalidate(ctx, propertyID)
	for _, f := range fs {
		cp := *f
		s.dispatch(ctx, &cp, propertyID, domain.FieldNames(f))
	}
	return fs, nil
}

func (s *PropertyService) UpdateFraction(ctx context.Context, id string, patch domain.FractionPatch, floorPlan *Upload) (*domain.Fraction, error) {
	f, err := s.fractions.FindFraction(ctx, id)
	if err != nil {
		return nil, err
	}
	cols, err := s.fractions.ListFractionColumns(ctx, f.PropertyID)
	if err != nil {
		return nil, err
	}
	reg := domain.NewColumnRegistry(cols)
	for k, v := range patch.Custom {
		if _, ok := reg.Column(k); !ok && v != nil {
			return nil, domain.Invalid("custom_data."+k, "no such column")
		}
	}
	touched := patch.Apply(f)
	if err := validateFraction(reg, f); err != nil {
		return nil, err
	}
	old := f.FloorPlan
	if floorPlan != nil {
		sm, err := s.media.Store(ctx, *floorPlan)
		if err != nil {
			return nil, err
		}
		f.FloorPlan = sm.URL
	}
	f.UpdatedAt = now()
	if err := s.fractions.UpdateFraction(ctx, f); err != nil {
		if f.FloorPlan != old {
			s.media.Discard(ctx, f.FloorPlan)
		}
		return nil, err
	}
	if f.FloorPlan != old {
		s.media.Discard(ctx, old)
	}
	s.invalidate(ctx, f.PropertyID)
	if len(touched) > 0 {
		cp := *f
		s.dispatch(ctx, &cp, f.PropertyID, touched)
	}
	return f, nil
}

func (s *PropertyService) DeleteFraction(ctx context.Context, id string) error {
	f, err := s.fractions.FindFraction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.fractions.DeleteFraction(ctx, id); err != nil {
		return err
	}
	s.media.Discard(ctx, f.FloorPlan)
	s.invalidate(ctx, f.PropertyID)
	return nil
}

// validateFraction checks the fixed attributes and decodes custom data
// through reg. Values of deleted columns already stored are kept as they are.
func validateFraction(reg domain.ColumnRegistry, f *domain.Fraction) error {
	if err := f.Validate(); err != nil {
		return err
	}
	known := make(map[string]any, len(f.Custom))
	orphans := map[string]any{}
	for k, v := range f.Custom {
		if _, ok := reg.Column(k); ok {
			known[k] = v
		} else if f.ID != "" {
			orphans[k] = v
		} else {
			known[k] = v // let Decode reject it
		}
	}
	values, err := reg.Decode(known)
	if err != nil {
		return err
	}
	if err := reg.Require(values); err != nil {
		return err
	}
	f.SetCustom(values)
	for k, v := range orphans {
		f.Custom[k] = v
	}
	return nil
}
