package mysql

import (
	"context"

	"douro_cms/internal/domain"
)

type ZoneStore struct{ r *Repo }

func (r *Repo) Zones() ZoneStore { return ZoneStore{r} }

func scanZone(s scanner) (domain.DesiredZone, error) {
	var z domain.DesiredZone
	err := s.Scan(&z.ID, &z.Name, &z.Image, &z.Order, &z.Active, &z.Country, &z.CreatedAt, &z.UpdatedAt)
	return z, err
}

func (s ZoneStore) Create(ctx context.Context, z *domain.DesiredZone) error {
	_, err := s.r.db.ExecContext(ctx, insertZoneSQL,
		z.ID, z.Name, z.Image, z.Order, z.Active, z.Country, z.CreatedAt, z.UpdatedAt)
	return err
}

func (s ZoneStore) Find(ctx context.Context, id string) (*domain.DesiredZone, error) {
	z, err := scanZone(s.r.db.QueryRowContext(ctx, "SELECT "+zoneCols+" FROM desired_zones WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &z, nil
}

func (s ZoneStore) List(ctx context.Context) ([]domain.DesiredZone, error) {
	rows, err := s.r.db.QueryContext(ctx, "SELECT "+zoneCols+" FROM desired_zones ORDER BY display_order, created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.DesiredZone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func (s ZoneStore) Update(ctx context.Context, z *domain.DesiredZone) error {
	return s.r.execOne(ctx, "desired_zones", z.ID, updateZoneSQL,
		z.Name, z.Image, z.Order, z.Active, z.Country, z.UpdatedAt, z.ID)
}

func (s ZoneStore) Delete(ctx context.Context, id string) error {
	return s.r.execOne(ctx, "desired_zones", id, "DELETE FROM desired_zones WHERE id = ?", id)
}
