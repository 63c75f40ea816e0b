package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"douro_cms/internal/catalog"
	"douro_cms/internal/domain"
)

func scanProperty(s scanner) (domain.Property, error) {
	var (
		p                                      domain.Property
		reference                              sql.NullString
		titlePT, titleEN, titleFR              sql.NullString
		descPT, descEN, descFR                 sql.NullString
		payPT, payEN, payFR                    sql.NullString
		state, energy                          sql.NullString
		total, built, useful                   sql.NullFloat64
		year                                   sql.NullInt64
		delivery                               sql.NullTime
		district, municipality, parish, addr   sql.NullString
		region, city, image, features, whyPick sql.NullString
		team                                   sql.NullString
		images                                 []byte
	)
	if err := s.Scan(
		&p.ID, &reference,
		&titlePT, &titleEN, &titleFR,
		&descPT, &descEN, &descFR,
		&payPT, &payEN, &payFR,
		&p.TransactionType, &p.PropertyType, &p.IsDevelopment, &state, &energy,
		&p.Price, &total, &built, &useful,
		&p.Bedrooms, &p.Bathrooms, &p.HasOffice, &p.HasLaundry, &p.GarageSpaces,
		&year, &delivery,
		&p.Country, &district, &municipality, &parish, &addr, &region, &city,
		&image, &images, &features, &whyPick,
		&p.Status, &p.IsFeatured, &team,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return p, err
	}
	p.Reference = strOf(reference)
	p.Title = textOf(titlePT, titleEN, titleFR)
	p.Description = textOf(descPT, descEN, descFR)
	p.PaymentConditions = textOf(payPT, payEN, payFR)
	p.Condition = domain.Condition(strOf(state))
	p.EnergyClass = strOf(energy)
	p.TotalArea, p.BuiltArea, p.UsefulArea = f64Of(total), f64Of(built), f64Of(useful)
	p.ConstructionYear = intOf(year)
	if delivery.Valid {
		d := delivery.Time
		p.DeliveryDate = &d
	}
	p.District, p.Municipality, p.Parish = strOf(district), strOf(municipality), strOf(parish)
	p.Address, p.Region, p.City = strOf(addr), strOf(region), strOf(city)
	p.Image = strOf(image)
	p.Images = stringsOf(images)
	p.Features, p.WhyChoose = strOf(features), strOf(whyPick)
	if team.Valid {
		id := team.String
		p.TeamMemberID = &id
	}
	return p, nil
}

func (r *Repo) CreateProperty(ctx context.Context, p *domain.Property) error {
	_, err := r.db.ExecContext(ctx, insertPropertySQL,
		p.ID, valStr(p.Reference),
		p.Title.PT, valStr(p.Title.EN), valStr(p.Title.FR),
		valStr(p.Description.PT), valStr(p.Description.EN), valStr(p.Description.FR),
		valStr(p.PaymentConditions.PT), valStr(p.PaymentConditions.EN), valStr(p.PaymentConditions.FR),
		string(p.TransactionType), p.PropertyType, p.IsDevelopment, valStr(string(p.Condition)), valStr(p.EnergyClass),
		p.Price, valF64(p.TotalArea), valF64(p.BuiltArea), valF64(p.UsefulArea),
		p.Bedrooms, p.Bathrooms, p.HasOffice, p.HasLaundry, p.GarageSpaces,
		valInt(p.ConstructionYear), valTime(p.DeliveryDate),
		p.Country, valStr(p.District), valStr(p.Municipality), valStr(p.Parish), valStr(p.Address), valStr(p.Region), valStr(p.City),
		valStr(p.Image), valJSON(nonNil(p.Images)), valStr(p.Features), valStr(p.WhyChoose),
		string(p.Status), p.IsFeatured, valStrPtr(p.TeamMemberID),
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *Repo) FindProperty(ctx context.Context, id string, withRelations bool) (*domain.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx, selectPropertySQL+"WHERE p.id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	if !withRelations {
		return &p, nil
	}
	if p.ImageSections, err = r.ListImageSections(ctx, id); err != nil {
		return nil, err
	}
	if p.Files, err = r.ListFiles(ctx, id); err != nil {
		return nil, err
	}
	if p.FractionColumns, err = r.ListFractionColumns(ctx, id); err != nil {
		return nil, err
	}
	if p.Fractions, err = r.ListFractions(ctx, id); err != nil {
		return nil, err
	}
	if p.RelatedIDs, err = r.RelatedIDs(ctx, id); err != nil {
		return nil, err
	}
	if p.TeamMemberID != nil {
		m, err := r.Team().Find(ctx, *p.TeamMemberID)
		switch {
		case err == nil:
			p.TeamMember = m
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	return &p, nil
}

// SearchProperties counts the full match set, then reads one page of it.
func (r *Repo) SearchProperties(ctx context.Context, q domain.PropertyQuery) ([]domain.Property, int, error) {
	where, args := catalog.Where(catalog.Compile(q.Filter))

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties p"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count properties: %w", err)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = catalog.DefaultLimit
	}
	out := []domain.Property{}
	if total == 0 || catalog.Offset(q.Page, limit) >= total {
		return out, total, nil
	}
	query := selectPropertySQL + where + catalog.OrderBy(q.Sort) + " LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, catalog.Offset(q.Page, limit))...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *Repo) UpdateProperty(ctx context.Context, p *domain.Property) error {
	return r.execOne(ctx, "properties", p.ID, updatePropertySQL,
		valStr(p.Reference),
		p.Title.PT, valStr(p.Description.PT), valStr(p.PaymentConditions.PT),
		string(p.TransactionType), p.PropertyType, p.IsDevelopment, valStr(string(p.Condition)), valStr(p.EnergyClass),
		p.Price, valF64(p.TotalArea), valF64(p.BuiltArea), valF64(p.UsefulArea),
		p.Bedrooms, p.Bathrooms, p.HasOffice, p.HasLaundry, p.GarageSpaces,
		valInt(p.ConstructionYear), valTime(p.DeliveryDate),
		p.Country, valStr(p.District), valStr(p.Municipality), valStr(p.Parish), valStr(p.Address), valStr(p.Region), valStr(p.City),
		valStr(p.Image), valJSON(nonNil(p.Images)), valStr(p.Features), valStr(p.WhyChoose),
		string(p.Status), p.IsFeatured, valStrPtr(p.TeamMemberID),
		p.UpdatedAt,
		p.ID,
	)
}

// DeleteProperty removes the row; children and relation rows cascade.
func (r *Repo) DeleteProperty(ctx context.Context, id string) error {
	return r.execOne(ctx, "properties", id, deletePropertySQL, id)
}

func (r *Repo) ExistingPropertyIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM properties WHERE id IN ("+catalog.Placeholders(len(ids))+")", catalog.Args(ids)...)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func (r *Repo) RelatedIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, relatedIDsSQL, id)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// ReplaceRelated swaps the whole relation set in one transaction.
func (r *Repo) ReplaceRelated(ctx context.Context, id string, related []string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteRelatedSQL, id); err != nil {
			return err
		}
		for i, rid := range related {
			if _, err := tx.ExecContext(ctx, insertRelatedSQL, id, rid, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindProperties returns the rows in the order of ids, skipping unknown ones.
func (r *Repo) FindProperties(ctx context.Context, ids []string) ([]domain.Property, error) {
	if len(ids) == 0 {
		return []domain.Property{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		selectPropertySQL+"WHERE p.id IN ("+catalog.Placeholders(len(ids))+")", catalog.Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[string]domain.Property, len(ids))
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Property, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
