package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"douro_cms/internal/domain"
)

func scanColumn(s scanner) (domain.FractionColumn, error) {
	var (
		c             domain.FractionColumn
		label, en, fr sql.NullString
		options       []byte
	)
	if err := s.Scan(&c.ID, &c.PropertyID, &c.Key, &label, &en, &fr, &c.Type, &options,
		&c.Visible, &c.Required, &c.Order, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return c, err
	}
	c.Label = textOf(label, en, fr)
	if len(options) > 0 {
		c.Options = stringsOf(options)
	}
	return c, nil
}

func (r *Repo) ListFractionColumns(ctx context.Context, propertyID string) ([]domain.FractionColumn, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+columnCols+" FROM fraction_columns WHERE property_id = ? ORDER BY display_order, created_at", propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.FractionColumn{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) FindFractionColumn(ctx context.Context, id string) (*domain.FractionColumn, error) {
	c, err := scanColumn(r.db.QueryRowContext(ctx, "SELECT "+columnCols+" FROM fraction_columns WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *Repo) CreateFractionColumn(ctx context.Context, c *domain.FractionColumn) error {
	_, err := r.db.ExecContext(ctx, insertColumnSQL,
		c.ID, c.PropertyID, c.Key, c.Label.PT, valStr(c.Label.EN), valStr(c.Label.FR),
		string(c.Type), optionsArg(c.Options), c.Visible, c.Required, c.Order, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *Repo) UpdateFractionColumn(ctx context.Context, c *domain.FractionColumn) error {
	return r.execOne(ctx, "fraction_columns", c.ID, updateColumnSQL,
		c.Label.PT, string(c.Type), optionsArg(c.Options), c.Visible, c.Required, c.Order, c.UpdatedAt, c.ID)
}

// DeleteFractionColumn leaves the values stored under the key in place.
func (r *Repo) DeleteFractionColumn(ctx context.Context, id string) error {
	return r.execOne(ctx, "fraction_columns", id, "DELETE FROM fraction_columns WHERE id = ?", id)
}

func optionsArg(opts []string) any {
	if len(opts) == 0 {
		return nil
	}
	return valJSON(opts)
}

func scanFraction(s scanner) (domain.Fraction, error) {
	var (
		f                      domain.Fraction
		natPT, natEN, natFR    sql.NullString
		typPT, typEN, typFR    sql.NullString
		flrPT, flrEN, flrFR    sql.NullString
		unitPT, unitEN, unitFR sql.NullString
		gross, outdoor, price  sql.NullFloat64
		plan                   sql.NullString
		custom                 []byte
	)
	if err := s.Scan(&f.ID, &f.PropertyID,
		&natPT, &natEN, &natFR,
		&typPT, &typEN, &typFR,
		&flrPT, &flrEN, &flrFR,
		&unitPT, &unitEN, &unitFR,
		&gross, &outdoor, &f.ParkingSpaces, &price, &plan,
		&f.ReservationStatus, &f.Order, &custom, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return f, err
	}
	f.Nature = textOf(natPT, natEN, natFR)
	f.FractionType = textOf(typPT, typEN, typFR)
	f.Floor = textOf(flrPT, flrEN, flrFR)
	f.Unit = textOf(unitPT, unitEN, unitFR)
	f.GrossArea, f.OutdoorArea, f.Price = f64Of(gross), f64Of(outdoor), f64Of(price)
	f.FloorPlan = strOf(plan)
	if len(custom) > 0 {
		if err := json.Unmarshal(custom, &f.Custom); err != nil {
			return f, fmt.Errorf("fraction %s custom_data: %w", f.ID, err)
		}
	}
	return f, nil
}

func (r *Repo) ListFractions(ctx context.Context, propertyID string) ([]domain.Fraction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+fractionCols+" FROM fractions WHERE property_id = ? ORDER BY display_order, created_at", propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Fraction{}
	for rows.Next() {
		f, err := scanFraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) FindFraction(ctx context.Context, id string) (*domain.Fraction, error) {
	f, err := scanFraction(r.db.QueryRowContext(ctx, "SELECT "+fractionCols+" FROM fractions WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// CreateFractions inserts the batch in one transaction.
func (r *Repo) CreateFractions(ctx context.Context, fs []*domain.Fraction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertFractionSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range fs {
			if _, err := stmt.ExecContext(ctx,
				f.ID, f.PropertyID,
				valStr(f.Nature.PT), valStr(f.Nature.EN), valStr(f.Nature.FR),
				valStr(f.FractionType.PT), valStr(f.FractionType.EN), valStr(f.FractionType.FR),
				valStr(f.Floor.PT), valStr(f.Floor.EN), valStr(f.Floor.FR),
				valStr(f.Unit.PT), valStr(f.Unit.EN), valStr(f.Unit.FR),
				valF64(f.GrossArea), valF64(f.OutdoorArea), f.ParkingSpaces, valF64(f.Price), valStr(f.FloorPlan),
				string(f.ReservationStatus), f.Order, customArg(f.Custom), f.CreatedAt, f.UpdatedAt,
			); err != nil {
				return fmt.Errorf("insert fraction %s: %w", f.ID, err)
			}
		}
		return nil
	})
}

func (r *Repo) UpdateFraction(ctx context.Context, f *domain.Fraction) error {
	return r.execOne(ctx, "fractions", f.ID, updateFractionSQL,
		valStr(f.Nature.PT), valStr(f.FractionType.PT), valStr(f.Floor.PT), valStr(f.Unit.PT),
		valF64(f.GrossArea), valF64(f.OutdoorArea), f.ParkingSpaces, valF64(f.Price), valStr(f.FloorPlan),
		string(f.ReservationStatus), f.Order, customArg(f.Custom), f.UpdatedAt,
		f.ID,
	)
}

func (r *Repo) DeleteFraction(ctx context.Context, id string) error {
	return r.execOne(ctx, "fractions", id, "DELETE FROM fractions WHERE id = ?", id)
}

func customArg(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	return valJSON(m)
}
