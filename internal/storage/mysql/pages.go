package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"douro_cms/internal/domain"
)

// FindPage loads the oldest page of kind. Schema fields with no stored row
// read as their defaults.
func (r *Repo) FindPage(ctx context.Context, kind domain.PageKind) (*domain.Page, error) {
	schema, ok := domain.SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("unknown page kind %q", kind)
	}
	var (
		id, k    string
		attrsRaw []byte
		p        domain.Page
	)
	if err := r.db.QueryRowContext(ctx, findPageSQL, string(kind)).
		Scan(&id, &k, &attrsRaw, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	page := schema.NewPage(id, p.CreatedAt)
	page.UpdatedAt = p.UpdatedAt

	if len(attrsRaw) > 0 {
		var attrs map[string]string
		if err := json.Unmarshal(attrsRaw, &attrs); err != nil {
			return nil, fmt.Errorf("page %s attrs: %w", id, err)
		}
		for k, v := range attrs {
			if schema.HasAttr(k) {
				page.Attrs[k] = v
			}
		}
	}

	rows, err := r.db.QueryContext(ctx, pageFieldsSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var pt, en, fr sql.NullString
		if err := rows.Scan(&name, &pt, &en, &fr); err != nil {
			return nil, err
		}
		if !schema.HasText(name) {
			continue
		}
		t := textOf(pt, en, fr)
		page.Texts[name] = &t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page, nil
}

// CreatePage inserts the page and all of its field rows. A second page of the
// same kind violates the unique key and fails.
func (r *Repo) CreatePage(ctx context.Context, p *domain.Page) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertPageSQL,
			p.ID, string(p.Kind), valJSON(p.Attrs), p.CreatedAt, p.UpdatedAt,
		); err != nil {
			return err
		}
		for _, f := range p.TextFields() {
			if _, err := tx.ExecContext(ctx, upsertPageFieldSQL,
				p.ID, f.Name, f.Text.PT, valStr(f.Text.EN), valStr(f.Text.FR),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) UpdatePage(ctx context.Context, p *domain.Page) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updatePageSQL, valJSON(p.Attrs), p.UpdatedAt, p.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var one int
			if err := tx.QueryRowContext(ctx, "SELECT 1 FROM content_pages WHERE id = ?", p.ID).Scan(&one); err != nil {
				return notFound(err)
			}
		}
		for name, t := range p.Texts {
			if t == nil {
				continue
			}
			if _, err := tx.ExecContext(ctx, upsertPageFieldSQL, p.ID, name, t.PT, nil, nil); err != nil {
				return err
			}
		}
		return nil
	})
}
