package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"douro_cms/internal/domain"
)

// translatable maps a translation target to its table and the field groups
// that have <field>_en / <field>_fr columns there. Pages use content_fields.
var translatable = map[string]struct {
	table  string
	fields map[string]bool
}{
	"properties":       {"properties", set("title", "description", "payment_conditions")},
	"items":            {"collection_items", set("title", "description")},
	"testimonials":     {"testimonials", set("text")},
	"fraction_columns": {"fraction_columns", set("label")},
	"fractions":        {"fractions", set("nature", "fraction_type", "floor", "unit")},
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// SaveTranslations writes the derived values of fields in one statement.
// An empty derived value never overwrites a stored one, and the source
// column is not part of the write.
func (r *Repo) SaveTranslations(ctx context.Context, target domain.TranslationTarget, fields []domain.FieldRef) error {
	if len(fields) == 0 {
		return nil
	}
	if target.Entity == "pages" {
		return r.savePageTranslations(ctx, target.ID, fields)
	}
	t, ok := translatable[target.Entity]
	if !ok {
		return fmt.Errorf("save translations: unknown entity %q", target.Entity)
	}
	sets := make([]string, 0, len(fields)*len(domain.TargetLocales))
	args := make([]any, 0, len(fields)*len(domain.TargetLocales)+1)
	for _, f := range fields {
		if !t.fields[f.Name] {
			return fmt.Errorf("save translations: %s has no field %q", target.Entity, f.Name)
		}
		for _, l := range domain.TargetLocales {
			col := f.Name + "_" + string(l)
			sets = append(sets, col+" = COALESCE(NULLIF(?, ''), "+col+")")
			args = append(args, f.Text.Derived(l))
		}
	}
	args = append(args, target.ID)
	query := "UPDATE " + t.table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	return r.execOne(ctx, t.table, target.ID, query, args...)
}

func (r *Repo) savePageTranslations(ctx context.Context, pageID string, fields []domain.FieldRef) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, f := range fields {
			if _, err := tx.ExecContext(ctx, savePageFieldSQL,
				pageID, f.Name, f.Text.PT, f.Text.EN, f.Text.FR,
			); err != nil {
				return fmt.Errorf("save page field %s: %w", f.Name, err)
			}
		}
		return nil
	})
}
