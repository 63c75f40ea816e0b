// Package catalog turns property search input into SQL predicates, ordering
// and paging. Every clause also carries an in-memory predicate with the same
// semantics so callers without a database can evaluate a query.
package catalog

import (
	"sort"
	"strings"

	"douro_cms/internal/domain"
)

// OverflowMarker in a room-count set means "this many or more".
const OverflowMarker = 7

type Clause struct {
	SQL   string
	Args  []any
	Match func(*domain.Property) bool
}

// Compile returns one clause per constraint present in f. Absent fields add nothing.
func Compile(f domain.PropertyFilter) []Clause {
	var cs []Clause
	add := func(c Clause) { cs = append(cs, c) }

	if f.MinPrice != nil {
		v := *f.MinPrice
		add(Clause{"p.price >= ?", []any{v}, func(p *domain.Property) bool { return p.Price >= v }})
	}
	if f.MaxPrice != nil {
		v := *f.MaxPrice
		add(Clause{"p.price <= ?", []any{v}, func(p *domain.Property) bool { return p.Price <= v }})
	}
	if f.PropertyType != nil {
		v := *f.PropertyType
		add(Clause{"p.property_type = ?", []any{v}, func(p *domain.Property) bool { return strings.EqualFold(p.PropertyType, v) }})
	}
	if f.TransactionType != nil {
		v := *f.TransactionType
		add(Clause{"p.transaction_type = ?", []any{string(v)}, func(p *domain.Property) bool { return p.TransactionType == v }})
	}
	if f.Condition != nil {
		v := *f.Condition
		add(Clause{"p.property_state = ?", []any{string(v)}, func(p *domain.Property) bool { return p.Condition == v }})
	}
	if f.EnergyClass != nil {
		v := *f.EnergyClass
		add(Clause{"p.energy_class = ?", []any{v}, func(p *domain.Property) bool { return strings.EqualFold(p.EnergyClass, v) }})
	}
	if f.Status != nil {
		v := *f.Status
		add(Clause{"p.status = ?", []any{string(v)}, func(p *domain.Property) bool { return p.Status == v }})
	}
	if f.IsDevelopment != nil {
		v := *f.IsDevelopment
		add(Clause{"p.is_development = ?", []any{v}, func(p *domain.Property) bool { return p.IsDevelopment == v }})
	}
	if f.IsFeatured != nil {
		v := *f.IsFeatured
		add(Clause{"p.is_featured = ?", []any{v}, func(p *domain.Property) bool { return p.IsFeatured == v }})
	}
	if f.District != nil {
		add(contains("p.district", *f.District, func(p *domain.Property) string { return p.District }))
	}
	if f.Municipality != nil {
		add(contains("p.municipality", *f.Municipality, func(p *domain.Property) string { return p.Municipality }))
	}
	if f.DistrictIs != nil {
		v := *f.DistrictIs
		add(Clause{"p.district = ?", []any{v}, func(p *domain.Property) bool { return strings.EqualFold(p.District, v) }})
	}
	if f.MinArea != nil {
		v := *f.MinArea
		add(Clause{"p.useful_area >= ?", []any{v}, func(p *domain.Property) bool { return p.UsefulArea != nil && *p.UsefulArea >= v }})
	}
	if f.MaxArea != nil {
		v := *f.MaxArea
		add(Clause{"p.useful_area <= ?", []any{v}, func(p *domain.Property) bool { return p.UsefulArea != nil && *p.UsefulArea <= v }})
	}
	if c, ok := bucket("p.bedrooms", f.Bedrooms, func(p *domain.Property) int { return p.Bedrooms }); ok {
		add(c)
	}
	if c, ok := bucket("p.bathrooms", f.Bathrooms, func(p *domain.Property) int { return p.Bathrooms }); ok {
		add(c)
	}
	if f.MinGarage != nil {
		v := *f.MinGarage
		add(Clause{"p.garage_spaces >= ?", []any{v}, func(p *domain.Property) bool { return p.GarageSpaces >= v }})
	}
	if f.MaxGarage != nil {
		v := *f.MaxGarage
		add(Clause{"p.garage_spaces <= ?", []any{v}, func(p *domain.Property) bool { return p.GarageSpaces <= v }})
	}
	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		q := strings.ToLower(strings.TrimSpace(*f.Search))
		pat := likePattern(q)
		add(Clause{
			SQL:  `(LOWER(p.title_pt) LIKE ? OR LOWER(p.description_pt) LIKE ?)`,
			Args: []any{pat, pat},
			Match: func(p *domain.Property) bool {
				return strings.Contains(strings.ToLower(p.Title.PT), q) ||
					strings.Contains(strings.ToLower(p.Description.PT), q)
			},
		})
	}
	if len(f.ExcludeIDs) > 0 {
		ids := append([]string(nil), f.ExcludeIDs...)
		add(Clause{
			SQL:  "p.id NOT IN (" + Placeholders(len(ids)) + ")",
			Args: Args(ids),
			Match: func(p *domain.Property) bool {
				for _, id := range ids {
					if p.ID == id {
						return false
					}
				}
				return true
			},
		})
	}
	return cs
}

// Where joins clauses conjunctively. It returns "" when there are none.
func Where(cs []Clause) (string, []any) {
	if len(cs) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(cs))
	var args []any
	for _, c := range cs {
		parts = append(parts, c.SQL)
		args = append(args, c.Args...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// Matches evaluates f against p in memory.
func Matches(f domain.PropertyFilter, p *domain.Property) bool {
	for _, c := range Compile(f) {
		if !c.Match(p) {
			return false
		}
	}
	return true
}

// bucket builds a set-membership predicate where OverflowMarker stands for
// "OverflowMarker or more". Values above the marker are subsumed by it.
func bucket(col string, values []int, get func(*domain.Property) int) (Clause, bool) {
	if len(values) == 0 {
		return Clause{}, false
	}
	seen := map[int]bool{}
	overflow := false
	var exact []int
	for _, v := range values {
		if v == OverflowMarker {
			overflow = true
			continue
		}
		if !seen[v] {
			seen[v] = true
			exact = append(exact, v)
		}
	}
	if overflow {
		kept := exact[:0]
		for _, v := range exact {
			if v < OverflowMarker {
				kept = append(kept, v)
			}
		}
		exact = kept
	}
	sort.Ints(exact)

	in := func(n int) bool {
		for _, v := range exact {
			if n == v {
				return true
			}
		}
		return false
	}
	switch {
	case overflow && len(exact) == 0:
		return Clause{col + " >= ?", []any{OverflowMarker}, func(p *domain.Property) bool { return get(p) >= OverflowMarker }}, true
	case overflow:
		return Clause{
			SQL:   "(" + col + " IN (" + Placeholders(len(exact)) + ") OR " + col + " >= ?)",
			Args:  append(Args(exact), OverflowMarker),
			Match: func(p *domain.Property) bool { n := get(p); return in(n) || n >= OverflowMarker },
		}, true
	default:
		return Clause{
			SQL:   col + " IN (" + Placeholders(len(exact)) + ")",
			Args:  Args(exact),
			Match: func(p *domain.Property) bool { return in(get(p)) },
		}, true
	}
}

func contains(col, needle string, get func(*domain.Property) string) Clause {
	q := strings.ToLower(needle)
	return Clause{
		SQL:   "LOWER(" + col + ") LIKE ?",
		Args:  []any{likePattern(q)},
		Match: func(p *domain.Property) bool { return strings.Contains(strings.ToLower(get(p)), q) },
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring LIKE, escaping wildcards in the input.
func likePattern(s string) string { return "%" + likeEscaper.Replace(s) + "%" }

// Placeholders returns n comma-separated bind markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Args widens vs to driver arguments.
func Args[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
