package catalog

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"douro_cms/internal/domain"
)

const (
	DefaultLimit   = 10
	MaxLimit       = 100
	SimilarLimit   = 5
	similarSpread  = 0.30
	defaultSortKey = "created_at"
)

type sortKey struct {
	column string
	cmp    func(a, b *domain.Property) int
}

// sortKeys is the sort allow-list. Nullable areas order before any value.
var sortKeys = map[string]sortKey{
	"price":         {"p.price", func(a, b *domain.Property) int { return cmpF(a.Price, b.Price) }},
	"total_area":    {"p.total_area", func(a, b *domain.Property) int { return cmpPtr(a.TotalArea, b.TotalArea) }},
	"useful_area":   {"p.useful_area", func(a, b *domain.Property) int { return cmpPtr(a.UsefulArea, b.UsefulArea) }},
	"created_at":    {"p.created_at", func(a, b *domain.Property) int { return a.CreatedAt.Compare(b.CreatedAt) }},
	"bedrooms":      {"p.bedrooms", func(a, b *domain.Property) int { return a.Bedrooms - b.Bedrooms }},
	"bathrooms":     {"p.bathrooms", func(a, b *domain.Property) int { return a.Bathrooms - b.Bathrooms }},
	"garage_spaces": {"p.garage_spaces", func(a, b *domain.Property) int { return a.GarageSpaces - b.GarageSpaces }},
}

var sortAliases = map[string]string{
	"totalArea":    "total_area",
	"usefulArea":   "useful_area",
	"createdAt":    "created_at",
	"garageSpaces": "garage_spaces",
}

// ParseSort reads "field" or "-field". Empty input yields newest first.
func ParseSort(s string) (domain.Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Sort{Field: defaultSortKey, Desc: true}, nil
	}
	desc := strings.HasPrefix(s, "-")
	name := strings.TrimPrefix(s, "-")
	if a, ok := sortAliases[name]; ok {
		name = a
	}
	if _, ok := sortKeys[name]; !ok {
		return domain.Sort{}, domain.Invalid("sortBy", "must be one of price, totalArea, usefulArea, createdAt, bedrooms, bathrooms, garageSpaces, optionally prefixed with -")
	}
	return domain.Sort{Field: name, Desc: desc}, nil
}

// OrderBy renders the ORDER BY clause; id breaks ties so pages are stable.
func OrderBy(s domain.Sort) string {
	k, ok := sortKeys[s.Field]
	if !ok {
		k = sortKeys[defaultSortKey]
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return " ORDER BY " + k.column + " " + dir + ", p.id ASC"
}

// Less is the in-memory counterpart of OrderBy.
func Less(s domain.Sort) func(a, b *domain.Property) bool {
	k, ok := sortKeys[s.Field]
	if !ok {
		k = sortKeys[defaultSortKey]
	}
	return func(a, b *domain.Property) bool {
		c := k.cmp(a, b)
		if s.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	}
}

func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Similar builds the query for listings comparable to ref: same type,
// transaction and district, price within 30%, active, newest first.
func Similar(ref *domain.Property, limit int) domain.PropertyQuery {
	if limit <= 0 {
		limit = SimilarLimit
	}
	lo, hi := ref.Price*(1-similarSpread), ref.Price*(1+similarSpread)
	pt, tx, district := ref.PropertyType, ref.TransactionType, ref.District
	active := domain.StatusActive
	return domain.PropertyQuery{
		Filter: domain.PropertyFilter{
			PropertyType:    &pt,
			TransactionType: &tx,
			DistrictIs:      &district,
			MinPrice:        &lo,
			MaxPrice:        &hi,
			Status:          &active,
			ExcludeIDs:      []string{ref.ID},
		},
		Sort:  domain.Sort{Field: "created_at", Desc: true},
		Page:  1,
		Limit: limit,
	}
}

// Apply runs q over an in-memory slice: filter, sort, then page.
func Apply(all []domain.Property, q domain.PropertyQuery) ([]domain.Property, int) {
	cs := Compile(q.Filter)
	var hits []domain.Property
outer:
	for i := range all {
		for _, c := range cs {
			if !c.Match(&all[i]) {
				continue outer
			}
		}
		hits = append(hits, all[i])
	}
	less := Less(q.Sort)
	sort.SliceStable(hits, func(i, j int) bool { return less(&hits[i], &hits[j]) })

	total := len(hits)
	from := Offset(q.Page, q.Limit)
	if from >= total {
		return []domain.Property{}, total
	}
	to := from + q.Limit
	if to > total {
		to = total
	}
	return hits[from:to], total
}

// ParseQuery reads search parameters. Parameter names follow the public site
// (camelCase, Portuguese location names).
func ParseQuery(v url.Values) (domain.PropertyQuery, error) {
	var (
		q   = domain.PropertyQuery{Page: 1, Limit: DefaultLimit}
		f   = &q.Filter
		err error
	)
	if f.MinPrice, err = nonNegFloat(v, "minPrice"); err != nil {
		return q, err
	}
	if f.MaxPrice, err = nonNegFloat(v, "maxPrice"); err != nil {
		return q, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return q, domain.Invalid("minPrice", "must not exceed maxPrice")
	}
	f.PropertyType = str(v, "propertyType")
	if s := str(v, "transactionType"); s != nil {
		if !domain.ValidTransactionType(*s) {
			return q, domain.Invalid("transactionType", "must be comprar, arrendar or trespasse")
		}
		tx := domain.TransactionType(*s)
		f.TransactionType = &tx
	}
	if s := str(v, "propertyState"); s != nil {
		if !domain.ValidCondition(*s) {
			return q, domain.Invalid("propertyState", "must be novo, usado or renovado")
		}
		c := domain.Condition(*s)
		f.Condition = &c
	}
	f.EnergyClass = str(v, "energyClass")
	if s := str(v, "status"); s != nil {
		if !domain.ValidStatus(*s) {
			return q, domain.Invalid("status", "unknown status %q", *s)
		}
		st := domain.Status(*s)
		f.Status = &st
	}
	if f.IsDevelopment, err = boolean(v, "isEmpreendimento"); err != nil {
		return q, err
	}
	f.District = str(v, "distrito")
	f.Municipality = str(v, "concelho")
	if f.MinArea, err = nonNegFloat(v, "minArea"); err != nil {
		return q, err
	}
	if f.MaxArea, err = nonNegFloat(v, "maxArea"); err != nil {
		return q, err
	}
	if f.Bedrooms, err = intSet(v, "bedrooms"); err != nil {
		return q, err
	}
	if f.Bathrooms, err = intSet(v, "bathrooms"); err != nil {
		return q, err
	}
	if f.MinGarage, err = nonNegInt(v, "minGarageSpaces"); err != nil {
		return q, err
	}
	if f.MaxGarage, err = nonNegInt(v, "maxGarageSpaces"); err != nil {
		return q, err
	}
	f.Search = str(v, "search")

	if q.Sort, err = ParseSort(v.Get("sortBy")); err != nil {
		return q, err
	}
	if p, err := positiveInt(v, "page"); err != nil {
		return q, err
	} else if p != nil {
		q.Page = *p
	}
	if l, err := positiveInt(v, "limit"); err != nil {
		return q, err
	} else if l != nil {
		q.Limit = min(*l, MaxLimit)
	}
	return q, nil
}

func str(v url.Values, k string) *string {
	s := strings.TrimSpace(v.Get(k))
	if s == "" {
		return nil
	}
	return &s
}

func nonNegFloat(v url.Values, k string) (*float64, error) {
	s := str(v, k)
	if s == nil {
		return nil, nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, domain.Invalid(k, "must be a number")
	}
	if f < 0 {
		return nil, domain.Invalid(k, "must be >= 0")
	}
	return &f, nil
}

func nonNegInt(v url.Values, k string) (*int, error) {
	s := str(v, k)
	if s == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return nil, domain.Invalid(k, "must be an integer")
	}
	if n < 0 {
		return nil, domain.Invalid(k, "must be >= 0")
	}
	return &n, nil
}

func positiveInt(v url.Values, k string) (*int, error) {
	n, err := nonNegInt(v, k)
	if err != nil {
		return nil, err
	}
	if n != nil && *n < 1 {
		return nil, domain.Invalid(k, "must be >= 1")
	}
	return n, nil
}

func boolean(v url.Values, k string) (*bool, error) {
	s := str(v, k)
	if s == nil {
		return nil, nil
	}
	b, err := strconv.ParseBool(*s)
	if err != nil {
		return nil, domain.Invalid(k, "must be true or false")
	}
	return &b, nil
}

// intSet accepts repeated keys, "k[]" keys and comma-separated values.
func intSet(v url.Values, k string) ([]int, error) {
	var out []int
	raw := append(append([]string(nil), v[k]...), v[k+"[]"]...)
	for _, raw := range raw {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, domain.Invalid(k, "each value must be an integer")
			}
			if n < 0 {
				return nil, domain.Invalid(k, "each value must be >= 0")
			}
			out = append(out, n)
		}
	}
	return out, nil
}

func cmpF(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpPtr(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmpF(*a, *b)
}
