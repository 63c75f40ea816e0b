package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"douro_cms/internal/catalog"
	"douro_cms/internal/domain"
)

func ptr[T any](v T) *T { return &v }

var fixedTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// ---- translation provider ----

type providerFunc func(ctx context.Context, text string, source, target domain.Locale) (string, error)

func (f providerFunc) Translate(ctx context.Context, text string, source, target domain.Locale) (string, error) {
	return f(ctx, text, source, target)
}

// tagProvider "translates" by tagging the text with the target language.
var tagProvider = providerFunc(func(_ context.Context, text string, _, target domain.Locale) (string, error) {
	return fmt.Sprintf("%s [%s]", text, target), nil
})

var disabledProvider = providerFunc(func(context.Context, string, domain.Locale, domain.Locale) (string, error) {
	return "", domain.ErrTranslationDisabled
})

// gatedProvider blocks every call until release is closed.
type gatedProvider struct {
	release chan struct{}
	calls   atomic.Int32
}

func newGatedProvider() *gatedProvider { return &gatedProvider{release: make(chan struct{})} }

func (g *gatedProvider) Translate(ctx context.Context, text string, _, target domain.Locale) (string, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
		return fmt.Sprintf("%s [%s]", text, target), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ---- persistence ----

type saveCall struct {
	Target domain.TranslationTarget
	Fields map[string]domain.Text
}

// memDB is an in-memory persistence store. Reads return copies so callers
// never share state with the store, like a real database.
type memDB struct {
	mu sync.Mutex

	pages     map[domain.PageKind]*domain.Page
	props     map[string]*domain.Property
	related   map[string][]string
	sections  map[string]*domain.ImageSection
	files     map[string]*domain.PropertyFile
	columns   map[string]*domain.FractionColumn
	fractions map[string]*domain.Fraction

	items        *memStore[domain.Item]
	testimonials *memStore[domain.Testimonial]
	site         *domain.SiteConfig
	siteCreates  int

	saves         []saveCall
	createPageErr error
	updateErr     error
	fractionsErr  error
}

func newMemDB() *memDB {
	return &memDB{
		pages:        map[domain.PageKind]*domain.Page{},
		props:        map[string]*domain.Property{},
		related:      map[string][]string{},
		sections:     map[string]*domain.ImageSection{},
		files:        map[string]*domain.PropertyFile{},
		columns:      map[string]*domain.FractionColumn{},
		fractions:    map[string]*domain.Fraction{},
		items:        newMemStore[domain.Item](),
		testimonials: newMemStore[domain.Testimonial](),
	}
}

func (db *memDB) Saves() []saveCall {
	db.mu.Lock()
	defer db.mu.Unlock()
	return slices.Clone(db.saves)
}

func (db *memDB) SaveTranslations(_ context.Context, target domain.TranslationTarget, fields []domain.FieldRef) error {
	db.mu.Lock()
	call := saveCall{Target: target, Fields: map[string]domain.Text{}}
	for _, f := range fields {
		call.Fields[f.Name] = *f.Text
	}
	db.saves = append(db.saves, call)

	var stored domain.Translatable
	switch target.Entity {
	case "pages":
		for _, p := range db.pages {
			if p.ID == target.ID {
				stored = p
			}
		}
	case "properties":
		if p, ok := db.props[target.ID]; ok {
			stored = p
		}
	case "fraction_columns":
		if c, ok := db.columns[target.ID]; ok {
			stored = c
		}
	case "fractions":
		if f, ok := db.fractions[target.ID]; ok {
			stored = f
		}
	case "items":
		db.mu.Unlock()
		return db.items.saveDerived(target.ID, fields)
	case "testimonials":
		db.mu.Unlock()
		return db.testimonials.saveDerived(target.ID, fields)
	}
	defer db.mu.Unlock()
	if stored == nil {
		return domain.ErrNotFound
	}
	copyDerived(stored, fields)
	return nil
}

func (db *memDB) FindSiteConfig(_ context.Context) (*domain.SiteConfig, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.site == nil {
		return nil, domain.ErrNotFound
	}
	cp := *db.site
	return &cp, nil
}

func (db *memDB) CreateSiteConfig(_ context.Context, c *domain.SiteConfig) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.siteCreates++
	cp := *c
	db.site = &cp
	return nil
}

func (db *memDB) UpdateSiteConfig(_ context.Context, c *domain.SiteConfig) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.updateErr != nil {
		return db.updateErr
	}
	if db.site == nil || db.site.ID != c.ID {
		return domain.ErrNotFound
	}
	cp := *c
	db.site = &cp
	return nil
}

// copyDerived writes only the derived values of fields into dst.
func copyDerived(dst domain.Translatable, fields []domain.FieldRef) {
	for _, f := range fields {
		if t, ok := domain.Lookup(dst, f.Name); ok {
			t.EN, t.FR = f.Text.EN, f.Text.FR
		}
	}
}

func (db *memDB) FindPage(_ context.Context, kind domain.PageKind) (*domain.Page, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.pages[kind]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (db *memDB) CreatePage(_ context.Context, p *domain.Page) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.createPageErr != nil {
		return db.createPageErr
	}
	if _, ok := db.pages[p.Kind]; ok {
		return errors.New("duplicate kind")
	}
	db.pages[p.Kind] = p.Clone()
	return nil
}

// UpdatePage writes source values and attributes; derived values stay.
func (db *memDB) UpdatePage(_ context.Context, p *domain.Page) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cur, ok := db.pages[p.Kind]
	if !ok {
		return domain.ErrNotFound
	}
	for name, t := range p.Texts {
		dst, ok := cur.Texts[name]
		if !ok {
			dst = &domain.Text{}
			cur.Texts[name] = dst
		}
		dst.PT = t.PT
	}
	for k, v := range p.Attrs {
		cur.Attrs[k] = v
	}
	cur.UpdatedAt = p.UpdatedAt
	return nil
}

func (db *memDB) CreateProperty(_ context.Context, p *domain.Property) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *p
	cp.Images = slices.Clone(p.Images)
	db.props[p.ID] = &cp
	return nil
}

func (db *memDB) FindProperty(_ context.Context, id string, withRelations bool) (*domain.Property, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.props[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	cp.Images = slices.Clone(p.Images)
	if !withRelations {
		return &cp, nil
	}
	cp.RelatedIDs = slices.Clone(db.related[id])
	for _, s := range db.sections {
		if s.PropertyID == id {
			cp.ImageSections = append(cp.ImageSections, *s)
		}
	}
	for _, f := range db.files {
		if f.PropertyID == id {
			cp.Files = append(cp.Files, *f)
		}
	}
	for _, c := range db.columns {
		if c.PropertyID == id {
			cp.FractionColumns = append(cp.FractionColumns, *c)
		}
	}
	for _, f := range db.fractions {
		if f.PropertyID == id {
			cp.Fractions = append(cp.Fractions, *f)
		}
	}
	return &cp, nil
}

func (db *memDB) SearchProperties(_ context.Context, q domain.PropertyQuery) ([]domain.Property, int, error) {
	db.mu.Lock()
	all := make([]domain.Property, 0, len(db.props))
	for _, p := range db.props {
		all = append(all, *p)
	}
	db.mu.Unlock()
	items, total := catalog.Apply(all, q)
	return items, total, nil
}

func (db *memDB) UpdateProperty(_ context.Context, p *domain.Property) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.updateErr != nil {
		return db.updateErr
	}
	cur, ok := db.props[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *p
	cp.Images = slices.Clone(p.Images)
	// the row write keeps derived values of the stored row
	for _, f := range cur.TextFields() {
		if t, ok := domain.Lookup(&cp, f.Name); ok {
			t.EN, t.FR = f.Text.EN, f.Text.FR
		}
	}
	db.props[p.ID] = &cp
	return nil
}

func (db *memDB) DeleteProperty(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.props[id]; !ok {
		return domain.ErrNotFound
	}
	delete(db.props, id)
	delete(db.related, id)
	for k, s := range db.sections {
		if s.PropertyID == id {
			delete(db.sections, k)
		}
	}
	for k, f := range db.files {
		if f.PropertyID == id {
			delete(db.files, k)
		}
	}
	return nil
}

func (db *memDB) ExistingPropertyIDs(_ context.Context, ids []string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []string
	for _, id := range ids {
		if _, ok := db.props[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (db *memDB) RelatedIDs(_ context.Context, id string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return slices.Clone(db.related[id]), nil
}

func (db *memDB) ReplaceRelated(_ context.Context, id string, related []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.related[id] = slices.Clone(related)
	return nil
}

func (db *memDB) FindProperties(_ context.Context, ids []string) ([]domain.Property, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.Property
	for _, id := range ids {
		if p, ok := db.props[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (db *memDB) ListImageSections(_ context.Context, propertyID string) ([]domain.ImageSection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.ImageSection
	for _, s := range db.sections {
		if s.PropertyID == propertyID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (db *memDB) FindImageSection(_ context.Context, id string) (*domain.ImageSection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.sections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	cp.Images = slices.Clone(s.Images)
	return &cp, nil
}

func (db *memDB) CreateImageSection(_ context.Context, s *domain.ImageSection) error {
	return db.putSection(s)
}

func (db *memDB) UpdateImageSection(_ context.Context, s *domain.ImageSection) error {
	return db.putSection(s)
}

func (db *memDB) putSection(s *domain.ImageSection) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *s
	cp.Images = slices.Clone(s.Images)
	db.sections[s.ID] = &cp
	return nil
}

func (db *memDB) DeleteImageSection(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.sections, id)
	return nil
}

func (db *memDB) ListFiles(_ context.Context, propertyID string) ([]domain.PropertyFile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.PropertyFile
	for _, f := range db.files {
		if f.PropertyID == propertyID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (db *memDB) FindFile(_ context.Context, id string) (*domain.PropertyFile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (db *memDB) CreateFile(_ context.Context, f *domain.PropertyFile) error { return db.putFile(f) }
func (db *memDB) UpdateFile(_ context.Context, f *domain.PropertyFile) error { return db.putFile(f) }

func (db *memDB) putFile(f *domain.PropertyFile) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *f
	db.files[f.ID] = &cp
	return nil
}

func (db *memDB) DeleteFile(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.files, id)
	return nil
}

func (db *memDB) ListFractionColumns(_ context.Context, propertyID string) ([]domain.FractionColumn, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.FractionColumn
	for _, c := range db.columns {
		if c.PropertyID == propertyID {
			out = append(out, *c)
		}
	}
	slices.SortFunc(out, func(a, b domain.FractionColumn) int { return a.Order - b.Order })
	return out, nil
}

func (db *memDB) FindFractionColumn(_ context.Context, id string) (*domain.FractionColumn, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.columns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (db *memDB) CreateFractionColumn(_ context.Context, c *domain.FractionColumn) error {
	return db.putColumn(c)
}

func (db *memDB) UpdateFractionColumn(_ context.Context, c *domain.FractionColumn) error {
	return db.putColumn(c)
}

func (db *memDB) putColumn(c *domain.FractionColumn) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *c
	db.columns[c.ID] = &cp
	return nil
}

func (db *memDB) DeleteFractionColumn(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.columns, id)
	return nil
}

func (db *memDB) ListFractions(_ context.Context, propertyID string) ([]domain.Fraction, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.Fraction
	for _, f := range db.fractions {
		if f.PropertyID == propertyID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (db *memDB) FindFraction(_ context.Context, id string) (*domain.Fraction, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.fractions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f
	cp.Custom = cloneMap(f.Custom)
	return &cp, nil
}

func (db *memDB) CreateFractions(_ context.Context, fs []*domain.Fraction) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.fractionsErr != nil {
		return db.fractionsErr
	}
	for _, f := range fs {
		cp := *f
		cp.Custom = cloneMap(f.Custom)
		db.fractions[f.ID] = &cp
	}
	return nil
}

func (db *memDB) UpdateFraction(_ context.Context, f *domain.Fraction) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *f
	cp.Custom = cloneMap(f.Custom)
	db.fractions[f.ID] = &cp
	return nil
}

func (db *memDB) DeleteFraction(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.fractions, id)
	return nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// memStore is a CollectionStore over values of E.
type memStore[E any] struct {
	mu    sync.Mutex
	rows  map[string]*E
	order []string
	id    func(*E) string
	// writeErr fails every Create and Update.
	writeErr error
}

func newMemStore[E any]() *memStore[E] {
	return &memStore[E]{rows: map[string]*E{}, id: func(e *E) string {
		var row struct {
			ID string `json:"id"`
		}
		b, _ := json.Marshal(e)
		_ = json.Unmarshal(b, &row)
		return row.ID
	}}
}

func (s *memStore[E]) Create(_ context.Context, v *E) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	id := s.id(v)
	cp := *v
	s.rows[id] = &cp
	s.order = append(s.order, id)
	return nil
}

func (s *memStore[E]) Find(_ context.Context, id string) (*E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *memStore[E]) List(_ context.Context) ([]E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]E, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.rows[id])
	}
	return out, nil
}

func (s *memStore[E]) Update(_ context.Context, v *E) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	id := s.id(v)
	cur, ok := s.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *v
	// derived values belong to the translation writer
	if src, ok := any(cur).(domain.Translatable); ok {
		if dst, ok := any(&cp).(domain.Translatable); ok {
			copyDerived(dst, src.TextFields())
		}
	}
	s.rows[id] = &cp
	return nil
}

func (s *memStore[E]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.rows, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	return nil
}

func (s *memStore[E]) saveDerived(id string, fields []domain.FieldRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	t, ok := any(v).(domain.Translatable)
	if !ok {
		return errors.New("not translatable")
	}
	copyDerived(t, fields)
	return nil
}

// ---- media ----

type memMedia struct {
	mu       sync.Mutex
	seq      int
	stored   map[string][]byte
	deleted  []string
	storeErr error
	// failAfter makes the n-th Store call (1-based) fail.
	failAfter int
}

func newMemMedia() *memMedia { return &memMedia{stored: map[string][]byte{}} }

func (m *memMedia) Store(_ context.Context, data []byte, _, nameHint string) (domain.StoredMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if m.storeErr != nil || (m.failAfter > 0 && m.seq >= m.failAfter) {
		return domain.StoredMedia{}, errors.New("bucket unavailable")
	}
	name := fmt.Sprintf("%03d-%s", m.seq, nameHint)
	m.stored[name] = data
	return domain.StoredMedia{URL: "mem://" + name, Name: name}, nil
}

func (m *memMedia) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	delete(m.stored, ref)
	return nil
}

func (m *memMedia) Ref(url string) (string, bool) {
	return strings.CutPrefix(url, "mem://")
}

func (m *memMedia) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.deleted)
}

// ---- cache ----

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
