package httpserver

import (
	"context"
	"slices"
	"sync"

	"douro_cms/internal/app"
	"douro_cms/internal/domain"
)

type tagProvider struct{}

func (tagProvider) Translate(_ context.Context, text string, _, target domain.Locale) (string, error) {
	return text + " [" + string(target) + "]", nil
}

// memRepo keeps pages and properties in memory and applies translation
// writes to them so synchronous passes are visible to the next read.
type memRepo struct {
	mu      sync.Mutex
	pages   map[domain.PageKind]*domain.Page
	props   map[string]*domain.Property
	related map[string][]string
}

func newMemRepo() *memRepo {
	return &memRepo{
		pages:   map[domain.PageKind]*domain.Page{},
		props:   map[string]*domain.Property{},
		related: map[string][]string{},
	}
}

func (m *memRepo) SaveTranslations(_ context.Context, target domain.TranslationTarget, fields []domain.FieldRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var e domain.Translatable
	switch target.Entity {
	case "pages":
		for _, p := range m.pages {
			if p.ID == target.ID {
				e = p
			}
		}
	case "properties":
		if p, ok := m.props[target.ID]; ok {
			e = p
		}
	}
	if e == nil {
		return nil
	}
	for _, f := range fields {
		if t, ok := domain.Lookup(e, f.Name); ok {
			t.EN, t.FR = f.Text.EN, f.Text.FR
		}
	}
	return nil
}

func (m *memRepo) FindPage(_ context.Context, kind domain.PageKind) (*domain.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[kind]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memRepo) CreatePage(_ context.Context, p *domain.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[p.Kind] = p.Clone()
	return nil
}

func (m *memRepo) UpdatePage(_ context.Context, p *domain.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.pages[p.Kind]
	if !ok {
		return domain.ErrNotFound
	}
	for name, t := range p.Texts {
		if dst, ok := cur.Texts[name]; ok {
			dst.PT = t.PT
			continue
		}
		cur.Texts[name] = &domain.Text{PT: t.PT}
	}
	for k, v := range p.Attrs {
		cur.Attrs[k] = v
	}
	return nil
}

func (m *memRepo) CreateProperty(_ context.Context, p *domain.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.props[p.ID] = &cp
	m.related[p.ID] = slices.Clone(p.RelatedIDs)
	return nil
}

func (m *memRepo) FindProperty(_ context.Context, id string, withRelations bool) (*domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.props[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	if withRelations {
		cp.RelatedIDs = slices.Clone(m.related[id])
	}
	return &cp, nil
}

func (m *memRepo) SearchProperties(_ context.Context, q domain.PropertyQuery) ([]domain.Property, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Property{}
	for _, p := range m.props {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b domain.Property) int { return a.CreatedAt.Compare(b.CreatedAt) })
	total := len(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, total, nil
}

func (m *memRepo) UpdateProperty(_ context.Context, p *domain.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.props[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.props[p.ID] = &cp
	return nil
}

func (m *memRepo) DeleteProperty(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.props[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.props, id)
	return nil
}

func (m *memRepo) ExistingPropertyIDs(_ context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, id := range ids {
		if _, ok := m.props[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memRepo) RelatedIDs(_ context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.related[id]), nil
}

func (m *memRepo) ReplaceRelated(_ context.Context, id string, related []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.related[id] = slices.Clone(related)
	return nil
}

func (m *memRepo) FindProperties(_ context.Context, ids []string) ([]domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Property
	for _, id := range ids {
		if p, ok := m.props[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// newTestServer wires the content and property services over memRepo with a
// synchronous translator. Children, fractions and media are not needed here.
func newTestServer(repo *memRepo) *Server {
	tr := app.NewTranslator(tagProvider{}, repo, app.TranslatorConfig{Concurrency: 2})
	s := New(Options{})
	s.MountHandlers(&Handlers{
		Content:    app.NewContentService(repo, tr, nil, 0),
		Properties: app.NewPropertyService(repo, nil, nil, app.NewUploader(nil), tr, nil, 0),
	})
	return s
}
