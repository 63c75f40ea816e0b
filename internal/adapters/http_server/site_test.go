package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"douro_cms/internal/app"
	"douro_cms/internal/domain"
)

type siteRepo struct {
	mu   sync.Mutex
	site *domain.SiteConfig
}

func (r *siteRepo) FindSiteConfig(context.Context) (*domain.SiteConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.site == nil {
		return nil, domain.ErrNotFound
	}
	cp := *r.site
	return &cp, nil
}

func (r *siteRepo) CreateSiteConfig(_ context.Context, c *domain.SiteConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.site = &cp
	return nil
}

func (r *siteRepo) UpdateSiteConfig(_ context.Context, c *domain.SiteConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.site = &cp
	return nil
}

type zoneStore struct {
	mu   sync.Mutex
	rows map[string]domain.DesiredZone
}

func (s *zoneStore) Create(_ context.Context, z *domain.DesiredZone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[z.ID] = *z
	return nil
}

func (s *zoneStore) Find(_ context.Context, id string) (*domain.DesiredZone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &z, nil
}

func (s *zoneStore) List(context.Context) ([]domain.DesiredZone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DesiredZone, 0, len(s.rows))
	for _, z := range s.rows {
		out = append(out, z)
	}
	slices.SortFunc(out, func(a, b domain.DesiredZone) int { return a.Order - b.Order })
	return out, nil
}

func (s *zoneStore) Update(_ context.Context, z *domain.DesiredZone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[z.ID]; !ok {
		return domain.ErrNotFound
	}
	s.rows[z.ID] = *z
	return nil
}

func (s *zoneStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// urlMedia hands out sequential mem:// URLs and records deletions.
type urlMedia struct {
	mu      sync.Mutex
	n       int
	deleted []string
}

func (m *urlMedia) Store(_ context.Context, _ []byte, _, name string) (domain.StoredMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return domain.StoredMedia{URL: fmt.Sprintf("mem://%03d-%s", m.n, name)}, nil
}

func (m *urlMedia) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *urlMedia) Ref(url string) (string, bool) {
	return strings.CutPrefix(url, "mem://")
}

func newSiteServer() (*Server, *urlMedia) {
	media := &urlMedia{}
	up := app.NewUploader(media)
	s := New(Options{})
	s.MountHandlers(&Handlers{
		SiteConfig: app.NewSiteConfigService(&siteRepo{}, up, nil, 0),
		Zones:      app.NewZoneService(&zoneStore{rows: map[string]domain.DesiredZone{}}, up, nil, 0),
	})
	return s, media
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	return rec
}

func TestSiteConfig_GetCreatesZeroedRow(t *testing.T) {
	s, _ := newSiteServer()

	rec := do(t, s, http.MethodGet, "/v1/site-config", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.EqualValues(t, 0, body["satisfied_clients"])
	assert.EqualValues(t, 0, body["rating"])
}

func TestSiteConfig_PatchAcceptsPublicNames(t *testing.T) {
	s, _ := newSiteServer()

	rec := do(t, s, http.MethodPatch, "/v1/site-config",
		`{"clientesSatisfeitos":"120","rating":"4,8","anosExperiencia":15,"seguidoresInstagram":9000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, do(t, s, http.MethodGet, "/v1/site-config", ""))
	assert.EqualValues(t, 120, body["satisfied_clients"])
	assert.InDelta(t, 4.8, body["rating"], 1e-9)
	assert.EqualValues(t, 15, body["years_of_experience"])
	assert.EqualValues(t, 9000, body["instagram_followers"])
	assert.EqualValues(t, 0, body["seasons"])
}

func TestSiteConfig_PatchRejectsOutOfRange(t *testing.T) {
	s, _ := newSiteServer()

	rec := do(t, s, http.MethodPatch, "/v1/site-config", `{"rating":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPatch, "/v1/site-config", `{"seasons":"1.5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSiteConfig_PatchReplacesImages(t *testing.T) {
	s, media := newSiteServer()

	req := uploadRequest(t, http.MethodPatch, "/v1/site-config", nil,
		map[string][]byte{"apresentadoraImage": []byte("jpeg")}, "image/jpeg")
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first, _ := decodeBody(t, rec)["presenter_image"].(string)
	require.True(t, strings.HasPrefix(first, "mem://"))

	req = uploadRequest(t, http.MethodPatch, "/v1/site-config", nil,
		map[string][]byte{"presenter_image": []byte("jpeg")}, "image/jpeg")
	rec = serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, first, decodeBody(t, rec)["presenter_image"])
	assert.Contains(t, media.deleted, strings.TrimPrefix(first, "mem://"))
}

func TestSiteConfig_PatchRefusesVideo(t *testing.T) {
	s, _ := newSiteServer()

	req := uploadRequest(t, http.MethodPatch, "/v1/site-config", nil,
		map[string][]byte{"podcast_image": []byte("mp4")}, "video/mp4")
	assert.Equal(t, http.StatusBadRequest, serve(s, req).Code)
}

func TestZones_CreateRequiresImage(t *testing.T) {
	s, _ := newSiteServer()

	rec := do(t, s, http.MethodPost, "/v1/desired-zones", `{"name":"Porto"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestZones_CreateAndListActive(t *testing.T) {
	s, _ := newSiteServer()

	create := func(fields map[string]string) string {
		req := uploadRequest(t, http.MethodPost, "/v1/desired-zones", fields,
			map[string][]byte{"image": []byte("jpeg")}, "image/jpeg")
		rec := serve(s, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		id, _ := decodeBody(t, rec)["id"].(string)
		return id
	}
	porto := create(map[string]string{"name": "Porto", "displayOrder": "1"})
	create(map[string]string{"name": "Madrid", "country": "es", "displayOrder": "2"})
	create(map[string]string{"name": "Braga", "isActive": "false", "displayOrder": "3"})

	rec := do(t, s, http.MethodGet, "/v1/desired-zones/"+porto, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "PT", body["country"])
	assert.Equal(t, true, body["is_active"])

	var names []string
	rec = do(t, s, http.MethodGet, "/v1/desired-zones/active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, z := range decodeList(t, rec) {
		names = append(names, z["name"].(string))
	}
	assert.Equal(t, []string{"Porto", "Madrid"}, names)

	rec = do(t, s, http.MethodGet, "/v1/desired-zones/active?country=es", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeList(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Madrid", list[0]["name"])

	rec = do(t, s, http.MethodDelete, "/v1/desired-zones/"+porto, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/v1/desired-zones/"+porto, "").Code)
}
