//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "douro_cms/internal/adapters/http_server"
	"douro_cms/internal/adapters/media"
	"douro_cms/internal/app"
	"douro_cms/internal/domain"
	mysqlrepo "douro_cms/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Skipf("%s not set; export it (e.g. MIGRATIONS_DIR=$PWD/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	mustEnv(t, "MIGRATIONS_DIR")

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=douro",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/douro?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

type suffixProvider struct{}

func (suffixProvider) Translate(_ context.Context, text string, _, target domain.Locale) (string, error) {
	return text + " (" + strings.ToUpper(string(target)) + ")", nil
}

// newStack wires the real repository, a temp media directory and a
// synchronous translator behind the public router.
func newStack(t *testing.T, db *sql.DB) (*httptest.Server, string) {
	t.Helper()
	repo := mysqlrepo.New(db)
	dir := t.TempDir()
	store, err := media.NewStore(media.Config{Dir: dir, BaseURL: "/media", MaxWidth: 64, MaxHeight: 64})
	require.NoError(t, err)
	up := app.NewUploader(store)
	tr := app.NewTranslator(suffixProvider{}, repo, app.TranslatorConfig{Concurrency: 4})
	props := app.NewPropertyService(repo, repo, repo, up, tr, nil, 0)

	items := map[domain.ItemKind]*httpserver.ItemCollection{}
	for _, k := range domain.ItemKinds() {
		items[k] = app.NewCollection[domain.Item, *domain.Item](string(k), repo.Items(k), tr, nil, 0)
	}
	srv := httpserver.New(httpserver.Options{Timeout: 30 * time.Second})
	srv.MountHandlers(&httpserver.Handlers{
		Content:      app.NewContentService(repo, tr, nil, 0),
		Items:        items,
		Testimonials: app.NewCollection[domain.Testimonial, *domain.Testimonial]("testimonials", repo.Testimonials(), tr, nil, 0),
		Team:         app.NewTeamService(repo.Team(), up, nil, 0),
		Newsletters:  app.NewNewsletterService(repo.Newsletters(), props, up, nil, 0),
		Properties:   props,
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, dir
}

func call(t *testing.T, method, url, contentType string, body []byte) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var out map[string]any
	if res.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(res.Body).Decode(&out)
	}
	return res.StatusCode, out
}

func callJSON(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	return call(t, method, url, "application/json", []byte(body))
}

func callList(t *testing.T, url string) []any {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out []any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// ---------- the tests ----------

func TestHTTP_EndToEnd_PropertyLifecycle(t *testing.T) {
	db := startMySQL(t)
	ts, mediaDir := newStack(t, db)

	// create with a cover upload through multipart
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"title":           "Moradia com vista rio",
		"description":     "Junto ao Douro",
		"transactionType": "comprar",
		"propertyType":    "moradia",
		"price":           "420000",
		"distrito":        "Porto",
		"concelho":        "Vila Nova de Gaia",
		"bedrooms":        "3",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", "cover.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBytes(t, 256, 128))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	status, created := call(t, http.MethodPost, ts.URL+"/v1/properties", mw.FormDataContentType(), body.Bytes())
	require.Equal(t, http.StatusCreated, status, created)
	id := created["id"].(string)
	cover := created["image"].(string)
	require.True(t, strings.HasPrefix(cover, "/media/"), cover)
	_, err = os.Stat(filepath.Join(mediaDir, strings.TrimPrefix(cover, "/media/")))
	require.NoError(t, err)

	// the synchronous pass has landed
	status, view := callJSON(t, http.MethodGet, ts.URL+"/v1/properties/"+id+"?lang=en", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Moradia com vista rio (EN)", view["title"])
	assert.Equal(t, "Junto ao Douro (EN)", view["description"])

	// source edits retranslate only the touched field
	status, _ = callJSON(t, http.MethodPatch, ts.URL+"/v1/properties/"+id, `{"title":"Moradia T3"}`)
	require.Equal(t, http.StatusOK, status)
	status, view = callJSON(t, http.MethodGet, ts.URL+"/v1/properties/"+id+"?lang=fr", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Moradia T3 (FR)", view["title"])

	// catalog filters use the public parameter names
	status, page := callJSON(t, http.MethodGet, ts.URL+"/v1/properties?distrito=Porto&minPrice=400000&lang=en", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, page["total"])
	status, page = callJSON(t, http.MethodGet, ts.URL+"/v1/properties?distrito=Braga", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, page["total"])

	// fractions are validated against the property's columns
	status, col := callJSON(t, http.MethodPost, ts.URL+"/v1/properties/"+id+"/fraction-columns",
		`{"columnKey":"vista","label":"Vista","dataType":"select","selectOptions":["rio","cidade"]}`)
	require.Equal(t, http.StatusCreated, status, col)

	status, bad := callJSON(t, http.MethodPost, ts.URL+"/v1/properties/"+id+"/fractions/bulk",
		`{"fractions":[{"unit":"A","customData":{"vista":"rio"}},{"unit":"B","customData":{"vista":"mar"}}]}`)
	require.Equal(t, http.StatusBadRequest, status, bad)
	assert.Empty(t, callList(t, ts.URL+"/v1/properties/"+id+"/fractions"))

	status, _ = callJSON(t, http.MethodPost, ts.URL+"/v1/properties/"+id+"/fractions/bulk",
		`{"fractions":[{"unit":"A","customData":{"vista":"rio"}},{"unit":"B","customData":{"vista":"cidade"}}]}`)
	require.Equal(t, http.StatusCreated, status)
	fractions := callList(t, ts.URL+"/v1/properties/"+id+"/fractions?lang=en")
	require.Len(t, fractions, 2)
	var units []any
	for _, f := range fractions {
		units = append(units, f.(map[string]any)["unit"])
	}
	assert.ElementsMatch(t, []any{"A (EN)", "B (EN)"}, units)

	// related properties must resolve
	status, other := callJSON(t, http.MethodPost, ts.URL+"/v1/properties",
		`{"title":"Apartamento T2","transactionType":"comprar","propertyType":"apartamento","price":380000,"distrito":"Porto"}`)
	require.Equal(t, http.StatusCreated, status)
	otherID := other["id"].(string)

	status, rel := callJSON(t, http.MethodPost, ts.URL+"/v1/properties/"+id+"/related", `{"ids":["`+otherID+`","missing"]}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []any{"missing"}, rel["missing"])
	status, rel = callJSON(t, http.MethodPost, ts.URL+"/v1/properties/"+id+"/related", `{"ids":["`+otherID+`"]}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{otherID}, rel["related_ids"])

	similar := callList(t, ts.URL+"/v1/properties/"+id+"/similar")
	require.Len(t, similar, 0, "different property type")

	// deleting the property removes its children and stored media
	status, _ = callJSON(t, http.MethodDelete, ts.URL+"/v1/properties/"+id, "")
	require.Equal(t, http.StatusNoContent, status)
	status, _ = callJSON(t, http.MethodGet, ts.URL+"/v1/properties/"+id, "")
	assert.Equal(t, http.StatusNotFound, status)
	_, err = os.Stat(filepath.Join(mediaDir, strings.TrimPrefix(cover, "/media/")))
	assert.True(t, os.IsNotExist(err))
}

func TestHTTP_EndToEnd_PagesAndCollections(t *testing.T) {
	db := startMySQL(t)
	ts, _ := newStack(t, db)

	status, view := callJSON(t, http.MethodGet, ts.URL+"/v1/pages/about?lang=fr", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Sobre Nós (FR)", view["page_title"])

	status, _ = callJSON(t, http.MethodPatch, ts.URL+"/v1/pages/about", `{"pageTitle":"Quem somos","youtubeLink1":"https://youtu.be/xyz"}`)
	require.Equal(t, http.StatusOK, status)
	status, view = callJSON(t, http.MethodGet, ts.URL+"/v1/pages/about?lang=en", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Quem somos (EN)", view["page_title"])
	assert.Equal(t, "https://youtu.be/xyz", view["youtube_link_1"])
	assert.Equal(t, "Especialistas em Imóveis de Luxo em Portugal (EN)", view["page_subtitle"])

	status, item := callJSON(t, http.MethodPost, ts.URL+"/v1/culture-items", `{"title":"Confiança","description":"Sempre","order":2}`)
	require.Equal(t, http.StatusCreated, status, item)
	items := callList(t, ts.URL+"/v1/culture-items?lang=en")
	require.Len(t, items, 1)
	assert.Equal(t, "Confiança (EN)", items[0].(map[string]any)["title"])
}
