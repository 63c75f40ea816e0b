package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"douro_cms/internal/app"
	"douro_cms/internal/domain"
)

type propertyFixture struct {
	db    *memDB
	media *memMedia
	cache *memCache
	svc   *app.PropertyService
}

func newPropertyFixture(p domain.TranslationProvider) propertyFixture {
	db, media, cache := newMemDB(), newMemMedia(), newMemCache()
	tr := app.NewTranslator(p, db, app.TranslatorConfig{})
	svc := app.NewPropertyService(db, db, db, app.NewUploader(media), tr, cache, time.Minute)
	return propertyFixture{db: db, media: media, cache: cache, svc: svc}
}

func newListing(title string) *domain.Property {
	return &domain.Property{
		Title:           domain.Source(title),
		TransactionType: domain.TxBuy,
		PropertyType:    "apartamento",
		Price:           200000,
		District:        "Porto",
	}
}

func (f propertyFixture) seed(t *testing.T, title string, mut func(*domain.Property)) *domain.Property {
	t.Helper()
	p := newListing(title)
	if mut != nil {
		mut(p)
	}
	out, err := f.svc.Create(context.Background(), p, nil, nil)
	require.NoError(t, err)
	return out
}

func img(name string) app.Upload {
	return app.Upload{Data: []byte("jpeg"), MimeType: "image/jpeg", Name: name}
}

func TestPropertyCreate_DefaultsUploadsAndTranslation(t *testing.T) {
	f := newPropertyFixture(tagProvider)
	cover := img("cover.jpg")

	p, err := f.svc.Create(context.Background(), newListing("Moradia T3"), &cover, []app.Upload{img("a.jpg"), img("b.jpg")})
	require.NoError(t, err)

	assert.Equal(t, "PT", p.Country)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.Equal(t, "mem://001-cover.jpg", p.Image)
	assert.Equal(t, []string{"mem://002-a.jpg", "mem://003-b.jpg"}, p.Images)

	stored, err := f.svc.Find(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Moradia T3 [en]", stored.Title.EN)
}

func TestPropertyCreate_UploadFailureWritesNothing(t *testing.T) {
	f := newPropertyFixture(tagProvider)
	f.media.failAfter = 2

	_, err := f.svc.Create(context.Background(), newListing("X"), nil, []app.Upload{img("a.jpg"), img("b.jpg")})
	var me *domain.MediaError
	require.ErrorAs(t, err, &me)
	assert.Empty(t, f.db.props)
	assert.Equal(t, []string{"001-a.jpg"}, f.media.Deleted(), "partial uploads are discarded")
}

func TestPropertyCreate_InvalidInput(t *testing.T) {
	f := newPropertyFixture(tagProvider)
	p := newListing("X")
	p.Bedrooms = -1
	_, err := f.svc.Create(context.Background(), p, nil, nil)
	assert.True(t, domain.IsValidation(err))

	p = newListing("Y")
	p.RelatedIDs = []string{"ghost-1", "ghost-2"}
	_, err = f.svc.Create(context.Background(), p, nil, nil)
	var re *domain.RelationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"ghost-1", "ghost-2"}, re.Missing)
}

func TestPropertyUpdate_UploadFirstThenCleanup(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(tagProvider)
	cover := img("old-cover.jpg")
	p, err := f.svc.Create(ctx, newListing("Casa"), &cover, []app.Upload{img("keep.jpg"), img("drop.jpg")})
	require.NoError(t, err)

	newCover := img("new-cover.jpg")
	keep := []string{"mem://002-keep.jpg"}
	out, err := f.svc.Update(ctx, p.ID, domain.PropertyPatch{Images: &keep, Price: ptr(250000.0)}, &newCover, []app.Upload{img("extra.jpg")})
	require.NoError(t, err)

	assert.Equal(t, "mem://004-new-cover.jpg", out.Image)
	assert.Equal(t, []string{"mem://002-keep.jpg", "mem://005-extra.jpg"}, out.Images)
	assert.Equal(t, 250000.0, out.Price)
	assert.ElementsMatch(t, []string{"001-old-cover.jpg", "003-drop.jpg"}, f.media.Deleted())
}

func TestPropertyUpdate_UploadFailureAbortsWrite(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(tagProvider)
	p := f.seed(t, "Casa", nil)
	f.media.storeErr = errors.New("down")

	cover := img("c.jpg")
	_, err := f.svc.Update(ctx, p.ID, domain.PropertyPatch{Title: ptr("Casa Nova")}, &cover, nil)
	var me *domain.MediaError
	require.ErrorAs(t, err, &me)

	stored, err := f.svc.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Casa", stored.Title.PT)
}

func TestPropertyUpdate_RetranslatesTouchedAndEvictsViews(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(tagProvider)
	p := f.seed(t, "Casa", func(p *domain.Property) { p.Description = domain.Source("Desc") })

	_, err := f.svc.View(ctx, p.ID, domain.LocaleEN)
	require.NoError(t, err)
	require.True(t, f.cache.Has("prop:"+p.ID+":en"))
	n := len(f.db.Saves())

	_, err = f.svc.Update(ctx, p.ID, domain.PropertyPatch{Title: ptr("Casa Nova"), Bedrooms: ptr(3)}, nil, nil)
	require.NoError(t, err)

	saves := f.db.Saves()[n:]
	require.Len(t, saves, 1)
	assert.Equal(t, []string{"title"}, keys(saves[0].Fields))
	assert.False(t, f.cache.Has("prop:"+p.ID+":en"))

	v, err := f.svc.View(ctx, p.ID, domain.LocaleEN)
	require.NoError(t, err)
	assert.Equal(t, "Casa Nova [en]", v.Title)
	assert.Equal(t, "Desc [en]", v.Description)
}

func TestPropertyDelete_CleansMedia(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(tagProvider)
	cover := img("c.jpg")
	p, err := f.svc.Create(ctx, newListing("Casa"), &cover, nil)
	require.NoError(t, err)
	_, err = f.svc.UploadFile(ctx, p.ID, domain.PropertyFilePatch{Title: ptr("Planta")}, app.Upload{Data: []byte("%PDF"), MimeType: "application/pdf", Name: "planta.pdf"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	assert.ElementsMatch(t, []string{"001-c.jpg", "002-planta.pdf"}, f.media.Deleted())
	_, err = f.svc.Find(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFeaturedAndToggle(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(disabledProvider)
	var ids []string
	for i := 0; i < 5; i++ {
		p := f.seed(t, fmt.Sprintf("P%d", i), nil)
		ids = append(ids, p.ID)
		f.db.props[p.ID].CreatedAt = time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)
	}
	for _, id := range ids {
		_, err := f.svc.ToggleFeatured(ctx, id)
		require.NoError(t, err)
	}
	off, err := f.svc.ToggleFeatured(ctx, ids[4])
	require.NoError(t, err)
	assert.False(t, off.IsFeatured)

	got, err := f.svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{ids[3], ids[2], ids[1]}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestSimilarProperties(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(disabledProvider)
	ref := f.seed(t, "Ref", nil)
	near := f.seed(t, "Near", func(p *domain.Property) { p.Price = 230000 })
	f.seed(t, "Far", func(p *domain.Property) { p.Price = 400000 })
	f.seed(t, "Lisboa", func(p *domain.Property) { p.District = "Lisboa" })
	f.seed(t, "Rent", func(p *domain.Property) { p.TransactionType = domain.TxRent })
	f.seed(t, "Sold", func(p *domain.Property) { p.Status = domain.StatusSold })

	got, err := f.svc.Similar(ctx, ref.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)
}

func TestListPagination(t *testing.T) {
	f := newPropertyFixture(disabledProvider)
	for i := 0; i < 23; i++ {
		f.seed(t, fmt.Sprintf("P%02d", i), nil)
	}
	page, err := f.svc.List(context.Background(), domain.PropertyQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 23, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 3)

	page, err = f.svc.List(context.Background(), domain.PropertyQuery{Page: 9, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestImageSections(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(disabledProvider)
	p := f.seed(t, "Casa", nil)

	sec, err := f.svc.CreateImageSection(ctx, p.ID, &domain.ImageSection{Name: "Cozinha"}, []app.Upload{img("a.jpg"), img("b.jpg")})
	require.NoError(t, err)
	assert.Equal(t, []string{"mem://001-a.jpg", "mem://002-b.jpg"}, sec.Images)

	keep := []string{"mem://002-b.jpg"}
	sec, err = f.svc.UpdateImageSection(ctx, sec.ID, domain.ImageSectionPatch{Images: &keep}, []app.Upload{img("c.jpg")})
	require.NoError(t, err)
	assert.Equal(t, []string{"mem://002-b.jpg", "mem://003-c.jpg"}, sec.Images)
	assert.Equal(t, []string{"001-a.jpg"}, f.media.Deleted())

	_, err = f.svc.CreateImageSection(ctx, p.ID, &domain.ImageSection{Name: " "}, nil)
	assert.True(t, domain.IsValidation(err))
	_, err = f.svc.CreateImageSection(ctx, "nope", &domain.ImageSection{Name: "x"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHiddenFilesStayOutOfPublicView(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(disabledProvider)
	p := f.seed(t, "Casa", nil)
	doc := app.Upload{Data: []byte("%PDF"), MimeType: "application/pdf", Name: "cert.pdf"}

	shown, err := f.svc.UploadFile(ctx, p.ID, domain.PropertyFilePatch{}, doc)
	require.NoError(t, err)
	hidden, err := f.svc.UploadFile(ctx, p.ID, domain.PropertyFilePatch{Visible: ptr(false)}, doc)
	require.NoError(t, err)
	assert.Equal(t, int64(4), hidden.Size)
	assert.Equal(t, "cert.pdf", hidden.OriginalName)

	v, err := f.svc.View(ctx, p.ID, domain.LocalePT)
	require.NoError(t, err)
	require.Len(t, v.Files, 1)
	assert.Equal(t, shown.ID, v.Files[0].ID)

	all, err := f.svc.Files(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
