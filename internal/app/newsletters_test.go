package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"douro_cms/internal/app"
	"douro_cms/internal/domain"
)

type newsletterFixture struct {
	props propertyFixture
	store *memStore[domain.Newsletter]
	media *memMedia
	svc   *app.NewsletterService
}

func newNewsletterFixture() newsletterFixture {
	props := newPropertyFixture(tagProvider)
	store, media := newMemStore[domain.Newsletter](), newMemMedia()
	svc := app.NewNewsletterService(store, props.svc, app.NewUploader(media), newMemCache(), time.Minute)
	return newsletterFixture{props: props, store: store, media: media, svc: svc}
}

func article(content string, ids ...string) *domain.Newsletter {
	return &domain.Newsletter{Title: "Mercado no Porto", Content: content, Category: "mercado", PropertyIDs: ids}
}

func TestNewsletter_CreateComputesReadingTimeAndDedupesLinks(t *testing.T) {
	f := newNewsletterFixture()
	p := f.props.seed(t, "Moradia", nil)
	cover := img("capa.jpg")

	n, err := f.svc.Create(context.Background(), article("<p>"+strings.Repeat("palavra ", 450)+"</p>", p.ID, p.ID), &cover)
	require.NoError(t, err)
	assert.Equal(t, 3, n.ReadingTime)
	assert.Equal(t, []string{p.ID}, n.PropertyIDs)
	assert.Equal(t, "mem://001-capa.jpg", n.CoverImage)
}

func TestNewsletter_UnknownPropertiesReportedTogether(t *testing.T) {
	ctx := context.Background()
	f := newNewsletterFixture()
	p := f.props.seed(t, "Moradia", nil)
	cover := img("capa.jpg")

	_, err := f.svc.Create(ctx, article("texto", "ghost-1", p.ID, "ghost-2"), &cover)
	var rerr *domain.RelationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{"ghost-1", "ghost-2"}, rerr.Missing)
	assert.Empty(t, f.media.stored, "nothing uploaded for a rejected article")

	n, err := f.svc.Create(ctx, article("texto", p.ID), nil)
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, n.ID, domain.NewsletterPatch{PropertyIDs: &[]string{"ghost-3", "ghost-4"}}, nil)
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{"ghost-3", "ghost-4"}, rerr.Missing)
}

func TestNewsletter_ContentPatchRecomputesReadingTime(t *testing.T) {
	ctx := context.Background()
	f := newNewsletterFixture()
	n, err := f.svc.Create(ctx, article("curto"), nil)
	require.NoError(t, err)
	require.Equal(t, 1, n.ReadingTime)

	out, err := f.svc.Update(ctx, n.ID, domain.NewsletterPatch{Content: ptr(strings.Repeat("a ", 1001))}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, out.ReadingTime)

	out, err = f.svc.Update(ctx, n.ID, domain.NewsletterPatch{Title: ptr("Novo título")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, out.ReadingTime, "other fields leave it alone")
}

func TestNewsletter_CoverSwapOnlyAfterSuccessfulWrite(t *testing.T) {
	ctx := context.Background()
	f := newNewsletterFixture()
	first := img("a.jpg")
	n, err := f.svc.Create(ctx, article("texto"), &first)
	require.NoError(t, err)

	f.store.writeErr = errors.New("db down")
	second := img("b.jpg")
	_, err = f.svc.Update(ctx, n.ID, domain.NewsletterPatch{}, &second)
	require.Error(t, err)
	assert.Equal(t, []string{"002-b.jpg"}, f.media.Deleted())

	f.store.writeErr = nil
	third := img("c.jpg")
	out, err := f.svc.Update(ctx, n.ID, domain.NewsletterPatch{}, &third)
	require.NoError(t, err)
	assert.Equal(t, "mem://003-c.jpg", out.CoverImage)
	assert.Equal(t, []string{"002-b.jpg", "001-a.jpg"}, f.media.Deleted())
}

func TestNewsletter_CreateWriteFailureDropsCover(t *testing.T) {
	f := newNewsletterFixture()
	f.store.writeErr = errors.New("db down")
	cover := img("a.jpg")

	_, err := f.svc.Create(context.Background(), article("texto"), &cover)
	require.Error(t, err)
	assert.Equal(t, []string{"001-a.jpg"}, f.media.Deleted())
}
