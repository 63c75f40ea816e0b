package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"douro_cms/internal/domain"
)

func TestAddRelated_RejectsSelfAndLeavesSetUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(disabledProvider)
	a := f.seed(t, "A", nil)
	b := f.seed(t, "B", nil)
	_, err := f.svc.AddRelated(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)

	_, err = f.svc.AddRelated(ctx, a.ID, []string{a.ID})
	require.Error(t, err)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	ids, err := f.db.RelatedIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids)
}

func TestAddRelated_ReportsAllUnknownIDs(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(disabledProvider)
	a := f.seed(t, "A", nil)
	b := f.seed(t, "B", nil)

	_, err := f.svc.AddRelated(ctx, a.ID, []string{"x1", b.ID, "x2"})
	var re *domain.RelationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"x1", "x2"}, re.Missing)
	assert.True(t, domain.IsValidation(err))

	ids, _ := f.db.RelatedIDs(ctx, a.ID)
	assert.Empty(t, ids, "nothing is written when any id is unknown")
}

func TestAddRelated_UnionsAndDedupes(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(disabledProvider)
	a := f.seed(t, "A", nil)
	b := f.seed(t, "B", nil)
	c := f.seed(t, "C", nil)

	_, err := f.svc.AddRelated(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)
	got, err := f.svc.AddRelated(ctx, a.ID, []string{c.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID}, got)

	// the relation is directed
	back, err := f.db.RelatedIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, back)

	related, err := f.svc.Related(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, b.ID, related[0].ID)
}

func TestRemoveRelated_IgnoresUnknown(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(disabledProvider)
	a := f.seed(t, "A", nil)
	b := f.seed(t, "B", nil)
	c := f.seed(t, "C", nil)
	_, err := f.svc.SetRelated(ctx, a.ID, []string{b.ID, c.ID})
	require.NoError(t, err)

	got, err := f.svc.RemoveRelated(ctx, a.ID, []string{b.ID, "never-related"})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, got)
}

func TestSetRelated_ReplacesAndClears(t *testing.T) {
	ctx := context.Background()
	f := newPropertyFixture(disabledProvider)
	a := f.seed(t, "A", nil)
	b := f.seed(t, "B", nil)
	c := f.seed(t, "C", nil)

	_, err := f.svc.SetRelated(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)
	got, err := f.svc.SetRelated(ctx, a.ID, []string{c.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, got)

	got, err = f.svc.SetRelated(ctx, a.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.svc.SetRelated(ctx, a.ID, []string{a.ID, "ghost"})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve, "self-reference is reported before resolution")

	_, err = f.svc.SetRelated(ctx, "missing", []string{b.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
