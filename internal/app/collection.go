package app

import (
	"context"
	"time"

	"douro_cms/internal/domain"
)

// Record is what a Collection needs from its element pointer type.
type Record[E any] interface {
	*E
	Validate() error
	Stamp(id string, now time.Time)
}

// Collection is the ordered, explicitly created list behind items and
// testimonials. Elements that implement domain.Translatable are translated on
// create (every field) and on update (touched fields only).
type Collection[E any, P Record[E]] struct {
	name  string
	store domain.CollectionStore[E]
	tr    *Translator
	cache viewCache
}

func NewCollection[E any, P Record[E]](name string, store domain.CollectionStore[E], tr *Translator, c domain.Cache, ttl time.Duration) *Collection[E, P] {
	return &Collection[E, P]{name: name, store: store, tr: tr, cache: newViewCache(c, ttl)}
}

func (c *Collection[E, P]) Create(ctx context.Context, v P) (P, error) {
	v.Stamp(newID(), now())
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if err := c.store.Create(ctx, (*E)(v)); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	if t, ok := any(v).(domain.Translatable); ok {
		c.translate(ctx, *v, domain.FieldNames(t))
	}
	return v, nil
}

func (c *Collection[E, P]) Find(ctx context.Context, id string) (P, error) {
	v, err := c.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return P(v), nil
}

func (c *Collection[E, P]) List(ctx context.Context) ([]E, error) {
	return c.store.List(ctx)
}

// Update loads the element, lets mutate change it and persists the result.
// mutate returns the text fields whose source value it changed.
func (c *Collection[E, P]) Update(ctx context.Context, id string, mutate func(P) []string) (P, error) {
	found, err := c.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	v := P(found)
	touched := mutate(v)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	v.Stamp(id, now())
	if err := c.store.Update(ctx, (*E)(v)); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	if len(touched) > 0 {
		c.translate(ctx, *v, touched)
	}
	return v, nil
}

func (c *Collection[E, P]) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// translate dispatches a pass over a copy so the caller keeps its value.
func (c *Collection[E, P]) translate(ctx context.Context, v E, fields []string) {
	if c.tr == nil {
		return
	}
	t, ok := any(P(&v)).(domain.Translatable)
	if !ok {
		return
	}
	c.tr.Dispatch(ctx, t, fields, func(r Report) {
		if len(r.Saved) > 0 {
			c.invalidate(context.Background())
		}
	})
}

func (c *Collection[E, P]) invalidate(ctx context.Context) {
	c.cache.drop(ctx, "coll:%s:%s", c.name)
}

// ListByLocale returns the projected list of c, served from the view cache.
func ListByLocale[E any, P Record[E], V any](ctx context.Context, c *Collection[E, P], l domain.Locale, project func(P, domain.Locale) V) ([]V, error) {
	key := "coll:" + c.name + ":" + string(l)
	return cached(ctx, c.cache, key, func() ([]V, error) {
		all, err := c.store.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]V, 0, len(all))
		for i := range all {
			out = append(out, project(P(&all[i]), l))
		}
		return out, nil
	})
}
