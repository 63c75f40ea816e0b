package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"douro_cms/internal/catalog"
	"douro_cms/internal/domain"
)

// BackfillSource loads every stored entity of one kind.
type BackfillSource func(ctx context.Context) ([]domain.Translatable, error)

// BackfillService re-runs translation over stored content. It is the
// operator's way to re-attempt translations that failed earlier.
type BackfillService struct {
	tr      *Translator
	sources map[string]BackfillSource
}

func NewBackfillService(tr *Translator, sources map[string]BackfillSource) *BackfillService {
	return &BackfillService{tr: tr, sources: sources}
}

type BackfillOptions struct {
	Workers int
	// OnlyMissing limits each pass to fields with an empty derived value.
	OnlyMissing bool
}

type BackfillSummary struct {
	Entities int
	Skipped  int
	Saved    int
	Failed   int
}

// Kinds lists the registered source names, sorted.
func (s *BackfillService) Kinds() []string {
	out := make([]string, 0, len(s.sources))
	for k := range s.sources {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Run translates every entity of kind, at most opts.Workers at a time.
// Per-entity failures are counted and logged, never returned.
func (s *BackfillService) Run(ctx context.Context, kind string, opts BackfillOptions) (BackfillSummary, error) {
	src, ok := s.sources[kind]
	if !ok {
		return BackfillSummary{}, fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(s.Kinds(), ", "))
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	entities, err := src(ctx)
	if err != nil {
		return BackfillSummary{}, fmt.Errorf("load %s: %w", kind, err)
	}

	var (
		sum                  BackfillSummary
		skipped, saved, fail atomic.Int64
		wg                   sync.WaitGroup
	)
	sem := semaphore.NewWeighted(int64(opts.Workers))
	for _, e := range entities {
		fields := domain.FieldNames(e)
		if opts.OnlyMissing {
			fields = missingFields(e)
		}
		if len(fields) == 0 {
			skipped.Add(1)
			continue
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		sum.Entities++
		wg.Add(1)
		go func(e domain.Translatable, fields []string) {
			defer wg.Done()
			defer sem.Release(1)

			rep := s.tr.Translate(ctx, e, fields)
			saved.Add(int64(len(rep.Saved)))
			failed := 0
			for _, st := range rep.Fields {
				if st == FieldPartial || st == FieldFailed {
					failed++
				}
			}
			fail.Add(int64(failed))
			ev := log.Info()
			if rep.SaveErr != nil || failed > 0 {
				ev = log.Warn().Err(rep.SaveErr).Int("failed_fields", failed)
			}
			ev.Str("entity", rep.Target.Entity).Str("id", rep.Target.ID).
				Strs("saved", rep.Saved).Msg("backfill pass")
		}(e, fields)
	}
	wg.Wait()

	sum.Skipped, sum.Saved, sum.Failed = int(skipped.Load()), int(saved.Load()), int(fail.Load())
	return sum, ctx.Err()
}

// missingFields lists the fields with a source value but a missing derived one.
func missingFields(e domain.Translatable) []string {
	var out []string
	for _, f := range e.TextFields() {
		if f.Text.PT == "" {
			continue
		}
		for _, l := range domain.TargetLocales {
			if f.Text.Derived(l) == "" {
				out = append(out, f.Name)
				break
			}
		}
	}
	return out
}

// PageSource yields every content page that exists.
func PageSource(repo domain.PageRepository) BackfillSource {
	return func(ctx context.Context) ([]domain.Translatable, error) {
		var out []domain.Translatable
		for _, k := range domain.PageKinds() {
			p, err := repo.FindPage(ctx, k)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	}
}

// CollectionSource yields every element of a translatable collection.
func CollectionSource[E any, P interface {
	*E
	domain.Translatable
}](store domain.CollectionStore[E]) BackfillSource {
	return func(ctx context.Context) ([]domain.Translatable, error) {
		all, err := store.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Translatable, 0, len(all))
		for i := range all {
			out = append(out, P(&all[i]))
		}
		return out, nil
	}
}

// PropertySource pages through the whole catalog.
func PropertySource(repo domain.PropertyRepository) BackfillSource {
	return func(ctx context.Context) ([]domain.Translatable, error) {
		var out []domain.Translatable
		err := eachProperty(ctx, repo, func(p *domain.Property) error {
			out = append(out, p)
			return nil
		})
		return out, err
	}
}

// FractionColumnSource yields the fraction columns of every property.
func FractionColumnSource(repo domain.PropertyRepository, fractions domain.FractionRepository) BackfillSource {
	return func(ctx context.Context) ([]domain.Translatable, error) {
		var out []domain.Translatable
		err := eachProperty(ctx, repo, func(p *domain.Property) error {
			cols, err := fractions.ListFractionColumns(ctx, p.ID)
			for i := range cols {
				out = append(out, &cols[i])
			}
			return err
		})
		return out, err
	}
}

// FractionSource yields the fractions of every property.
func FractionSource(repo domain.PropertyRepository, fractions domain.FractionRepository) BackfillSource {
	return func(ctx context.Context) ([]domain.Translatable, error) {
		var out []domain.Translatable
		err := eachProperty(ctx, repo, func(p *domain.Property) error {
			fs, err := fractions.ListFractions(ctx, p.ID)
			for i := range fs {
				out = append(out, &fs[i])
			}
			return err
		})
		return out, err
	}
}

func eachProperty(ctx context.Context, repo domain.PropertyRepository, fn func(*domain.Property) error) error {
	for page := 1; ; page++ {
		items, total, err := repo.SearchProperties(ctx, domain.PropertyQuery{
			Sort:  domain.Sort{Field: "created_at"},
			Page:  page,
			Limit: catalog.MaxLimit,
		})
		if err != nil {
			return err
		}
		for i := range items {
			if err := fn(&items[i]); err != nil {
				return err
			}
		}
		if page >= catalog.TotalPages(total, catalog.MaxLimit) {
			return nil
		}
	}
}
