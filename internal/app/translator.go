package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"douro_cms/internal/domain"
)

type FieldState string

const (
	FieldSkipped FieldState = "skipped" // empty source, no call made
	FieldFull    FieldState = "full"    // every target language succeeded
	FieldPartial FieldState = "partial" // at least one target language failed
	FieldFailed  FieldState = "failed"  // every target language failed
)

// Report is the outcome of one translation pass over an entity.
type Report struct {
	Target domain.TranslationTarget
	Fields map[string]FieldState
	Failed map[string][]domain.Locale
	Saved  []string
	// SaveErr is set when the single combined write failed.
	SaveErr error
}

func (r Report) State(field string) FieldState { return r.Fields[field] }

type TranslatorConfig struct {
	// Concurrency bounds in-flight provider calls across all passes.
	Concurrency int
	// Async detaches Dispatch from the triggering request.
	Async bool
}

// Translator fans source values out to the provider, one call per field and
// target language, and writes whatever succeeded back in a single store call.
type Translator struct {
	provider domain.TranslationProvider
	store    domain.TranslationStore
	sem      *semaphore.Weighted
	async    bool
	inflight sync.WaitGroup
}

func NewTranslator(p domain.TranslationProvider, s domain.TranslationStore, cfg TranslatorConfig) *Translator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Translator{
		provider: p,
		store:    s,
		sem:      semaphore.NewWeighted(int64(cfg.Concurrency)),
		async:    cfg.Async,
	}
}

type call struct {
	field string
	text  *domain.Text
	lang  domain.Locale
	src   string
	out   string
	err   error
}

// Translate runs one pass synchronously. Provider failures are logged and
// leave the previous derived value in place; they never surface as errors.
func (t *Translator) Translate(ctx context.Context, e domain.Translatable, fields []string) Report {
	target := e.Target()
	rep := Report{Target: target, Fields: map[string]FieldState{}, Failed: map[string][]domain.Locale{}}

	refs := map[string]*domain.Text{}
	for _, f := range e.TextFields() {
		refs[f.Name] = f.Text
	}

	var calls []*call
	for _, name := range fields {
		if _, done := rep.Fields[name]; done {
			continue
		}
		txt, ok := refs[name]
		if !ok {
			log.Warn().Str("entity", target.Entity).Str("field", name).Msg("translate: unknown field")
			continue
		}
		src := strings.TrimSpace(txt.PT)
		if src == "" {
			rep.Fields[name] = FieldSkipped
			continue
		}
		rep.Fields[name] = FieldFull
		for _, lang := range domain.TargetLocales {
			calls = append(calls, &call{field: name, text: txt, lang: lang, src: txt.PT})
		}
	}
	if len(calls) == 0 {
		return rep
	}

	var wg sync.WaitGroup
	for _, c := range calls {
		wg.Add(1)
		go func(c *call) {
			defer wg.Done()
			if err := t.sem.Acquire(ctx, 1); err != nil {
				c.err = err
				return
			}
			defer t.sem.Release(1)
			c.out, c.err = t.provider.Translate(ctx, c.src, domain.SourceLocale, c.lang)
			if c.err == nil && strings.TrimSpace(c.out) == "" {
				c.err = errors.New("empty translation")
			}
		}(c)
	}
	wg.Wait()

	// Results are applied only after every call settled.
	disabled := false
	changed := map[string]bool{}
	for _, c := range calls {
		if c.err != nil {
			rep.Fields[c.field] = FieldPartial
			rep.Failed[c.field] = append(rep.Failed[c.field], c.lang)
			if errors.Is(c.err, domain.ErrTranslationDisabled) {
				disabled = true
				continue
			}
			log.Warn().Err(c.err).
				Str("entity", target.Entity).Str("id", target.ID).
				Str("field", c.field).Str("lang", string(c.lang)).
				Msg("translation failed")
			continue
		}
		c.text.Set(c.lang, c.out)
		changed[c.field] = true
	}
	if disabled {
		log.Debug().Str("entity", target.Entity).Str("id", target.ID).Msg("translation disabled, keeping source only")
	}

	var refsOut []domain.FieldRef
	seen := map[string]bool{}
	for _, name := range fields {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !changed[name] {
			if rep.Fields[name] == FieldPartial {
				rep.Fields[name] = FieldFailed
			}
			continue
		}
		refsOut = append(refsOut, domain.FieldRef{Name: name, Text: refs[name]})
		rep.Saved = append(rep.Saved, name)
	}
	if len(refsOut) == 0 {
		return rep
	}
	if err := t.store.SaveTranslations(ctx, target, refsOut); err != nil {
		rep.SaveErr = err
		log.Error().Err(err).Str("entity", target.Entity).Str("id", target.ID).Msg("save translations failed")
	}
	return rep
}

// Task is a translation pass whose result is observable once Done closes.
type Task struct {
	done   chan struct{}
	report Report
}

func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the pass finished or ctx ends.
func (t *Task) Wait(ctx context.Context) (Report, error) {
	select {
	case <-t.done:
		return t.report, nil
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}

// Dispatch starts a pass over e. In async mode the pass is detached from
// ctx cancellation and the caller must not touch e afterwards; pass a copy.
// after, when set, runs once the pass completed.
func (t *Translator) Dispatch(ctx context.Context, e domain.Translatable, fields []string, after func(Report)) *Task {
	task := &Task{done: make(chan struct{})}
	run := func(ctx context.Context) {
		defer close(task.done)
		start := time.Now()
		task.report = t.Translate(ctx, e, fields)
		if after != nil {
			after(task.report)
		}
		log.Debug().
			Str("entity", task.report.Target.Entity).
			Str("id", task.report.Target.ID).
			Strs("saved", task.report.Saved).
			Dur("took", time.Since(start)).
			Msg("translation pass done")
	}
	if !t.async {
		run(ctx)
		return task
	}
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		run(context.WithoutCancel(ctx))
	}()
	return task
}

// Drain waits for detached passes, e.g. on shutdown.
func (t *Translator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
