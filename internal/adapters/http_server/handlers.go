package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"douro_cms/internal/app"
	"douro_cms/internal/domain"
)

type ItemCollection = app.Collection[domain.Item, *domain.Item]

type Handlers struct {
	Content      *app.ContentService
	Items        map[domain.ItemKind]*ItemCollection
	Testimonials *app.Collection[domain.Testimonial, *domain.Testimonial]
	Team         *app.TeamService
	Newsletters  *app.NewsletterService
	Properties   *app.PropertyService
	SiteConfig   *app.SiteConfigService
	Zones        *app.ZoneService

	// MaxImage caps one image or video upload; MaxFile one document.
	MaxImage int64
	MaxFile  int64
}

// itemPaths maps the public collection paths to item kinds.
var itemPaths = map[string]domain.ItemKind{
	"culture-items":  domain.ItemCulture,
	"service-items":  domain.ItemService,
	"podcast-topics": domain.ItemPodcastTopic,
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.MaxImage <= 0 {
		h.MaxImage = 200 << 20
	}
	if h.MaxFile <= 0 {
		h.MaxFile = 50 << 20
	}
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/pages/{kind}", h.getPage)
		r.Patch("/pages/{kind}", h.updatePage)

		for path, kind := range itemPaths {
			if c := h.Items[kind]; c != nil {
				r.Route("/"+path, h.itemRoutes(c))
			}
		}
		r.Route("/testimonials", h.testimonialRoutes)
		r.Route("/team-members", h.teamRoutes)
		r.Route("/newsletters", h.newsletterRoutes)
		r.Route("/properties", h.propertyRoutes)
		r.Get("/site-config", h.getSiteConfig)
		r.Patch("/site-config", h.updateSiteConfig)
		r.Route("/desired-zones", h.zoneRoutes)

		r.Patch("/image-sections/{sectionID}", h.updateImageSection)
		r.Delete("/image-sections/{sectionID}", h.deleteImageSection)
		r.Patch("/files/{fileID}", h.updateFile)
		r.Delete("/files/{fileID}", h.deleteFile)
		r.Patch("/fraction-columns/{columnID}", h.updateFractionColumn)
		r.Delete("/fraction-columns/{columnID}", h.deleteFractionColumn)
		r.Patch("/fractions/{fractionID}", h.updateFraction)
		r.Delete("/fractions/{fractionID}", h.deleteFraction)
	})
}

// requestedLocale reads ?lang. given is false when the parameter is absent;
// l is empty when it names no supported locale.
func requestedLocale(r *http.Request) (l domain.Locale, given bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("lang"))
	if raw == "" {
		return "", false
	}
	l, _ = domain.ParseLocale(raw)
	return l, true
}

func noContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

/********** content singletons **********/

func pageKind(r *http.Request) (domain.PageKind, error) {
	kind := domain.PageKind(chi.URLParam(r, "kind"))
	if _, ok := domain.SchemaFor(kind); !ok {
		return "", domain.ErrNotFound
	}
	return kind, nil
}

// getPage returns the localized view for a supported ?lang and the stored
// multilingual page otherwise.
func (h *Handlers) getPage(w http.ResponseWriter, r *http.Request) {
	kind, err := pageKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if l, _ := requestedLocale(r); l != "" {
		view, err := h.Content.GetByLocale(r.Context(), kind, l)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeLocalized(w, r, l, view)
		return
	}
	p, err := h.Content.Get(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (h *Handlers) updatePage(w http.ResponseWriter, r *http.Request) {
	kind, err := pageKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	schema, _ := domain.SchemaFor(kind)
	f, err := readForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := pagePatch(schema, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Content.Update(r.Context(), kind, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

/********** translatable collections **********/

func (h *Handlers) itemRoutes(c *ItemCollection) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			if l, _ := requestedLocale(r); l != "" {
				views, err := app.ListByLocale(r.Context(), c, l, app.ProjectItem)
				if err != nil {
					writeError(w, r, err)
					return
				}
				writeLocalized(w, r, l, views)
				return
			}
			all, err := c.List(r.Context())
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, r, http.StatusOK, all)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			it, err := c.Find(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			if l, _ := requestedLocale(r); l != "" {
				writeLocalized(w, r, l, app.ProjectItem(it, l))
				return
			}
			writeJSON(w, r, http.StatusOK, it)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			pp, err := decode(r, itemPatch)
			if err != nil {
				writeError(w, r, err)
				return
			}
			it := &domain.Item{}
			pp.Apply(it)
			out, err := c.Create(r.Context(), it)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, r, http.StatusCreated, out)
		})
		r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
			pp, err := decode(r, itemPatch)
			if err != nil {
				writeError(w, r, err)
				return
			}
			out, err := c.Update(r.Context(), chi.URLParam(r, "id"), pp.Apply)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, r, http.StatusOK, out)
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			if err := c.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
				writeError(w, r, err)
				return
			}
			noContent(w)
		})
	}
}

func (h *Handlers) testimonialRoutes(r chi.Router) {
	c := h.Testimonials
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if l, _ := requestedLocale(r); l != "" {
			views, err := app.ListByLocale(r.Context(), c, l, app.ProjectTestimonial)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeLocalized(w, r, l, views)
			return
		}
		all, err := c.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, all)
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		t, err := c.Find(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if l, _ := requestedLocale(r); l != "" {
			writeLocalized(w, r, l, app.ProjectTestimonial(t, l))
			return
		}
		writeJSON(w, r, http.StatusOK, t)
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		pp, err := decode(r, testimonialPatch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		t := &domain.Testimonial{}
		pp.Apply(t)
		out, err := c.Create(r.Context(), t)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, out)
	})
	r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
		pp, err := decode(r, testimonialPatch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := c.Update(r.Context(), chi.URLParam(r, "id"), pp.Apply)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, out)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := c.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		noContent(w)
	})
}

// decode reads the body and builds a payload from it.
func decode[T any](r *http.Request, build func(*form) (T, error)) (T, error) {
	f, err := readForm(r)
	if err != nil {
		var zero T
		return zero, err
	}
	return build(f)
}

/********** team and newsletters **********/

func (h *Handlers) teamRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		all, err := h.Team.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, all)
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		m, err := h.Team.Find(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, m)
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		f, err := readForm(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		pp, err := teamMemberPatch(f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		photo, err := h.image(f, "photo")
		if err != nil {
			writeError(w, r, err)
			return
		}
		m := &domain.TeamMember{}
		pp.Apply(m)
		out, err := h.Team.Create(r.Context(), m, photo)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, out)
	})
	r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
		f, err := readForm(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		pp, err := teamMemberPatch(f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		photo, err := h.image(f, "photo")
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := h.Team.Update(r.Context(), chi.URLParam(r, "id"), pp, photo)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, out)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := h.Team.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		noContent(w)
	})
}

func (h *Handlers) newsletterRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		all, err := h.Newsletters.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, all)
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		n, err := h.Newsletters.Find(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, n)
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		f, err := readForm(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		pp, err := newsletterPatch(f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cover, err := h.image(f, "cover_image")
		if err != nil {
			writeError(w, r, err)
			return
		}
		n := &domain.Newsletter{}
		pp.Apply(n)
		if n.PropertyIDs == nil {
			n.PropertyIDs = []string{}
		}
		out, err := h.Newsletters.Create(r.Context(), n, cover)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, out)
	})
	r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
		f, err := readForm(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		pp, err := newsletterPatch(f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cover, err := h.image(f, "cover_image")
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := h.Newsletters.Update(r.Context(), chi.URLParam(r, "id"), pp, cover)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, out)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := h.Newsletters.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		noContent(w)
	})
}

// image reads one optional image or video upload, under either the snake
// or the camel spelling of field.
func (h *Handlers) image(f *form, field string) (*app.Upload, error) {
	names := []string{field}
	if c := camelCase(field); c != field {
		names = append(names, c)
	}
	for _, name := range names {
		up, err := f.file(name, h.MaxImage)
		if err != nil {
			return nil, err
		}
		if up != nil {
			return up, imageOrVideo(name, *up)
		}
	}
	return nil, nil
}
