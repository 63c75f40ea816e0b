package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"douro_cms/internal/app"
	"douro_cms/internal/domain"
)

/********** site config **********/

func (h *Handlers) getSiteConfig(w http.ResponseWriter, r *http.Request) {
	c, err := h.SiteConfig.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (h *Handlers) updateSiteConfig(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pp, err := siteConfigPatch(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var imgs app.SiteImages
	if imgs.Presenter, err = h.picture(f, "presenter_image"); err != nil {
		writeError(w, r, err)
		return
	}
	if imgs.Podcast, err = h.picture(f, "podcast_image"); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.SiteConfig.Update(r.Context(), pp, imgs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

/********** desired zones **********/

func (h *Handlers) zoneRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		all, err := h.Zones.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, all)
	})
	r.Get("/active", func(w http.ResponseWriter, r *http.Request) {
		all, err := h.Zones.Active(r.Context(), strings.TrimSpace(r.URL.Query().Get("country")))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, all)
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		z, err := h.Zones.Find(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, z)
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		f, err := readForm(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		pp, err := desiredZonePatch(f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		image, err := h.picture(f, "image")
		if err != nil {
			writeError(w, r, err)
			return
		}
		z := &domain.DesiredZone{Active: true}
		pp.Apply(z)
		out, err := h.Zones.Create(r.Context(), z, image)
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
		pp, err := desiredZonePatch(f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		image, err := h.picture(f, "image")
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := h.Zones.Update(r.Context(), chi.URLParam(r, "id"), pp, image)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, out)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := h.Zones.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		noContent(w)
	})
}

// picture reads one optional still image under any accepted spelling of
// field. Videos are refused.
func (h *Handlers) picture(f *form, field string) (*app.Upload, error) {
	for _, name := range aliasesOf(field) {
		up, err := f.file(name, h.MaxImage)
		if err != nil {
			return nil, err
		}
		if up == nil {
			continue
		}
		if !strings.HasPrefix(up.MimeType, "image/") {
			return nil, domain.Invalid(field, "%s: only images are accepted", up.Name)
		}
		return up, nil
	}
	return nil, nil
}
