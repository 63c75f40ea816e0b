package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"douro_cms/internal/app"
	"douro_cms/internal/catalog"
	"douro_cms/internal/domain"
)

type propertyPageView struct {
	Items      []app.PropertyView `json:"data"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

func (h *Handlers) propertyRoutes(r chi.Router) {
	r.Get("/", h.listProperties)
	r.Post("/", h.createProperty)
	r.Get("/featured", h.featuredProperties)
	r.Get("/{id}", h.getProperty)
	r.Patch("/{id}", h.updateProperty)
	r.Delete("/{id}", h.deleteProperty)
	r.Patch("/{id}/featured", h.toggleFeatured)

	r.Get("/{id}/similar", h.similarProperties)
	r.Get("/{id}/related", h.relatedProperties)
	r.Post("/{id}/related", h.changeRelated(h.Properties.AddRelated))
	r.Put("/{id}/related", h.changeRelated(h.Properties.SetRelated))
	r.Delete("/{id}/related", h.changeRelated(h.Properties.RemoveRelated))

	r.Get("/{id}/image-sections", h.listImageSections)
	r.Post("/{id}/image-sections", h.createImageSection)
	r.Get("/{id}/files", h.listFiles)
	r.Post("/{id}/files", h.uploadFile)
	r.Get("/{id}/fraction-columns", h.listFractionColumns)
	r.Post("/{id}/fraction-columns", h.createFractionColumn)
	r.Get("/{id}/fractions", h.listFractions)
	r.Post("/{id}/fractions", h.createFraction)
	r.Post("/{id}/fractions/bulk", h.createFractions)
}

// propertyLocale picks the projection for property reads: the source
// language when ?lang is absent, the stored entity when it is unsupported.
func propertyLocale(r *http.Request) (domain.Locale, bool) {
	l, given := requestedLocale(r)
	if !given {
		return domain.SourceLocale, true
	}
	return l, l != ""
}

func projectAll(ps []domain.Property, l domain.Locale) []app.PropertyView {
	out := make([]app.PropertyView, 0, len(ps))
	for i := range ps {
		out = append(out, app.ProjectProperty(&ps[i], l))
	}
	return out
}

func (h *Handlers) writeProperties(w http.ResponseWriter, r *http.Request, ps []domain.Property) {
	if ps == nil {
		ps = []domain.Property{}
	}
	if l, ok := propertyLocale(r); ok {
		writeLocalized(w, r, l, projectAll(ps, l))
		return
	}
	writeJSON(w, r, http.StatusOK, ps)
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Properties.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, ok := propertyLocale(r)
	if !ok {
		writeJSON(w, r, http.StatusOK, page)
		return
	}
	writeLocalized(w, r, l, propertyPageView{
		Items:      projectAll(page.Items, l),
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	})
}

func (h *Handlers) featuredProperties(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Properties.Featured(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeProperties(w, r, ps)
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if l, ok := propertyLocale(r); ok {
		v, err := h.Properties.View(r.Context(), id, l)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeLocalized(w, r, l, v)
		return
	}
	p, err := h.Properties.Find(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (h *Handlers) createProperty(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := newProperty(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cover, gallery, err := h.propertyMedia(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Properties.Create(r.Context(), p, cover, gallery)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, out)
}

func (h *Handlers) updateProperty(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := propertyPatch(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cover, gallery, err := h.propertyMedia(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Properties.Update(r.Context(), chi.URLParam(r, "id"), patch, cover, gallery)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// propertyMedia reads the cover ("image") and gallery ("images") uploads.
func (h *Handlers) propertyMedia(f *form) (*app.Upload, []app.Upload, error) {
	cover, err := h.image(f, "image")
	if err != nil {
		return nil, nil, err
	}
	gallery, err := f.files("images", h.MaxImage)
	if err != nil {
		return nil, nil, err
	}
	if err := imageOrVideo("images", gallery...); err != nil {
		return nil, nil, err
	}
	return cover, gallery, nil
}

func (h *Handlers) deleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := h.Properties.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handlers) toggleFeatured(w http.ResponseWriter, r *http.Request) {
	p, err := h.Properties.ToggleFeatured(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

/********** relations **********/

func (h *Handlers) similarProperties(w http.ResponseWriter, r *http.Request) {
	limit := catalog.SimilarLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > catalog.MaxLimit {
			writeError(w, r, domain.Invalid("limit", "must be an integer between 1 and %d", catalog.MaxLimit))
			return
		}
		limit = l
	}
	ps, err := h.Properties.Similar(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeProperties(w, r, ps)
}

func (h *Handlers) relatedProperties(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Properties.Related(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeProperties(w, r, ps)
}

type relatedChange func(ctx context.Context, id string, ids []string) ([]string, error)

func (h *Handlers) changeRelated(change relatedChange) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := decode(r, idList)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := change(r.Context(), chi.URLParam(r, "id"), ids)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string][]string{"related_ids": out})
	}
}

/********** image sections and files **********/

func (h *Handlers) listImageSections(w http.ResponseWriter, r *http.Request) {
	secs, err := h.Properties.ImageSections(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, secs)
}

func (h *Handlers) createImageSection(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pp, err := imageSectionPatch(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ups, err := f.files("images", h.MaxImage)
	if err == nil {
		err = imageOrVideo("images", ups...)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	sec := &domain.ImageSection{}
	if pp.Name != nil {
		sec.Name = *pp.Name
	}
	if pp.Order != nil {
		sec.Order = *pp.Order
	}
	if pp.Images != nil {
		sec.Images = *pp.Images
	}
	out, err := h.Properties.CreateImageSection(r.Context(), chi.URLParam(r, "id"), sec, ups)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, out)
}

func (h *Handlers) updateImageSection(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pp, err := imageSectionPatch(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ups, err := f.files("images", h.MaxImage)
	if err == nil {
		err = imageOrVideo("images", ups...)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Properties.UpdateImageSection(r.Context(), chi.URLParam(r, "sectionID"), pp, ups)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) deleteImageSection(w http.ResponseWriter, r *http.Request) {
	if err := h.Properties.DeleteImageSection(r.Context(), chi.URLParam(r, "sectionID")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handlers) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.Properties.Files(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, files)
}

func (h *Handlers) uploadFile(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	meta, err := filePatch(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	up, err := f.file("file", h.MaxFile)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if up == nil {
		writeError(w, r, domain.Invalid("file", "required"))
		return
	}
	out, err := h.Properties.UploadFile(r.Context(), chi.URLParam(r, "id"), meta, *up)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, out)
}

func (h *Handlers) updateFile(w http.ResponseWriter, r *http.Request) {
	meta, err := decode(r, filePatch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Properties.UpdateFile(r.Context(), chi.URLParam(r, "fileID"), meta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.Properties.DeleteFile(r.Context(), chi.URLParam(r, "fileID")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

/********** fractions **********/

func (h *Handlers) listFractionColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.Properties.FractionColumns(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, given := requestedLocale(r)
	if !given || l == "" {
		writeJSON(w, r, http.StatusOK, cols)
		return
	}
	out := make([]app.ColumnView, 0, len(cols))
	for i := range cols {
		out = append(out, app.ProjectColumn(&cols[i], l))
	}
	writeLocalized(w, r, l, out)
}

func (h *Handlers) createFractionColumn(w http.ResponseWriter, r *http.Request) {
	c, err := decode(r, newFractionColumn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Properties.CreateFractionColumn(r.Context(), chi.URLParam(r, "id"), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, out)
}

func (h *Handlers) updateFractionColumn(w http.ResponseWriter, r *http.Request) {
	pp, err := decode(r, fractionColumnPatch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Properties.UpdateFractionColumn(r.Context(), chi.URLParam(r, "columnID"), pp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) deleteFractionColumn(w http.ResponseWriter, r *http.Request) {
	if err := h.Properties.DeleteFractionColumn(r.Context(), chi.URLParam(r, "columnID")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// listFractions projects custom data through the property's columns when a
// supported ?lang is given.
func (h *Handlers) listFractions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fs, err := h.Properties.Fractions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, given := requestedLocale(r)
	if !given || l == "" {
		writeJSON(w, r, http.StatusOK, fs)
		return
	}
	cols, err := h.Properties.FractionColumns(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reg := domain.NewColumnRegistry(cols)
	out := make([]app.FractionView, 0, len(fs))
	for i := range fs {
		out = append(out, app.ProjectFraction(&fs[i], reg, l))
	}
	writeLocalized(w, r, l, out)
}

func (h *Handlers) createFraction(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fr, err := newFraction(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := h.floorPlan(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Properties.CreateFraction(r.Context(), chi.URLParam(r, "id"), fr, plan)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, out)
}

// createFractions takes {"fractions": [...]} and stores all of them or none.
func (h *Handlers) createFractions(w http.ResponseWriter, r *http.Request) {
	fs, err := decode(r, func(f *form) ([]*domain.Fraction, error) {
		objs, err := f.objects("fractions")
		if err != nil {
			return nil, err
		}
		out := make([]*domain.Fraction, 0, len(objs))
		for _, obj := range objs {
			fr, err := newFraction(formOf(obj))
			if err != nil {
				return nil, err
			}
			out = append(out, fr)
		}
		return out, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Properties.CreateFractions(r.Context(), chi.URLParam(r, "id"), fs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, out)
}

func (h *Handlers) updateFraction(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pp, err := fractionPatch(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := h.floorPlan(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Properties.UpdateFraction(r.Context(), chi.URLParam(r, "fractionID"), pp, plan)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) deleteFraction(w http.ResponseWriter, r *http.Request) {
	if err := h.Properties.DeleteFraction(r.Context(), chi.URLParam(r, "fractionID")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// floorPlan accepts an image or a PDF.
func (h *Handlers) floorPlan(f *form) (*app.Upload, error) {
	for _, name := range []string{"floor_plan", "floorPlan"} {
		up, err := f.file(name, h.MaxFile)
		if err != nil {
			return nil, err
		}
		if up == nil {
			continue
		}
		if up.MimeType != "application/pdf" && !strings.HasPrefix(up.MimeType, "image/") {
			return nil, domain.Invalid(name, "%s: only images and PDF are accepted", up.Name)
		}
		return up, nil
	}
	return nil, nil
}
