package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"douro_cms/internal/domain"
)

type problem struct {
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Status  int      `json:"status"`
	Detail  string   `json:"detail,omitempty"`
	Field   string   `json:"field,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func writeProblem(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the error taxonomy onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *domain.ValidationError
		re  *domain.RelationError
		me  *domain.MediaError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, problem{Title: "Not Found", Status: http.StatusNotFound, Detail: "resource not found"})
	case errors.As(err, &ve):
		writeProblem(w, problem{Title: "Invalid Input", Status: http.StatusBadRequest, Detail: ve.Reason, Field: ve.Field})
	case errors.As(err, &re):
		writeProblem(w, problem{Title: "Unknown References", Status: http.StatusBadRequest, Detail: re.Error(), Missing: re.Missing})
	case errors.As(err, &mbe):
		writeProblem(w, problem{Title: "Payload Too Large", Status: http.StatusRequestEntityTooLarge})
	case errors.As(err, &me):
		log.Error().Err(err).Str("route", routeOf(r)).Msg("media backend failed")
		writeProblem(w, problem{Title: "Media Storage Failed", Status: http.StatusBadGateway, Detail: "media " + me.Op + " failed"})
	default:
		log.Error().Err(err).Str("route", routeOf(r)).Str("method", r.Method).Msg("request failed")
		writeProblem(w, problem{Title: "Internal Server Error", Status: http.StatusInternalServerError})
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON sends v. Reads carry a weak ETag and answer If-None-Match with 304.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, problem{Title: "Internal Server Error", Status: http.StatusInternalServerError})
		return
	}
	if r.Method == http.MethodGet && etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("route", routeOf(r)).Msg("failed to write body")
	}
}

// writeLocalized is writeJSON plus Content-Language for projected views.
func writeLocalized(w http.ResponseWriter, r *http.Request, l domain.Locale, v any) {
	w.Header().Set("Content-Language", string(l))
	writeJSON(w, r, http.StatusOK, v)
}
