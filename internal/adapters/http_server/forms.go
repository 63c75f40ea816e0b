package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"douro_cms/internal/app"
	"douro_cms/internal/domain"
)

/********** alias registry **********/

// fieldAliases lists the public names the site's admin forms use for a
// canonical key besides its snake and camel spellings.
var fieldAliases = map[string][]string{
	"is_development":   {"isEmpreendimento"},
	"condition":        {"propertyState", "property_state"},
	"district":         {"distrito"},
	"municipality":     {"concelho"},
	"parish":           {"freguesia"},
	"order":            {"displayOrder", "display_order"},
	"display_order":    {"displayOrder", "order"},
	"related_ids":      {"relatedPropertyIds", "relatedProperties"},
	"property_ids":     {"propertyIds", "properties"},
	"client_name":      {"clientName"},
	"is_visible":       {"isVisible", "visible"},
	"team_member_id":   {"teamMemberId"},
	"images":           {"gallery"},
	"select_options":   {"selectOptions", "options"},
	"column_key":       {"columnKey", "key"},
	"data_type":        {"dataType", "type"},
	"custom_data":      {"customData"},
	"floor_plan":       {"floorPlan"},
	"fraction_type":    {"fractionType"},
	"clear_image":      {"removeImage"},
	"clear_photo":      {"removePhoto"},
	"delivery_date":    {"deliveryDate"},
	"transaction_type": {"transactionType"},

	"satisfied_clients":     {"clientesSatisfeitos"},
	"years_of_experience":   {"anosExperiencia"},
	"properties_sold":       {"imoveisVendidos"},
	"episodes_published":    {"episodiosPublicados"},
	"seasons":               {"temporadas"},
	"guest_experts":         {"especialistasConvidados"},
	"euros_in_transactions": {"eurosEmTransacoes"},
	"instagram_followers":   {"seguidoresInstagram"},
	"presenter_image":       {"apresentadoraImage"},
	"podcast_image":         {"podcastImagem"},
	"is_active":             {"isActive", "active"},
}

// aliasesOf returns every accepted spelling of key. Source-language
// suffixed names ("title_pt") are accepted for text fields.
func aliasesOf(key string) []string {
	camel := camelCase(key)
	out := []string{key, camel, key + "_pt", camel + "_pt"}
	return append(out, fieldAliases[key]...)
}

func camelCase(s string) string {
	var b strings.Builder
	up := false
	for _, r := range s {
		if r == '_' {
			up = true
			continue
		}
		if up {
			r = unicode.ToUpper(r)
			up = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// snakeCase turns "episode1Title" into "episode_1_title".
func snakeCase(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && prev != '_' {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		case unicode.IsDigit(r) && unicode.IsLetter(prev):
			b.WriteByte('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

/********** form **********/

// form is a decoded request body: a JSON object or a multipart form whose
// non-file parts are read as strings.
type form struct {
	vals  map[string]any
	r     *http.Request
	multi bool
}

const multipartMemory = 32 << 20

func readForm(r *http.Request) (*form, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	f := &form{vals: map[string]any{}, r: r}
	switch ct {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, badBody(err)
		}
		f.multi = true
		for k, vs := range r.MultipartForm.Value {
			if len(vs) == 1 {
				f.vals[k] = vs[0]
				continue
			}
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			f.vals[k] = list
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, badBody(err)
		}
		for k, vs := range r.PostForm {
			f.vals[k] = vs[len(vs)-1]
		}
	default:
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&f.vals); err != nil && err != io.EOF {
			return nil, badBody(err)
		}
		if f.vals == nil {
			f.vals = map[string]any{}
		}
	}
	return f, nil
}

func formOf(obj map[string]any) *form { return &form{vals: obj} }

func badBody(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return mbe
	}
	return domain.Invalid("", "malformed body: %v", err)
}

func (f *form) lookup(key string) (any, bool) {
	for _, k := range aliasesOf(key) {
		if v, ok := f.vals[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func (f *form) has(key string) bool {
	_, ok := f.lookup(key)
	return ok
}

func (f *form) str(key string) *string {
	v, ok := f.lookup(key)
	if !ok || v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			if p, ok := it.(string); ok && p != "" {
				parts = append(parts, p)
			}
		}
		s = strings.Join(parts, "\n")
	default:
		return nil
	}
	return &s
}

// num accepts JSON numbers and strings like "250000" or "8,5". An empty
// string counts as absent.
func (f *form) num(key string) (*float64, error) {
	v, ok := f.lookup(key)
	if !ok || v == nil {
		return nil, nil
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return nil, nil
		}
	default:
		return nil, domain.Invalid(key, "must be a number")
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, domain.Invalid(key, "must be a number")
	}
	return &x, nil
}

func (f *form) integer(key string) (*int, error) {
	x, err := f.num(key)
	if err != nil || x == nil {
		return nil, err
	}
	n := int(*x)
	if float64(n) != *x {
		return nil, domain.Invalid(key, "must be an integer")
	}
	return &n, nil
}

func (f *form) flag(key string) (*bool, error) {
	v, ok := f.lookup(key)
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case bool:
		return &t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "":
			return nil, nil
		case "true", "1", "on", "yes":
			b := true
			return &b, nil
		case "false", "0", "off", "no":
			b := false
			return &b, nil
		}
	}
	return nil, domain.Invalid(key, "must be a boolean")
}

func (f *form) date(key string) (*time.Time, error) {
	s := f.str(key)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(*s)); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.Invalid(key, "must be a date (YYYY-MM-DD)")
}

// list accepts a JSON array, repeated multipart parts, a JSON-encoded array
// in one part, or a comma separated string.
func (f *form) list(key string) ([]string, bool, error) {
	v, ok := f.lookup(key)
	if !ok {
		return nil, false, nil
	}
	var raw []any
	switch t := v.(type) {
	case nil:
		return []string{}, true, nil
	case []any:
		raw = t
	case string:
		s := strings.TrimSpace(t)
		switch {
		case s == "":
			return []string{}, true, nil
		case strings.HasPrefix(s, "["):
			if err := json.Unmarshal([]byte(s), &raw); err != nil {
				return nil, true, domain.Invalid(key, "must be a list")
			}
		default:
			for _, p := range strings.Split(s, ",") {
				raw = append(raw, strings.TrimSpace(p))
			}
		}
	default:
		return nil, true, domain.Invalid(key, "must be a list")
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		s, ok := it.(string)
		if !ok {
			return nil, true, domain.Invalid(key, "must be a list of strings")
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out, true, nil
}

func (f *form) object(key string) (map[string]any, error) {
	v, ok := f.lookup(key)
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case map[string]any:
		return normalizeNumbers(t), nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err != nil {
			return nil, domain.Invalid(key, "must be an object")
		}
		return m, nil
	}
	return nil, domain.Invalid(key, "must be an object")
}

func (f *form) objects(key string) ([]map[string]any, error) {
	v, ok := f.lookup(key)
	if !ok {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, domain.Invalid(key, "must be a list of objects")
	}
	out := make([]map[string]any, 0, len(raw))
	for i, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, domain.Invalid(fmt.Sprintf("%s[%d]", key, i), "must be an object")
		}
		out = append(out, m)
	}
	return out, nil
}

// normalizeNumbers turns json.Number values back into float64 so custom
// data matches what the store returns.
func normalizeNumbers(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if n, ok := v.(json.Number); ok {
			if x, err := n.Float64(); err == nil {
				out[k] = x
				continue
			}
		}
		out[k] = v
	}
	return out
}

/********** uploads **********/

// file returns the single upload in field, or nil when none was sent.
func (f *form) file(field string, max int64) (*app.Upload, error) {
	ups, err := f.files(field, max)
	if err != nil || len(ups) == 0 {
		return nil, err
	}
	if len(ups) > 1 {
		return nil, domain.Invalid(field, "only one file is accepted")
	}
	return &ups[0], nil
}

func (f *form) files(field string, max int64) ([]app.Upload, error) {
	if !f.multi || f.r.MultipartForm == nil {
		return nil, nil
	}
	headers := f.r.MultipartForm.File[field]
	out := make([]app.Upload, 0, len(headers))
	for _, h := range headers {
		if h.Size > max {
			return nil, domain.Invalid(field, "%s exceeds %d bytes", h.Filename, max)
		}
		fh, err := h.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(fh, max+1))
		fh.Close()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > max {
			return nil, domain.Invalid(field, "%s exceeds %d bytes", h.Filename, max)
		}
		mt := h.Header.Get("Content-Type")
		if mt == "" || mt == "application/octet-stream" {
			mt = http.DetectContentType(data)
		}
		out = append(out, app.Upload{Data: data, MimeType: mt, Name: h.Filename})
	}
	return out, nil
}

// imageOrVideo rejects uploads that are neither.
func imageOrVideo(field string, ups ...app.Upload) error {
	for _, u := range ups {
		if !strings.HasPrefix(u.MimeType, "image/") && !strings.HasPrefix(u.MimeType, "video/") {
			return domain.Invalid(field, "%s: only images and videos are accepted", u.Name)
		}
	}
	return nil
}
