package domain

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"
)

type ColumnType string

const (
	ColumnText     ColumnType = "text"
	ColumnNumber   ColumnType = "number"
	ColumnCurrency ColumnType = "currency"
	ColumnArea     ColumnType = "area"
	ColumnSelect   ColumnType = "select"
)

func ValidColumnType(s string) bool {
	switch ColumnType(s) {
	case ColumnText, ColumnNumber, ColumnCurrency, ColumnArea, ColumnSelect:
		return true
	}
	return false
}

func (t ColumnType) numeric() bool {
	return t == ColumnNumber || t == ColumnCurrency || t == ColumnArea
}

type ReservationStatus string

const (
	ReservationAvailable ReservationStatus = "available"
	ReservationReserved  ReservationStatus = "reserved"
	ReservationSold      ReservationStatus = "sold"
)

func ValidReservationStatus(s string) bool {
	switch ReservationStatus(s) {
	case ReservationAvailable, ReservationReserved, ReservationSold:
		return true
	}
	return false
}

// FractionColumn is a user-defined attribute of the fractions of one property.
type FractionColumn struct {
	ID         string     `json:"id"`
	PropertyID string     `json:"property_id"`
	Key        string     `json:"column_key"`
	Label      Text       `json:"label"`
	Type       ColumnType `json:"data_type"`
	Options    []string   `json:"select_options,omitempty"`
	Visible    bool       `json:"is_visible"`
	Required   bool       `json:"is_required"`
	Order      int        `json:"display_order"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (c *FractionColumn) Target() TranslationTarget {
	return TranslationTarget{Entity: "fraction_columns", ID: c.ID}
}
func (c *FractionColumn) TextFields() []FieldRef { return []FieldRef{{"label", &c.Label}} }

var columnKeyRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,99}$`)

func (c *FractionColumn) Validate() error {
	switch {
	case !columnKeyRe.MatchString(c.Key):
		return Invalid("column_key", "must match %s", columnKeyRe.String())
	case c.Label.PT == "":
		return Invalid("label", "required")
	case !ValidColumnType(string(c.Type)):
		return Invalid("data_type", "unknown value %q", c.Type)
	case c.Type == ColumnSelect && len(c.Options) == 0:
		return Invalid("select_options", "required for select columns")
	}
	return nil
}

// FieldValue is one typed custom value of a fraction.
type FieldValue struct {
	Type   ColumnType
	Text   string  // text and select
	Number float64 // number, currency and area
}

func (v FieldValue) Raw() any {
	if v.Type.numeric() {
		return v.Number
	}
	return v.Text
}

// ColumnRegistry is the runtime schema of a property's fraction custom data.
type ColumnRegistry struct {
	cols map[string]FractionColumn
}

func NewColumnRegistry(cols []FractionColumn) ColumnRegistry {
	r := ColumnRegistry{cols: make(map[string]FractionColumn, len(cols))}
	for _, c := range cols {
		r.cols[c.Key] = c
	}
	return r
}

func (r ColumnRegistry) Column(key string) (FractionColumn, bool) {
	c, ok := r.cols[key]
	return c, ok
}

// Decode validates raw JSON values against the registry. Unknown keys,
// type mismatches and select values outside the options are rejected.
func (r ColumnRegistry) Decode(raw map[string]any) (map[string]FieldValue, error) {
	out := make(map[string]FieldValue, len(raw))
	for _, k := range sortedKeys(raw) {
		v := raw[k]
		if v == nil {
			continue
		}
		col, ok := r.cols[k]
		if !ok {
			return nil, Invalid("custom_data."+k, "no such column")
		}
		fv, err := decodeValue(col, v)
		if err != nil {
			return nil, Invalid("custom_data."+k, "%v", err)
		}
		out[k] = fv
	}
	return out, nil
}

// Require reports the first required column missing from values.
func (r ColumnRegistry) Require(values map[string]FieldValue) error {
	keys := make([]string, 0, len(r.cols))
	for k := range r.cols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !r.cols[k].Required {
			continue
		}
		if _, ok := values[k]; !ok {
			return Invalid("custom_data."+k, "required")
		}
	}
	return nil
}

// Typed reads stored data back through the registry; keys whose column no
// longer exists or whose value no longer fits are left out.
func (r ColumnRegistry) Typed(raw map[string]any) map[string]FieldValue {
	out := make(map[string]FieldValue, len(raw))
	for k, v := range raw {
		col, ok := r.cols[k]
		if !ok || v == nil {
			continue
		}
		if fv, err := decodeValue(col, v); err == nil {
			out[k] = fv
		}
	}
	return out
}

func decodeValue(col FractionColumn, v any) (FieldValue, error) {
	fv := FieldValue{Type: col.Type}
	if col.Type.numeric() {
		switch n := v.(type) {
		case float64:
			fv.Number = n
		case int:
			fv.Number = float64(n)
		case int64:
			fv.Number = float64(n)
		default:
			return fv, fmt.Errorf("expected a number, got %T", v)
		}
		if math.IsNaN(fv.Number) || math.IsInf(fv.Number, 0) {
			return fv, fmt.Errorf("not a finite number")
		}
		if (col.Type == ColumnCurrency || col.Type == ColumnArea) && fv.Number < 0 {
			return fv, fmt.Errorf("must be >= 0")
		}
		return fv, nil
	}
	s, ok := v.(string)
	if !ok {
		return fv, fmt.Errorf("expected a string, got %T", v)
	}
	if col.Type == ColumnSelect && !contains(col.Options, s) {
		return fv, fmt.Errorf("%q is not one of the column options", s)
	}
	fv.Text = s
	return fv, nil
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fraction is a sellable unit of a development.
type Fraction struct {
	ID                string            `json:"id"`
	PropertyID        string            `json:"property_id"`
	Nature            Text              `json:"nature"`
	FractionType      Text              `json:"fraction_type"`
	Floor             Text              `json:"floor"`
	Unit              Text              `json:"unit"`
	GrossArea         *float64          `json:"gross_area,omitempty"`
	OutdoorArea       *float64          `json:"outdoor_area,omitempty"`
	ParkingSpaces     int               `json:"parking_spaces"`
	Price             *float64          `json:"price,omitempty"`
	FloorPlan         string            `json:"floor_plan,omitempty"`
	ReservationStatus ReservationStatus `json:"reservation_status"`
	Order             int               `json:"display_order"`
	Custom            map[string]any    `json:"custom_data,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (f *Fraction) Target() TranslationTarget {
	return TranslationTarget{Entity: "fractions", ID: f.ID}
}

func (f *Fraction) TextFields() []FieldRef {
	return []FieldRef{
		{"nature", &f.Nature},
		{"fraction_type", &f.FractionType},
		{"floor", &f.Floor},
		{"unit", &f.Unit},
	}
}

func (f *Fraction) Validate() error {
	switch {
	case !ValidReservationStatus(string(f.ReservationStatus)):
		return Invalid("reservation_status", "unknown value %q", f.ReservationStatus)
	case f.ParkingSpaces < 0:
		return Invalid("parking_spaces", "must be >= 0")
	case f.Price != nil && *f.Price < 0:
		return Invalid("price", "must be >= 0")
	case f.GrossArea != nil && *f.GrossArea < 0:
		return Invalid("gross_area", "must be >= 0")
	case f.OutdoorArea != nil && *f.OutdoorArea < 0:
		return Invalid("outdoor_area", "must be >= 0")
	}
	return nil
}

// SetCustom stores validated values in their raw JSON form.
func (f *Fraction) SetCustom(values map[string]FieldValue) {
	f.Custom = make(map[string]any, len(values))
	for k, v := range values {
		f.Custom[k] = v.Raw()
	}
}

type FractionColumnPatch struct {
	Label    *string     `json:"label"`
	Type     *ColumnType `json:"data_type"`
	Options  *[]string   `json:"select_options"`
	Visible  *bool       `json:"is_visible"`
	Required *bool       `json:"is_required"`
	Order    *int        `json:"display_order"`
}

// Apply returns the text fields whose source changed. The key is immutable.
func (pp FractionColumnPatch) Apply(c *FractionColumn) []string {
	var touched []string
	if pp.Label != nil && *pp.Label != c.Label.PT {
		c.Label.PT = *pp.Label
		touched = append(touched, "label")
	}
	if pp.Type != nil {
		c.Type = *pp.Type
	}
	if pp.Options != nil {
		c.Options = *pp.Options
	}
	if pp.Visible != nil {
		c.Visible = *pp.Visible
	}
	if pp.Required != nil {
		c.Required = *pp.Required
	}
	if pp.Order != nil {
		c.Order = *pp.Order
	}
	return touched
}

type FractionPatch struct {
	Nature            *string            `json:"nature"`
	FractionType      *string            `json:"fraction_type"`
	Floor             *string            `json:"floor"`
	Unit              *string            `json:"unit"`
	GrossArea         *float64           `json:"gross_area"`
	OutdoorArea       *float64           `json:"outdoor_area"`
	ParkingSpaces     *int               `json:"parking_spaces"`
	Price             *float64           `json:"price"`
	ReservationStatus *ReservationStatus `json:"reservation_status"`
	Order             *int               `json:"display_order"`
	// Custom is merged key by key; a null value removes the key.
	Custom map[string]any `json:"custom_data"`
}

// Apply returns the text fields whose source changed. Custom values are
// merged unvalidated; the caller decodes the result through a ColumnRegistry.
func (pp FractionPatch) Apply(f *Fraction) []string {
	var touched []string
	for _, t := range []struct {
		name string
		dst  *Text
		v    *string
	}{
		{"nature", &f.Nature, pp.Nature},
		{"fraction_type", &f.FractionType, pp.FractionType},
		{"floor", &f.Floor, pp.Floor},
		{"unit", &f.Unit, pp.Unit},
	} {
		if t.v != nil && *t.v != t.dst.PT {
			t.dst.PT = *t.v
			touched = append(touched, t.name)
		}
	}
	if pp.GrossArea != nil {
		f.GrossArea = pp.GrossArea
	}
	if pp.OutdoorArea != nil {
		f.OutdoorArea = pp.OutdoorArea
	}
	if pp.ParkingSpaces != nil {
		f.ParkingSpaces = *pp.ParkingSpaces
	}
	if pp.Price != nil {
		f.Price = pp.Price
	}
	if pp.ReservationStatus != nil {
		f.ReservationStatus = *pp.ReservationStatus
	}
	if pp.Order != nil {
		f.Order = *pp.Order
	}
	if len(pp.Custom) > 0 {
		merged := make(map[string]any, len(f.Custom)+len(pp.Custom))
		for k, v := range f.Custom {
			merged[k] = v
		}
		for k, v := range pp.Custom {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		f.Custom = merged
	}
	return touched
}
