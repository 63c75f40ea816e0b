package httpserver

import (
	"strings"

	"github.com/rs/zerolog/log"

	"douro_cms/internal/domain"
)

// errs keeps the first decode error of a payload.
type errs struct{ err error }

func (e *errs) keep(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *errs) num(f *form, key string) *float64 {
	v, err := f.num(key)
	e.keep(err)
	return v
}

func (e *errs) integer(f *form, key string) *int {
	v, err := f.integer(key)
	e.keep(err)
	return v
}

func (e *errs) flag(f *form, key string) *bool {
	v, err := f.flag(key)
	e.keep(err)
	return v
}

func (e *errs) list(f *form, key string) *[]string {
	v, ok, err := f.list(key)
	e.keep(err)
	if !ok || err != nil {
		return nil
	}
	return &v
}

func propertyPatch(f *form) (domain.PropertyPatch, error) {
	var e errs
	pp := domain.PropertyPatch{
		Reference:         f.str("reference"),
		Title:             f.str("title"),
		Description:       f.str("description"),
		PaymentConditions: f.str("payment_conditions"),
		PropertyType:      f.str("property_type"),
		IsDevelopment:     e.flag(f, "is_development"),
		EnergyClass:       f.str("energy_class"),
		Price:             e.num(f, "price"),
		TotalArea:         e.num(f, "total_area"),
		BuiltArea:         e.num(f, "built_area"),
		UsefulArea:        e.num(f, "useful_area"),
		Bedrooms:          e.integer(f, "bedrooms"),
		Bathrooms:         e.integer(f, "bathrooms"),
		HasOffice:         e.flag(f, "has_office"),
		HasLaundry:        e.flag(f, "has_laundry"),
		GarageSpaces:      e.integer(f, "garage_spaces"),
		ConstructionYear:  e.integer(f, "construction_year"),
		Country:           f.str("country"),
		District:          f.str("district"),
		Municipality:      f.str("municipality"),
		Parish:            f.str("parish"),
		Address:           f.str("address"),
		Region:            f.str("region"),
		City:              f.str("city"),
		Features:          f.str("features"),
		WhyChoose:         f.str("why_choose"),
		IsFeatured:        e.flag(f, "is_featured"),
		TeamMemberID:      f.str("team_member_id"),
		Images:            e.list(f, "images"),
	}
	if s := f.str("transaction_type"); s != nil {
		tx := domain.TransactionType(*s)
		pp.TransactionType = &tx
	}
	if s := f.str("condition"); s != nil {
		c := domain.Condition(*s)
		pp.Condition = &c
	}
	if s := f.str("status"); s != nil {
		st := domain.Status(*s)
		pp.Status = &st
	}
	d, err := f.date("delivery_date")
	e.keep(err)
	pp.DeliveryDate = d
	if clear := e.flag(f, "clear_image"); clear != nil {
		pp.ClearImage = *clear
	}
	return pp, e.err
}

// newProperty builds a property from a create payload. The cover URL may be
// given directly when no file is uploaded.
func newProperty(f *form) (*domain.Property, error) {
	pp, err := propertyPatch(f)
	if err != nil {
		return nil, err
	}
	p := &domain.Property{}
	pp.Apply(p)
	if pp.Images != nil {
		p.Images = *pp.Images
	}
	if s := f.str("image"); s != nil {
		p.Image = *s
	}
	related, _, err := f.list("related_ids")
	if err != nil {
		return nil, err
	}
	p.RelatedIDs = related
	return p, nil
}

// pagePatch accepts {"texts": {...}, "attrs": {...}} or a flat object whose
// keys are routed by the page schema. Derived values are read-only and dropped.
func pagePatch(schema domain.PageSchema, f *form) (domain.PagePatch, error) {
	pp := domain.PagePatch{Texts: map[string]string{}, Attrs: map[string]string{}}
	put := func(key string, v any) error {
		s, ok := v.(string)
		if !ok {
			return domain.Invalid(key, "must be a string")
		}
		name := snakeCase(key)
		if base, lang, ok := cutLocale(name); ok {
			if lang != domain.SourceLocale {
				log.Debug().Str("field", key).Msg("ignoring derived value in page update")
				return nil
			}
			name = base
		}
		switch {
		case schema.HasAttr(name):
			pp.Attrs[name] = s
		default:
			// unknown names fail schema validation
			pp.Texts[name] = s
		}
		return nil
	}
	for k, v := range f.vals {
		switch k {
		case "texts", "attrs":
			obj, ok := v.(map[string]any)
			if !ok {
				return pp, domain.Invalid(k, "must be an object")
			}
			for kk, vv := range obj {
				if err := put(kk, vv); err != nil {
					return pp, err
				}
			}
		default:
			if err := put(k, v); err != nil {
				return pp, err
			}
		}
	}
	return pp, schema.Validate(pp)
}

// cutLocale splits "page_title_en" into "page_title" and en.
func cutLocale(name string) (string, domain.Locale, bool) {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 {
		return name, "", false
	}
	l, ok := domain.ParseLocale(name[i+1:])
	if !ok || len(name)-i-1 != 2 {
		return name, "", false
	}
	return name[:i], l, true
}

func itemPatch(f *form) (domain.ItemPatch, error) {
	var e errs
	pp := domain.ItemPatch{
		Title:       f.str("title"),
		Description: f.str("description"),
		Order:       e.integer(f, "order"),
	}
	return pp, e.err
}

func testimonialPatch(f *form) (domain.TestimonialPatch, error) {
	var e errs
	pp := domain.TestimonialPatch{
		ClientName: f.str("client_name"),
		Text:       f.str("text"),
		Order:      e.integer(f, "order"),
	}
	return pp, e.err
}

func teamMemberPatch(f *form) (domain.TeamMemberPatch, error) {
	var e errs
	pp := domain.TeamMemberPatch{
		Name:  f.str("name"),
		Phone: f.str("phone"),
		Email: f.str("email"),
		Order: e.integer(f, "display_order"),
	}
	if clear := e.flag(f, "clear_photo"); clear != nil {
		pp.ClearPhoto = *clear
	}
	return pp, e.err
}

func newsletterPatch(f *form) (domain.NewsletterPatch, error) {
	var e errs
	pp := domain.NewsletterPatch{
		Title:       f.str("title"),
		Content:     f.str("content"),
		Category:    f.str("category"),
		PropertyIDs: e.list(f, "property_ids"),
	}
	return pp, e.err
}

func siteConfigPatch(f *form) (domain.SiteConfigPatch, error) {
	var e errs
	pp := domain.SiteConfigPatch{
		SatisfiedClients:    e.integer(f, "satisfied_clients"),
		Rating:              e.num(f, "rating"),
		YearsOfExperience:   e.integer(f, "years_of_experience"),
		PropertiesSold:      e.integer(f, "properties_sold"),
		EpisodesPublished:   e.integer(f, "episodes_published"),
		Seasons:             e.integer(f, "seasons"),
		GuestExperts:        e.integer(f, "guest_experts"),
		EurosInTransactions: e.integer(f, "euros_in_transactions"),
		InstagramFollowers:  e.integer(f, "instagram_followers"),
	}
	return pp, e.err
}

func desiredZonePatch(f *form) (domain.DesiredZonePatch, error) {
	var e errs
	pp := domain.DesiredZonePatch{
		Name:    f.str("name"),
		Order:   e.integer(f, "display_order"),
		Active:  e.flag(f, "is_active"),
		Country: f.str("country"),
	}
	return pp, e.err
}

func imageSectionPatch(f *form) (domain.ImageSectionPatch, error) {
	var e errs
	pp := domain.ImageSectionPatch{
		Name:   f.str("name"),
		Order:  e.integer(f, "display_order"),
		Images: e.list(f, "images"),
	}
	return pp, e.err
}

func filePatch(f *form) (domain.PropertyFilePatch, error) {
	var e errs
	pp := domain.PropertyFilePatch{
		Title:   f.str("title"),
		Visible: e.flag(f, "is_visible"),
		Order:   e.integer(f, "display_order"),
	}
	return pp, e.err
}

func fractionColumnPatch(f *form) (domain.FractionColumnPatch, error) {
	var e errs
	pp := domain.FractionColumnPatch{
		Label:    f.str("label"),
		Options:  e.list(f, "select_options"),
		Visible:  e.flag(f, "is_visible"),
		Required: e.flag(f, "is_required"),
		Order:    e.integer(f, "display_order"),
	}
	if s := f.str("data_type"); s != nil {
		t := domain.ColumnType(*s)
		pp.Type = &t
	}
	return pp, e.err
}

func newFractionColumn(f *form) (*domain.FractionColumn, error) {
	pp, err := fractionColumnPatch(f)
	if err != nil {
		return nil, err
	}
	c := &domain.FractionColumn{Type: domain.ColumnText, Visible: true}
	if s := f.str("column_key"); s != nil {
		c.Key = strings.TrimSpace(*s)
	}
	pp.Apply(c)
	return c, nil
}

func fractionPatch(f *form) (domain.FractionPatch, error) {
	var e errs
	pp := domain.FractionPatch{
		Nature:        f.str("nature"),
		FractionType:  f.str("fraction_type"),
		Floor:         f.str("floor"),
		Unit:          f.str("unit"),
		GrossArea:     e.num(f, "gross_area"),
		OutdoorArea:   e.num(f, "outdoor_area"),
		ParkingSpaces: e.integer(f, "parking_spaces"),
		Price:         e.num(f, "price"),
		Order:         e.integer(f, "display_order"),
	}
	if s := f.str("reservation_status"); s != nil {
		rs := domain.ReservationStatus(*s)
		pp.ReservationStatus = &rs
	}
	custom, err := f.object("custom_data")
	e.keep(err)
	pp.Custom = custom
	return pp, e.err
}

func newFraction(f *form) (*domain.Fraction, error) {
	pp, err := fractionPatch(f)
	if err != nil {
		return nil, err
	}
	fr := &domain.Fraction{}
	pp.Apply(fr)
	if s := f.str("floor_plan"); s != nil {
		fr.FloorPlan = *s
	}
	return fr, nil
}

// idList reads {"ids": [...]} or {"property_ids": [...]}.
func idList(f *form) ([]string, error) {
	for _, key := range []string{"ids", "related_ids", "property_ids"} {
		ids, ok, err := f.list(key)
		if err != nil {
			return nil, err
		}
		if ok {
			return ids, nil
		}
	}
	return nil, domain.Invalid("ids", "required")
}
