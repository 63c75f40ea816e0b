package app

import (
	"fmt"
	"regexp"
	"time"

	"douro_cms/internal/domain"
)

// Projections flatten multilingual entities into one language. They are pure:
// no I/O, and a derived value that is empty falls back to the source.

type PageView map[string]any

type Episode struct {
	ID      int     `json:"id"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	VideoID *string `json:"video_id"`
}

func ProjectPage(p *domain.Page, l domain.Locale) PageView {
	v := PageView{
		"id":         p.ID,
		"kind":       p.Kind,
		"locale":     l,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
	s, _ := domain.SchemaFor(p.Kind)
	for _, name := range s.TextFields {
		if t, ok := p.Texts[name]; ok && t != nil {
			v[name] = t.In(l)
		} else {
			v[name] = ""
		}
	}
	for _, name := range s.AttrFields {
		v[name] = p.Attrs[name]
	}
	if p.Kind == domain.PagePodcast {
		v["episodes"] = Episodes(p, l)
	}
	return v
}

var youtubeRe = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\s]+)`)

// YouTubeID extracts the video id from a watch or short link.
func YouTubeID(url string) (string, bool) {
	m := youtubeRe.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Episodes lists the configured podcast episodes that have a URL.
func Episodes(p *domain.Page, l domain.Locale) []Episode {
	out := []Episode{}
	for i := 1; i <= 6; i++ {
		url := p.Attrs[fmt.Sprintf("episode_%d_url", i)]
		if url == "" {
			continue
		}
		ep := Episode{ID: i, URL: url}
		if t := p.Texts[fmt.Sprintf("episode_%d_title", i)]; t != nil {
			ep.Title = t.In(l)
		}
		if id, ok := YouTubeID(url); ok {
			ep.VideoID = &id
		}
		out = append(out, ep)
	}
	return out
}

type ItemView struct {
	ID          string          `json:"id"`
	Kind        domain.ItemKind `json:"kind"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Order       int             `json:"order"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func ProjectItem(i *domain.Item, l domain.Locale) ItemView {
	return ItemView{
		ID: i.ID, Kind: i.Kind,
		Title: i.Title.In(l), Description: i.Description.In(l),
		Order: i.Order, CreatedAt: i.CreatedAt, UpdatedAt: i.UpdatedAt,
	}
}

type TestimonialView struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Text       string    `json:"text"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func ProjectTestimonial(t *domain.Testimonial, l domain.Locale) TestimonialView {
	return TestimonialView{
		ID: t.ID, ClientName: t.ClientName, Text: t.Text.In(l),
		Order: t.Order, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

type ColumnView struct {
	ID       string            `json:"id"`
	Key      string            `json:"column_key"`
	Label    string            `json:"label"`
	Type     domain.ColumnType `json:"data_type"`
	Options  []string          `json:"select_options,omitempty"`
	Visible  bool              `json:"is_visible"`
	Required bool              `json:"is_required"`
	Order    int               `json:"display_order"`
}

func ProjectColumn(c *domain.FractionColumn, l domain.Locale) ColumnView {
	return ColumnView{
		ID: c.ID, Key: c.Key, Label: c.Label.In(l), Type: c.Type, Options: c.Options,
		Visible: c.Visible, Required: c.Required, Order: c.Order,
	}
}

type FractionView struct {
	ID                string                   `json:"id"`
	Nature            string                   `json:"nature"`
	FractionType      string                   `json:"fraction_type"`
	Floor             string                   `json:"floor"`
	Unit              string                   `json:"unit"`
	GrossArea         *float64                 `json:"gross_area,omitempty"`
	OutdoorArea       *float64                 `json:"outdoor_area,omitempty"`
	ParkingSpaces     int                      `json:"parking_spaces"`
	Price             *float64                 `json:"price,omitempty"`
	FloorPlan         string                   `json:"floor_plan,omitempty"`
	ReservationStatus domain.ReservationStatus `json:"reservation_status"`
	Order             int                      `json:"display_order"`
	Custom            map[string]any           `json:"custom_data"`
}

// ProjectFraction keeps only custom values that still fit a defined column.
func ProjectFraction(f *domain.Fraction, reg domain.ColumnRegistry, l domain.Locale) FractionView {
	custom := map[string]any{}
	for k, v := range reg.Typed(f.Custom) {
		custom[k] = v.Raw()
	}
	return FractionView{
		ID: f.ID, Nature: f.Nature.In(l), FractionType: f.FractionType.In(l),
		Floor: f.Floor.In(l), Unit: f.Unit.In(l),
		GrossArea: f.GrossArea, OutdoorArea: f.OutdoorArea, ParkingSpaces: f.ParkingSpaces,
		Price: f.Price, FloorPlan: f.FloorPlan, ReservationStatus: f.ReservationStatus,
		Order: f.Order, Custom: custom,
	}
}

type PropertyView struct {
	ID                string                 `json:"id"`
	Locale            domain.Locale          `json:"locale"`
	Reference         string                 `json:"reference,omitempty"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description"`
	PaymentConditions string                 `json:"payment_conditions"`
	TransactionType   domain.TransactionType `json:"transaction_type"`
	PropertyType      string                 `json:"property_type"`
	IsDevelopment     bool                   `json:"is_development"`
	Condition         domain.Condition       `json:"condition,omitempty"`
	EnergyClass       string                 `json:"energy_class,omitempty"`
	Price             float64                `json:"price"`
	TotalArea         *float64               `json:"total_area,omitempty"`
	BuiltArea         *float64               `json:"built_area,omitempty"`
	UsefulArea        *float64               `json:"useful_area,omitempty"`
	Bedrooms          int                    `json:"bedrooms"`
	Bathrooms         int                    `json:"bathrooms"`
	HasOffice         bool                   `json:"has_office"`
	HasLaundry        bool                   `json:"has_laundry"`
	GarageSpaces      int                    `json:"garage_spaces"`
	ConstructionYear  *int                   `json:"construction_year,omitempty"`
	DeliveryDate      *time.Time             `json:"delivery_date,omitempty"`
	Country           string                 `json:"country"`
	District          string                 `json:"district"`
	Municipality      string                 `json:"municipality"`
	Parish            string                 `json:"parish,omitempty"`
	Address           string                 `json:"address,omitempty"`
	Region            string                 `json:"region,omitempty"`
	City              string                 `json:"city,omitempty"`
	Image             string                 `json:"image,omitempty"`
	Images            []string               `json:"images"`
	Features          string                 `json:"features,omitempty"`
	WhyChoose         string                 `json:"why_choose,omitempty"`
	Status            domain.Status          `json:"status"`
	IsFeatured        bool                   `json:"is_featured"`
	TeamMember        *domain.TeamMember     `json:"team_member,omitempty"`
	ImageSections     []domain.ImageSection  `json:"image_sections,omitempty"`
	Files             []domain.PropertyFile  `json:"files,omitempty"`
	FractionColumns   []ColumnView           `json:"fraction_columns,omitempty"`
	Fractions         []FractionView         `json:"fractions,omitempty"`
	RelatedIDs        []string               `json:"related_ids,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// ProjectProperty flattens p; invisible files are left out of the public view.
func ProjectProperty(p *domain.Property, l domain.Locale) PropertyView {
	v := PropertyView{
		ID: p.ID, Locale: l, Reference: p.Reference,
		Title: p.Title.In(l), Description: p.Description.In(l), PaymentConditions: p.PaymentConditions.In(l),
		TransactionType: p.TransactionType, PropertyType: p.PropertyType, IsDevelopment: p.IsDevelopment,
		Condition: p.Condition, EnergyClass: p.EnergyClass, Price: p.Price,
		TotalArea: p.TotalArea, BuiltArea: p.BuiltArea, UsefulArea: p.UsefulArea,
		Bedrooms: p.Bedrooms, Bathrooms: p.Bathrooms, HasOffice: p.HasOffice, HasLaundry: p.HasLaundry,
		GarageSpaces: p.GarageSpaces, ConstructionYear: p.ConstructionYear, DeliveryDate: p.DeliveryDate,
		Country: p.Country, District: p.District, Municipality: p.Municipality, Parish: p.Parish,
		Address: p.Address, Region: p.Region, City: p.City,
		Image: p.Image, Images: p.Images, Features: p.Features, WhyChoose: p.WhyChoose,
		Status: p.Status, IsFeatured: p.IsFeatured, TeamMember: p.TeamMember,
		ImageSections: p.ImageSections, RelatedIDs: p.RelatedIDs,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	for _, f := range p.Files {
		if f.Visible {
			v.Files = append(v.Files, f)
		}
	}
	reg := domain.NewColumnRegistry(p.FractionColumns)
	for i := range p.FractionColumns {
		v.FractionColumns = append(v.FractionColumns, ProjectColumn(&p.FractionColumns[i], l))
	}
	for i := range p.Fractions {
		v.Fractions = append(v.Fractions, ProjectFraction(&p.Fractions[i], reg, l))
	}
	return v
}
