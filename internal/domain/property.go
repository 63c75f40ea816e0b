package domain

import (
	"strings"
	"time"
)

type TransactionType string

const (
	TxBuy      TransactionType = "comprar"
	TxRent     TransactionType = "arrendar"
	TxTransfer TransactionType = "trespasse"
)

type Condition string

const (
	ConditionNew       Condition = "novo"
	ConditionUsed      Condition = "usado"
	ConditionRenovated Condition = "renovado"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusSold     Status = "sold"
	StatusRented   Status = "rented"
	StatusReserved Status = "reserved"
)

func ValidTransactionType(s string) bool {
	switch TransactionType(s) {
	case TxBuy, TxRent, TxTransfer:
		return true
	}
	return false
}

func ValidCondition(s string) bool {
	switch Condition(s) {
	case ConditionNew, ConditionUsed, ConditionRenovated:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusActive, StatusInactive, StatusSold, StatusRented, StatusReserved:
		return true
	}
	return false
}

type Property struct {
	ID                string          `json:"id"`
	Reference         string          `json:"reference,omitempty"`
	Title             Text            `json:"title"`
	Description       Text            `json:"description"`
	PaymentConditions Text            `json:"payment_conditions"`
	TransactionType   TransactionType `json:"transaction_type"`
	PropertyType      string          `json:"property_type"`
	IsDevelopment     bool            `json:"is_development"`
	Condition         Condition       `json:"condition,omitempty"`
	EnergyClass       string          `json:"energy_class,omitempty"`
	Price             float64         `json:"price"`
	TotalArea         *float64        `json:"total_area,omitempty"`
	BuiltArea         *float64        `json:"built_area,omitempty"`
	UsefulArea        *float64        `json:"useful_area,omitempty"`
	Bedrooms          int             `json:"bedrooms"`
	Bathrooms         int             `json:"bathrooms"`
	HasOffice         bool            `json:"has_office"`
	HasLaundry        bool            `json:"has_laundry"`
	GarageSpaces      int             `json:"garage_spaces"`
	ConstructionYear  *int            `json:"construction_year,omitempty"`
	DeliveryDate      *time.Time      `json:"delivery_date,omitempty"`
	Country           string          `json:"country"`
	District          string          `json:"district"`
	Municipality      string          `json:"municipality"`
	Parish            string          `json:"parish,omitempty"`
	Address           string          `json:"address,omitempty"`
	Region            string          `json:"region,omitempty"`
	City              string          `json:"city,omitempty"`
	Image             string          `json:"image,omitempty"`
	Images            []string        `json:"images"`
	Features          string          `json:"features,omitempty"`
	WhyChoose         string          `json:"why_choose,omitempty"`
	Status            Status          `json:"status"`
	IsFeatured        bool            `json:"is_featured"`
	TeamMemberID      *string         `json:"team_member_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Loaded on demand.
	TeamMember      *TeamMember      `json:"team_member,omitempty"`
	ImageSections   []ImageSection   `json:"image_sections,omitempty"`
	Files           []PropertyFile   `json:"files,omitempty"`
	Fractions       []Fraction       `json:"fractions,omitempty"`
	FractionColumns []FractionColumn `json:"fraction_columns,omitempty"`
	RelatedIDs      []string         `json:"related_ids,omitempty"`
}

func (p *Property) Target() TranslationTarget {
	return TranslationTarget{Entity: "properties", ID: p.ID}
}

func (p *Property) TextFields() []FieldRef {
	return []FieldRef{
		{"title", &p.Title},
		{"description", &p.Description},
		{"payment_conditions", &p.PaymentConditions},
	}
}

// Validate checks the catalog invariants a write must hold.
func (p *Property) Validate() error {
	switch {
	case p.Title.PT == "":
		return Invalid("title", "required")
	case !ValidTransactionType(string(p.TransactionType)):
		return Invalid("transaction_type", "unknown value %q", p.TransactionType)
	case p.PropertyType == "":
		return Invalid("property_type", "required")
	case p.Condition != "" && !ValidCondition(string(p.Condition)):
		return Invalid("condition", "unknown value %q", p.Condition)
	case !ValidStatus(string(p.Status)):
		return Invalid("status", "unknown value %q", p.Status)
	case p.Price < 0:
		return Invalid("price", "must be >= 0")
	case p.Bedrooms < 0:
		return Invalid("bedrooms", "must be >= 0")
	case p.Bathrooms < 0:
		return Invalid("bathrooms", "must be >= 0")
	case p.GarageSpaces < 0:
		return Invalid("garage_spaces", "must be >= 0")
	}
	for _, a := range []struct {
		name string
		v    *float64
	}{{"total_area", p.TotalArea}, {"built_area", p.BuiltArea}, {"useful_area", p.UsefulArea}} {
		if a.v != nil && *a.v < 0 {
			return Invalid(a.name, "must be >= 0")
		}
	}
	for _, id := range p.RelatedIDs {
		if p.ID != "" && id == p.ID {
			return Invalid("related_ids", "a property cannot be related to itself")
		}
	}
	return nil
}

// PropertyPatch carries a partial property update. Nil means untouched.
type PropertyPatch struct {
	Reference         *string          `json:"reference"`
	Title             *string          `json:"title"`
	Description       *string          `json:"description"`
	PaymentConditions *string          `json:"payment_conditions"`
	TransactionType   *TransactionType `json:"transaction_type"`
	PropertyType      *string          `json:"property_type"`
	IsDevelopment     *bool            `json:"is_development"`
	Condition         *Condition       `json:"condition"`
	EnergyClass       *string          `json:"energy_class"`
	Price             *float64         `json:"price"`
	TotalArea         *float64         `json:"total_area"`
	BuiltArea         *float64         `json:"built_area"`
	UsefulArea        *float64         `json:"useful_area"`
	Bedrooms          *int             `json:"bedrooms"`
	Bathrooms         *int             `json:"bathrooms"`
	HasOffice         *bool            `json:"has_office"`
	HasLaundry        *bool            `json:"has_laundry"`
	GarageSpaces      *int             `json:"garage_spaces"`
	ConstructionYear  *int             `json:"construction_year"`
	DeliveryDate      *time.Time       `json:"delivery_date"`
	Country           *string          `json:"country"`
	District          *string          `json:"district"`
	Municipality      *string          `json:"municipality"`
	Parish            *string          `json:"parish"`
	Address           *string          `json:"address"`
	Region            *string          `json:"region"`
	City              *string          `json:"city"`
	Features          *string          `json:"features"`
	WhyChoose         *string          `json:"why_choose"`
	Status            *Status          `json:"status"`
	IsFeatured        *bool            `json:"is_featured"`
	TeamMemberID      *string          `json:"team_member_id"`

	// Images is the gallery to keep; URLs absent from it are removed from storage.
	Images *[]string `json:"images"`
	// ClearImage drops the cover when no new one is uploaded.
	ClearImage bool `json:"clear_image"`
}

// Apply writes the patch onto p and returns the text fields whose source changed.
func (pp PropertyPatch) Apply(p *Property) []string {
	var touched []string
	setText := func(name string, dst *Text, v *string) {
		if v != nil && *v != dst.PT {
			dst.PT = *v
			touched = append(touched, name)
		}
	}
	setText("title", &p.Title, pp.Title)
	setText("description", &p.Description, pp.Description)
	setText("payment_conditions", &p.PaymentConditions, pp.PaymentConditions)

	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setStr(&p.Reference, pp.Reference)
	setStr(&p.PropertyType, pp.PropertyType)
	setStr(&p.EnergyClass, pp.EnergyClass)
	setStr(&p.Country, pp.Country)
	setStr(&p.District, pp.District)
	setStr(&p.Municipality, pp.Municipality)
	setStr(&p.Parish, pp.Parish)
	setStr(&p.Address, pp.Address)
	setStr(&p.Region, pp.Region)
	setStr(&p.City, pp.City)
	setStr(&p.Features, pp.Features)
	setStr(&p.WhyChoose, pp.WhyChoose)

	if pp.TransactionType != nil {
		p.TransactionType = *pp.TransactionType
	}
	if pp.Condition != nil {
		p.Condition = *pp.Condition
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.IsDevelopment != nil {
		p.IsDevelopment = *pp.IsDevelopment
	}
	if pp.HasOffice != nil {
		p.HasOffice = *pp.HasOffice
	}
	if pp.HasLaundry != nil {
		p.HasLaundry = *pp.HasLaundry
	}
	if pp.IsFeatured != nil {
		p.IsFeatured = *pp.IsFeatured
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.TotalArea != nil {
		p.TotalArea = pp.TotalArea
	}
	if pp.BuiltArea != nil {
		p.BuiltArea = pp.BuiltArea
	}
	if pp.UsefulArea != nil {
		p.UsefulArea = pp.UsefulArea
	}
	if pp.Bedrooms != nil {
		p.Bedrooms = *pp.Bedrooms
	}
	if pp.Bathrooms != nil {
		p.Bathrooms = *pp.Bathrooms
	}
	if pp.GarageSpaces != nil {
		p.GarageSpaces = *pp.GarageSpaces
	}
	if pp.ConstructionYear != nil {
		p.ConstructionYear = pp.ConstructionYear
	}
	if pp.DeliveryDate != nil {
		p.DeliveryDate = pp.DeliveryDate
	}
	if pp.TeamMemberID != nil {
		if *pp.TeamMemberID == "" {
			p.TeamMemberID = nil
		} else {
			p.TeamMemberID = pp.TeamMemberID
		}
	}
	return touched
}

// ImageSection is an ordered, named group of gallery images.
type ImageSection struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	Name       string    `json:"name"`
	Images     []string  `json:"images"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type PropertyFile struct {
	ID           string    `json:"id"`
	PropertyID   string    `json:"property_id"`
	Title        string    `json:"title,omitempty"`
	Visible      bool      `json:"is_visible"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"file_size"`
	URL          string    `json:"url"`
	Order        int       `json:"order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PropertyFilter is the parsed search input. Nil and empty fields add no constraint.
type PropertyFilter struct {
	MinPrice        *float64
	MaxPrice        *float64
	PropertyType    *string
	TransactionType *TransactionType
	Condition       *Condition
	EnergyClass     *string
	Status          *Status
	IsDevelopment   *bool
	IsFeatured      *bool
	District        *string // case-insensitive substring
	Municipality    *string // case-insensitive substring
	DistrictIs      *string // exact
	MinArea         *float64
	MaxArea         *float64
	Bedrooms        []int
	Bathrooms       []int
	MinGarage       *int
	MaxGarage       *int
	Search          *string
	ExcludeIDs      []string
}

type Sort struct {
	Field string // created_at|price|total_area|useful_area|bedrooms|bathrooms|garage_spaces
	Desc  bool
}

type PropertyQuery struct {
	Filter PropertyFilter
	Sort   Sort
	Page   int
	Limit  int
}

type PropertyPage struct {
	Items      []Property `json:"data"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"total_pages"`
}

type ImageSectionPatch struct {
	Name  *string `json:"name"`
	Order *int    `json:"order"`
	// Images is the list to keep; uploads are appended after it.
	Images *[]string `json:"images"`
}

func (s *ImageSection) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return Invalid("name", "required")
	}
	return nil
}

type PropertyFilePatch struct {
	Title   *string `json:"title"`
	Visible *bool   `json:"is_visible"`
	Order   *int    `json:"order"`
}

func (pp PropertyFilePatch) Apply(f *PropertyFile) {
	if pp.Title != nil {
		f.Title = *pp.Title
	}
	if pp.Visible != nil {
		f.Visible = *pp.Visible
	}
	if pp.Order != nil {
		f.Order = *pp.Order
	}
}
