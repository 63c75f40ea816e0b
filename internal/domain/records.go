package domain

import (
	"html"
	"math"
	"regexp"
	"strings"
	"time"
)

type TeamMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	Order     int       `json:"display_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *TeamMember) Stamp(id string, now time.Time) {
	stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt, id, now)
}

func (m *TeamMember) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return Invalid("name", "required")
	}
	if m.Email != "" && !strings.Contains(m.Email, "@") {
		return Invalid("email", "not an email address")
	}
	return nil
}

type Newsletter struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	ReadingTime int       `json:"reading_time"`
	CoverImage  string    `json:"cover_image,omitempty"`
	PropertyIDs []string  `json:"property_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (n *Newsletter) Stamp(id string, now time.Time) {
	stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt, id, now)
}

func (n *Newsletter) Validate() error {
	switch t := len([]rune(strings.TrimSpace(n.Title))); {
	case t < 3 || t > 255:
		return Invalid("title", "must be between 3 and 255 characters")
	case strings.TrimSpace(n.Content) == "":
		return Invalid("content", "required")
	case strings.TrimSpace(n.Category) == "" || len([]rune(n.Category)) > 100:
		return Invalid("category", "must be between 1 and 100 characters")
	}
	return nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// ReadingTime estimates minutes at 200 words per minute, never less than one.
func ReadingTime(content string) int {
	plain := html.UnescapeString(tagRe.ReplaceAllString(content, " "))
	words := len(strings.Fields(plain))
	return int(math.Max(1, math.Ceil(float64(words)/200)))
}

type TeamMemberPatch struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
	Order *int    `json:"display_order"`
	// ClearPhoto drops the photo when no new one is uploaded.
	ClearPhoto bool `json:"clear_photo"`
}

func (pp TeamMemberPatch) Apply(m *TeamMember) {
	if pp.Name != nil {
		m.Name = *pp.Name
	}
	if pp.Phone != nil {
		m.Phone = *pp.Phone
	}
	if pp.Email != nil {
		m.Email = *pp.Email
	}
	if pp.Order != nil {
		m.Order = *pp.Order
	}
}

type NewsletterPatch struct {
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	Category    *string   `json:"category"`
	PropertyIDs *[]string `json:"property_ids"`
}

// Apply recomputes the reading time when the content changes.
func (pp NewsletterPatch) Apply(n *Newsletter) {
	if pp.Title != nil {
		n.Title = *pp.Title
	}
	if pp.Category != nil {
		n.Category = *pp.Category
	}
	if pp.Content != nil {
		n.Content = *pp.Content
		n.ReadingTime = ReadingTime(n.Content)
	}
	if pp.PropertyIDs != nil {
		n.PropertyIDs = *pp.PropertyIDs
	}
}

// SiteConfig holds the headline figures shown across the public site. There
// is one row, created with zero values on first access.
type SiteConfig struct {
	ID                  string    `json:"id"`
	SatisfiedClients    int       `json:"satisfied_clients"`
	Rating              float64   `json:"rating"`
	YearsOfExperience   int       `json:"years_of_experience"`
	PropertiesSold      int       `json:"properties_sold"`
	EpisodesPublished   int       `json:"episodes_published"`
	Seasons             int       `json:"seasons"`
	GuestExperts        int       `json:"guest_experts"`
	EurosInTransactions int       `json:"euros_in_transactions"`
	InstagramFollowers  int       `json:"instagram_followers"`
	PresenterImage      string    `json:"presenter_image,omitempty"`
	PodcastImage        string    `json:"podcast_image,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type SiteConfigPatch struct {
	SatisfiedClients    *int     `json:"satisfied_clients"`
	Rating              *float64 `json:"rating"`
	YearsOfExperience   *int     `json:"years_of_experience"`
	PropertiesSold      *int     `json:"properties_sold"`
	EpisodesPublished   *int     `json:"episodes_published"`
	Seasons             *int     `json:"seasons"`
	GuestExperts        *int     `json:"guest_experts"`
	EurosInTransactions *int     `json:"euros_in_transactions"`
	InstagramFollowers  *int     `json:"instagram_followers"`
}

// Validate rejects negative counters and a rating outside 0..5.
func (pp SiteConfigPatch) Validate() error {
	counts := []struct {
		name string
		v    *int
	}{
		{"satisfied_clients", pp.SatisfiedClients},
		{"years_of_experience", pp.YearsOfExperience},
		{"properties_sold", pp.PropertiesSold},
		{"episodes_published", pp.EpisodesPublished},
		{"seasons", pp.Seasons},
		{"guest_experts", pp.GuestExperts},
		{"euros_in_transactions", pp.EurosInTransactions},
		{"instagram_followers", pp.InstagramFollowers},
	}
	for _, c := range counts {
		if c.v != nil && *c.v < 0 {
			return Invalid(c.name, "must not be negative")
		}
	}
	if r := pp.Rating; r != nil && (*r < 0 || *r > 5) {
		return Invalid("rating", "must be between 0 and 5")
	}
	return nil
}

func (pp SiteConfigPatch) Apply(c *SiteConfig) {
	setInt(&c.SatisfiedClients, pp.SatisfiedClients)
	setInt(&c.YearsOfExperience, pp.YearsOfExperience)
	setInt(&c.PropertiesSold, pp.PropertiesSold)
	setInt(&c.EpisodesPublished, pp.EpisodesPublished)
	setInt(&c.Seasons, pp.Seasons)
	setInt(&c.GuestExperts, pp.GuestExperts)
	setInt(&c.EurosInTransactions, pp.EurosInTransactions)
	setInt(&c.InstagramFollowers, pp.InstagramFollowers)
	if pp.Rating != nil {
		c.Rating = *pp.Rating
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// DesiredZone is a region buyers are pointed at on the landing page.
type DesiredZone struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Order     int       `json:"display_order"`
	Active    bool      `json:"is_active"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (z *DesiredZone) Stamp(id string, now time.Time) {
	stamp(&z.ID, &z.CreatedAt, &z.UpdatedAt, id, now)
}

func (z *DesiredZone) Validate() error {
	switch {
	case strings.TrimSpace(z.Name) == "" || len([]rune(z.Name)) > 100:
		return Invalid("name", "must be between 1 and 100 characters")
	case z.Image == "":
		return Invalid("image", "required")
	case z.Order < 0:
		return Invalid("display_order", "must not be negative")
	case !countryRe.MatchString(z.Country):
		return Invalid("country", "must be an ISO 3166-1 alpha-2 code")
	}
	return nil
}

var countryRe = regexp.MustCompile(`^[A-Z]{2}$`)

type DesiredZonePatch struct {
	Name    *string `json:"name"`
	Order   *int    `json:"display_order"`
	Active  *bool   `json:"is_active"`
	Country *string `json:"country"`
}

func (pp DesiredZonePatch) Apply(z *DesiredZone) {
	if pp.Name != nil {
		z.Name = *pp.Name
	}
	setInt(&z.Order, pp.Order)
	if pp.Active != nil {
		z.Active = *pp.Active
	}
	if pp.Country != nil {
		z.Country = strings.ToUpper(*pp.Country)
	}
}
