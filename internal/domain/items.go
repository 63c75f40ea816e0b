package domain

import "time"

type ItemKind string

const (
	ItemCulture      ItemKind = "culture"
	ItemService      ItemKind = "service"
	ItemPodcastTopic ItemKind = "podcast_topic"
)

func ParseItemKind(s string) (ItemKind, bool) {
	switch k := ItemKind(s); k {
	case ItemCulture, ItemService, ItemPodcastTopic:
		return k, true
	}
	return "", false
}

func ItemKinds() []ItemKind { return []ItemKind{ItemCulture, ItemService, ItemPodcastTopic} }

// Item backs the culture, service and podcast-topic collections.
type Item struct {
	ID          string    `json:"id"`
	Kind        ItemKind  `json:"kind"`
	Title       Text      `json:"title"`
	Description Text      `json:"description"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (i *Item) Target() TranslationTarget { return TranslationTarget{Entity: "items", ID: i.ID} }
func (i *Item) TextFields() []FieldRef {
	return []FieldRef{{"title", &i.Title}, {"description", &i.Description}}
}
func (i *Item) Stamp(id string, now time.Time) { stamp(&i.ID, &i.CreatedAt, &i.UpdatedAt, id, now) }

func (i *Item) Validate() error {
	if i.Title.PT == "" {
		return Invalid("title", "required")
	}
	if i.Order < 0 {
		return Invalid("order", "must be >= 0")
	}
	return nil
}

type Testimonial struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Text       Text      `json:"text"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (t *Testimonial) Target() TranslationTarget {
	return TranslationTarget{Entity: "testimonials", ID: t.ID}
}
func (t *Testimonial) TextFields() []FieldRef { return []FieldRef{{"text", &t.Text}} }
func (t *Testimonial) Stamp(id string, now time.Time) {
	stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt, id, now)
}

func (t *Testimonial) Validate() error {
	if t.ClientName == "" {
		return Invalid("client_name", "required")
	}
	if t.Text.PT == "" {
		return Invalid("text", "required")
	}
	return nil
}

// stamp assigns identity and creation time once and refreshes the update time.
func stamp(dstID *string, created, updated *time.Time, id string, now time.Time) {
	if *dstID == "" {
		*dstID = id
		*created = now
	}
	*updated = now
}

type ItemPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
}

// Apply returns the text fields whose source value changed.
func (pp ItemPatch) Apply(i *Item) []string {
	var touched []string
	if pp.Title != nil && *pp.Title != i.Title.PT {
		i.Title.PT = *pp.Title
		touched = append(touched, "title")
	}
	if pp.Description != nil && *pp.Description != i.Description.PT {
		i.Description.PT = *pp.Description
		touched = append(touched, "description")
	}
	if pp.Order != nil {
		i.Order = *pp.Order
	}
	return touched
}

type TestimonialPatch struct {
	ClientName *string `json:"client_name"`
	Text       *string `json:"text"`
	Order      *int    `json:"order"`
}

func (pp TestimonialPatch) Apply(t *Testimonial) []string {
	if pp.ClientName != nil {
		t.ClientName = *pp.ClientName
	}
	if pp.Order != nil {
		t.Order = *pp.Order
	}
	if pp.Text != nil && *pp.Text != t.Text.PT {
		t.Text.PT = *pp.Text
		return []string{"text"}
	}
	return nil
}
