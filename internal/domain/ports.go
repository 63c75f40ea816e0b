package domain

import "context"

// TranslationProvider translates one text from source into target.
type TranslationProvider interface {
	Translate(ctx context.Context, text string, source, target Locale) (string, error)
}

// TranslationStore persists derived values only. The source column of each
// field is never written through it.
type TranslationStore interface {
	SaveTranslations(ctx context.Context, target TranslationTarget, fields []FieldRef) error
}

type StoredMedia struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type MediaStore interface {
	Store(ctx context.Context, data []byte, mimeType, nameHint string) (StoredMedia, error)
	Delete(ctx context.Context, ref string) error
	// Ref extracts the stored reference from a public URL it issued.
	Ref(url string) (string, bool)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type PageRepository interface {
	// FindPage returns the oldest row of kind, or ErrNotFound.
	FindPage(ctx context.Context, kind PageKind) (*Page, error)
	CreatePage(ctx context.Context, p *Page) error
	// UpdatePage writes the source values and attributes of p.
	UpdatePage(ctx context.Context, p *Page) error
}

type SiteConfigRepository interface {
	// FindSiteConfig returns the oldest row, or ErrNotFound.
	FindSiteConfig(ctx context.Context) (*SiteConfig, error)
	CreateSiteConfig(ctx context.Context, c *SiteConfig) error
	UpdateSiteConfig(ctx context.Context, c *SiteConfig) error
}

// CollectionStore is the CRUD surface shared by the ordered collections.
// List returns rows ordered by display order, then creation time.
type CollectionStore[T any] interface {
	Create(ctx context.Context, v *T) error
	Find(ctx context.Context, id string) (*T, error)
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id string) error
}

type PropertyRepository interface {
	CreateProperty(ctx context.Context, p *Property) error
	// FindProperty loads the row; withRelations also loads children ordered
	// by display order, the related ids and the owning team member.
	FindProperty(ctx context.Context, id string, withRelations bool) (*Property, error)
	SearchProperties(ctx context.Context, q PropertyQuery) ([]Property, int, error)
	UpdateProperty(ctx context.Context, p *Property) error
	DeleteProperty(ctx context.Context, id string) error

	// ExistingPropertyIDs returns the subset of ids that resolve.
	ExistingPropertyIDs(ctx context.Context, ids []string) ([]string, error)
	RelatedIDs(ctx context.Context, id string) ([]string, error)
	ReplaceRelated(ctx context.Context, id string, related []string) error
	FindProperties(ctx context.Context, ids []string) ([]Property, error)
}

type ChildRepository interface {
	ListImageSections(ctx context.Context, propertyID string) ([]ImageSection, error)
	FindImageSection(ctx context.Context, id string) (*ImageSection, error)
	CreateImageSection(ctx context.Context, s *ImageSection) error
	UpdateImageSection(ctx context.Context, s *ImageSection) error
	DeleteImageSection(ctx context.Context, id string) error

	ListFiles(ctx context.Context, propertyID string) ([]PropertyFile, error)
	FindFile(ctx context.Context, id string) (*PropertyFile, error)
	CreateFile(ctx context.Context, f *PropertyFile) error
	UpdateFile(ctx context.Context, f *PropertyFile) error
	DeleteFile(ctx context.Context, id string) error
}

type FractionRepository interface {
	ListFractionColumns(ctx context.Context, propertyID string) ([]FractionColumn, error)
	FindFractionColumn(ctx context.Context, id string) (*FractionColumn, error)
	CreateFractionColumn(ctx context.Context, c *FractionColumn) error
	UpdateFractionColumn(ctx context.Context, c *FractionColumn) error
	DeleteFractionColumn(ctx context.Context, id string) error

	ListFractions(ctx context.Context, propertyID string) ([]Fraction, error)
	FindFraction(ctx context.Context, id string) (*Fraction, error)
	// CreateFractions inserts all rows or none.
	CreateFractions(ctx context.Context, fs []*Fraction) error
	UpdateFraction(ctx context.Context, f *Fraction) error
	DeleteFraction(ctx context.Context, id string) error
}
