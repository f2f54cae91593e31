package domain

// RawGallerySection is a gallery section as fetched; sheets are sheetExpr references.
type RawGallerySection struct {
	Title             string   `json:"title,omitempty"`
	Description       string   `json:"description,omitempty"`
	Sheets            []string `json:"sheets,omitempty"`
	SheetDescriptions []string `json:"sheetDescriptions,omitempty"`
}

// RawGalleryList is one curated list of sections.
type RawGalleryList struct {
	Title       string              `json:"title"`
	ID          string              `json:"id,omitempty"`
	Description string              `json:"description,omitempty"`
	Sections    []RawGallerySection `json:"sections"`
	IsHidden    bool                `json:"isHidden,omitempty"`
}

// GallerySection is a section whose references were resolved to sheets (or dummy placeholders).
type GallerySection struct {
	Title             string
	Description       string
	Sheets            []*Sheet
	SheetDescriptions []string
}

// GalleryList is a resolved curated list.
type GalleryList struct {
	Title       string
	ID          string
	Description string
	Sections    []GallerySection
	IsHidden    bool
}

// Gallery is the resolved gallery of one game.
type Gallery []GalleryList
