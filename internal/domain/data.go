package domain

import "slices"

// EmptyUpdateTime marks the pre-load sentinel Data.
const EmptyUpdateTime = "0000-00-00"

// Category is one entry of the dataset's category table.
type Category struct {
	Category string `json:"category"`
}

// Version is one release version; Abbr and ReleaseDate are optional.
type Version struct {
	Version     string `json:"version"`
	Abbr        string `json:"abbr,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// SheetType is a chart type such as "dx" or "std".
type SheetType struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	Abbr       string `json:"abbr,omitempty"`
	IconURL    string `json:"iconUrl,omitempty"`
	IconHeight int    `json:"iconHeight,omitempty"`
}

// Difficulty is a difficulty tier such as "expert".
type Difficulty struct {
	Difficulty string `json:"difficulty"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	IconURL    string `json:"iconUrl,omitempty"`
	IconHeight int    `json:"iconHeight,omitempty"`
}

// Region is a distribution region such as "jp" or "intl".
type Region struct {
	Region string `json:"region"`
	Name   string `json:"name"`
}

// RawData is the decoded data.json payload before normalization.
type RawData struct {
	Songs        []RawSong    `json:"songs"`
	Categories   []Category   `json:"categories"`
	Versions     []Version    `json:"versions"`
	Types        []SheetType  `json:"types"`
	Difficulties []Difficulty `json:"difficulties"`
	Regions      []Region     `json:"regions"`
	UpdateTime   string       `json:"updateTime"`
}

// Data is the sealed, normalized dataset of one game. All accessors return copies.
type Data struct {
	songs        []*Song
	sheets       []*Sheet
	categories   []Category
	versions     []Version
	types        []SheetType
	difficulties []Difficulty
	regions      []Region
	updateTime   string
}

// EmptyData returns the pre-load sentinel.
func EmptyData() *Data {
	return &Data{updateTime: EmptyUpdateTime}
}

// IsEmpty reports whether d is the pre-load sentinel. A loaded dataset with no songs is not empty.
func (d *Data) IsEmpty() bool { return d == nil || d.updateTime == EmptyUpdateTime }

// Songs returns the songs newest first.
func (d *Data) Songs() []*Song { return slices.Clone(d.songs) }

// Sheets returns every canonical sheet in song order.
func (d *Data) Sheets() []*Sheet { return slices.Clone(d.sheets) }

// SheetCount returns len(Sheets()) without copying.
func (d *Data) SheetCount() int { return len(d.sheets) }

// SongCount returns len(Songs()) without copying.
func (d *Data) SongCount() int { return len(d.songs) }

// SheetAt returns the canonical sheet at ordinal i.
func (d *Data) SheetAt(i int) (*Sheet, bool) {
	if i < 0 || i >= len(d.sheets) {
		return nil, false
	}
	return d.sheets[i], true
}

func (d *Data) Categories() []Category { return slices.Clone(d.categories) }
func (d *Data) Versions() []Version { return slices.Clone(d.versions) }
func (d *Data) Types() []SheetType { return slices.Clone(d.types) }
func (d *Data) Difficulties() []Difficulty { return slices.Clone(d.difficulties) }
func (d *Data) Regions() []Region { return slices.Clone(d.regions) }
func (d *Data) UpdateTime() string { return d.updateTime }

// DataParams is the input of Builder.Build.
type DataParams struct {
	Songs        []*Song
	Sheets       []*Sheet
	Categories   []Category
	Versions     []Version
	Types        []SheetType
	Difficulties []Difficulty
	Regions      []Region
	UpdateTime   string
}

// Builder constructs songs and sheets. It must not be used after Build.
type Builder struct {
	built bool
}

// NewBuilder returns a fresh builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) check() {
	if b.built {
		panic("domain: builder used after Build")
	}
}

// Song creates a song with its assigned number and resolved cover URLs.
func (b *Builder) Song(attrs Attrs, songNo int, imageURL, imageURLM string) *Song {
	b.check()
	return &Song{attrs: attrs.clone(), songNo: songNo, imageURL: imageURL, imageURLM: imageURLM}
}

// Sheet appends a canonical sheet to song.
func (b *Builder) Sheet(song *Song, p SheetParams) *Sheet {
	b.check()
	sh := &Sheet{
		own:       p.Attrs.clone(),
		imageURL:  p.ImageURL,
		imageURLM: p.ImageURLM,
		song:      song,
		ordinal:   -1,
	}
	song.sheets = append(song.sheets, sh)
	return sh
}

// Finish records the derived fields of a canonical sheet, which depend on inherited values.
func (b *Builder) Finish(sh *Sheet, sheetExpr string, percents NotePercents) {
	b.check()
	sh.sheetExpr = sheetExpr
	sh.notePercents = percents
}

// Override attaches a region override view to a canonical sheet.
func (b *Builder) Override(base *Sheet, region string, p SheetParams, percents NotePercents) *Sheet {
	b.check()
	o := &Sheet{
		own:          p.Attrs.clone(),
		imageURL:     p.ImageURL,
		imageURLM:    p.ImageURLM,
		base:         base,
		region:       region,
		notePercents: percents,
	}
	if base.overrides == nil {
		base.overrides = make(map[string]*Sheet)
	}
	base.overrides[region] = o
	return o
}

// Build seals the dataset and numbers the sheets by their position in p.Sheets.
func (b *Builder) Build(p DataParams) *Data {
	b.check()
	b.built = true

	for i, sh := range p.Sheets {
		sh.ordinal = i
	}
	return &Data{
		songs:        slices.Clone(p.Songs),
		sheets:       slices.Clone(p.Sheets),
		categories:   slices.Clone(p.Categories),
		versions:     slices.Clone(p.Versions),
		types:        slices.Clone(p.Types),
		difficulties: slices.Clone(p.Difficulties),
		regions:      slices.Clone(p.Regions),
		updateTime:   p.UpdateTime,
	}
}
