package domain

// RawSong is one song entry as found in a dataset's data.json.
type RawSong struct {
	Attrs
	Sheets []RawSheet `json:"sheets"`
}

// RawSheet is one sheet entry under a raw song.
type RawSheet struct {
	Attrs
	RegionOverrides map[string]Attrs `json:"regionOverrides,omitempty"`
}

// Song is a normalized song. Its sheets keep their authoring order.
type Song struct {
	attrs     Attrs
	songNo    int
	imageURL  string
	imageURLM string
	sheets    []*Sheet
}

// SongID returns the song identifier. ok is false for placeholder songs.
func (s *Song) SongID() (id string, ok bool) { return deref(s.attrs.SongID) }

// SongNo is the 1-based position of the song in fetch order.
func (s *Song) SongNo() int { return s.songNo }

func (s *Song) Category() string { return str(s.attrs.Category) }
func (s *Song) Title() string { return str(s.attrs.Title) }
func (s *Song) Artist() string { return str(s.attrs.Artist) }
func (s *Song) ImageName() string { return str(s.attrs.ImageName) }
func (s *Song) Version() string { return str(s.attrs.Version) }
func (s *Song) ReleaseDate() string { return str(s.attrs.ReleaseDate) }
func (s *Song) IsNew() bool { return flag(s.attrs.IsNew) }
func (s *Song) IsLocked() bool { return flag(s.attrs.IsLocked) }

// BPM returns the song tempo when the dataset defines one.
func (s *Song) BPM() (float64, bool) { return deref(s.attrs.BPM) }

// ImageURL is the absolute cover URL, empty when the song has no image.
func (s *Song) ImageURL() string { return s.imageURL }

// ImageURLM is the absolute medium cover URL.
func (s *Song) ImageURLM() string { return s.imageURLM }

// Sheets returns the song's sheets in authoring order.
func (s *Song) Sheets() []*Sheet {
	out := make([]*Sheet, len(s.sheets))
	copy(out, s.sheets)
	return out
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

func str(p *string) string {
	v, _ := deref(p)
	return v
}

func flag(p *bool) bool {
	v, _ := deref(p)
	return v
}
