// Package catalog turns fetched dataset payloads into sealed domain.Data and resolves curated galleries.
package catalog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
)

// Options configures normalization.
type Options struct {
	Logger   *slog.Logger
	Policies NotePolicies
}

// Decode parses a data.json payload. Only undecodable input is an error; shape problems are
// left for Normalize to log.
func Decode(payload []byte) (*domain.RawData, error) {
	var raw domain.RawData
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&raw); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "decode dataset")
	}
	return &raw, nil
}

// DecodeGallery parses a gallery.json payload.
func DecodeGallery(payload []byte) ([]domain.RawGalleryList, error) {
	var lists []domain.RawGalleryList
	if err := json.Unmarshal(payload, &lists); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "decode gallery")
	}
	return lists, nil
}

type resolver struct {
	cover  *url.URL
	coverM *url.URL
	img    *url.URL
	logger *slog.Logger
}

func newResolver(baseURL string, log *slog.Logger) resolver {
	base := strings.TrimRight(baseURL, "/")
	parse := func(s string) *url.URL {
		u, err := url.Parse(s)
		if err != nil {
			log.Warn("invalid asset base url", "url", s, "error", err)
			return nil
		}
		return u
	}
	return resolver{
		cover:  parse(base + "/img/cover/"),
		coverM: parse(base + "/img/cover-m/"),
		img:    parse(base + "/img/"),
		logger: log,
	}
}

// resolve follows URL reference rules, so an absolute name is kept as is. Empty input stays empty.
func (r resolver) resolve(base *url.URL, name string) string {
	if name == "" || base == nil {
		return ""
	}
	ref, err := url.Parse(name)
	if err != nil {
		r.logger.Warn("unresolvable asset reference", "name", name, "error", err)
		return ""
	}
	return base.ResolveReference(ref).String()
}

func (r resolver) images(name *string) (string, string) {
	if name == nil {
		return "", ""
	}
	return r.resolve(r.cover, *name), r.resolve(r.coverM, *name)
}

// Normalize builds the sealed dataset for gameCode. baseURL is the game's data source URL.
// It never fails on data shape: anomalies are logged and the affected record is kept as is.
func Normalize(raw *domain.RawData, baseURL, gameCode string, opts Options) *domain.Data {
	log := logger.OrDiscard(opts.Logger).With("game", gameCode)
	policies := opts.Policies
	if policies == nil {
		policies = DefaultNotePolicies()
	}
	policy, checked := policies[gameCode]
	res := newResolver(baseURL, log)
	b := domain.NewBuilder()

	songs := make([]*domain.Song, 0, len(raw.Songs))
	for i, rs := range raw.Songs {
		if rs.SongID == nil {
			log.Warn("song without songId", "index", i, "title", deref(rs.Title))
		}

		img, imgM := res.images(rs.ImageName)
		song := b.Song(rs.Attrs, i+1, img, imgM)

		for _, rsh := range rs.Sheets {
			normalizeSheet(b, song, rsh, res, log, policy, checked)
		}
		songs = append(songs, song)
	}

	slices.Reverse(songs)

	sheets := make([]*domain.Sheet, 0, len(songs)*4)
	for _, song := range songs {
		sheets = append(sheets, song.Sheets()...)
	}

	types := slices.Clone(raw.Types)
	for i := range types {
		types[i].IconURL = res.resolve(res.img, types[i].IconURL)
	}
	difficulties := slices.Clone(raw.Difficulties)
	for i := range difficulties {
		difficulties[i].IconURL = res.resolve(res.img, difficulties[i].IconURL)
	}

	data := b.Build(domain.DataParams{
		Songs:        songs,
		Sheets:       sheets,
		Categories:   raw.Categories,
		Versions:     raw.Versions,
		Types:        types,
		Difficulties: difficulties,
		Regions:      raw.Regions,
		UpdateTime:   raw.UpdateTime,
	})

	log.Debug("dataset normalized", "songs", data.SongCount(), "sheets", data.SheetCount())
	return data
}

func normalizeSheet(
	b *domain.Builder,
	song *domain.Song,
	rsh domain.RawSheet,
	res resolver,
	log *slog.Logger,
	policy NotePolicy,
	checked bool,
) {
	img, imgM := res.images(rsh.ImageName)
	sheet := b.Sheet(song, domain.SheetParams{Attrs: rsh.Attrs, ImageURL: img, ImageURLM: imgM})

	// sheetExpr and percents depend on inherited values, so they are read back through the sheet.
	expr := SheetExpr(sheet)
	percents := domain.ComputeNotePercents(sheet.NoteCounts())
	b.Finish(sheet, expr, percents)

	if sheet.Type() == "" || sheet.Difficulty() == "" {
		log.Warn("sheet without type or difficulty", "sheetExpr", expr)
	}
	if checked && !policy.Consistent(sheet.NoteCounts()) {
		log.Warn("invalid note counts", "sheetExpr", expr, "noteCounts", formatCounts(sheet.NoteCounts()))
	}

	for _, region := range sortedKeys(rsh.RegionOverrides) {
		if region == "" {
			log.Warn("region override without region", "sheetExpr", expr)
			continue
		}
		attrs := rsh.RegionOverrides[region]
		oImg, oImgM := res.images(attrs.ImageName)

		var oPercents domain.NotePercents
		if attrs.NoteCounts != nil {
			oPercents = domain.ComputeNotePercents(attrs.NoteCounts)
		}
		b.Override(sheet, region, domain.SheetParams{Attrs: attrs, ImageURL: oImg, ImageURLM: oImgM}, oPercents)
	}
}

// SheetExpr computes "songId|type|difficulty" from a sheet's resolved fields.
func SheetExpr(s *domain.Sheet) string {
	id, _ := s.SongID()
	return id + "|" + s.Type() + "|" + s.Difficulty()
}

func formatCounts(c domain.NoteCounts) string {
	keys := sortedKeys(c)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := "null"
		if c[k] != nil {
			v = strconv.Itoa(*c[k])
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	return slices.Sorted(maps.Keys(m))
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
