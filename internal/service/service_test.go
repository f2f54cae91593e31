package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/search"
	"github.com/arcadesongs/arcadesongs-server/internal/sse"
	"github.com/arcadesongs/arcadesongs-server/internal/store"
)

const testDataset = `{
  "songs": [
    {
      "songId": "Alpha",
      "category": "pop",
      "title": "Alpha",
      "artist": "Unit A",
      "bpm": 150,
      "sheets": [
        {"type": "std", "difficulty": "basic", "level": "3", "levelValue": 3},
        {"type": "std", "difficulty": "expert", "level": "9", "levelValue": 9}
      ]
    },
    {
      "songId": "Bravo",
      "category": "game",
      "title": "Bravo Star",
      "artist": "Unit B",
      "bpm": 190,
      "sheets": [
        {"type": "dx", "difficulty": "master", "level": "13", "levelValue": 13},
        {"type": "dx", "difficulty": "expert", "level": "11", "levelValue": 11}
      ]
    }
  ],
  "categories": [{"category": "pop"}, {"category": "game"}],
  "versions": [],
  "types": [{"type": "std", "name": "STD"}, {"type": "dx", "name": "DX"}],
  "difficulties": [{"difficulty": "basic", "name": "Basic"}, {"difficulty": "expert", "name": "Expert"}, {"difficulty": "master", "name": "Master"}],
  "regions": [],
  "updateTime": "2024-05-01T00:00:00Z"
}`

const testGallery = `[{"title": "Picks", "sections": [{"title": "Top", "sheets": ["Bravo|dx|master", "Gone|dx|basic"]}]}]`

var testSite = domain.Site{GameCode: "maimai", GameTitle: "maimai", DataSourceURL: "https://cdn.example/maimai"}

type fakeSource struct {
	mu         sync.Mutex
	data       []byte
	gallery    []byte
	dataErr    error
	galleryErr error
	dataCalls  atomic.Int32
	// gate, when set, blocks FetchData until closed.
	gate chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{data: []byte(testDataset), gallery: []byte(testGallery)}
}

func (f *fakeSource) FetchData(ctx context.Context, _ domain.Site) ([]byte, error) {
	f.dataCalls.Add(1)
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dataErr != nil {
		return nil, f.dataErr
	}
	return f.data, nil
}

func (f *fakeSource) FetchGallery(context.Context, domain.Site) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.galleryErr != nil {
		return nil, f.galleryErr
	}
	return f.gallery, nil
}

func (f *fakeSource) setDataErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dataErr = err
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recordingEmitter) ofType(t sse.EventType) []sse.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sse.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func setupCatalog(t *testing.T, src *fakeSource, st *store.Store, events EventEmitter) *CatalogService {
	t.Helper()
	svc := NewCatalogService(CatalogConfig{Sites: []domain.Site{testSite}}, src, st, events, nil, nil)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

var errSourceDown = domainerrors.Wrap(errors.New("connection refused"), domainerrors.CodeUpstream, "fetch data.json")

func searchAll() search.SearchParams {
	return search.SearchParams{Query: ""}
}
