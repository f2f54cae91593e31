package search

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
)

// SheetIndex is an in-memory Bleve index over one dataset.
//
// Thread safety: all public methods are safe for concurrent use.
type SheetIndex struct {
	index  bleve.Index
	data   *domain.Data
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

// Options configures the index.
type Options struct {
	Logger *slog.Logger // uses discard if nil
}

// Build indexes every sheet and region override of data.
func Build(data *domain.Data, opts Options) (*SheetIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	s := &SheetIndex{index: index, data: data, logger: logger.OrDiscard(opts.Logger)}
	if err := s.indexDocuments(DataToDocuments(data)); err != nil {
		_ = index.Close()
		return nil, err
	}
	s.logger.Debug("built sheet index", "sheets", data.SheetCount())
	return s, nil
}

// indexDocuments indexes documents in chunks to bound batch memory.
func (s *SheetIndex) indexDocuments(docs []*SheetDocument) error {
	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// Data returns the dataset the index was built from.
func (s *SheetIndex) Data() *domain.Data { return s.data }

// DocumentCount returns the number of indexed sheet views.
func (s *SheetIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errIndexClosed
	}
	return s.index.DocCount()
}

// Close releases the index. Further calls fail.
func (s *SheetIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}

var errIndexClosed = errors.New("sheet index closed")
