// Package store persists dataset snapshots, saved combos and sheet selections in Badger.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
)

const (
	datasetPrefix   = "dataset:"
	comboPrefix     = "combo:"
	selectionPrefix = "selection:"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Datasets   *Entity[DatasetSnapshot]
	Combos     *Entity[domain.Combo]
	Selections *Entity[domain.SheetSelection]
}

// New opens or creates the database at path.
func New(path string, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	s, err := open(opts, log)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Badger database opened successfully", "path", path)
	return s, nil
}

// NewInMemory opens a database that lives only for the process lifetime.
func NewInMemory(log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, log)
}

func open(opts badger.Options, log *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger.OrDiscard(log)}
	s.Datasets = NewEntity[DatasetSnapshot](s, datasetPrefix)
	s.Combos = NewEntity[domain.Combo](s, comboPrefix).
		WithIndex("game", func(c *domain.Combo) []string { return []string{c.GameCode} })
	s.Selections = NewEntity[domain.SheetSelection](s, selectionPrefix)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger db: %w", err)
	}
	return nil
}

// Ping runs an empty read transaction to check the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}
