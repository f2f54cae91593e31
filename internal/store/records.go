package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

// DatasetSnapshot is the last raw payload pair fetched for a game.
// It lets the catalog come up when the data source is unreachable.
type DatasetSnapshot struct {
	GameCode  string          `json:"gameCode"`
	Data      json.RawMessage `json:"data"`
	Gallery   json.RawMessage `json:"gallery,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// SaveSnapshot stores the snapshot of a game, replacing any previous one.
func (s *Store) SaveSnapshot(ctx context.Context, snap *DatasetSnapshot) error {
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	if err := s.Datasets.Put(ctx, snap.GameCode, snap); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.GameCode, err)
	}
	s.logger.Debug("dataset snapshot saved", "game", snap.GameCode, "bytes", len(snap.Data))
	return nil
}

// GetSnapshot returns the snapshot of a game.
func (s *Store) GetSnapshot(ctx context.Context, gameCode string) (*DatasetSnapshot, error) {
	return s.Datasets.Get(ctx, gameCode)
}

// SaveCombo stores a combo under its ID.
func (s *Store) SaveCombo(ctx context.Context, combo *domain.Combo) error {
	if combo.ID == "" {
		return errors.New("combo has no id")
	}
	if combo.CreatedAt.IsZero() {
		combo.CreatedAt = time.Now()
	}
	return s.Combos.Put(ctx, combo.ID, combo)
}

// GetCombo returns a combo by ID.
func (s *Store) GetCombo(ctx context.Context, id string) (*domain.Combo, error) {
	return s.Combos.Get(ctx, id)
}

// ListCombos returns the combos of a game, newest first.
func (s *Store) ListCombos(ctx context.Context, gameCode string) ([]*domain.Combo, error) {
	combos, err := s.Combos.ListByIndex(ctx, "game", gameCode)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(combos, func(a, b *domain.Combo) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return combos, nil
}

// DeleteCombo removes a combo. Missing combos are ignored.
func (s *Store) DeleteCombo(ctx context.Context, id string) error {
	return s.Combos.Delete(ctx, id)
}

func selectionID(gameCode, owner string) string {
	return gameCode + ":" + owner
}

// SaveSelection stores the selection of an owner for a game.
func (s *Store) SaveSelection(ctx context.Context, sel *domain.SheetSelection) error {
	sel.UpdatedAt = time.Now()
	return s.Selections.Put(ctx, selectionID(sel.GameCode, sel.Owner), sel)
}

// GetSelection returns the selection of an owner for a game.
func (s *Store) GetSelection(ctx context.Context, gameCode, owner string) (*domain.SheetSelection, error) {
	return s.Selections.Get(ctx, selectionID(gameCode, owner))
}

// DeleteSelection clears the selection of an owner for a game.
func (s *Store) DeleteSelection(ctx context.Context, gameCode, owner string) error {
	return s.Selections.Delete(ctx, selectionID(gameCode, owner))
}
