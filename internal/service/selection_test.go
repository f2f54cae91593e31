package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
)

func setupSelections(t *testing.T) *SelectionService {
	t.Helper()
	st := setupTestStore(t)
	return NewSelectionService(setupCatalog(t, newFakeSource(), st, nil), st, nil)
}

func sheetExprs(sheets []*domain.Sheet) []string {
	out := make([]string, len(sheets))
	for i, sh := range sheets {
		out[i] = sh.SheetExpr()
	}
	return out
}

func TestSelection_EmptyByDefault(t *testing.T) {
	svc := setupSelections(t)

	res, err := svc.Get(context.Background(), "maimai", "alice")
	require.NoError(t, err)
	assert.Empty(t, res.Sheets)
	assert.Equal(t, "alice", res.Owner)
}

func TestSelection_ToggleAddsAndRemoves(t *testing.T) {
	svc := setupSelections(t)
	ctx := context.Background()

	res, err := svc.Toggle(ctx, "maimai", "alice", "Alpha|std|basic")
	require.NoError(t, err)
	assert.True(t, res.Selected)

	res, err = svc.Toggle(ctx, "maimai", "alice", "Bravo|dx|master")
	require.NoError(t, err)
	assert.True(t, res.Selected)
	assert.Equal(t, []string{"Alpha|std|basic", "Bravo|dx|master"}, sheetExprs(res.Sheets))

	got, err := svc.Get(ctx, "maimai", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha|std|basic", "Bravo|dx|master"}, sheetExprs(got.Sheets))

	res, err = svc.Toggle(ctx, "maimai", "alice", "Alpha|std|basic")
	require.NoError(t, err)
	assert.False(t, res.Selected)
	assert.Equal(t, []string{"Bravo|dx|master"}, sheetExprs(res.Sheets))

	other, err := svc.Get(ctx, "maimai", "bob")
	require.NoError(t, err)
	assert.Empty(t, other.Sheets, "selections are per owner")
}

func TestSelection_StaleEntriesAreDropped(t *testing.T) {
	st := setupTestStore(t)
	svc := NewSelectionService(setupCatalog(t, newFakeSource(), st, nil), st, nil)
	ctx := context.Background()

	require.NoError(t, st.SaveSelection(ctx, &domain.SheetSelection{
		GameCode:   "maimai",
		Owner:      "alice",
		SheetExprs: []string{"Gone|dx|basic", "Alpha|std|expert"},
	}))

	res, err := svc.Get(ctx, "maimai", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha|std|expert"}, sheetExprs(res.Sheets))
}

func TestSelection_Errors(t *testing.T) {
	svc := setupSelections(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "maimai", "alice", "Alpha|dx|basic")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.Get(ctx, "maimai", "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Get(ctx, "chunithm", "alice")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	noStore := NewSelectionService(setupCatalog(t, newFakeSource(), nil, nil), nil, nil)
	_, err = noStore.Get(ctx, "maimai", "alice")
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
}

func TestSelection_Clear(t *testing.T) {
	svc := setupSelections(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "maimai", "alice", "Alpha|std|basic")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "maimai", "alice"))
	res, err := svc.Get(ctx, "maimai", "alice")
	require.NoError(t, err)
	assert.Empty(t, res.Sheets)

	require.NoError(t, svc.Clear(ctx, "maimai", "alice"), "clearing twice is fine")
}
