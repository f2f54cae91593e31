package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate(PrefixDraw)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixDraw, PrefixCombo} {
		t.Run(prefix, func(t *testing.T) {
			id := MustGenerate(prefix)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, id, len(prefix)+1+length)
			assert.True(t, HasPrefix(id, prefix))
			assert.NotContains(t, id[len(prefix)+1:], "-")
		})
	}
}

func TestHasPrefix_Rejects(t *testing.T) {
	assert.False(t, HasPrefix("draw-short", PrefixDraw))
	assert.False(t, HasPrefix(MustGenerate(PrefixCombo), PrefixDraw))
	assert.False(t, HasPrefix("", PrefixDraw))
}
