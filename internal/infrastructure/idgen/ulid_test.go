package idgen

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGenerator_Generate(t *testing.T) {
	gen := NewULIDGenerator()

	seen := make(map[string]bool)
	prev := ""
	for range 1000 {
		id := gen.Generate()
		_, err := ulid.ParseStrict(id)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		assert.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
}
