package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightlang/knight-vm/pkg/options"
	"github.com/knightlang/knight-vm/pkg/value"
)

func TestGcReclaimsUnrootedCells(t *testing.T) {
	g := value.NewGc()
	opts := options.Options{}

	rooted, err := value.NewString(g, []byte("kept"), opts)
	require.NoError(t, err)

	_, err = value.NewString(g, []byte("garbage"), opts)
	require.NoError(t, err)

	_, freeBefore, _ := g.Stats()
	assert.Equal(t, 0, freeBefore)

	g.Collect([]value.Value{rooted})

	_, freeAfter, collections := g.Stats()
	assert.Equal(t, 1, freeAfter)
	assert.Equal(t, 1, collections)

	// The rooted value must remain valid and unchanged after the sweep.
	cell, _ := rooted.AsString()
	assert.Equal(t, "kept", string(value.StringBytes(cell)))
}

func TestGcNeverReclaimsStaticCells(t *testing.T) {
	g := value.NewGc()
	empty, err := value.NewString(g, []byte{}, options.Options{})
	require.NoError(t, err)

	g.Collect(nil)

	cell, _ := empty.AsString()
	assert.True(t, cell.IsStatic())
}

func TestGcReuseRecycledCells(t *testing.T) {
	g := value.NewGc()
	opts := options.Options{}

	_, err := value.NewString(g, []byte("temp"), opts)
	require.NoError(t, err)
	arenaBefore, _, _ := g.Stats()

	g.Collect(nil)

	_, err = value.NewString(g, []byte("reused"), opts)
	require.NoError(t, err)
	arenaAfter, freeAfter, _ := g.Stats()

	assert.Equal(t, arenaBefore, arenaAfter, "a freed cell should be recycled rather than growing the arena")
	assert.Equal(t, 0, freeAfter)
}
