package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightlang/knight-vm/pkg/options"
	"github.com/knightlang/knight-vm/pkg/value"
)

func TestScalarKinds(t *testing.T) {
	assert.True(t, value.Null().IsNull())

	b := value.Boolean(true)
	got, ok := b.AsBoolean()
	require.True(t, ok)
	assert.True(t, got)

	n := value.Integer(42)
	gotN, ok := n.AsInteger()
	require.True(t, ok)
	assert.EqualValues(t, 42, gotN)

	blk := value.Block(7)
	gotBlk, ok := blk.AsBlock()
	require.True(t, ok)
	assert.Equal(t, 7, gotBlk)
}

func TestStringConcatAssociative(t *testing.T) {
	g := value.NewGc()
	opts := options.Options{}

	a, err := value.NewString(g, []byte("ab"), opts)
	require.NoError(t, err)
	b, err := value.NewString(g, []byte("cd"), opts)
	require.NoError(t, err)
	c, err := value.NewString(g, []byte("ef"), opts)
	require.NoError(t, err)

	ac, _ := a.AsString()
	bc, _ := b.AsString()
	cc, _ := c.AsString()

	ab, err := value.StringConcat(g, ac, bc, opts)
	require.NoError(t, err)
	abc, _ := ab.AsString()
	left, err := value.StringConcat(g, abc, cc, opts)
	require.NoError(t, err)

	bcv, err := value.StringConcat(g, bc, cc, opts)
	require.NoError(t, err)
	bccv, _ := bcv.AsString()
	right, err := value.StringConcat(g, ac, bccv, opts)
	require.NoError(t, err)

	assert.Equal(t, string(value.StringBytes(mustCell(left))), string(value.StringBytes(mustCell(right))))
	assert.Equal(t, "abcdef", string(value.StringBytes(mustCell(left))))
}

func TestStringRepeatIdentities(t *testing.T) {
	g := value.NewGc()
	opts := options.Options{}
	s, _ := value.NewString(g, []byte("ab"), opts)
	sc, _ := s.AsString()

	zero, err := value.StringRepeat(g, sc, 0, opts)
	require.NoError(t, err)
	assert.Equal(t, "", string(value.StringBytes(mustCell(zero))))

	one, err := value.StringRepeat(g, sc, 1, opts)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(value.StringBytes(mustCell(one))))

	three, err := value.StringRepeat(g, sc, 3, opts)
	require.NoError(t, err)
	assert.Equal(t, "ababab", string(value.StringBytes(mustCell(three))))
}

func TestListStructuralEqualityAcrossRepresentations(t *testing.T) {
	g := value.NewGc()
	flat := value.NewListFromSlice(g, []value.Value{value.Integer(1), value.Integer(2), value.Integer(3)})

	a := value.NewListFromSlice(g, []value.Value{value.Integer(1)})
	b := value.NewListFromSlice(g, []value.Value{value.Integer(2), value.Integer(3)})
	ac, _ := a.AsList()
	bc, _ := b.AsList()
	cons, err := value.ListConcat(g, ac, bc, options.Options{})
	require.NoError(t, err)

	assert.True(t, flat.Equal(cons))
}

func TestIntegerOverflowWrapsByDefault(t *testing.T) {
	opts := options.Options{}
	result, err := value.IntegerAdd(1<<62, 1<<62, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(-1)<<63, result)
}

func TestIntegerOverflowChecked(t *testing.T) {
	opts := options.Options{}
	opts.Compliance.CheckOverflow = true
	_, err := value.IntegerAdd(1<<62, 1<<62, opts)
	assert.Error(t, err)
}

func TestIntegerDivisionByZero(t *testing.T) {
	_, err := value.IntegerDiv(1, 0, options.Options{})
	assert.Error(t, err)
}

func TestToKnListCoercesNullAndBoolean(t *testing.T) {
	g := value.NewGc()
	opts := options.Options{}

	nullList, err := value.Null().ToKnList(g, opts)
	require.NoError(t, err)
	nc, _ := nullList.AsList()
	assert.Equal(t, 0, nc.Length())

	falseList, err := value.Boolean(false).ToKnList(g, opts)
	require.NoError(t, err)
	fc, _ := falseList.AsList()
	assert.Equal(t, 0, fc.Length())

	trueList, err := value.Boolean(true).ToKnList(g, opts)
	require.NoError(t, err)
	tc, _ := trueList.AsList()
	require.Equal(t, 1, tc.Length())
	elems := value.ListElements(tc)
	got, ok := elems[0].AsBoolean()
	require.True(t, ok)
	assert.True(t, got)
}

func mustCell(v value.Value) *value.HeapCell {
	c, ok := v.AsString()
	if !ok {
		panic("not a string")
	}
	return c
}
