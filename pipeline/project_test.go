package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maixuanbach/dbcsv/celltype"
)

func wideRow() Row {
	return Row{
		{Family: celltype.FamilyInteger, Int: 1},
		{Family: celltype.FamilyString, Str: "alice"},
		{Family: celltype.FamilyFloat, Float: 9.5},
	}
}

func TestProjectReordersColumns(t *testing.T) {
	child := &fakeIterator{rows: []Row{wideRow()}}
	p := NewProject(child, []int{2, 0})

	rows := drainAll(t, p)
	require.Len(t, rows, 1)
	assert.InDelta(t, 9.5, rows[0][0].Float, 0.001)
	assert.Equal(t, int64(1), rows[0][1].Int)
}

func TestProjectOutOfRangeIndexYieldsNull(t *testing.T) {
	child := &fakeIterator{rows: []Row{wideRow()}}
	p := NewProject(child, []int{-1, 99})

	rows := drainAll(t, p)
	require.Len(t, rows, 1)
	assert.True(t, rows[0][0].IsNull())
	assert.True(t, rows[0][1].IsNull())
}

func TestProjectStarPassesAllColumns(t *testing.T) {
	child := &fakeIterator{rows: []Row{wideRow()}}
	p := NewProject(child, []int{0, 1, 2})

	rows := drainAll(t, p)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 3)
}

func TestProjectEndOfSequence(t *testing.T) {
	child := &fakeIterator{}
	p := NewProject(child, []int{0})

	_, ok, err := p.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProjectCloseDelegatesToChild(t *testing.T) {
	child := &fakeIterator{}
	p := NewProject(child, []int{0})
	require.NoError(t, p.Close())
	assert.True(t, child.closed)
}
