package jobgraph

import (
	"testing"

	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTableHandlesAreUnique(t *testing.T) {
	table := NewJobTable(4)
	seen := make(map[metadata.JobHandle]bool)
	for i := 0; i < 100; i++ {
		h := table.Allocate(metadata.JobKindDraw)
		require.False(t, seen[h], "handle %d handed out twice", h)
		seen[h] = true
	}
	assert.Equal(t, 100, table.LiveCount())
	assert.Equal(t, 100, table.Len())
	assert.Zero(t, table.FreeCount())
}

func TestJobTableRecyclesReleasedHandles(t *testing.T) {
	table := NewJobTable(0)
	a := table.Allocate(metadata.JobKindDraw)
	b := table.Allocate(metadata.JobKindDraw)
	table.Release(a)
	require.Equal(t, 1, table.FreeCount())

	c := table.Allocate(metadata.JobKindCompute)
	assert.Equal(t, a, c)
	assert.NotEqual(t, b, c)
	assert.Equal(t, uint32(2), table.Get(c).Generation)
	assert.Equal(t, 2, table.Len())
	assert.Greater(t, table.Get(c).Sequence, table.Get(b).Sequence)
}

func TestJobTableRecycledSlotStartsClean(t *testing.T) {
	table := NewJobTable(0)
	other := table.Allocate(metadata.JobKindDraw)
	h := table.Allocate(metadata.JobKindDraw)

	inst := table.Get(h)
	inst.Name = "stale"
	inst.addDependency(other)
	inst.Children = append(inst.Children, other)
	inst.ResourceTables = append(inst.ResourceTables, tableOf())
	inst.Outputs = append(inst.Outputs, metadata.ResourceStateID{Index: 0, Version: 1})
	inst.Data.(*metadata.DrawCommandData).RenderTarget = &fakeTarget{}
	inst.State = metadata.JobStateFinalized

	table.Release(h)
	recycled := table.Allocate(metadata.JobKindCompute)
	require.Equal(t, h, recycled)

	inst = table.Get(recycled)
	assert.Empty(t, inst.Name)
	assert.Zero(t, inst.DependencyCount())
	assert.False(t, inst.HasDependency(other))
	assert.Empty(t, inst.DependencyList)
	assert.Empty(t, inst.Children)
	assert.Empty(t, inst.ResourceTables)
	assert.Empty(t, inst.Outputs)
	assert.Nil(t, inst.Pipeline)
	assert.Equal(t, metadata.InvalidResourceStateID, inst.DepthOutput)
	assert.Equal(t, metadata.JobStateAllocated, inst.State)
	assert.Equal(t, metadata.JobKindCompute, inst.Kind)
	assert.IsType(t, &metadata.ComputeCommandData{}, inst.Data)
}

func TestJobTableLiveIsInDeclarationOrder(t *testing.T) {
	table := NewJobTable(0)
	a := table.Allocate(metadata.JobKindDraw)
	b := table.Allocate(metadata.JobKindDraw)
	table.Release(a)
	c := table.Allocate(metadata.JobKindDraw) // reuses slot 0 but is declared last
	assert.Equal(t, []metadata.JobHandle{b, c}, table.Live())
}

func TestJobTableProgrammingErrorsPanic(t *testing.T) {
	table := NewJobTable(0)
	require.Panics(t, func() { table.Get(0) })
	require.Panics(t, func() { table.Get(-1) })

	h := table.Allocate(metadata.JobKindDraw)
	table.Release(h)
	require.Panics(t, func() { table.Release(h) })
}
