package jobgraph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond records a -> {b, c} -> d and returns the submitted frame.
func diamond(t *testing.T) (*Frame, [4]metadata.JobHandle) {
	t.Helper()
	b, _ := newTestBuilder(t)
	a := b.CreateComputeJob()
	left := b.CreateComputeJob()
	right := b.CreateComputeJob()
	d := b.CreateDrawJob()
	left.DependsOn(a.GpuJob)
	right.DependsOn(a.GpuJob)
	d.DependsOn(left.GpuJob)
	d.DependsOn(right.GpuJob)
	return submit(t, b), [4]metadata.JobHandle{a.Handle(), left.Handle(), right.Handle(), d.Handle()}
}

func TestScheduleBreaksTiesByDeclaration(t *testing.T) {
	b, _ := newTestBuilder(t)
	x := b.CreateComputeJob()
	y := b.CreateDrawJob()
	z := b.CreateComputeJob()

	frame := submit(t, b)
	order := mustSchedule(t, frame)
	assert.Equal(t, []metadata.JobHandle{x.Handle(), y.Handle(), z.Handle(), frame.Root}, order)

	rootRec, ok := frame.Job(frame.Root)
	require.True(t, ok)
	assert.Equal(t, []metadata.JobHandle{x.Handle(), y.Handle(), z.Handle()}, rootRec.Dependencies)
}

func TestScheduleFollowsDependenciesOverDeclaration(t *testing.T) {
	b, _ := newTestBuilder(t)
	late := b.CreateDrawJob()
	early := b.CreateComputeJob()
	late.DependsOn(early.GpuJob)

	order := mustSchedule(t, submit(t, b))
	assert.Less(t, indexOf(order, early.Handle()), indexOf(order, late.Handle()))
}

func TestScheduleDiamond(t *testing.T) {
	frame, h := diamond(t)
	order := mustSchedule(t, frame)
	assert.Equal(t, []metadata.JobHandle{h[0], h[1], h[2], h[3], frame.Root}, order)

	for _, rec := range frame.Jobs() {
		for _, dep := range rec.Dependencies {
			assert.Less(t, indexOf(order, dep), indexOf(order, rec.Handle),
				"job %d scheduled before its dependency %d", rec.Handle, dep)
		}
	}
}

func TestCommandListsDiamond(t *testing.T) {
	frame, h := diamond(t)
	lists, err := frame.CommandLists()
	require.NoError(t, err)

	want := []CommandList{
		{
			Jobs:  []metadata.JobHandle{h[0], h[1], h[3]},
			Waits: []CommandListWait{{SrcList: 1, SrcItem: 0, DstItem: 2}},
		},
		{
			Jobs:  []metadata.JobHandle{h[2]},
			Waits: []CommandListWait{{SrcList: 0, SrcItem: 0, DstItem: 0}},
		},
	}
	if diff := cmp.Diff(want, lists); diff != "" {
		t.Errorf("CommandLists() mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandListsChainIsOneList(t *testing.T) {
	b, _ := newTestBuilder(t)
	first := b.CreateDrawJob()
	second := first.Next()
	third := second.Next()

	lists, err := submit(t, b).CommandLists()
	require.NoError(t, err)
	want := []CommandList{{Jobs: []metadata.JobHandle{first.Handle(), second.Handle(), third.Handle()}}}
	if diff := cmp.Diff(want, lists, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("CommandLists() mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandListsIndependentJobs(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateComputeJob()
	b.CreateComputeJob()

	lists, err := submit(t, b).CommandLists()
	require.NoError(t, err)
	require.Len(t, lists, 2)
	for _, l := range lists {
		assert.Len(t, l.Jobs, 1)
		assert.Empty(t, l.Waits)
	}
}

func TestFrameIsDetachedFromBuilder(t *testing.T) {
	b, _ := newTestBuilder(t)
	target := &fakeTarget{colors: []metadata.Resource{&fakeResource{name: "c"}}}
	d := b.CreateDrawJob()
	d.SetName("opaque")
	d.SetRenderTarget(target)
	out := d.Draw()
	state := out.ReadOutputIndex(0)
	frame := submit(t, b)

	// reuse every slot of the previous frame
	next := b.CreateComputeJob()
	next.SetName("other")
	b.CreateComputeJob().SetName("other")

	rec, ok := frame.Job(d.Handle())
	require.True(t, ok)
	assert.Equal(t, "opaque", rec.Name)
	assert.Equal(t, metadata.JobKindDraw, rec.Kind)
	assert.Equal(t, metadata.JobStateSubmitted, rec.State)
	data, ok := rec.Data.(*metadata.DrawCommandData)
	require.True(t, ok)
	assert.Same(t, target, data.RenderTarget)

	writer, ok := frame.Writer(state)
	require.True(t, ok)
	assert.Equal(t, d.Handle(), writer.Handle)
	_, ok = frame.Writer(metadata.InvalidResourceStateID)
	assert.False(t, ok)

	rootRec, _ := frame.Job(frame.Root)
	assert.True(t, rootRec.DependsOn(d.Handle()))
	assert.False(t, rec.DependsOn(frame.Root))

	_, ok = frame.Job(metadata.JobHandle(42))
	assert.False(t, ok)
}

func TestFramesGetDistinctIDs(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateDrawJob()
	first := submit(t, b)
	b.CreateDrawJob()
	second := submit(t, b)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Number+1, second.Number)
}
