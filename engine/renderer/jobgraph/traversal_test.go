package jobgraph

import (
	"testing"

	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
)

func TestCollectJobsForward(t *testing.T) {
	frame, h := diamond(t)
	got := CollectJobs(frame, h[0], Forward)
	assert.Equal(t, []metadata.JobHandle{h[0], h[1], h[2], h[3], frame.Root}, got)
}

func TestCollectJobsBackward(t *testing.T) {
	frame, h := diamond(t)
	got := CollectJobs(frame, h[3], Backward)
	assert.Equal(t, []metadata.JobHandle{h[3], h[1], h[2], h[0]}, got)

	fromRoot := CollectJobs(frame, frame.Root, Backward)
	assert.ElementsMatch(t, []metadata.JobHandle{frame.Root, h[0], h[1], h[2], h[3]}, fromRoot)
}

func TestCollectJobsUnknownStart(t *testing.T) {
	frame, _ := diamond(t)
	assert.Empty(t, CollectJobs(frame, metadata.JobHandle(99), Forward))
}

type stopAfter struct {
	limit   int
	visited []metadata.JobHandle
}

func (s *stopAfter) OnEnqueued(rec *JobRecord) bool  { return true }
func (s *stopAfter) CanProcess(rec *JobRecord) bool  { return true }
func (s *stopAfter) OnNoProcess(rec *JobRecord) bool { return true }

func (s *stopAfter) OnDequeued(rec *JobRecord) bool {
	s.visited = append(s.visited, rec.Handle)
	return len(s.visited) < s.limit
}

func TestWalkBFSAborts(t *testing.T) {
	frame, h := diamond(t)
	v := &stopAfter{limit: 2}
	assert.False(t, WalkBFS(frame, h[0], Forward, v))
	assert.Equal(t, []metadata.JobHandle{h[0], h[1]}, v.visited)
}

type postOrder struct {
	seen   map[metadata.JobHandle]bool
	popped []metadata.JobHandle
}

func (p *postOrder) CanProcess(rec *JobRecord) bool { return !p.seen[rec.Handle] }

func (p *postOrder) OnPushed(rec *JobRecord) bool {
	p.seen[rec.Handle] = true
	return true
}

func (p *postOrder) OnPopped(rec *JobRecord) bool {
	p.popped = append(p.popped, rec.Handle)
	return true
}

func TestWalkDFSPopsChildrenFirst(t *testing.T) {
	b, _ := newTestBuilder(t)
	first := b.CreateComputeJob()
	second := first.Next()
	third := second.Next()
	frame := submit(t, b)

	v := &postOrder{seen: map[metadata.JobHandle]bool{}}
	assert.True(t, WalkDFS(frame, first.Handle(), Forward, v))
	assert.Equal(t, []metadata.JobHandle{frame.Root, third.Handle(), second.Handle(), first.Handle()}, v.popped)

	assert.False(t, WalkDFS(frame, metadata.JobHandle(99), Forward, v))
}

func TestFindCycleOnDAG(t *testing.T) {
	frame, _ := diamond(t)
	assert.Nil(t, FindCycle(frame))
}

func TestFindCycleThroughThreeJobs(t *testing.T) {
	b, _ := newTestBuilder(t)
	x := b.CreateComputeJob()
	y := b.CreateComputeJob()
	z := b.CreateComputeJob()
	y.DependsOn(x.GpuJob)
	z.DependsOn(y.GpuJob)
	x.DependsOn(z.GpuJob)

	cycle := FindCycle(submit(t, b))
	assert.ElementsMatch(t, []metadata.JobHandle{x.Handle(), y.Handle(), z.Handle()}, cycle)
}
