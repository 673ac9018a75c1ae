package jobgraph

import (
	"github.com/spaghettifunk/jobgraph/engine/containers"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

// Direction selects which edges a walk follows.
type Direction uint8

const (
	// Forward follows children, from producers to consumers.
	Forward Direction = iota
	// Backward follows dependencies, from consumers to producers.
	Backward
)

func (f *Frame) neighbours(rec *JobRecord, dir Direction) []metadata.JobHandle {
	if dir == Backward {
		return rec.Dependencies
	}
	return rec.Children
}

/** @brief Callbacks of a breadth-first walk. Returning false aborts it. */
type BFSVisitor interface {
	OnEnqueued(rec *JobRecord) bool
	CanProcess(rec *JobRecord) bool
	OnNoProcess(rec *JobRecord) bool
	OnDequeued(rec *JobRecord) bool
}

// WalkBFS visits the frame breadth first from start. It returns false when a
// visitor callback aborted the walk or start is not part of the frame.
func WalkBFS(f *Frame, start metadata.JobHandle, dir Direction, v BFSVisitor) bool {
	startRec, ok := f.Job(start)
	if !ok {
		return false
	}

	queue := containers.NewRingQueue[*JobRecord](f.Len())
	if !v.OnEnqueued(startRec) {
		return false
	}
	queue.Enqueue(startRec)

	for !queue.IsEmpty() {
		rec, _ := queue.Dequeue()
		if !v.CanProcess(rec) {
			if !v.OnNoProcess(rec) {
				return false
			}
			continue
		}
		if !v.OnDequeued(rec) {
			return false
		}
		for _, h := range f.neighbours(rec, dir) {
			next, ok := f.Job(h)
			if !ok {
				continue
			}
			if !v.OnEnqueued(next) {
				return false
			}
			queue.Enqueue(next)
		}
	}
	return true
}

/** @brief Callbacks of a depth-first walk. Returning false aborts it. */
type DFSVisitor interface {
	CanProcess(rec *JobRecord) bool
	OnPushed(rec *JobRecord) bool
	OnPopped(rec *JobRecord) bool
}

type dfsEntry struct {
	rec               *JobRecord
	childrenProcessed bool
}

// WalkDFS visits the frame depth first from start, calling OnPopped once all
// of a job's neighbours have been popped.
func WalkDFS(f *Frame, start metadata.JobHandle, dir Direction, v DFSVisitor) bool {
	startRec, ok := f.Job(start)
	if !ok {
		return false
	}

	stack := []dfsEntry{{rec: startRec}}
	for len(stack) > 0 {
		top := len(stack) - 1
		entry := stack[top]
		if entry.childrenProcessed {
			if !v.OnPopped(entry.rec) {
				return false
			}
			stack = stack[:top]
			continue
		}

		if !v.CanProcess(entry.rec) {
			stack = stack[:top]
			continue
		}
		if !v.OnPushed(entry.rec) {
			return false
		}
		// mark before appending, the append may move the backing array
		stack[top].childrenProcessed = true
		for _, h := range f.neighbours(entry.rec, dir) {
			if next, ok := f.Job(h); ok {
				stack = append(stack, dfsEntry{rec: next})
			}
		}
	}
	return true
}

// jobAccumulator collects each visited job once, in visit order.
type jobAccumulator struct {
	visited map[metadata.JobHandle]bool
	handles []metadata.JobHandle
}

func (a *jobAccumulator) OnEnqueued(rec *JobRecord) bool  { return true }
func (a *jobAccumulator) OnNoProcess(rec *JobRecord) bool { return true }

func (a *jobAccumulator) CanProcess(rec *JobRecord) bool {
	return !a.visited[rec.Handle]
}

func (a *jobAccumulator) OnDequeued(rec *JobRecord) bool {
	a.visited[rec.Handle] = true
	a.handles = append(a.handles, rec.Handle)
	return true
}

// CollectJobs returns start and every job reachable from it along dir.
func CollectJobs(f *Frame, start metadata.JobHandle, dir Direction) []metadata.JobHandle {
	acc := &jobAccumulator{visited: make(map[metadata.JobHandle]bool, f.Len())}
	WalkBFS(f, start, dir, acc)
	return acc.handles
}

type visitState uint8

const (
	visitInitial visitState = iota
	visitPushed
	visitPopped
)

type cycleFinder struct {
	states map[metadata.JobHandle]visitState
	path   []metadata.JobHandle
	cycle  []metadata.JobHandle
}

func (c *cycleFinder) CanProcess(rec *JobRecord) bool {
	return c.states[rec.Handle] != visitPopped
}

func (c *cycleFinder) OnPushed(rec *JobRecord) bool {
	if c.states[rec.Handle] == visitPushed {
		for i, h := range c.path {
			if h == rec.Handle {
				c.cycle = append([]metadata.JobHandle(nil), c.path[i:]...)
				break
			}
		}
		return false
	}
	c.states[rec.Handle] = visitPushed
	c.path = append(c.path, rec.Handle)
	return true
}

func (c *cycleFinder) OnPopped(rec *JobRecord) bool {
	c.states[rec.Handle] = visitPopped
	c.path = c.path[:len(c.path)-1]
	return true
}

// FindCycle returns the handles of one dependency cycle, or nil when the frame is a DAG.
func FindCycle(f *Frame) []metadata.JobHandle {
	finder := &cycleFinder{states: make(map[metadata.JobHandle]visitState, f.Len())}
	for _, rec := range f.jobs {
		if finder.states[rec.Handle] != visitInitial {
			continue
		}
		finder.path = finder.path[:0]
		if !WalkDFS(f, rec.Handle, Forward, finder) {
			return finder.cycle
		}
	}
	return nil
}
