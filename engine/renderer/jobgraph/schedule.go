package jobgraph

import (
	"fmt"

	"github.com/google/btree"
	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

func recordLess(a, b *JobRecord) bool { return a.Sequence < b.Sequence }

/**
 * @brief Orders the frame with Kahn's algorithm. A job comes after every job
 * in its transitive dependency closure; among ready jobs the one declared
 * first goes first, which makes the order deterministic.
 * Returns core.ErrCycleDetected when the graph is not a DAG.
 */
func (f *Frame) Schedule() ([]metadata.JobHandle, error) {
	inDegree := make(map[metadata.JobHandle]int, len(f.jobs))
	ready := btree.NewG[*JobRecord](dependencySetDegree, recordLess)
	for i := range f.jobs {
		rec := &f.jobs[i]
		inDegree[rec.Handle] = len(rec.Dependencies)
		if len(rec.Dependencies) == 0 {
			ready.ReplaceOrInsert(rec)
		}
	}

	order := make([]metadata.JobHandle, 0, len(f.jobs))
	for ready.Len() > 0 {
		rec, _ := ready.DeleteMin()
		order = append(order, rec.Handle)
		for _, child := range rec.Children {
			inDegree[child]--
			if inDegree[child] == 0 {
				childRec, ok := f.Job(child)
				core.Assert(ok, "frame %d: job %d has child %d outside the frame", f.Number, rec.Handle, child)
				ready.ReplaceOrInsert(childRec)
			}
		}
	}

	if len(order) != len(f.jobs) {
		cycle := FindCycle(f)
		err := fmt.Errorf("frame %d: %d of %d jobs cannot be ordered, cycle %v: %w",
			f.Number, len(f.jobs)-len(order), len(f.jobs), cycle, core.ErrCycleDetected)
		core.LogError("%s", err)
		return nil, err
	}
	return order, nil
}

/** @brief A cross-list dependency: item DstItem of the owning list waits for SrcItem of SrcList. */
type CommandListWait struct {
	SrcList int
	SrcItem int
	DstItem int
}

/** @brief A linear chain of jobs that can be recorded into one command list. */
type CommandList struct {
	Jobs  []metadata.JobHandle
	Waits []CommandListWait
}

type listPosition struct {
	list int
	item int
}

/**
 * @brief Splits the scheduled frame into linear command lists.
 * A job extends the list of its first declared dependency when that
 * dependency ends the list; otherwise it starts a new list. Every other
 * dependency living in another list becomes a wait. The root job records no
 * work and is left out.
 */
func (f *Frame) CommandLists() ([]CommandList, error) {
	order, err := f.Schedule()
	if err != nil {
		return nil, err
	}
	return f.SplitCommandLists(order), nil
}

// SplitCommandLists is CommandLists for an order already returned by Schedule.
func (f *Frame) SplitCommandLists(order []metadata.JobHandle) []CommandList {
	var lists []CommandList
	positions := make(map[metadata.JobHandle]listPosition, len(order))
	for _, h := range order {
		rec, ok := f.Job(h)
		core.Assert(ok, "frame %d: scheduled job %d is not part of the frame", f.Number, h)
		if rec.Kind == metadata.JobKindRoot {
			continue
		}

		owner := -1
		for _, dep := range rec.Dependencies {
			pos, ok := positions[dep]
			if ok && pos.item == len(lists[pos.list].Jobs)-1 {
				owner = pos.list
				break
			}
		}
		if owner < 0 {
			owner = len(lists)
			lists = append(lists, CommandList{})
		}
		item := len(lists[owner].Jobs)
		lists[owner].Jobs = append(lists[owner].Jobs, h)
		positions[h] = listPosition{list: owner, item: item}

		for _, dep := range rec.Dependencies {
			pos, ok := positions[dep]
			if !ok || pos.list == owner {
				continue
			}
			lists[owner].Waits = append(lists[owner].Waits, CommandListWait{
				SrcList: pos.list,
				SrcItem: pos.item,
				DstItem: item,
			})
		}
	}
	return lists
}
