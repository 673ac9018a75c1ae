package jobgraph

import (
	"sort"

	"github.com/google/btree"
	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

const dependencySetDegree = 8

func handleLess(a, b metadata.JobHandle) bool { return a < b }

/**
 * @brief One slot of the job table. Owned by the table; client code only
 * holds handles. Pointers returned by JobTable.Get are invalidated by the next
 * Allocate, since the table may grow.
 */
type JobInstance struct {
	Handle metadata.JobHandle
	/** @brief Bumped on every allocation of the slot, lets wrappers detect reuse. */
	Generation uint32
	/** @brief Declaration order of the job inside its builder. */
	Sequence uint64
	Name     string
	Kind     metadata.JobKind
	State    metadata.JobState

	// dependencySet and DependencyList always hold the same handles.
	dependencySet  *btree.BTreeG[metadata.JobHandle]
	DependencyList []metadata.JobHandle
	Children       []metadata.JobHandle

	Pipeline        metadata.GpuPipeline
	ResourceTables  []metadata.ResourceTable
	ConstantBuffers []metadata.Buffer
	Data            metadata.CommandData

	Reads       []metadata.ResourceStateID
	Outputs     []metadata.ResourceStateID
	DepthOutput metadata.ResourceStateID
}

func (j *JobInstance) HasDependency(h metadata.JobHandle) bool {
	return j.dependencySet != nil && j.dependencySet.Has(h)
}

func (j *JobInstance) DependencyCount() int {
	if j.dependencySet == nil {
		return 0
	}
	return j.dependencySet.Len()
}

// addDependency inserts h and reports whether the edge is new.
func (j *JobInstance) addDependency(h metadata.JobHandle) bool {
	if _, replaced := j.dependencySet.ReplaceOrInsert(h); replaced {
		return false
	}
	j.DependencyList = append(j.DependencyList, h)
	return true
}

/**
 * @brief Growable arena of job records with a free list of recycled handles.
 * Slots are reset when they are allocated, never when they are released.
 */
type JobTable struct {
	jobs         []JobInstance
	freeSlots    []metadata.JobHandle
	live         int
	nextSequence uint64
	// shared by every dependency set of the table to lessen GC churn across frames
	nodeFreeList *btree.FreeListG[metadata.JobHandle]
}

func NewJobTable(initialCapacity int) *JobTable {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	return &JobTable{
		jobs:         make([]JobInstance, 0, initialCapacity),
		nodeFreeList: btree.NewFreeListG[metadata.JobHandle](btree.DefaultFreeListSize),
	}
}

/**
 * @brief Hands out a handle for a new job of the given kind, recycling the
 * most recently released slot when there is one.
 * The slot is reset to an empty record: no dependencies, children, bindings
 * or outputs, and a fresh command data variant for kind.
 */
func (t *JobTable) Allocate(kind metadata.JobKind) metadata.JobHandle {
	var h metadata.JobHandle
	if n := len(t.freeSlots); n > 0 {
		h = t.freeSlots[n-1]
		t.freeSlots = t.freeSlots[:n-1]
	} else {
		h = metadata.JobHandle(len(t.jobs))
		t.jobs = append(t.jobs, JobInstance{})
	}

	slot := &t.jobs[h]
	set := slot.dependencySet
	if set == nil {
		set = btree.NewWithFreeListG[metadata.JobHandle](dependencySetDegree, handleLess, t.nodeFreeList)
	} else {
		set.Clear(true)
	}
	*slot = JobInstance{
		Handle:         h,
		Generation:     slot.Generation + 1,
		Sequence:       t.nextSequence,
		Kind:           kind,
		State:          metadata.JobStateAllocated,
		dependencySet:  set,
		DependencyList: slot.DependencyList[:0],
		Children:       slot.Children[:0],
		Data:           metadata.NewCommandData(kind),
		DepthOutput:    metadata.InvalidResourceStateID,
	}
	t.nextSequence++
	t.live++
	return h
}

// Release returns h to the free list. Its contents stay until the slot is reallocated.
func (t *JobTable) Release(h metadata.JobHandle) {
	slot := t.Get(h)
	core.Assert(slot.State != metadata.JobStateReleased, "job handle %d released twice", h)
	slot.State = metadata.JobStateReleased
	t.freeSlots = append(t.freeSlots, h)
	t.live--
}

// Get returns the record of h. Out of range handles are a programming error.
func (t *JobTable) Get(h metadata.JobHandle) *JobInstance {
	core.Assert(h >= 0 && int(h) < len(t.jobs), "job handle %d out of range [0, %d)", h, len(t.jobs))
	return &t.jobs[h]
}

// Len is the number of slots, live or free.
func (t *JobTable) Len() int {
	return len(t.jobs)
}

func (t *JobTable) LiveCount() int {
	return t.live
}

func (t *JobTable) FreeCount() int {
	return len(t.freeSlots)
}

// Live returns the handles of every live job in declaration order.
func (t *JobTable) Live() []metadata.JobHandle {
	handles := make([]metadata.JobHandle, 0, t.live)
	for i := range t.jobs {
		if t.jobs[i].State.Live() {
			handles = append(handles, t.jobs[i].Handle)
		}
	}
	sort.Slice(handles, func(a, b int) bool {
		return t.jobs[handles[a]].Sequence < t.jobs[handles[b]].Sequence
	})
	return handles
}
