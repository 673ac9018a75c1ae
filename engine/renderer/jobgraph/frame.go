package jobgraph

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

/** @brief Immutable copy of one job as it was submitted. */
type JobRecord struct {
	Handle   metadata.JobHandle
	Sequence uint64
	Name     string
	Kind     metadata.JobKind
	State    metadata.JobState

	/** @brief Predecessors in declaration order. */
	Dependencies []metadata.JobHandle
	Children     []metadata.JobHandle

	Pipeline        metadata.GpuPipeline
	ResourceTables  []metadata.ResourceTable
	ConstantBuffers []metadata.Buffer
	Data            metadata.CommandData

	Reads       []metadata.ResourceStateID
	Outputs     []metadata.ResourceStateID
	DepthOutput metadata.ResourceStateID
}

func (r *JobRecord) DependsOn(h metadata.JobHandle) bool {
	for _, d := range r.Dependencies {
		if d == h {
			return true
		}
	}
	return false
}

/**
 * @brief A submitted frame graph. Frames share nothing mutable with the
 * builder and can be handed to another goroutine.
 */
type Frame struct {
	ID         uuid.UUID
	Number     uint64
	DeviceName string
	/** @brief The sink job, InvalidJobHandle when the frame has none. */
	Root metadata.JobHandle
	/** @brief Root resources with the version they reached in this frame. */
	Ledger []ResourceLedgerEntry

	jobs  []JobRecord
	index map[metadata.JobHandle]int
}

func newFrame(b *JobBuilder, live []metadata.JobHandle, root metadata.JobHandle) *Frame {
	f := &Frame{
		ID:         uuid.New(),
		Number:     b.frameNumber,
		DeviceName: b.device.Name(),
		Root:       root,
		Ledger:     b.states.Ledger(),
		jobs:       make([]JobRecord, 0, len(live)),
		index:      make(map[metadata.JobHandle]int, len(live)),
	}
	for _, h := range live {
		inst := b.table.Get(h)
		rec := JobRecord{
			Handle:          inst.Handle,
			Sequence:        inst.Sequence,
			Name:            inst.Name,
			Kind:            inst.Kind,
			State:           metadata.JobStateSubmitted,
			Dependencies:    append([]metadata.JobHandle(nil), inst.DependencyList...),
			Children:        append([]metadata.JobHandle(nil), inst.Children...),
			Pipeline:        inst.Pipeline,
			ResourceTables:  append([]metadata.ResourceTable(nil), inst.ResourceTables...),
			ConstantBuffers: append([]metadata.Buffer(nil), inst.ConstantBuffers...),
			Reads:           append([]metadata.ResourceStateID(nil), inst.Reads...),
			Outputs:         append([]metadata.ResourceStateID(nil), inst.Outputs...),
			DepthOutput:     inst.DepthOutput,
		}
		if inst.Data != nil {
			rec.Data = inst.Data.Clone()
		}
		f.index[h] = len(f.jobs)
		f.jobs = append(f.jobs, rec)
	}
	return f
}

// Jobs returns every record in declaration order.
func (f *Frame) Jobs() []JobRecord {
	return f.jobs
}

func (f *Frame) Job(h metadata.JobHandle) (*JobRecord, bool) {
	i, ok := f.index[h]
	if !ok {
		return nil, false
	}
	return &f.jobs[i], true
}

func (f *Frame) Len() int {
	return len(f.jobs)
}

// Writer returns the job of this frame that produced state, if any.
func (f *Frame) Writer(state metadata.ResourceStateID) (*JobRecord, bool) {
	for i := range f.jobs {
		rec := &f.jobs[i]
		for _, out := range rec.Outputs {
			if out == state {
				return rec, true
			}
		}
		if rec.DepthOutput == state && state.IsValid() {
			return rec, true
		}
	}
	return nil, false
}
