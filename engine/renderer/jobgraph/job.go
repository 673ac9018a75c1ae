package jobgraph

import (
	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

/**
 * @brief Copyable front-end of a job: a handle plus the builder owning it.
 * A GpuJob must not outlive its builder nor the frame it was created in.
 */
type GpuJob struct {
	handle     metadata.JobHandle
	generation uint32
	parent     *JobBuilder
}

func (j GpuJob) Handle() metadata.JobHandle {
	return j.handle
}

func (j GpuJob) Builder() *JobBuilder {
	return j.parent
}

// instance resolves the record and checks the wrapper is not stale.
func (j GpuJob) instance() *JobInstance {
	core.Assert(j.parent != nil, "job %d has no builder", j.handle)
	inst := j.parent.table.Get(j.handle)
	core.Assert(inst.Generation == j.generation && inst.State.Live(),
		"job %d is stale (generation %d, slot generation %d, state %s)", j.handle, j.generation, inst.Generation, inst.State)
	return inst
}

// mutable resolves the record for a setter and moves it to Configuring.
func (j GpuJob) mutable() *JobInstance {
	inst := j.instance()
	core.Assert(inst.State.Mutable(), "job %d (%s) cannot be changed once %s", j.handle, inst.Name, inst.State)
	inst.State = metadata.JobStateConfiguring
	return inst
}

func (j GpuJob) Kind() metadata.JobKind {
	return j.instance().Kind
}

func (j GpuJob) State() metadata.JobState {
	return j.instance().State
}

func (j GpuJob) SetName(name string) {
	j.mutable().Name = name
}

func (j GpuJob) Name() string {
	return j.instance().Name
}

func (j GpuJob) SetGpuPipeline(pipeline metadata.GpuPipeline) {
	core.Assert(pipeline != nil, "job %d: pipeline is nil", j.handle)
	j.mutable().Pipeline = pipeline
}

func (j GpuJob) GpuPipeline() metadata.GpuPipeline {
	return j.instance().Pipeline
}

/**
 * @brief Binds a read-only resource table to a register space. The table
 * list grows to registerSpace+1 entries, unset spaces stay nil.
 */
func (j GpuJob) SetResourceTable(registerSpace int, table metadata.ResourceTable) {
	core.Assert(registerSpace >= 0, "job %d: negative register space %d", j.handle, registerSpace)
	inst := j.mutable()
	inst.ResourceTables = core.GrowSlice(inst.ResourceTables, registerSpace+1)
	inst.ResourceTables[registerSpace] = table
}

func (j GpuJob) ResourceTables() []metadata.ResourceTable {
	return j.instance().ResourceTables
}

func (j GpuJob) SetConstantBuffer(register int, buffer metadata.Buffer) {
	core.Assert(register >= 0, "job %d: negative constant buffer register %d", j.handle, register)
	inst := j.mutable()
	inst.ConstantBuffers = core.GrowSlice(inst.ConstantBuffers, register+1)
	inst.ConstantBuffers[register] = buffer
}

/**
 * @brief Declares that this job reads the given resource state. When another
 * job produced that state, this job starts depending on it. Only the current
 * version of a resource can be read: once a later job overwrote it, nothing
 * could order that write after this read.
 */
func (j GpuJob) ReadResource(state metadata.ResourceStateID) {
	core.Assert(state.IsValid(), "job %d: reading an invalid resource state", j.handle)
	j.mutable()
	current := j.parent.states.Current(state.Index)
	core.Assert(state.Version == current.Version,
		"job %d: resource %d version %d was overwritten (current version %d)", j.handle, state.Index, state.Version, current.Version)
	j.parent.recordRead(j.handle, state)
}

/**
 * @brief Makes this job run after other. Adding the same dependency twice is
 * a no-op: the edge, the ordered list entry and the child entry exist once.
 */
func (j GpuJob) DependsOn(other GpuJob) {
	core.Assert(other.parent == j.parent, "job %d: dependency on job %d from a different graph", j.handle, other.handle)
	core.Assert(other.handle != j.handle, "job %d cannot depend on itself", j.handle)
	j.mutable()
	other.instance()
	j.parent.addDependency(j.handle, other.handle)
}

// Dependencies returns the predecessors in declaration order.
func (j GpuJob) Dependencies() []metadata.JobHandle {
	return j.instance().DependencyList
}

func (j GpuJob) Children() []metadata.JobHandle {
	return j.instance().Children
}

// AsDraw returns the draw view of the job when it was created as one.
func (j GpuJob) AsDraw() (DrawJob, bool) {
	if j.Kind() != metadata.JobKindDraw {
		return DrawJob{}, false
	}
	return DrawJob{j}, true
}

// AsCompute returns the compute view of the job when it was created as one.
func (j GpuJob) AsCompute() (ComputeJob, bool) {
	if j.Kind() != metadata.JobKindCompute {
		return ComputeJob{}, false
	}
	return ComputeJob{j}, true
}

func (j GpuJob) AsCopy() (CopyJob, bool) {
	if j.Kind() != metadata.JobKindCopy {
		return CopyJob{}, false
	}
	return CopyJob{j}, true
}

func (j GpuJob) AsGroup() (GroupJob, bool) {
	if j.Kind() != metadata.JobKindGroup {
		return GroupJob{}, false
	}
	return GroupJob{j}, true
}
