package jobgraph

import (
	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

type ComputeJob struct {
	GpuJob
}

func (c ComputeJob) computeData() *metadata.ComputeCommandData {
	inst := c.mutable()
	data, ok := inst.Data.(*metadata.ComputeCommandData)
	core.Assert(ok, "job %d is a %s job, compute setters do not apply", c.handle, inst.Kind)
	return data
}

// SetUavTable binds a writable table; the list grows like SetResourceTable.
func (c ComputeJob) SetUavTable(registerSpace int, table metadata.ResourceTable) {
	core.Assert(registerSpace >= 0, "job %d: negative register space %d", c.handle, registerSpace)
	data := c.computeData()
	data.UavTables = core.GrowSlice(data.UavTables, registerSpace+1)
	data.UavTables[registerSpace] = table
}

// Dispatch finalizes the job with the given thread group counts. Outputs are
// the UAV resources in register order.
func (c ComputeJob) Dispatch(x, y, z uint32) JobOutput {
	data := c.computeData()
	data.GroupsX, data.GroupsY, data.GroupsZ = x, y, z
	c.parent.finalize(c.handle)
	return JobOutput{job: c.GpuJob}
}

// Next creates a compute job with the same command data that runs after this one.
func (c ComputeJob) Next() ComputeJob {
	inst := c.instance()
	core.Assert(inst.Kind == metadata.JobKindCompute, "job %d is a %s job, not a compute job", c.handle, inst.Kind)
	data := inst.Data.Clone()

	next := c.parent.CreateComputeJob()
	next.mutable().Data = data
	next.DependsOn(c.GpuJob)
	return next
}
