package jobgraph

import (
	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

type CopyJob struct {
	GpuJob
}

func (c CopyJob) copyData() *metadata.CopyCommandData {
	inst := c.mutable()
	data, ok := inst.Data.(*metadata.CopyCommandData)
	core.Assert(ok, "job %d is a %s job, copy setters do not apply", c.handle, inst.Kind)
	return data
}

/**
 * @brief Sets the copy source and destination. The source is read at the
 * version current when the job is finalized, the destination gets a new one.
 */
func (c CopyJob) Set(src, dst metadata.Resource) {
	core.Assert(!isNilResource(src) && !isNilResource(dst), "job %d: copy with a nil resource", c.handle)
	core.Assert(src != dst, "job %d: copying '%s' onto itself", c.handle, src.ResourceName())
	data := c.copyData()
	data.Source, data.Destination = src, dst
}

// Copy finalizes the job. Output 0 is the destination state it wrote.
func (c CopyJob) Copy() JobOutput {
	data := c.copyData()
	core.Assert(data.Source != nil, "job %d: copy without source and destination", c.handle)
	c.parent.finalize(c.handle)
	return JobOutput{job: c.GpuJob}
}

// Next creates a copy job with the same resources that runs after this one.
func (c CopyJob) Next() CopyJob {
	inst := c.instance()
	core.Assert(inst.Kind == metadata.JobKindCopy, "job %d is a %s job, not a copy job", c.handle, inst.Kind)
	data := inst.Data.Clone()

	next := c.parent.CreateCopyJob()
	next.mutable().Data = data
	next.DependsOn(c.GpuJob)
	return next
}
