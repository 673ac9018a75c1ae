package jobgraph

import "github.com/spaghettifunk/jobgraph/engine/renderer/metadata"

/**
 * @brief Read-only handle on the work of a finalized job. Reading one of its
 * outputs from another job makes that job depend on this one.
 */
type JobOutput struct {
	job GpuJob
}

func (o JobOutput) Job() GpuJob {
	return o.job
}

func (o JobOutput) OutputCount() int {
	return len(o.job.instance().Outputs)
}

// ReadOutputIndex returns the state written to output slot i, or the invalid
// id when the job has no such slot or left it unbound.
func (o JobOutput) ReadOutputIndex(i int) metadata.ResourceStateID {
	inst := o.job.instance()
	if i < 0 || i >= len(inst.Outputs) {
		return metadata.InvalidResourceStateID
	}
	return inst.Outputs[i]
}

func (o JobOutput) ReadDepthOutput() metadata.ResourceStateID {
	return o.job.instance().DepthOutput
}
