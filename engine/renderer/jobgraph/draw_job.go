package jobgraph

import (
	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

type DrawJob struct {
	GpuJob
}

func (d DrawJob) drawData() *metadata.DrawCommandData {
	inst := d.mutable()
	data, ok := inst.Data.(*metadata.DrawCommandData)
	core.Assert(ok, "job %d is a %s job, draw setters do not apply", d.handle, inst.Kind)
	return data
}

func (d DrawJob) SetRenderTarget(target metadata.RenderTarget) {
	d.drawData().RenderTarget = target
}

func (d DrawJob) SetVertexBuffers(buffers ...metadata.Buffer) {
	d.drawData().VertexBuffers = append([]metadata.Buffer(nil), buffers...)
}

func (d DrawJob) SetIndexBuffer(buffer metadata.Buffer) {
	d.drawData().IndexBuffer = buffer
}

func (d DrawJob) SetDrawParams(params metadata.DrawParams) {
	d.drawData().Params = params
}

// Draw finalizes the job. The returned output resolves to the render target
// states this job wrote.
func (d DrawJob) Draw() JobOutput {
	d.drawData()
	d.parent.finalize(d.handle)
	return JobOutput{job: d.GpuJob}
}

// Next creates a draw job with the same command data that runs after this one.
func (d DrawJob) Next() DrawJob {
	inst := d.instance()
	core.Assert(inst.Kind == metadata.JobKindDraw, "job %d is a %s job, not a draw job", d.handle, inst.Kind)
	data := inst.Data.Clone()

	next := d.parent.CreateDrawJob()
	next.mutable().Data = data
	next.DependsOn(d.GpuJob)
	return next
}
