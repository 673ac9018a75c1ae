package jobgraph

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

/** @brief Executes submitted frames. Implemented by the renderer. */
type JobRunner interface {
	ExecuteFrame(ctx context.Context, frame *Frame) error
}

/** @brief The device a builder records for. Pipelines and tables come from it. */
type Device interface {
	Name() string
	// CreateJobRunner may return nil, in which case frames are only built.
	CreateJobRunner() JobRunner
}

/** @brief The job builder configuration. */
type JobBuilderConfig struct {
	/** @brief Number of job slots reserved up front. */
	InitialJobCapacity uint32
	/** @brief Make the root job depend on every job that has no children when submitting. */
	AutoLinkTerminalJobs bool
}

func DefaultJobBuilderConfig() *JobBuilderConfig {
	return &JobBuilderConfig{
		InitialJobCapacity:   core.DefaultInitialJobCapacity,
		AutoLinkTerminalJobs: true,
	}
}

/**
 * @brief Entry point for recording a frame's GPU work. One goroutine records
 * into a builder at a time; there is no internal locking.
 */
type JobBuilder struct {
	device Device
	runner JobRunner
	config JobBuilderConfig

	table  *JobTable
	states *ResourceStates

	root           metadata.JobHandle
	rootGeneration uint32

	frameNumber  uint64
	implicitDeps int
	metrics      *core.FrameMetrics
	clock        *core.Clock
}

func NewJobBuilder(device Device, config *JobBuilderConfig) (*JobBuilder, error) {
	if device == nil {
		err := fmt.Errorf("func NewJobBuilder: %w", core.ErrNilDevice)
		core.LogError("%s", err)
		return nil, err
	}
	if config == nil {
		config = DefaultJobBuilderConfig()
	}
	b := &JobBuilder{
		device:  device,
		runner:  device.CreateJobRunner(),
		config:  *config,
		table:   NewJobTable(int(config.InitialJobCapacity)),
		states:  NewResourceStates(),
		root:    metadata.InvalidJobHandle,
		metrics: core.NewFrameMetrics(),
		clock:   core.NewClock(),
	}
	core.LogDebug("job builder created for device '%s'", device.Name())
	return b, nil
}

func (b *JobBuilder) createJob(kind metadata.JobKind) GpuJob {
	h := b.table.Allocate(kind)
	return GpuJob{handle: h, generation: b.table.Get(h).Generation, parent: b}
}

func (b *JobBuilder) CreateDrawJob() DrawJob {
	return DrawJob{b.createJob(metadata.JobKindDraw)}
}

func (b *JobBuilder) CreateComputeJob() ComputeJob {
	return ComputeJob{b.createJob(metadata.JobKindCompute)}
}

func (b *JobBuilder) CreateCopyJob() CopyJob {
	return CopyJob{b.createJob(metadata.JobKindCopy)}
}

func (b *JobBuilder) CreateGroupJob() GroupJob {
	return GroupJob{b.createJob(metadata.JobKindGroup)}
}

/**
 * @brief Returns the sink job of the current frame, creating it on first use.
 * Terminal jobs should depend on it so an executor has a single root.
 */
func (b *JobBuilder) RootJob() GpuJob {
	if b.root.IsValid() {
		inst := b.table.Get(b.root)
		if inst.Generation == b.rootGeneration && inst.State.Live() {
			return GpuJob{handle: b.root, generation: b.rootGeneration, parent: b}
		}
	}
	root := b.createJob(metadata.JobKindRoot)
	b.table.Get(root.handle).Name = "root"
	b.root, b.rootGeneration = root.handle, root.generation
	return root
}

// Import returns the current state of an externally owned resource.
func (b *JobBuilder) Import(res metadata.Resource) (metadata.ResourceStateID, error) {
	id, err := b.states.Import(res)
	if err != nil {
		return id, fmt.Errorf("importing resource: %w", err)
	}
	return id, nil
}

func (b *JobBuilder) ResourceStates() *ResourceStates {
	return b.states
}

func (b *JobBuilder) LiveJobs() int {
	return b.table.LiveCount()
}

// FrameNumber is the number of frames submitted so far.
func (b *JobBuilder) FrameNumber() uint64 {
	return b.frameNumber
}

func (b *JobBuilder) Metrics() *core.FrameMetrics {
	return b.metrics
}

func (b *JobBuilder) addDependency(dst, src metadata.JobHandle) bool {
	if !b.table.Get(dst).addDependency(src) {
		return false
	}
	srcInst := b.table.Get(src)
	srcInst.Children = append(srcInst.Children, dst)
	return true
}

// addImplicitDependency links hazards found through resource versions.
func (b *JobBuilder) addImplicitDependency(dst, src metadata.JobHandle) {
	if !src.IsValid() || src == dst {
		return
	}
	if b.addDependency(dst, src) {
		b.implicitDeps++
	}
}

func (b *JobBuilder) recordRead(h metadata.JobHandle, state metadata.ResourceStateID) {
	b.states.RecordRead(state, h)
	inst := b.table.Get(h)
	inst.Reads = append(inst.Reads, state)
	b.addImplicitDependency(h, b.states.Writer(state))
}

func (b *JobBuilder) readResource(h metadata.JobHandle, res metadata.Resource) {
	if isNilResource(res) {
		return
	}
	state, _ := b.states.Import(res)
	b.recordRead(h, state)
}

// writeResource orders h after the previous writer and every reader of the
// version it overwrites, then bumps the version.
func (b *JobBuilder) writeResource(h metadata.JobHandle, res metadata.Resource) metadata.ResourceStateID {
	if isNilResource(res) {
		return metadata.InvalidResourceStateID
	}
	state, _ := b.states.Import(res)
	b.addImplicitDependency(h, b.states.Writer(state))
	for _, reader := range b.states.Readers(state) {
		b.addImplicitDependency(h, reader)
	}
	return b.states.RecordWrite(state, h)
}

func resourcesOf(table metadata.ResourceTable) []metadata.Resource {
	if table == nil {
		return nil
	}
	return table.Resources()
}

/**
 * @brief Moves a job to Finalized: its bound inputs are read at their current
 * version and its outputs get a new version each.
 */
func (b *JobBuilder) finalize(h metadata.JobHandle) {
	inst := b.table.Get(h)
	for _, table := range inst.ResourceTables {
		for _, res := range resourcesOf(table) {
			b.readResource(h, res)
		}
	}
	for _, buffer := range inst.ConstantBuffers {
		if buffer != nil {
			b.readResource(h, buffer)
		}
	}

	switch data := inst.Data.(type) {
	case *metadata.DrawCommandData:
		for _, buffer := range data.VertexBuffers {
			if buffer != nil {
				b.readResource(h, buffer)
			}
		}
		if data.IndexBuffer != nil {
			b.readResource(h, data.IndexBuffer)
		}
		if data.RenderTarget != nil {
			for _, attachment := range data.RenderTarget.ColorAttachments() {
				inst.Outputs = append(inst.Outputs, b.writeResource(h, attachment))
			}
			inst.DepthOutput = b.writeResource(h, data.RenderTarget.DepthAttachment())
		}
	case *metadata.ComputeCommandData:
		for _, table := range data.UavTables {
			for _, res := range resourcesOf(table) {
				inst.Outputs = append(inst.Outputs, b.writeResource(h, res))
			}
		}
	case *metadata.CopyCommandData:
		b.readResource(h, data.Source)
		inst.Outputs = append(inst.Outputs, b.writeResource(h, data.Destination))
	}
	inst.State = metadata.JobStateFinalized
}

/**
 * @brief Freezes the frame graph and hands it to the device's job runner.
 *
 * Jobs still being configured are finalized in declaration order. When
 * AutoLinkTerminalJobs is set, every job without children becomes a
 * dependency of the root job. The graph is then copied into a Frame, the
 * resource tracker is reset and every job slot goes back to the free list,
 * so recording of the next frame can start while the runner works on this
 * one. An empty graph returns a nil frame.
 */
func (b *JobBuilder) SubmitRootJob(ctx context.Context) (*Frame, error) {
	if b.table.LiveCount() == 0 {
		core.LogDebug("SubmitRootJob called on an empty graph. Nothing was done.")
		return nil, nil
	}
	b.clock.Start()

	if b.config.AutoLinkTerminalJobs {
		b.RootJob()
	}
	live := b.table.Live()

	for _, h := range live {
		inst := b.table.Get(h)
		if inst.Kind != metadata.JobKindRoot && inst.State.Mutable() {
			core.LogDebug("job %d (%s) was never finalized, finalizing it at submission", h, inst.Name)
			b.finalize(h)
		}
	}

	root := metadata.InvalidJobHandle
	if b.root.IsValid() && b.table.Get(b.root).Generation == b.rootGeneration && b.table.Get(b.root).State.Live() {
		root = b.root
	}
	if root.IsValid() {
		if b.config.AutoLinkTerminalJobs {
			for _, h := range live {
				if h != root && len(b.table.Get(h).Children) == 0 {
					b.addDependency(root, h)
				}
			}
		}
		b.table.Get(root).State = metadata.JobStateFinalized
	}

	frame := newFrame(b, live, root)

	for _, h := range live {
		b.table.Get(h).State = metadata.JobStateSubmitted
		b.table.Release(h)
	}
	b.states.Reset()
	b.root = metadata.InvalidJobHandle
	b.frameNumber++

	b.clock.Stop()
	b.metrics.Update(core.FrameSample{
		Jobs:         frame.Len(),
		ImplicitDeps: b.implicitDeps,
		Resources:    len(frame.Ledger),
		SubmitTime:   b.clock.Elapsed(),
	})
	b.implicitDeps = 0

	if b.runner == nil {
		return frame, nil
	}
	if err := b.runner.ExecuteFrame(ctx, frame); err != nil {
		return frame, fmt.Errorf("executing frame %d: %w", frame.Number, err)
	}
	return frame, nil
}
