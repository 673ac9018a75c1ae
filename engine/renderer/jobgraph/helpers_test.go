package jobgraph

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeResource struct{ name string }

func (r *fakeResource) ResourceName() string { return r.name }

type fakeBuffer struct {
	name string
	size uint64
}

func (b *fakeBuffer) ResourceName() string { return b.name }
func (b *fakeBuffer) Size() uint64         { return b.size }

type fakeTable struct{ resources []metadata.Resource }

func (t *fakeTable) Resources() []metadata.Resource { return t.resources }

func tableOf(resources ...metadata.Resource) *fakeTable {
	return &fakeTable{resources: resources}
}

type fakeTarget struct {
	colors []metadata.Resource
	depth  metadata.Resource
}

func (t *fakeTarget) ColorAttachments() []metadata.Resource { return t.colors }
func (t *fakeTarget) DepthAttachment() metadata.Resource    { return t.depth }

type fakePipeline struct{ name string }

func (p *fakePipeline) PipelineName() string { return p.name }

type recordingRunner struct {
	frames []*Frame
	err    error
}

func (r *recordingRunner) ExecuteFrame(ctx context.Context, frame *Frame) error {
	r.frames = append(r.frames, frame)
	return r.err
}

type fakeDevice struct {
	runner JobRunner
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) CreateJobRunner() JobRunner {
	if d.runner == nil {
		return nil
	}
	return d.runner
}

// newTestBuilder returns a builder whose frames land in the returned runner.
func newTestBuilder(t *testing.T) (*JobBuilder, *recordingRunner) {
	t.Helper()
	runner := &recordingRunner{}
	b, err := NewJobBuilder(&fakeDevice{runner: runner}, nil)
	require.NoError(t, err)
	return b, runner
}

func submit(t *testing.T, b *JobBuilder) *Frame {
	t.Helper()
	frame, err := b.SubmitRootJob(context.Background())
	require.NoError(t, err)
	require.NotNil(t, frame)
	return frame
}

func mustSchedule(t *testing.T, f *Frame) []metadata.JobHandle {
	t.Helper()
	order, err := f.Schedule()
	require.NoError(t, err)
	return order
}

func indexOf(order []metadata.JobHandle, h metadata.JobHandle) int {
	for i, o := range order {
		if o == h {
			return i
		}
	}
	return -1
}
