package renderer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/headless"
	"github.com/spaghettifunk/jobgraph/engine/renderer/jobgraph"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
	"github.com/spaghettifunk/jobgraph/engine/systems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	goleak.VerifyTestMain(m)
}

func newBuilder(t *testing.T, device *Device) *jobgraph.JobBuilder {
	t.Helper()
	require.NoError(t, device.Initialize("renderer-test"))
	b, err := jobgraph.NewJobBuilder(device, nil)
	require.NoError(t, err)
	return b
}

// recordDiamond records shadow -> {blur, lighting} -> composite.
func recordDiamond(b *jobgraph.JobBuilder) [4]metadata.JobHandle {
	shadow := b.CreateComputeJob()
	shadow.SetName("shadow")
	blur := b.CreateComputeJob()
	blur.SetName("blur")
	lighting := b.CreateComputeJob()
	lighting.SetName("lighting")
	composite := b.CreateDrawJob()
	composite.SetName("composite")
	composite.SetGpuPipeline(&headless.Pipeline{Name: "fullscreen"})
	composite.SetDrawParams(metadata.NonIndexedDraw(3, 1))

	blur.DependsOn(shadow.GpuJob)
	lighting.DependsOn(shadow.GpuJob)
	composite.DependsOn(blur.GpuJob)
	composite.DependsOn(lighting.GpuJob)
	return [4]metadata.JobHandle{shadow.Handle(), blur.Handle(), lighting.Handle(), composite.Handle()}
}

func TestDrawFrameRecordsInScheduleOrder(t *testing.T) {
	backend := headless.New(0)
	device := NewDevice("headless", backend, nil)
	b := newBuilder(t, device)
	h := recordDiamond(b)

	_, err := b.SubmitRootJob(context.Background())
	require.NoError(t, err)

	frames := backend.Submitted()
	require.Len(t, frames, 1)
	want := []headless.CommandBuffer{
		{Commands: []headless.Command{
			{Type: headless.CommandDispatch, Job: h[0], Name: "shadow"},
			{Type: headless.CommandDispatch, Job: h[1], Name: "blur"},
			{Type: headless.CommandWait, Job: metadata.InvalidJobHandle, Wait: jobgraph.CommandListWait{SrcList: 1, SrcItem: 0, DstItem: 2}},
			{Type: headless.CommandDraw, Job: h[3], Name: "composite", Pipeline: "fullscreen"},
		}},
		{Commands: []headless.Command{
			{Type: headless.CommandWait, Job: metadata.InvalidJobHandle, Wait: jobgraph.CommandListWait{SrcList: 0, SrcItem: 0, DstItem: 0}},
			{Type: headless.CommandDispatch, Job: h[2], Name: "lighting"},
		}},
	}
	if diff := cmp.Diff(want, frames[0].CommandBuffers); diff != "" {
		t.Errorf("recorded commands mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(1), device.Renderer().FramesExecuted())
	assert.Equal(t, uint64(4), device.Renderer().JobsRecorded())
	require.NoError(t, device.Shutdown())
}

func TestDrawFrameRecordsCopiesAndSkipsGroups(t *testing.T) {
	backend := headless.New(0)
	device := NewDevice("headless", backend, nil)
	b := newBuilder(t, device)

	staging := headless.NewBuffer("staging", 1024)
	vertices := headless.NewBuffer("vertices", 1024)
	upload := b.CreateCopyJob()
	upload.SetName("upload")
	upload.Set(staging, vertices)
	upload.Copy()

	shadow := b.CreateComputeJob()
	shadow.SetName("shadow")
	shadow.SetResourceTable(0, headless.NewDescriptorTable(vertices))
	shadow.Dispatch(1, 1, 1)
	gbuffer := b.CreateComputeJob()
	gbuffer.SetName("gbuffer")
	gbuffer.SetResourceTable(0, headless.NewDescriptorTable(vertices))
	gbuffer.Dispatch(1, 1, 1)

	scene := b.CreateGroupJob()
	scene.AddJobs(shadow.GpuJob, gbuffer.GpuJob)
	composite := b.CreateDrawJob()
	composite.SetName("composite")
	composite.DependsOn(scene.GpuJob)
	composite.Draw()

	_, err := b.SubmitRootJob(context.Background())
	require.NoError(t, err)

	frames := backend.Submitted()
	require.Len(t, frames, 1)
	want := []headless.CommandBuffer{
		{Commands: []headless.Command{
			{Type: headless.CommandCopy, Job: upload.Handle(), Name: "upload"},
			{Type: headless.CommandDispatch, Job: shadow.Handle(), Name: "shadow"},
			// the group keeps its wait on the other list, then records nothing
			{Type: headless.CommandWait, Job: metadata.InvalidJobHandle, Wait: jobgraph.CommandListWait{SrcList: 1, SrcItem: 0, DstItem: 2}},
			{Type: headless.CommandDraw, Job: composite.Handle(), Name: "composite"},
		}},
		{Commands: []headless.Command{
			{Type: headless.CommandWait, Job: metadata.InvalidJobHandle, Wait: jobgraph.CommandListWait{SrcList: 0, SrcItem: 0, DstItem: 0}},
			{Type: headless.CommandDispatch, Job: gbuffer.Handle(), Name: "gbuffer"},
		}},
	}
	if diff := cmp.Diff(want, frames[0].CommandBuffers); diff != "" {
		t.Errorf("recorded commands mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(4), device.Renderer().JobsRecorded())
	require.NoError(t, device.Shutdown())
}

func TestDrawFrameStopsOnCancel(t *testing.T) {
	backend := headless.New(0)
	device := NewDevice("headless", backend, nil)
	b := newBuilder(t, device)
	recordDiamond(b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frame, err := b.SubmitRootJob(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, frame)

	// the frame was still closed on the backend
	frames := backend.Submitted()
	require.Len(t, frames, 1)
	for _, cb := range frames[0].CommandBuffers {
		assert.Empty(t, cb.Commands)
	}
	assert.Zero(t, device.Renderer().FramesExecuted())
	require.NoError(t, device.Shutdown())
}

func TestDrawFrameRejectsCycles(t *testing.T) {
	backend := headless.New(0)
	device := NewDevice("headless", backend, nil)
	b := newBuilder(t, device)
	x := b.CreateComputeJob()
	y := b.CreateComputeJob()
	x.DependsOn(y.GpuJob)
	y.DependsOn(x.GpuJob)

	_, err := b.SubmitRootJob(context.Background())
	require.ErrorIs(t, err, core.ErrCycleDetected)
	assert.Empty(t, backend.Submitted())
}

func TestAsyncFramesDrainInOrder(t *testing.T) {
	js, err := systems.NewJobSystem(1, 2)
	require.NoError(t, err)
	backend := headless.New(0)
	device := NewDevice("headless", backend, js)
	assert.True(t, device.Renderer().IsMultithreaded())
	b := newBuilder(t, device)

	for i := 0; i < 5; i++ {
		recordDiamond(b)
		_, err := b.SubmitRootJob(context.Background())
		require.NoError(t, err)
	}
	require.NoError(t, device.Shutdown())
	require.NoError(t, js.Shutdown())

	frames := backend.Submitted()
	require.Len(t, frames, 5)
	for i, f := range frames {
		assert.Equal(t, uint64(i), f.Number)
		assert.Len(t, f.CommandBuffers, 2)
	}
	assert.Equal(t, uint64(5), device.Renderer().FramesExecuted())
}

type failingBackend struct {
	*headless.HeadlessRenderer
	err error
}

func (f *failingBackend) RecordDraw(list int, job *jobgraph.JobRecord) error {
	return f.err
}

func TestAsyncFrameErrorsReachHandler(t *testing.T) {
	js, err := systems.NewJobSystem(2, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	lost := errors.New("device lost")
	device := NewDevice("failing", &failingBackend{HeadlessRenderer: headless.New(1), err: lost}, js)

	var (
		mu     sync.Mutex
		failed []uint64
		cause  error
	)
	device.Renderer().SetErrorHandler(func(frame *jobgraph.Frame, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, frame.Number)
		cause = err
	})
	b := newBuilder(t, device)
	recordDiamond(b)
	_, err = b.SubmitRootJob(context.Background())
	require.NoError(t, err)
	device.Renderer().Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{0}, failed)
	assert.ErrorIs(t, cause, lost)
}

func TestSyncFrameErrorIsReturned(t *testing.T) {
	lost := errors.New("device lost")
	backend := &failingBackend{HeadlessRenderer: headless.New(0), err: lost}
	device := NewDevice("failing", backend, nil)
	b := newBuilder(t, device)
	recordDiamond(b)

	_, err := b.SubmitRootJob(context.Background())
	require.ErrorIs(t, err, lost)
	// the bracket is balanced so the next frame can begin
	recordDiamond(b)
	_, err = b.SubmitRootJob(context.Background())
	require.ErrorIs(t, err, lost)
	assert.Len(t, backend.Submitted(), 2)
}
