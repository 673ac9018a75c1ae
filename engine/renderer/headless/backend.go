package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/jobgraph"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

type CommandType uint8

const (
	CommandDraw CommandType = iota
	CommandDispatch
	CommandCopy
	CommandWait
)

func (c CommandType) String() string {
	switch c {
	case CommandDraw:
		return "draw"
	case CommandDispatch:
		return "dispatch"
	case CommandCopy:
		return "copy"
	case CommandWait:
		return "wait"
	}
	return fmt.Sprintf("CommandType(%d)", uint8(c))
}

/** @brief One recorded command. Wait is only set for CommandWait. */
type Command struct {
	Type     CommandType
	Job      metadata.JobHandle
	Name     string
	Pipeline string
	Wait     jobgraph.CommandListWait
}

type CommandBuffer struct {
	Commands []Command
}

/** @brief Everything recorded for one frame, in submission order. */
type SubmittedFrame struct {
	Number         uint64
	CommandBuffers []CommandBuffer
}

/**
 * @brief Backend that records commands into memory instead of a GPU queue.
 * Used by the testbed and by tests.
 */
type HeadlessRenderer struct {
	appName     string
	FrameNumber uint64

	mu        sync.Mutex
	recording bool
	buffers   []CommandBuffer
	submitted []SubmittedFrame
	// keeps only the last maxHistory frames, 0 keeps all
	maxHistory int
}

func New(maxHistory int) *HeadlessRenderer {
	return &HeadlessRenderer{maxHistory: maxHistory}
}

func (hr *HeadlessRenderer) Initialize(appName string) error {
	hr.appName = appName
	core.LogInfo("headless renderer backend initialized for '%s'", appName)
	return nil
}

func (hr *HeadlessRenderer) Shutdown() error {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	if hr.recording {
		return fmt.Errorf("shutting down while frame %d is recording", hr.FrameNumber)
	}
	core.LogInfo("headless renderer backend shut down after %d frame(s)", hr.FrameNumber)
	return nil
}

func (hr *HeadlessRenderer) BeginFrame(frame *jobgraph.Frame, commandLists int) error {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	if hr.recording {
		return fmt.Errorf("frame %d begun while another frame is recording", frame.Number)
	}
	hr.recording = true
	hr.buffers = make([]CommandBuffer, commandLists)
	return nil
}

func (hr *HeadlessRenderer) commandBuffer(list int) (*CommandBuffer, error) {
	if !hr.recording {
		return nil, fmt.Errorf("recording into list %d outside of a frame", list)
	}
	if list < 0 || list >= len(hr.buffers) {
		return nil, fmt.Errorf("command list %d out of range [0, %d)", list, len(hr.buffers))
	}
	return &hr.buffers[list], nil
}

func pipelineName(job *jobgraph.JobRecord) string {
	if job.Pipeline == nil {
		return ""
	}
	return job.Pipeline.PipelineName()
}

func (hr *HeadlessRenderer) RecordDraw(list int, job *jobgraph.JobRecord) error {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	cb, err := hr.commandBuffer(list)
	if err != nil {
		return err
	}
	data, ok := job.Data.(*metadata.DrawCommandData)
	if !ok {
		return fmt.Errorf("job %d has no draw data", job.Handle)
	}
	core.LogDebug("list %d: draw '%s' (%d elements x %d instances)", list, job.Name, data.Params.ElementCount, data.Params.InstanceCount)
	cb.Commands = append(cb.Commands, Command{Type: CommandDraw, Job: job.Handle, Name: job.Name, Pipeline: pipelineName(job)})
	return nil
}

func (hr *HeadlessRenderer) RecordDispatch(list int, job *jobgraph.JobRecord) error {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	cb, err := hr.commandBuffer(list)
	if err != nil {
		return err
	}
	data, ok := job.Data.(*metadata.ComputeCommandData)
	if !ok {
		return fmt.Errorf("job %d has no compute data", job.Handle)
	}
	core.LogDebug("list %d: dispatch '%s' (%d, %d, %d)", list, job.Name, data.GroupsX, data.GroupsY, data.GroupsZ)
	cb.Commands = append(cb.Commands, Command{Type: CommandDispatch, Job: job.Handle, Name: job.Name, Pipeline: pipelineName(job)})
	return nil
}

func (hr *HeadlessRenderer) RecordCopy(list int, job *jobgraph.JobRecord) error {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	cb, err := hr.commandBuffer(list)
	if err != nil {
		return err
	}
	data, ok := job.Data.(*metadata.CopyCommandData)
	if !ok || data.Source == nil || data.Destination == nil {
		return fmt.Errorf("job %d has no copy data", job.Handle)
	}
	core.LogDebug("list %d: copy '%s' (%s -> %s)", list, job.Name, data.Source.ResourceName(), data.Destination.ResourceName())
	cb.Commands = append(cb.Commands, Command{Type: CommandCopy, Job: job.Handle, Name: job.Name})
	return nil
}

func (hr *HeadlessRenderer) RecordWait(list int, wait jobgraph.CommandListWait) error {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	cb, err := hr.commandBuffer(list)
	if err != nil {
		return err
	}
	if wait.SrcList < 0 || wait.SrcList >= len(hr.buffers) || wait.SrcList == list {
		return fmt.Errorf("list %d cannot wait on list %d", list, wait.SrcList)
	}
	cb.Commands = append(cb.Commands, Command{Type: CommandWait, Job: metadata.InvalidJobHandle, Wait: wait})
	return nil
}

func (hr *HeadlessRenderer) EndFrame(frame *jobgraph.Frame) error {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	if !hr.recording {
		return fmt.Errorf("frame %d ended without being begun", frame.Number)
	}
	hr.recording = false
	hr.submitted = append(hr.submitted, SubmittedFrame{Number: frame.Number, CommandBuffers: hr.buffers})
	if hr.maxHistory > 0 && len(hr.submitted) > hr.maxHistory {
		hr.submitted = append(hr.submitted[:0], hr.submitted[len(hr.submitted)-hr.maxHistory:]...)
	}
	hr.buffers = nil
	hr.FrameNumber++
	return nil
}

// Submitted returns a copy of the frames recorded so far, oldest first.
func (hr *HeadlessRenderer) Submitted() []SubmittedFrame {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	return append([]SubmittedFrame(nil), hr.submitted...)
}
