package renderer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/jobgraph"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
	"github.com/spaghettifunk/jobgraph/engine/systems"
)

type listPosition struct {
	list int
	item int
}

/**
 * @brief Walks submitted frames and hands their jobs to the backend.
 * Frames run inline on the submitting goroutine unless a job system is
 * given, in which case each frame becomes one task of it.
 */
type Renderer struct {
	backend   RendererBackend
	jobSystem *systems.JobSystem
	onError   func(frame *jobgraph.Frame, err error)

	// one frame on the backend at a time
	mu sync.Mutex

	framesExecuted atomic.Uint64
	jobsRecorded   atomic.Uint64
}

func NewRenderer(backend RendererBackend, jobSystem *systems.JobSystem) *Renderer {
	core.Assert(backend != nil, "renderer needs a backend")
	return &Renderer{
		backend:   backend,
		jobSystem: jobSystem,
	}
}

// SetErrorHandler sets the callback receiving errors of frames executed on the job system.
func (r *Renderer) SetErrorHandler(fn func(frame *jobgraph.Frame, err error)) {
	r.onError = fn
}

func (r *Renderer) IsMultithreaded() bool {
	return r.jobSystem != nil
}

/**
 * @brief Executes the frame. In async mode the error only reports whether the
 * frame could be queued; failures while drawing go to the error handler.
 */
func (r *Renderer) ExecuteFrame(ctx context.Context, frame *jobgraph.Frame) error {
	if r.jobSystem == nil {
		return r.DrawFrame(ctx, frame)
	}
	return r.jobSystem.Submit(ctx, systems.JobTask{
		Name: fmt.Sprintf("frame %d", frame.Number),
		OnStart: func(ctx context.Context) error {
			return r.DrawFrame(ctx, frame)
		},
		OnFailure: func(err error) {
			if r.onError != nil {
				r.onError(frame, err)
			}
		},
	})
}

// Flush blocks until every queued frame has been drawn.
func (r *Renderer) Flush() {
	if r.jobSystem != nil {
		r.jobSystem.Flush()
	}
}

/**
 * @brief Records one frame: jobs reach the backend in schedule order, each
 * preceded by the waits its command list needs for it. The context is
 * checked between jobs.
 */
func (r *Renderer) DrawFrame(ctx context.Context, frame *jobgraph.Frame) error {
	order, err := frame.Schedule()
	if err != nil {
		return fmt.Errorf("scheduling frame %d: %w", frame.Number, err)
	}
	lists := frame.SplitCommandLists(order)

	positions := make(map[metadata.JobHandle]listPosition, len(order))
	waits := make(map[listPosition][]jobgraph.CommandListWait)
	for li, list := range lists {
		for item, h := range list.Jobs {
			positions[h] = listPosition{list: li, item: item}
		}
		for _, w := range list.Waits {
			pos := listPosition{list: li, item: w.DstItem}
			waits[pos] = append(waits[pos], w)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.backend.BeginFrame(frame, len(lists)); err != nil {
		err = fmt.Errorf("beginning frame %d: %w", frame.Number, err)
		core.LogError("%s", err)
		return err
	}

	recordErr := r.record(ctx, frame, order, positions, waits)
	// the frame is closed on the backend even when recording stopped halfway
	if err := r.backend.EndFrame(frame); err != nil {
		err = fmt.Errorf("ending frame %d: %w", frame.Number, err)
		core.LogError("%s", err)
		if recordErr == nil {
			return err
		}
	}
	if recordErr != nil {
		return recordErr
	}

	r.framesExecuted.Add(1)
	return nil
}

func (r *Renderer) record(ctx context.Context, frame *jobgraph.Frame, order []metadata.JobHandle, positions map[metadata.JobHandle]listPosition, waits map[listPosition][]jobgraph.CommandListWait) error {
	for i, h := range order {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("frame %d stopped after %d of %d jobs: %w", frame.Number, i, len(order), err)
		}
		pos, ok := positions[h]
		if !ok {
			// the root job records nothing
			continue
		}
		for _, w := range waits[pos] {
			if err := r.backend.RecordWait(pos.list, w); err != nil {
				return fmt.Errorf("recording wait of job %d: %w", h, err)
			}
		}

		rec, _ := frame.Job(h)
		var err error
		switch rec.Kind {
		case metadata.JobKindDraw:
			err = r.backend.RecordDraw(pos.list, rec)
		case metadata.JobKindCompute:
			err = r.backend.RecordDispatch(pos.list, rec)
		case metadata.JobKindCopy:
			err = r.backend.RecordCopy(pos.list, rec)
		case metadata.JobKindGroup:
			// only its waits matter, they were recorded above
			continue
		default:
			core.LogWarn("frame %d: job %d has kind %s, nothing to record", frame.Number, h, rec.Kind)
			continue
		}
		if err != nil {
			return fmt.Errorf("recording %s job %d (%s): %w", rec.Kind, h, rec.Name, err)
		}
		r.jobsRecorded.Add(1)
	}
	return nil
}

// FramesExecuted is the number of frames fully recorded on the backend.
func (r *Renderer) FramesExecuted() uint64 {
	return r.framesExecuted.Load()
}

func (r *Renderer) JobsRecorded() uint64 {
	return r.jobsRecorded.Load()
}
