package systems

import (
	"context"
	"fmt"
	"sync"

	"github.com/spaghettifunk/jobgraph/engine/core"
)

/**
 * @brief Describes a task to be run by the job system.
 */
type JobTask struct {
	/** @brief Shows up in the logs when the task fails. */
	Name string
	/** @brief Invoked on a worker when the task starts. Required. */
	OnStart func(ctx context.Context) error
	/** @brief Invoked when OnStart returned nil. Optional. */
	OnComplete func()
	/** @brief Invoked with the error OnStart returned. Optional. */
	OnFailure func(err error)
}

type queuedTask struct {
	ctx  context.Context
	task JobTask
}

/**
 * @brief Fixed pool of workers fed through a buffered channel. Tasks run in
 * submission order when the pool has a single worker.
 */
type JobSystem struct {
	numWorkers int
	jobQueue   chan queuedTask
	wg         sync.WaitGroup
	pending    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan queuedTask, channelSize),
	}

	js.start()
	core.LogDebug("job system started with %d worker(s)", numWorkers)

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job queuedTask) {
	defer js.pending.Done()

	err := job.ctx.Err()
	if err == nil {
		err = job.task.OnStart(job.ctx)
	}
	if err != nil {
		core.LogError("job '%s' failed: %s", job.task.Name, err.Error())
		if job.task.OnFailure != nil {
			job.task.OnFailure(err)
		}
		return
	}
	if job.task.OnComplete != nil {
		job.task.OnComplete()
	}
}

/**
 * @brief Submits the provided task to be queued for execution. Blocks while
 * the queue is full.
 * @param ctx Cancelling it before the task starts turns the task into a failure.
 * @param jt The description of the task to be executed.
 */
func (js *JobSystem) Submit(ctx context.Context, jt JobTask) error {
	core.Assert(jt.OnStart != nil, "job '%s' has no OnStart", jt.Name)

	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return fmt.Errorf("submitting job '%s': %w", jt.Name, core.ErrJobSystemClosed)
	}

	js.pending.Add(1)
	select {
	case js.jobQueue <- queuedTask{ctx: ctx, task: jt}:
		return nil
	case <-ctx.Done():
		js.pending.Done()
		return ctx.Err()
	}
}

/**
 * @brief Blocks until every submitted task has run. Must not be called
 * concurrently with Submit.
 */
func (js *JobSystem) Flush() {
	js.pending.Wait()
}

/**
 * @brief Shuts the job system down. Queued tasks still run.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	core.LogDebug("job system shut down")
	return nil
}
