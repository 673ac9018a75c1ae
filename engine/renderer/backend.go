package renderer

import "github.com/spaghettifunk/jobgraph/engine/renderer/jobgraph"

/**
 * @brief The graphics API side of the renderer. The renderer calls it from
 * one goroutine at a time, in schedule order, between BeginFrame and EndFrame.
 */
type RendererBackend interface {
	Initialize(appName string) error
	Shutdown() error
	BeginFrame(frame *jobgraph.Frame, commandLists int) error
	/** @brief Records a draw job into command list `list`. */
	RecordDraw(list int, job *jobgraph.JobRecord) error
	/** @brief Records a compute dispatch into command list `list`. */
	RecordDispatch(list int, job *jobgraph.JobRecord) error
	/** @brief Records a resource copy into command list `list`. */
	RecordCopy(list int, job *jobgraph.JobRecord) error
	/** @brief Makes the next job recorded into `list` wait on another list. */
	RecordWait(list int, wait jobgraph.CommandListWait) error
	EndFrame(frame *jobgraph.Frame) error
}
