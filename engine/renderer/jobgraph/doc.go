// Package jobgraph records a frame's GPU work as a graph of jobs.
//
// Rendering code asks the JobBuilder for draw and compute jobs, binds
// pipelines, resource tables and render targets on them, and declares which
// jobs depend on which. Jobs live in an arena (JobTable) and are addressed by
// small integer handles that are recycled from frame to frame.
//
// Every resource the graph touches is imported into a ResourceStates tracker
// which hands out versioned ids. Finalizing a job (Draw or Dispatch) reads the
// current version of its inputs and bumps the version of its outputs, adding
// the read-after-write, write-after-write and write-after-read dependencies
// that follow from those versions.
//
// SubmitRootJob freezes the graph into a Frame, an immutable snapshot that an
// executor can schedule (Kahn's algorithm, ties broken by declaration order)
// and split into command lists on another goroutine while the next frame is
// being recorded. The builder itself is not safe for concurrent use.
package jobgraph
