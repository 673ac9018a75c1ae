package metadata

/**
 * @brief Any backend object the job graph can read or write.
 * The graph tracks resources by identity, so implementations must be
 * comparable; in practice they are pointers owned by the backend.
 */
type Resource interface {
	ResourceName() string
}

/** @brief A GPU buffer (vertex, index, constant or structured). */
type Buffer interface {
	Resource
	Size() uint64
}

/** @brief A compiled pipeline state object. Opaque to the graph. */
type GpuPipeline interface {
	PipelineName() string
}

/**
 * @brief A table of resources bound to one register space. Used both for
 * read-only tables (SRVs) and for UAV tables written by compute jobs.
 */
type ResourceTable interface {
	Resources() []Resource
}

/** @brief A set of colour attachments plus an optional depth attachment. */
type RenderTarget interface {
	ColorAttachments() []Resource
	// DepthAttachment returns nil when the target has no depth buffer.
	DepthAttachment() Resource
}

/**
 * @brief A point-in-time state of a tracked resource. Index selects the root
 * resource inside a frame, Version counts the writes recorded before it.
 */
type ResourceStateID struct {
	Index   int
	Version int
}

var InvalidResourceStateID = ResourceStateID{Index: -1, Version: -1}

func (id ResourceStateID) IsValid() bool {
	return id.Index >= 0 && id.Version >= 0
}

// SameResource reports whether both ids point at the same root resource.
func (id ResourceStateID) SameResource(other ResourceStateID) bool {
	return id.IsValid() && other.IsValid() && id.Index == other.Index
}
