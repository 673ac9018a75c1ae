package metadata

import "fmt"

/** @brief Index of a slot in the job table. Only valid while the job is live. */
type JobHandle int32

const InvalidJobHandle JobHandle = -1

func (h JobHandle) IsValid() bool {
	return h >= 0
}

/** @brief Describes what kind of work a job records. */
type JobKind uint8

const (
	JobKindInvalid JobKind = iota
	/** @brief The frame sink every terminal job feeds into. Records no GPU work. */
	JobKindRoot
	/** @brief A draw call into a render target. */
	JobKindDraw
	/** @brief A compute dispatch writing UAV tables. */
	JobKindCompute
	/** @brief A resource to resource copy. */
	JobKindCopy
	/** @brief Joins other jobs so later work can depend on all of them at once. Records no GPU work. */
	JobKindGroup
)

func (k JobKind) String() string {
	switch k {
	case JobKindRoot:
		return "root"
	case JobKindDraw:
		return "draw"
	case JobKindCompute:
		return "compute"
	case JobKindCopy:
		return "copy"
	case JobKindGroup:
		return "group"
	}
	return "invalid"
}

/**
 * @brief Lifecycle of a job slot. Transitions only move forward:
 * Free -> Allocated -> Configuring -> Finalized -> Submitted -> Released.
 */
type JobState uint8

const (
	JobStateFree JobState = iota
	JobStateAllocated
	JobStateConfiguring
	JobStateFinalized
	JobStateSubmitted
	JobStateReleased
)

func (s JobState) String() string {
	switch s {
	case JobStateFree:
		return "free"
	case JobStateAllocated:
		return "allocated"
	case JobStateConfiguring:
		return "configuring"
	case JobStateFinalized:
		return "finalized"
	case JobStateSubmitted:
		return "submitted"
	case JobStateReleased:
		return "released"
	}
	return fmt.Sprintf("JobState(%d)", uint8(s))
}

// Live reports whether a job in this state belongs to the frame being recorded.
func (s JobState) Live() bool {
	return s == JobStateAllocated || s == JobStateConfiguring || s == JobStateFinalized
}

// Mutable reports whether setters may still change the job.
func (s JobState) Mutable() bool {
	return s == JobStateAllocated || s == JobStateConfiguring
}

/**
 * @brief Geometry and instancing arguments of a draw job. ElementCount and
 * FirstElement count vertices for non-indexed draws and indices otherwise.
 */
type DrawParams struct {
	Indexed       bool
	ElementCount  uint32
	InstanceCount uint32
	FirstElement  uint32
	VertexOffset  int32
	FirstInstance uint32
}

func NonIndexedDraw(vertexCount, instanceCount uint32) DrawParams {
	return DrawParams{ElementCount: vertexCount, InstanceCount: instanceCount}
}

func IndexedDraw(indexCount, instanceCount uint32) DrawParams {
	return DrawParams{Indexed: true, ElementCount: indexCount, InstanceCount: instanceCount}
}

/**
 * @brief Variant payload of a job. The set of variants is closed:
 * *DrawCommandData, *ComputeCommandData, *CopyCommandData,
 * *GroupCommandData and *RootCommandData.
 */
type CommandData interface {
	Kind() JobKind
	Clone() CommandData
	isCommandData()
}

type DrawCommandData struct {
	RenderTarget  RenderTarget
	VertexBuffers []Buffer
	IndexBuffer   Buffer
	Params        DrawParams
}

func (*DrawCommandData) Kind() JobKind  { return JobKindDraw }
func (*DrawCommandData) isCommandData() {}

func (d *DrawCommandData) Clone() CommandData {
	c := *d
	c.VertexBuffers = append([]Buffer(nil), d.VertexBuffers...)
	return &c
}

type ComputeCommandData struct {
	UavTables []ResourceTable
	GroupsX   uint32
	GroupsY   uint32
	GroupsZ   uint32
}

func (*ComputeCommandData) Kind() JobKind  { return JobKindCompute }
func (*ComputeCommandData) isCommandData() {}

func (d *ComputeCommandData) Clone() CommandData {
	c := *d
	c.UavTables = append([]ResourceTable(nil), d.UavTables...)
	return &c
}

// CopyCommandData copies Source into Destination. Both must be the same kind of resource.
type CopyCommandData struct {
	Source      Resource
	Destination Resource
}

func (*CopyCommandData) Kind() JobKind  { return JobKindCopy }
func (*CopyCommandData) isCommandData() {}

func (d *CopyCommandData) Clone() CommandData {
	c := *d
	return &c
}

type GroupCommandData struct{}

func (*GroupCommandData) Kind() JobKind  { return JobKindGroup }
func (*GroupCommandData) isCommandData() {}

func (d *GroupCommandData) Clone() CommandData {
	return &GroupCommandData{}
}

type RootCommandData struct{}

func (*RootCommandData) Kind() JobKind  { return JobKindRoot }
func (*RootCommandData) isCommandData() {}

func (d *RootCommandData) Clone() CommandData {
	return &RootCommandData{}
}

// NewCommandData returns the empty payload for kind.
func NewCommandData(kind JobKind) CommandData {
	switch kind {
	case JobKindDraw:
		return &DrawCommandData{}
	case JobKindCompute:
		return &ComputeCommandData{}
	case JobKindCopy:
		return &CopyCommandData{}
	case JobKindGroup:
		return &GroupCommandData{}
	case JobKindRoot:
		return &RootCommandData{}
	}
	return nil
}
