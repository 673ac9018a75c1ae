package headless

import "github.com/spaghettifunk/jobgraph/engine/renderer/metadata"

/** @brief A named image. Only its identity matters to the job graph. */
type Texture struct {
	Name   string
	Width  uint32
	Height uint32
}

func NewTexture(name string, width, height uint32) *Texture {
	return &Texture{Name: name, Width: width, Height: height}
}

func (t *Texture) ResourceName() string {
	return t.Name
}

type Buffer struct {
	Name      string
	TotalSize uint64
}

func NewBuffer(name string, size uint64) *Buffer {
	return &Buffer{Name: name, TotalSize: size}
}

func (b *Buffer) ResourceName() string {
	return b.Name
}

func (b *Buffer) Size() uint64 {
	return b.TotalSize
}

type Pipeline struct {
	Name string
}

func (p *Pipeline) PipelineName() string {
	return p.Name
}

/** @brief A descriptor table: resources bound to consecutive registers of one space. */
type DescriptorTable struct {
	entries []metadata.Resource
}

func NewDescriptorTable(resources ...metadata.Resource) *DescriptorTable {
	return &DescriptorTable{entries: resources}
}

func (t *DescriptorTable) Resources() []metadata.Resource {
	return t.entries
}

type RenderTarget struct {
	Colors []metadata.Resource
	Depth  metadata.Resource
}

func NewRenderTarget(depth metadata.Resource, colors ...metadata.Resource) *RenderTarget {
	return &RenderTarget{Colors: colors, Depth: depth}
}

func (rt *RenderTarget) ColorAttachments() []metadata.Resource {
	return rt.Colors
}

// DepthAttachment returns nil for targets without depth.
func (rt *RenderTarget) DepthAttachment() metadata.Resource {
	return rt.Depth
}
