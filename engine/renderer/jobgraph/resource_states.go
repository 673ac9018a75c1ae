package jobgraph

import (
	"reflect"

	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

type stateContainer struct {
	resource metadata.Resource
	version  int
	// writers[v] produced version v; writers[0] is always InvalidJobHandle.
	writers []metadata.JobHandle
	// readers[v] read version v.
	readers [][]metadata.JobHandle
}

/** @brief One root resource of a frame with the version it ended the frame at. */
type ResourceLedgerEntry struct {
	Index        int
	Resource     metadata.Resource
	FinalVersion int
}

/**
 * @brief Gives every resource referenced by a frame a stable index and
 * tracks the version lineage used for hazard detection. It never inserts
 * barriers itself.
 */
type ResourceStates struct {
	states []stateContainer
	lookup map[metadata.Resource]int
}

// isNilResource also catches nil pointers stored in a non-nil interface.
func isNilResource(res metadata.Resource) bool {
	if res == nil {
		return true
	}
	v := reflect.ValueOf(res)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func NewResourceStates() *ResourceStates {
	return &ResourceStates{
		lookup: make(map[metadata.Resource]int),
	}
}

// AddRootResource registers res unconditionally and returns its version 0 id.
func (rs *ResourceStates) AddRootResource(res metadata.Resource) metadata.ResourceStateID {
	id := metadata.ResourceStateID{Index: len(rs.states), Version: 0}
	rs.states = append(rs.states, stateContainer{
		resource: res,
		writers:  []metadata.JobHandle{metadata.InvalidJobHandle},
		readers:  [][]metadata.JobHandle{nil},
	})
	rs.lookup[res] = id.Index
	return id
}

/**
 * @brief Returns the current state of res, registering it on first sight.
 * Importing never bumps the version.
 */
func (rs *ResourceStates) Import(res metadata.Resource) (metadata.ResourceStateID, error) {
	if isNilResource(res) {
		return metadata.InvalidResourceStateID, core.ErrNilResource
	}
	if idx, ok := rs.lookup[res]; ok {
		return metadata.ResourceStateID{Index: idx, Version: rs.states[idx].version}, nil
	}
	return rs.AddRootResource(res), nil
}

func (rs *ResourceStates) container(id metadata.ResourceStateID) *stateContainer {
	core.Assert(id.Index >= 0 && id.Index < len(rs.states), "resource index %d out of range [0, %d)", id.Index, len(rs.states))
	c := &rs.states[id.Index]
	core.Assert(id.Version >= 0 && id.Version <= c.version, "resource %d has no version %d (current %d)", id.Index, id.Version, c.version)
	return c
}

/**
 * @brief Records a write by writer on top of the current version of the
 * resource and returns the new state. Writing an old version is allowed, the
 * write always lands after the latest one.
 */
func (rs *ResourceStates) RecordWrite(id metadata.ResourceStateID, writer metadata.JobHandle) metadata.ResourceStateID {
	c := rs.container(id)
	c.version++
	c.writers = append(c.writers, writer)
	c.readers = append(c.readers, nil)
	return metadata.ResourceStateID{Index: id.Index, Version: c.version}
}

// RecordRead notes that reader consumes the given version.
func (rs *ResourceStates) RecordRead(id metadata.ResourceStateID, reader metadata.JobHandle) {
	c := rs.container(id)
	for _, r := range c.readers[id.Version] {
		if r == reader {
			return
		}
	}
	c.readers[id.Version] = append(c.readers[id.Version], reader)
}

// Writer returns the job that produced id, or InvalidJobHandle for imported versions.
func (rs *ResourceStates) Writer(id metadata.ResourceStateID) metadata.JobHandle {
	return rs.container(id).writers[id.Version]
}

func (rs *ResourceStates) Readers(id metadata.ResourceStateID) []metadata.JobHandle {
	return rs.container(id).readers[id.Version]
}

// Current returns the latest state of the resource at index.
func (rs *ResourceStates) Current(index int) metadata.ResourceStateID {
	c := rs.container(metadata.ResourceStateID{Index: index})
	return metadata.ResourceStateID{Index: index, Version: c.version}
}

func (rs *ResourceStates) Resource(index int) metadata.Resource {
	return rs.container(metadata.ResourceStateID{Index: index}).resource
}

func (rs *ResourceStates) Len() int {
	return len(rs.states)
}

func (rs *ResourceStates) Ledger() []ResourceLedgerEntry {
	ledger := make([]ResourceLedgerEntry, len(rs.states))
	for i := range rs.states {
		ledger[i] = ResourceLedgerEntry{
			Index:        i,
			Resource:     rs.states[i].resource,
			FinalVersion: rs.states[i].version,
		}
	}
	return ledger
}

// Reset forgets every resource. Indices are per frame.
func (rs *ResourceStates) Reset() {
	rs.states = rs.states[:0]
	clear(rs.lookup)
}
