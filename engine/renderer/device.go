package renderer

import (
	"fmt"

	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/jobgraph"
	"github.com/spaghettifunk/jobgraph/engine/systems"
)

/**
 * @brief Binds a backend to the job builders recording for it. Every builder
 * of a device shares its renderer, so frames reach the backend one at a time.
 */
type Device struct {
	name     string
	backend  RendererBackend
	renderer *Renderer
}

func NewDevice(name string, backend RendererBackend, jobSystem *systems.JobSystem) *Device {
	return &Device{
		name:     name,
		backend:  backend,
		renderer: NewRenderer(backend, jobSystem),
	}
}

func (d *Device) Initialize(appName string) error {
	if err := d.backend.Initialize(appName); err != nil {
		return fmt.Errorf("initializing device '%s': %w", d.name, err)
	}
	core.LogInfo("device '%s' initialized (multithreaded: %t)", d.name, d.renderer.IsMultithreaded())
	return nil
}

func (d *Device) Name() string {
	return d.name
}

func (d *Device) CreateJobRunner() jobgraph.JobRunner {
	return d.renderer
}

func (d *Device) Renderer() *Renderer {
	return d.renderer
}

// Shutdown waits for queued frames before releasing the backend.
func (d *Device) Shutdown() error {
	d.renderer.Flush()
	if err := d.backend.Shutdown(); err != nil {
		return fmt.Errorf("shutting down device '%s': %w", d.name, err)
	}
	return nil
}
