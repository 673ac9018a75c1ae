package engine

import (
	"time"

	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer"
	"github.com/spaghettifunk/jobgraph/engine/renderer/jobgraph"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	Events            *core.EventSystem
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnShutdown        Shutdown
}

type Initialize func(device *renderer.Device) error
type Update func(deltaTime time.Duration) error

// Render records the jobs of one frame. The engine submits them afterwards.
type Render func(builder *jobgraph.JobBuilder, deltaTime time.Duration) error
type Shutdown func() error
