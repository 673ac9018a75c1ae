package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer"
	"github.com/spaghettifunk/jobgraph/engine/renderer/jobgraph"
	"github.com/spaghettifunk/jobgraph/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *core.Config
	watcher      *core.ConfigWatcher
	jobSystem    *systems.JobSystem
	device       *renderer.Device
	builder      *jobgraph.JobBuilder
	events       *core.EventSystem
	clock        *core.Clock
	lastTime     time.Duration
	isRunning    atomic.Bool
	frameCount   uint64
}

func New(g *Game, backend renderer.RendererBackend) (*Engine, error) {
	appConfig := g.ApplicationConfig
	if appConfig == nil {
		appConfig = &ApplicationConfig{Name: "jobgraph"}
		g.ApplicationConfig = appConfig
	}

	config := core.DefaultConfig()
	if appConfig.ConfigPath != "" {
		c, err := core.LoadConfig(appConfig.ConfigPath)
		if err != nil {
			core.LogError("%s", err)
			return nil, err
		}
		config = c
	}
	config.Apply()

	var js *systems.JobSystem
	if config.Executor.Async {
		var err error
		js, err = systems.NewJobSystem(config.Executor.Workers, config.Executor.QueueSize)
		if err != nil {
			core.LogError("%s", err)
			return nil, err
		}
	}

	events := core.NewEventSystem()
	g.Events = events

	device := renderer.NewDevice(appConfig.Name, backend, js)
	device.Renderer().SetErrorHandler(func(frame *jobgraph.Frame, err error) {
		core.LogError("frame %d (%s) failed: %s", frame.Number, frame.ID, err.Error())
		events.Fire(core.EVENT_CODE_FRAME_FAILED, core.FrameEvent{Number: frame.Number, Jobs: frame.Len(), Err: err})
	})

	builder, err := jobgraph.NewJobBuilder(device, &jobgraph.JobBuilderConfig{
		InitialJobCapacity:   config.JobGraph.InitialJobCapacity,
		AutoLinkTerminalJobs: config.JobGraph.AutoLinkTerminalJobs,
	})
	if err != nil {
		if js != nil {
			_ = js.Shutdown()
		}
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       config,
		jobSystem:    js,
		device:       device,
		builder:      builder,
		events:       events,
		clock:        core.NewClock(),
	}
	events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	appConfig := e.gameInstance.ApplicationConfig

	if err := e.device.Initialize(appConfig.Name); err != nil {
		return err
	}

	if appConfig.WatchConfig && appConfig.ConfigPath != "" {
		w, err := core.WatchConfig(appConfig.ConfigPath, e.onConfigChanged)
		if err != nil {
			return fmt.Errorf("watching %s: %w", appConfig.ConfigPath, err)
		}
		e.watcher = w
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.device); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// onConfigChanged applies the settings that can change at runtime. Builder
// and executor settings are read once at start.
func (e *Engine) onConfigChanged(config *core.Config) {
	config.Apply()
	if config.Executor != e.config.Executor || config.JobGraph != e.config.JobGraph {
		core.LogWarn("executor and job graph settings changed, restart to apply them")
	}
	e.events.Fire(core.EVENT_CODE_CONFIG_RELOADED, config)
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
		return true
	}
	return false
}

/**
 * @brief Runs the frame loop until Stop is called, ctx is done or MaxFrames
 * frames were submitted. Each frame updates the game, lets it record jobs and
 * submits them.
 */
func (e *Engine) Run(ctx context.Context) error {
	core.Assert(e.currentStage == EngineStageInitialized, "engine must be initialized before running")
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	appConfig := e.gameInstance.ApplicationConfig
	var targetFrameTime time.Duration
	if appConfig.TargetFPS > 0 {
		targetFrameTime = time.Second / time.Duration(appConfig.TargetFPS)
	}

	e.clock.Start()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		if err := ctx.Err(); err != nil {
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("Game update failed, shutting down.")
				return err
			}
		}

		if err := e.gameInstance.FnRender(e.builder, delta); err != nil {
			core.LogError("Game render failed, shutting down.")
			return err
		}

		frame, err := e.builder.SubmitRootJob(ctx)
		if err != nil {
			core.LogError("%s", err)
			return err
		}
		if frame != nil {
			e.events.Fire(core.EVENT_CODE_FRAME_SUBMITTED, core.FrameEvent{Number: frame.Number, Jobs: frame.Len()})
		}
		e.frameCount++

		if appConfig.MaxFrames > 0 && e.frameCount >= appConfig.MaxFrames {
			break
		}

		if remaining := targetFrameTime - time.Since(frameStart); remaining > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(remaining):
			}
		}
		e.lastTime = currentTime
	}

	e.isRunning.Store(false)
	return nil
}

// Stop asks Run to return after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			core.LogWarn("%s", err)
		}
		e.watcher = nil
	}
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			return err
		}
	}
	if err := e.device.Shutdown(); err != nil {
		return err
	}
	if e.jobSystem != nil {
		if err := e.jobSystem.Shutdown(); err != nil {
			return err
		}
	}

	e.events.Shutdown()

	m := e.builder.Metrics()
	core.LogInfo("%d frame(s) submitted, %.1f jobs per frame, %s average submit time",
		m.Frames, m.AverageJobs(), m.AverageSubmitTime())
	e.currentStage = EngineStageUninitialized
	return nil
}

func (e *Engine) FrameCount() uint64 {
	return e.frameCount
}

func (e *Engine) Events() *core.EventSystem {
	return e.events
}

func (e *Engine) Config() *core.Config {
	return e.config
}
