package testbed

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/jobgraph/engine"
	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer"
	"github.com/spaghettifunk/jobgraph/engine/renderer/headless"
	"github.com/spaghettifunk/jobgraph/engine/renderer/jobgraph"
	"github.com/spaghettifunk/jobgraph/engine/renderer/metadata"
)

const cascadeCount = 2

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32

	elapsed time.Duration
	frames  uint64
	device  *renderer.Device

	// Shadow cascades, one depth map each.
	shadowMaps []*headless.Texture
	albedo     *headless.Texture
	normals    *headless.Texture
	depth      *headless.Texture
	hdr        *headless.Texture
	backbuffer *headless.Texture

	histogram *headless.Buffer
	exposure  *headless.Buffer
	vertices  *headless.Buffer
	indices   *headless.Buffer

	shadowPipeline    *headless.Pipeline
	gbufferPipeline   *headless.Pipeline
	lightingPipeline  *headless.Pipeline
	histogramPipeline *headless.Pipeline
	tonemapPipeline   *headless.Pipeline
}

func NewTestGame(configPath string) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:        "JobGraph Testbed",
				ConfigPath:  configPath,
				WatchConfig: configPath != "",
				TargetFPS:   60,
			},
			State: &gameState{
				width:  1280,
				height: 720,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize(device *renderer.Device) error {
	core.LogDebug("TestGame Initialize fn....")

	state := g.State.(*gameState)
	state.device = device

	state.shadowMaps = make([]*headless.Texture, cascadeCount)
	for i := range state.shadowMaps {
		size := uint32(2048) >> i
		state.shadowMaps[i] = headless.NewTexture(fmt.Sprintf("shadow_cascade_%d", i), size, size)
	}
	state.albedo = headless.NewTexture("gbuffer_albedo", state.width, state.height)
	state.normals = headless.NewTexture("gbuffer_normals", state.width, state.height)
	state.depth = headless.NewTexture("gbuffer_depth", state.width, state.height)
	state.hdr = headless.NewTexture("hdr", state.width, state.height)
	state.backbuffer = headless.NewTexture("backbuffer", state.width, state.height)

	state.histogram = headless.NewBuffer("luminance_histogram", 256*4)
	state.exposure = headless.NewBuffer("exposure", 16)
	state.vertices = headless.NewBuffer("scene_vertices", 1<<20)
	state.indices = headless.NewBuffer("scene_indices", 1<<18)

	state.shadowPipeline = &headless.Pipeline{Name: "shadow_depth"}
	state.gbufferPipeline = &headless.Pipeline{Name: "gbuffer"}
	state.lightingPipeline = &headless.Pipeline{Name: "deferred_lighting"}
	state.histogramPipeline = &headless.Pipeline{Name: "luminance_histogram"}
	state.tonemapPipeline = &headless.Pipeline{Name: "tonemap"}
	return nil
}

func (g *TestGame) Update(deltaTime time.Duration) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime
	return nil
}

/**
 * @brief Records the frame: shadow cascades and the gbuffer, deferred
 * lighting into hdr, a luminance histogram and the tonemap into the backbuffer.
 * Ordering between the passes comes from the resources they share.
 */
func (g *TestGame) Render(builder *jobgraph.JobBuilder, deltaTime time.Duration) error {
	state := g.State.(*gameState)

	lightingInputs := make([]metadata.Resource, 0, cascadeCount+3)
	for i, shadowMap := range state.shadowMaps {
		shadow := builder.CreateDrawJob()
		shadow.SetName(fmt.Sprintf("shadow cascade %d", i))
		shadow.SetGpuPipeline(state.shadowPipeline)
		shadow.SetVertexBuffers(state.vertices)
		shadow.SetIndexBuffer(state.indices)
		shadow.SetRenderTarget(headless.NewRenderTarget(shadowMap))
		shadow.SetDrawParams(metadata.IndexedDraw(36, 64))
		shadow.Draw()
		lightingInputs = append(lightingInputs, shadowMap)
	}

	gbuffer := builder.CreateDrawJob()
	gbuffer.SetName("gbuffer")
	gbuffer.SetGpuPipeline(state.gbufferPipeline)
	gbuffer.SetVertexBuffers(state.vertices)
	gbuffer.SetIndexBuffer(state.indices)
	gbuffer.SetRenderTarget(headless.NewRenderTarget(state.depth, state.albedo, state.normals))
	gbuffer.SetDrawParams(metadata.IndexedDraw(36, 64))
	gbuffer.Draw()
	lightingInputs = append(lightingInputs, state.albedo, state.normals, state.depth)

	lighting := builder.CreateComputeJob()
	lighting.SetName("deferred lighting")
	lighting.SetGpuPipeline(state.lightingPipeline)
	lighting.SetResourceTable(0, headless.NewDescriptorTable(lightingInputs...))
	lighting.SetUavTable(0, headless.NewDescriptorTable(state.hdr))
	lit := lighting.Dispatch((state.width+7)/8, (state.height+7)/8, 1)

	histogram := builder.CreateComputeJob()
	histogram.SetName("luminance histogram")
	histogram.SetGpuPipeline(state.histogramPipeline)
	histogram.ReadResource(lit.ReadOutputIndex(0))
	histogram.SetUavTable(0, headless.NewDescriptorTable(state.histogram))
	histogram.Dispatch((state.width+15)/16, (state.height+15)/16, 1)

	tonemap := builder.CreateDrawJob()
	tonemap.SetName("tonemap")
	tonemap.SetGpuPipeline(state.tonemapPipeline)
	tonemap.SetResourceTable(0, headless.NewDescriptorTable(state.hdr, state.histogram))
	tonemap.SetConstantBuffer(0, state.exposure)
	tonemap.SetRenderTarget(headless.NewRenderTarget(nil, state.backbuffer))
	tonemap.SetDrawParams(metadata.NonIndexedDraw(3, 1))
	tonemap.Draw()

	state.frames++
	if state.frames%120 == 0 {
		m := builder.Metrics()
		core.LogInfo("frame %d: %.1f jobs per frame, %s average submit time",
			state.frames, m.AverageJobs(), m.AverageSubmitTime())
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	core.LogInfo("testbed ran %d frame(s) in %s", state.frames, state.elapsed)
	return nil
}
