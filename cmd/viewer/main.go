// Command viewer opens a window and walks a first-person camera through a
// small textured scene.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/chewxy/math32"

	"voxel-viewer/config"
	"voxel-viewer/core"
	"voxel-viewer/internal/opengl"
	"voxel-viewer/math"
	"voxel-viewer/renderer"
	"voxel-viewer/scene"
	"voxel-viewer/textures"
	"voxel-viewer/window"
)

func main() {
	configPath := flag.String("config", "viewer.yml", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("viewer stopped", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	wcfg := window.DefaultWindowConfig()
	wcfg.Width = cfg.Window.Width
	wcfg.Height = cfg.Window.Height
	wcfg.Title = cfg.Window.Title
	wcfg.VSync = cfg.Window.VSync
	win, err := window.NewWindow(wcfg)
	if err != nil {
		return err
	}
	defer win.Destroy()

	dev, err := opengl.NewDevice(logger)
	if err != nil {
		return err
	}
	defer dev.Destroy()

	width, height := win.GetFramebufferSize()
	logger.Info("window open", "width", width, "height", height)
	targets := opengl.MainTargets(width, height)

	builder := textures.NewAtlasBuilder(cfg.Assets.Dir, cfg.Assets.CellW, cfg.Assets.CellH)
	builder.Logger = logger
	if err := builder.LoadAll(); err != nil {
		logger.Warn("no assets loaded", "err", err)
	}
	atlas, err := builder.Complete(dev)
	if err != nil {
		return fmt.Errorf("build atlas: %w", err)
	}

	r, err := renderer.New(dev, targets, atlas.Texture)
	// the renderer's texture view keeps the atlas alive
	atlas.Texture.Release()
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer func() {
		st := r.Stats()
		logger.Info("renderer stopped", "draws", st.Draws, "vertices", st.Vertices)
		r.Destroy()
	}()

	persp := scene.Perspective{FOV: cfg.Camera.FOV, Near: cfg.Camera.Near, Far: cfg.Camera.Far}
	persp.SetSize(width, height)
	r.SetProjection(persp.Projection())

	settings := scene.KeyboardWASD()
	settings.SpeedHorizontal = cfg.Camera.SpeedHorizontal
	settings.SpeedVertical = cfg.Camera.SpeedVertical
	settings.MouseSensitivity = cfg.Camera.MouseSensitivity
	player := scene.NewFirstPerson(math.Vec3Zero, settings)
	player.Yaw = math32.Pi
	rig := scene.Rig{EyeHeight: cfg.Camera.EyeHeight, ForwardNudge: cfg.Camera.ForwardNudge}

	world, err := r.CreateBuffer(buildWorld(atlas))
	if err != nil {
		return err
	}
	defer world.Release()
	logger.Info("world built", "vertices", world.Len())

	fps := core.NewFPSCounter()
	loop := core.NewEventLoop(cfg.Loop.UPS, cfg.Loop.MaxFPS)
	for {
		e, ok := loop.Next(win)
		if !ok {
			break
		}

		switch e := e.(type) {
		case core.RenderEvent:
			r.SetView(rig.View(player.Camera(0)))
			frame, err := r.Begin()
			if err != nil {
				return err
			}
			frame.Clear()
			frame.Render(world)
			if err := r.Flush(dev, frame); err != nil {
				return fmt.Errorf("render frame: %w", err)
			}
			win.SetTitle(fmt.Sprintf("FPS=%d", fps.Tick()))
		case core.AfterRenderEvent:
			dev.Cleanup()
		case core.ResizeEvent:
			targets = opengl.MainTargets(e.Width, e.Height)
			persp.SetSize(e.Width, e.Height)
			r.Resize(targets, persp.Projection())
			logger.Debug("resized", "width", e.Width, "height", e.Height)
		case core.PressEvent:
			if e.Key == core.KeyEscape {
				win.Close()
			}
		}

		player.Event(e)
	}
	return nil
}

// buildWorld lays out a checkered floor with a few cubes, all showing the
// first atlas tile.
func buildWorld(atlas *textures.Atlas) []core.Vertex {
	tile := scene.FullTile
	if names := atlas.Names(); len(names) > 0 {
		tile.Min, tile.Max, _ = atlas.UV(names[0])
	}

	white := math.NewVec3(1, 1, 1)
	grey := math.NewVec3(0.7, 0.7, 0.7)

	v := scene.Floor(nil, 32, tile, white, grey)
	v = scene.Cube(v, math.NewVec3(0, 0.5, -5), 1, tile, white)
	v = scene.Cube(v, math.NewVec3(3, 1, -8), 2, tile, math.NewVec3(1, 0.8, 0.6))
	v = scene.Cube(v, math.NewVec3(-4, 1.5, -10), 3, tile, math.NewVec3(0.6, 0.8, 1))
	return v
}
