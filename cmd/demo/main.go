package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"github.com/xlab/closer"

	"render-core/core"
	"render-core/materials"
	"render-core/math"
	"render-core/renderer"
	"render-core/scene"
)

const skySize = 400

type options struct {
	config string
	model  string
	save   string
}

func parseOptions() options {
	var o options
	flag.StringVar(&o.config, "config", "", "TOML or YAML config file")
	flag.StringVar(&o.model, "model", "", "glTF, GLB or OBJ model to add to the scene")
	flag.StringVar(&o.save, "save", "", "write the scene as JSON to this file on exit")
	flag.Parse()
	return o
}

func loadConfig(path string) (core.Config, error) {
	if path == "" {
		return core.DefaultConfig(), nil
	}
	return core.LoadConfig(path)
}

func main() {
	opts := parseOptions()
	config, err := loadConfig(opts.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := core.NewLogger(config.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	re, err := renderer.NewRenderEngine(config, logger)
	if err != nil {
		logger.Error("create render engine", "error", err)
		return
	}
	closer.Bind(func() {
		if opts.save != "" {
			if err := scene.SaveScene(re.Scene, opts.save); err != nil {
				logger.Error("save scene", "path", opts.save, "error", err)
			}
		}
		re.Destroy()
	})

	demo, err := buildScene(re, logger)
	if err != nil {
		logger.Error("build scene", "error", err)
		return
	}
	if opts.model != "" {
		if err := importModel(re.Scene, opts.model); err != nil {
			logger.Error("import model", "path", opts.model, "error", err)
			return
		}
		logger.Info("model imported", "path", opts.model, "meshes", len(re.Scene.Meshes()))
	}
	if !re.Scene.IsReady() {
		logger.Debug("scene effects still compiling")
	}
	status := &hud{title: config.Window.Title}
	err = re.Run(func(dt float32) {
		demo.update(re, dt)
		status.Update(re, demo.dayNight, dt)
	})
	if err != nil {
		logger.Error("render loop", "error", err)
	}
}

// demoScene holds the objects animated each frame.
type demoScene struct {
	camera   *scene.ArcRotateCamera
	dayNight *DayNight
	spinner  *scene.Mesh
	outline  *scene.Mesh
	pickDown bool
}

func buildScene(re *renderer.RenderEngine, logger *slog.Logger) (*demoScene, error) {
	s := re.Scene
	camera := scene.NewArcRotateCamera("orbit", -math32.Pi/2, 1.1, 14, math.Vec3{Y: 1}, s)
	camera.LowerRadiusLimit = 3
	camera.UpperRadiusLimit = 80
	camera.MinZ = 0.1
	camera.MaxZ = skySize
	re.Resize(re.Window.GetFramebufferSize())

	sun := scene.NewDirectionalLight("sun", math.Vec3{X: -0.4, Y: -1, Z: 0.35})
	s.AddLight(sun)
	lamp := scene.NewPointLight("lamp", math.Vec3{X: 3, Y: 2.5, Z: -2})
	lamp.Diffuse = core.Color{R: 1, G: 0.7, B: 0.4, A: 1}
	lamp.Range = 12
	s.AddLight(lamp)

	ground, err := scene.CreateGround("ground", 40, 40, 8, s)
	if err != nil {
		return nil, err
	}
	checker, err := s.CreateCheckerTexture("checker", 256,
		color.RGBA{R: 150, G: 145, B: 135, A: 255},
		color.RGBA{R: 110, G: 105, B: 100, A: 255})
	if err != nil {
		return nil, err
	}
	groundMat := materials.NewMaterial("ground", s.Engine())
	groundMat.DiffuseTexture = checker
	groundMat.SpecularColor = core.Color{R: 0.05, G: 0.05, B: 0.05, A: 1}
	groundMat.SpecularPower = 4
	ground.SetMaterial(groundMat)

	stone := materials.NewMaterial("stone", s.Engine())
	stone.DiffuseColor = core.Color{R: 0.58, G: 0.55, B: 0.50, A: 1}
	stone.SpecularPower = 8
	for i := range 4 {
		box, err := scene.CreateBox(fmt.Sprintf("pillar%d", i), 1, s)
		if err != nil {
			return nil, err
		}
		angle := float32(i) * math32.Pi / 2
		sin, cos := math32.Sincos(angle)
		box.SetPosition(math.Vec3{X: cos * 6, Y: 1.5, Z: sin * 6})
		box.SetScaling(math.Vec3{X: 1, Y: 3, Z: 1})
		box.SetMaterial(stone)
	}

	brass := materials.NewMaterial("brass", s.Engine())
	brass.DiffuseColor = core.Color{R: 0.80, G: 0.62, B: 0.25, A: 1}
	brass.SpecularPower = 64
	sphere, err := scene.CreateSphere("sphere", 1, 32, s)
	if err != nil {
		return nil, err
	}
	sphere.SetPosition(math.Vec3{X: -2, Y: 1})
	sphere.SetMaterial(brass)

	torus, err := scene.CreateTorus("torus", 1.2, 0.3, 32, s)
	if err != nil {
		return nil, err
	}
	torus.SetPosition(math.Vec3{X: 2, Y: 1.5})
	torus.SetMaterial(brass)

	glass := materials.NewMaterial("glass", s.Engine())
	glass.DiffuseColor = core.Color{R: 0.4, G: 0.7, B: 0.9, A: 1}
	glass.Alpha = 0.4
	cylinder, err := scene.CreateCylinder("cylinder", 0.6, 2, 24, s)
	if err != nil {
		return nil, err
	}
	cylinder.SetPosition(math.Vec3{Y: 1, Z: 3})
	cylinder.SetMaterial(glass)

	wire := materials.NewMaterial("wire", s.Engine())
	wire.Wireframe = true
	wire.DisableLighting = true
	wire.EmissiveColor = core.ColorWhite
	wireSphere := sphere.Clone("sphere wire", nil)
	wireSphere.SetPosition(math.Vec3{X: -2, Y: 3.2})
	wireSphere.SetMaterial(wire)

	if _, err := scene.CreateGrid("grid", 40, 40, s); err != nil {
		return nil, err
	}
	sky, err := scene.CreateSkybox("sky", skySize, scene.DefaultSkyGradient(), s)
	if err != nil {
		return nil, err
	}
	dayNight, err := NewDayNight(sun, sky, skySize)
	if err != nil {
		return nil, err
	}

	for _, m := range []*materials.Material{groundMat, stone, brass, glass, wire, sky.Material()} {
		re.WatchMaterial(m)
	}
	logger.Info("scene built", "meshes", len(s.Meshes()), "lights", len(s.Lights))
	return &demoScene{camera: camera, dayNight: dayNight, spinner: torus}, nil
}

func importModel(s *scene.Scene, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		_, err := scene.ImportGLTF(s, path)
		return err
	case ".obj":
		_, err := scene.ImportOBJ(s, path)
		return err
	default:
		return fmt.Errorf("unsupported model format %q", filepath.Ext(path))
	}
}

func (d *demoScene) update(re *renderer.RenderEngine, dt float32) {
	w := re.Window
	const orbitSpeed, zoomSpeed = 1.5, 12
	if w.IsKeyPressed(renderer.KeyEscape) {
		w.Close()
	}

	var dAlpha, dBeta float32
	if w.IsKeyPressed(renderer.KeyLeft) {
		dAlpha -= orbitSpeed * dt
	}
	if w.IsKeyPressed(renderer.KeyRight) {
		dAlpha += orbitSpeed * dt
	}
	if w.IsKeyPressed(renderer.KeyUp) {
		dBeta -= orbitSpeed * dt
	}
	if w.IsKeyPressed(renderer.KeyDown) {
		dBeta += orbitSpeed * dt
	}
	if dAlpha != 0 || dBeta != 0 {
		d.camera.Orbit(dAlpha, dBeta)
	}
	if w.IsKeyPressed(renderer.KeyR) {
		d.camera.Zoom(-zoomSpeed * dt)
	}
	if w.IsKeyPressed(renderer.KeyB) {
		d.camera.Zoom(zoomSpeed * dt)
	}

	space := w.IsKeyPressed(renderer.KeySpace)
	if space && !d.pickDown {
		d.pickCenter(re)
	}
	d.pickDown = space

	d.spinner.AddRotation(0, dt*0.8, 0)
	d.dayNight.Update(dt)
	d.dayNight.Apply(re.Scene)
}

// pickCenter outlines the mesh under the screen center, or clears the
// outline when nothing is hit.
func (d *demoScene) pickCenter(re *renderer.RenderEngine) {
	width, height := re.Window.GetFramebufferSize()
	info := re.Scene.Pick(float32(width)/2, float32(height)/2, float32(width), float32(height), func(m *scene.Mesh) bool {
		return m != d.outline && m.Name != "ground" && m.Name != "sky"
	})
	if d.outline != nil {
		d.outline.Dispose(false)
		d.outline = nil
	}
	if !info.Hit {
		return
	}
	outline, err := scene.CreateBoundingBoxLines(info.PickedMesh.Name+" bounds", info.PickedMesh)
	if err != nil {
		return
	}
	d.outline = outline
}
