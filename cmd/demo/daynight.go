package main

import (
	"fmt"

	"github.com/chewxy/math32"

	"render-core/core"
	"render-core/engine"
	"render-core/materials"
	"render-core/math"
	"render-core/scene"
)

// dayPalette holds the sky and light values for one key time of day.
type dayPalette struct {
	t            float32 // normalised time 0..1
	sky          scene.SkyGradient
	fogColor     core.Color
	fogDensity   float32
	sunColor     core.Color
	sunIntensity float32
	ambient      core.Color
}

// palettes are ordered by t and wrap around (0 == 1).
var palettes = []dayPalette{
	{ // noon
		t: 0.00,
		sky: scene.SkyGradient{
			Zenith:  core.Color{R: 0.20, G: 0.42, B: 0.90, A: 1},
			Horizon: core.Color{R: 0.58, G: 0.75, B: 0.95, A: 1},
			Ground:  core.Color{R: 0.12, G: 0.10, B: 0.08, A: 1},
		},
		fogColor:     core.Color{R: 0.62, G: 0.78, B: 0.95, A: 1},
		fogDensity:   0.011,
		sunColor:     core.Color{R: 1.00, G: 0.98, B: 0.92, A: 1},
		sunIntensity: 1.20,
		ambient:      core.Color{R: 0.16, G: 0.18, B: 0.26, A: 1},
	},
	{ // golden hour
		t: 0.22,
		sky: scene.SkyGradient{
			Zenith:  core.Color{R: 0.14, G: 0.20, B: 0.60, A: 1},
			Horizon: core.Color{R: 0.90, G: 0.52, B: 0.18, A: 1},
			Ground:  core.Color{R: 0.08, G: 0.07, B: 0.06, A: 1},
		},
		fogColor:     core.Color{R: 0.85, G: 0.55, B: 0.25, A: 1},
		fogDensity:   0.018,
		sunColor:     core.Color{R: 1.00, G: 0.65, B: 0.25, A: 1},
		sunIntensity: 0.90,
		ambient:      core.Color{R: 0.10, G: 0.12, B: 0.20, A: 1},
	},
	{ // dusk
		t: 0.30,
		sky: scene.SkyGradient{
			Zenith:  core.Color{R: 0.08, G: 0.10, B: 0.28, A: 1},
			Horizon: core.Color{R: 0.50, G: 0.22, B: 0.28, A: 1},
			Ground:  core.Color{R: 0.04, G: 0.03, B: 0.04, A: 1},
		},
		fogColor:     core.Color{R: 0.35, G: 0.18, B: 0.22, A: 1},
		fogDensity:   0.020,
		sunColor:     core.Color{R: 0.70, G: 0.40, B: 0.55, A: 1},
		sunIntensity: 0.25,
		ambient:      core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // midnight, the sun light plays the moon
		t: 0.50,
		sky: scene.SkyGradient{
			Zenith:  core.Color{R: 0.02, G: 0.03, B: 0.10, A: 1},
			Horizon: core.Color{R: 0.04, G: 0.04, B: 0.08, A: 1},
			Ground:  core.Color{R: 0.01, G: 0.01, B: 0.02, A: 1},
		},
		fogColor:     core.Color{R: 0.03, G: 0.03, B: 0.06, A: 1},
		fogDensity:   0.010,
		sunColor:     core.Color{R: 0.40, G: 0.45, B: 0.65, A: 1},
		sunIntensity: 0.12,
		ambient:      core.Color{R: 0.03, G: 0.04, B: 0.09, A: 1},
	},
	{ // pre-dawn
		t: 0.70,
		sky: scene.SkyGradient{
			Zenith:  core.Color{R: 0.06, G: 0.08, B: 0.25, A: 1},
			Horizon: core.Color{R: 0.40, G: 0.18, B: 0.24, A: 1},
			Ground:  core.Color{R: 0.03, G: 0.03, B: 0.04, A: 1},
		},
		fogColor:     core.Color{R: 0.30, G: 0.15, B: 0.20, A: 1},
		fogDensity:   0.020,
		sunColor:     core.Color{R: 0.75, G: 0.42, B: 0.60, A: 1},
		sunIntensity: 0.20,
		ambient:      core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // sunrise
		t: 0.78,
		sky: scene.SkyGradient{
			Zenith:  core.Color{R: 0.12, G: 0.18, B: 0.55, A: 1},
			Horizon: core.Color{R: 0.88, G: 0.45, B: 0.22, A: 1},
			Ground:  core.Color{R: 0.08, G: 0.06, B: 0.05, A: 1},
		},
		fogColor:     core.Color{R: 0.75, G: 0.40, B: 0.20, A: 1},
		fogDensity:   0.015,
		sunColor:     core.Color{R: 1.00, G: 0.60, B: 0.28, A: 1},
		sunIntensity: 0.70,
		ambient:      core.Color{R: 0.09, G: 0.10, B: 0.17, A: 1},
	},
}

// DayNight animates the sun, ambient light, fog and sky colors of a scene.
type DayNight struct {
	Time   float32 // 0..1: 0=noon, 0.25=sunset, 0.5=midnight, 0.75=sunrise
	Speed  float32 // full-cycle duration in seconds
	Active bool

	sun     *scene.Light
	sky     *scene.Mesh
	heights []float32
	colors  []float32
}

// NewDayNight drives sun and the vertex colors of sky, which must come from
// scene.CreateSkybox with the given size.
func NewDayNight(sun *scene.Light, sky *scene.Mesh, size float32) (*DayNight, error) {
	dn := &DayNight{Speed: 120, Active: true, sun: sun, sky: sky}
	if sky != nil {
		positions := scene.CreateSkyboxData(size, scene.DefaultSkyGradient()).Positions
		dn.heights = make([]float32, len(positions)/3)
		for i := range dn.heights {
			dn.heights[i] = positions[i*3+1] / (size / 2)
		}
		dn.colors = make([]float32, len(dn.heights)*4)
		if err := sky.SetVerticesData(engine.ColorKind, dn.skyColors(palettes[0].sky), true); err != nil {
			return nil, fmt.Errorf("make sky colors updatable: %w", err)
		}
	}
	return dn, nil
}

func (dn *DayNight) Update(dt float32) {
	if !dn.Active {
		return
	}
	dn.Time += dt / dn.Speed
	if dn.Time > 1 {
		dn.Time -= 1
	}
}

func lerpGradient(a, b scene.SkyGradient, t float32) scene.SkyGradient {
	return scene.SkyGradient{
		Zenith:  a.Zenith.Lerp(b.Zenith, t),
		Horizon: a.Horizon.Lerp(b.Horizon, t),
		Ground:  a.Ground.Lerp(b.Ground, t),
	}
}

// samplePalette interpolates the two keyframes around t.
func samplePalette(t float32) dayPalette {
	n := len(palettes)
	a, b := palettes[n-1], palettes[0]
	span := 1 - a.t + b.t
	local := t - a.t
	if t < b.t {
		local = t + 1 - a.t
	}
	for i := range n - 1 {
		if t >= palettes[i].t && t < palettes[i+1].t {
			a, b = palettes[i], palettes[i+1]
			span = b.t - a.t
			local = t - a.t
			break
		}
	}
	f := local / span

	return dayPalette{
		t:            t,
		sky:          lerpGradient(a.sky, b.sky, f),
		fogColor:     a.fogColor.Lerp(b.fogColor, f),
		fogDensity:   a.fogDensity + (b.fogDensity-a.fogDensity)*f,
		sunColor:     a.sunColor.Lerp(b.sunColor, f),
		sunIntensity: a.sunIntensity + (b.sunIntensity-a.sunIntensity)*f,
		ambient:      a.ambient.Lerp(b.ambient, f),
	}
}

func (dn *DayNight) skyColors(g scene.SkyGradient) []float32 {
	for i, y := range dn.heights {
		c := g.At(y)
		dn.colors[i*4], dn.colors[i*4+1], dn.colors[i*4+2], dn.colors[i*4+3] = c.R, c.G, c.B, 1
	}
	return dn.colors
}

// Apply pushes the current time of day into s.
func (dn *DayNight) Apply(s *scene.Scene) {
	p := samplePalette(dn.Time)

	// the sun turns in the XY plane, tilted along Z; Y=-1 is overhead
	sin, cos := math32.Sincos(dn.Time * 2 * math32.Pi)
	if dn.sun != nil {
		dn.sun.Direction = math.Vec3{X: sin, Y: -cos, Z: 0.35}.Normalize()
		dn.sun.Diffuse = p.sunColor
		dn.sun.Specular = p.sunColor
		dn.sun.Intensity = p.sunIntensity
	}

	s.AmbientColor = p.ambient
	s.Clear.Color = p.sky.Horizon
	s.FogMode = materials.FogModeExp2
	s.FogColor = p.fogColor
	s.FogDensity = p.fogDensity

	if dn.sky != nil {
		dn.sky.UpdateVerticesData(engine.ColorKind, dn.skyColors(p.sky), false)
	}
}

// TimeOfDayStr returns a 12-hour clock label where Time 0 is noon.
func (dn *DayNight) TimeOfDayStr() string {
	hours := dn.Time*24 + 12
	h := int(hours) % 24
	m := int((hours - math32.Floor(hours)) * 60)
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%02d:%02d %s", display, m, period)
}
