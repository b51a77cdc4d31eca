package engine_test

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/engine"
)

func rawTexture(t *testing.T, e *engine.ThinEngine) *engine.InternalTexture {
	t.Helper()
	tex, err := e.CreateRawTexture([]byte{255, 255, 255, 255}, 1, 1, false, engine.TextureNearestSamplingMode)
	require.NoError(t, err)
	return tex
}

func TestCreateRawTextureValidatesSize(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.CreateRawTexture([]byte{1, 2, 3}, 1, 1, false, engine.TextureNearestSamplingMode)
	assert.Error(t, err)
}

func TestBindTextureSuppressesRedundantBinds(t *testing.T) {
	e, d := newTestEngine(t)
	tex := rawTexture(t, e)
	d.ResetCalls()

	e.BindTexture(0, tex)
	e.BindTexture(0, tex)
	assert.Equal(t, 1, d.Calls["BindTexture"])
	assert.Zero(t, d.Calls["ActiveTexture"], "channel 0 already active")
	assert.Same(t, tex, e.BoundTexture(0))

	e.BindTexture(1, tex)
	assert.Equal(t, 2, d.Calls["BindTexture"])
	assert.Equal(t, 1, d.Calls["ActiveTexture"])
	assert.Equal(t, tex.Handle(), d.BoundTextures[1])
	assert.Equal(t, 1, tex.AssociatedChannel())

	e.ResetTextureCache()
	e.BindTexture(1, tex)
	assert.Equal(t, 3, d.Calls["BindTexture"])
}

func TestBindTextureIgnoresOutOfRangeChannel(t *testing.T) {
	e, d := newTestEngine(t)
	tex := rawTexture(t, e)
	d.ResetCalls()

	e.BindTexture(-1, tex)
	e.BindTexture(e.MaxSimultaneousTextures(), tex)
	assert.Zero(t, d.Calls["BindTexture"])
}

func TestSetTextureRoutesSamplerUniformOnce(t *testing.T) {
	e, d := newTestEngine(t)
	fx := compileEffect(t, e, "textured", nil, []string{"diffuseSampler"}, nil)
	require.Equal(t, []string{"diffuseSampler"}, fx.Samplers())
	e.EnableEffect(fx)
	tex := rawTexture(t, e)
	d.ResetCalls()

	u := fx.Uniform("diffuseSampler")
	require.NotNil(t, u)
	assert.True(t, e.SetTexture(0, u, tex))
	assert.True(t, e.SetTexture(0, u, tex))

	assert.Equal(t, 1, d.Calls["Uniform1i"])
	assert.Equal(t, int32(0), d.UniformInts[u.Location()])
	assert.Equal(t, 1, d.Calls["BindTexture"])
}

func TestSetTextureFallsBackToEmptyTexture(t *testing.T) {
	e, _ := newTestEngine(t)
	pending := e.LoadTextureFile(filepath.Join(t.TempDir(), "missing.png"), false, engine.TextureBilinearSamplingMode, nil, nil)
	assert.False(t, pending.IsReady())

	assert.True(t, e.SetTexture(0, nil, pending))
	assert.Same(t, e.EmptyTexture(), e.BoundTexture(0))
}

func TestSetTextureNilClearsChannel(t *testing.T) {
	e, _ := newTestEngine(t)
	e.BindTexture(2, rawTexture(t, e))

	assert.False(t, e.SetTexture(2, nil, nil))
	assert.Nil(t, e.BoundTexture(2))
}

func TestUnbindAllTextures(t *testing.T) {
	e, d := newTestEngine(t)
	e.BindTexture(0, rawTexture(t, e))
	e.BindTexture(3, rawTexture(t, e))

	e.UnbindAllTextures()
	for channel := 0; channel < e.MaxSimultaneousTextures(); channel++ {
		assert.Nil(t, e.BoundTexture(channel))
	}
	assert.Equal(t, uint32(0), d.BoundTextures[3])
}

func TestTextureDisposeReleasesHandle(t *testing.T) {
	e, d := newTestEngine(t)
	tex := rawTexture(t, e)
	e.BindTexture(0, tex)
	handle := tex.Handle()

	tex.Dispose()
	assert.False(t, d.Textures[handle])
	assert.Nil(t, e.BoundTexture(0))
	assert.False(t, tex.IsReady())
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		img.Set(0, y, color.NRGBA{R: uint8(y), A: 255})
	}
	path := filepath.Join(t.TempDir(), "tex.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadTextureFileUploadsOnRenderThread(t *testing.T) {
	e, d := newTestEngine(t)
	path := writePNG(t, 2, 3)

	var loaded *engine.InternalTexture
	tex := e.LoadTextureFile(path, true, engine.TextureTrilinearSamplingMode, func(tx *engine.InternalTexture) { loaded = tx }, nil)
	assert.False(t, tex.IsReady())

	require.Eventually(t, func() bool { return e.PendingTasks() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, d.Calls["TexImage2D"], "upload waits for the render thread")

	e.RunPendingTasks()
	assert.Same(t, tex, loaded)
	assert.True(t, tex.IsReady())
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 3, tex.Height)
	assert.Equal(t, 1, d.Calls["TexImage2D"])
	assert.Equal(t, 1, d.Calls["GenerateMipmap"])
}

func TestLoadTextureFileReportsErrors(t *testing.T) {
	e, _ := newTestEngine(t)

	var loadErr error
	tex := e.LoadTextureFile(filepath.Join(t.TempDir(), "missing.png"), false, engine.TextureBilinearSamplingMode, nil, func(err error) { loadErr = err })

	require.Eventually(t, func() bool { return e.PendingTasks() == 1 }, 2*time.Second, 5*time.Millisecond)
	e.RunPendingTasks()
	require.Error(t, loadErr)
	assert.True(t, errors.Is(loadErr, os.ErrNotExist))
	assert.False(t, tex.IsReady())
}

func TestDecodeRGBAAndFlip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 6, 7))
	src.Set(5, 5, color.NRGBA{R: 10, A: 255})
	src.Set(5, 6, color.NRGBA{G: 20, A: 255})

	rgba := engine.DecodeRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 1, 2), rgba.Rect)
	assert.Equal(t, []byte{10, 0, 0, 255, 0, 20, 0, 255}, rgba.Pix)

	engine.FlipVertical(rgba)
	assert.Equal(t, []byte{0, 20, 0, 255, 10, 0, 0, 255}, rgba.Pix)
}
