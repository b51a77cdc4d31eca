package engine

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var textureCounter int

// InternalTexture is the engine-side record of a GPU texture.
type InternalTexture struct {
	engine            *ThinEngine
	handle            uint32
	uniqueID          int
	URL               string
	Width             int
	Height            int
	Format            uint32
	IsCube            bool
	GenerateMipMaps   bool
	SamplingMode      int
	InvertY           bool
	isReady           bool
	references        int
	associatedChannel int

	// pixels keeps the RGBA upload so the texture can be rebuilt after a
	// context restore.
	pixels []byte
}

func (e *ThinEngine) newInternalTexture(url string) *InternalTexture {
	t := &InternalTexture{
		engine:            e,
		uniqueID:          textureCounter,
		URL:               url,
		Format:            GL_RGBA,
		references:        1,
		associatedChannel: -1,
	}
	textureCounter++
	e.internalTextures = append(e.internalTextures, t)
	return t
}

func (t *InternalTexture) Handle() uint32         { return t.handle }
func (t *InternalTexture) UniqueID() int          { return t.uniqueID }
func (t *InternalTexture) IsReady() bool          { return t.isReady }
func (t *InternalTexture) AssociatedChannel() int { return t.associatedChannel }

func (t *InternalTexture) target() uint32 {
	if t.IsCube {
		return GL_TEXTURE_CUBE_MAP
	}
	return GL_TEXTURE_2D
}

// Dispose drops one reference and deletes the GPU texture when none remain.
func (t *InternalTexture) Dispose() {
	if t.handle == 0 {
		return
	}
	t.references--
	if t.references > 0 {
		return
	}
	t.engine.releaseTexture(t)
	t.handle = 0
	t.isReady = false
	t.pixels = nil
}

// DecodeRGBA converts any decoded image into tightly packed RGBA8 rows with a
// zero origin.
func DecodeRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*4 && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// FlipVertical mirrors rows in place so row 0 is the bottom of the image.
func FlipVertical(img *image.RGBA) {
	h := img.Rect.Dy()
	stride := img.Stride
	tmp := make([]byte, stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bottom := img.Pix[(h-1-y)*stride : (h-y)*stride]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

// CreateRawTexture uploads tightly packed RGBA8 pixels.
func (e *ThinEngine) CreateRawTexture(pixels []byte, width, height int, generateMipMaps bool, samplingMode int) (*InternalTexture, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("raw texture: expected %d bytes for %dx%d, got %d", width*height*4, width, height, len(pixels))
	}
	t := e.newInternalTexture("")
	t.Width = width
	t.Height = height
	t.GenerateMipMaps = generateMipMaps
	t.SamplingMode = samplingMode
	t.pixels = pixels
	e.uploadTexture(t)
	return t, nil
}

// LoadTextureFile creates a texture immediately and fills it once the file is
// decoded. Decoding runs off the render thread; the upload is queued back onto
// it. The texture reports IsReady only after the upload.
func (e *ThinEngine) LoadTextureFile(path string, invertY bool, samplingMode int, onLoad func(*InternalTexture), onError func(error)) *InternalTexture {
	t := e.newInternalTexture(path)
	t.GenerateMipMaps = samplingMode == TextureTrilinearSamplingMode
	t.SamplingMode = samplingMode
	t.InvertY = invertY

	go func() {
		rgba, err := decodeFile(path)
		e.QueueTask(func() {
			if e.IsDisposed() || t.references <= 0 {
				return
			}
			if err != nil {
				e.logger.Warn("texture load failed", "url", path, "error", err)
				if onError != nil {
					onError(err)
				}
				return
			}
			if invertY {
				FlipVertical(rgba)
			}
			t.Width = rgba.Rect.Dx()
			t.Height = rgba.Rect.Dy()
			t.pixels = rgba.Pix
			e.uploadTexture(t)
			if onLoad != nil {
				onLoad(t)
			}
		})
	}()
	return t
}

func decodeFile(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}
	return DecodeRGBA(img), nil
}

func (e *ThinEngine) uploadTexture(t *InternalTexture) {
	if t.handle == 0 {
		t.handle = e.driver.CreateTexture()
	}
	target := t.target()
	e.bindTextureDirectly(target, t, true, false)

	e.driver.PixelStorei(GL_UNPACK_ALIGNMENT, 1)
	e.driver.TexImage2D(target, 0, t.Format, int32(t.Width), int32(t.Height), t.Format, GL_UNSIGNED_BYTE, t.pixels)
	e.setSamplingParameters(target, t.SamplingMode, t.GenerateMipMaps)
	if t.GenerateMipMaps {
		e.driver.GenerateMipmap(target)
	}

	e.bindTextureDirectly(target, nil, false, false)
	t.isReady = true
}

func (e *ThinEngine) setSamplingParameters(target uint32, samplingMode int, mipmaps bool) {
	magFilter, minFilter := GL_LINEAR, GL_LINEAR
	switch samplingMode {
	case TextureNearestSamplingMode:
		magFilter, minFilter = GL_NEAREST, GL_NEAREST
		if mipmaps {
			minFilter = GL_NEAREST_MIPMAP_NEAREST
		}
	case TextureTrilinearSamplingMode:
		if mipmaps {
			minFilter = GL_LINEAR_MIPMAP_LINEAR
		}
	default:
		if mipmaps {
			minFilter = GL_LINEAR_MIPMAP_NEAREST
		}
	}
	e.driver.TexParameteri(target, GL_TEXTURE_MAG_FILTER, int32(magFilter))
	e.driver.TexParameteri(target, GL_TEXTURE_MIN_FILTER, int32(minFilter))
	e.driver.TexParameteri(target, GL_TEXTURE_WRAP_S, int32(GL_REPEAT))
	e.driver.TexParameteri(target, GL_TEXTURE_WRAP_T, int32(GL_REPEAT))
}

func (e *ThinEngine) releaseTexture(t *InternalTexture) {
	for channel, bound := range e.boundTexturesCache {
		if bound == t {
			e.boundTexturesCache[channel] = nil
		}
	}
	e.driver.DeleteTexture(t.handle)
	for i, candidate := range e.internalTextures {
		if candidate == t {
			e.internalTextures = append(e.internalTextures[:i], e.internalTextures[i+1:]...)
			break
		}
	}
}
