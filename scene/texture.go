package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"render-core/engine"
)

// CreateTextureFromImage uploads img and registers the texture with the scene
// under name. With invertY the first row of img ends up at the bottom.
func (s *Scene) CreateTextureFromImage(name string, img image.Image, invertY bool) (*engine.InternalTexture, error) {
	rgba := engine.DecodeRGBA(img)
	if invertY {
		if rgba == img {
			rgba = cloneRGBA(rgba)
		}
		engine.FlipVertical(rgba)
	}
	t, err := s.engine.CreateRawTexture(rgba.Pix, rgba.Rect.Dx(), rgba.Rect.Dy(), true, engine.TextureTrilinearSamplingMode)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", name, err)
	}
	t.URL = name
	t.InvertY = invertY
	s.AddTexture(name, t)
	return t, nil
}

// CreateTextureFromBytes decodes an encoded image such as an embedded glTF
// image buffer.
func (s *Scene) CreateTextureFromBytes(name string, data []byte, invertY bool) (*engine.InternalTexture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", name, err)
	}
	return s.CreateTextureFromImage(name, img, invertY)
}

// CreateSolidTexture creates a 1x1 texture of one RGBA8 color.
func (s *Scene) CreateSolidTexture(name string, r, g, b, a uint8) (*engine.InternalTexture, error) {
	t, err := s.engine.CreateRawTexture([]byte{r, g, b, a}, 1, 1, false, engine.TextureNearestSamplingMode)
	if err != nil {
		return nil, err
	}
	t.URL = name
	s.AddTexture(name, t)
	return t, nil
}

// CreateCheckerTexture creates a size by size checkerboard of eight by eight
// squares alternating c1 and c2.
func (s *Scene) CreateCheckerTexture(name string, size int, c1, c2 color.RGBA) (*engine.InternalTexture, error) {
	if size <= 0 {
		return nil, fmt.Errorf("checker texture %q: invalid size %d", name, size)
	}
	block := max(size/8, 1)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			c := c2
			if (x/block+y/block)%2 == 0 {
				c = c1
			}
			img.SetRGBA(x, y, c)
		}
	}
	t, err := s.engine.CreateRawTexture(img.Pix, size, size, true, engine.TextureTrilinearSamplingMode)
	if err != nil {
		return nil, fmt.Errorf("checker texture %q: %w", name, err)
	}
	t.URL = name
	s.AddTexture(name, t)
	return t, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
