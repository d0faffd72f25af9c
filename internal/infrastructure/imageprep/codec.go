package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	// Декодеры регистрируются в image.Decode
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/pkg/e"
	"golang.org/x/image/draw"
)

// Resample — компромисс между скоростью и качеством сглаживания при ресайзе.
type Resample string

const (
	ResampleSpeed    Resample = "speed"
	ResampleBalanced Resample = "balanced"
	ResampleQuality  Resample = "quality"
)

var interpolators = map[Resample]draw.Interpolator{
	ResampleSpeed:    draw.ApproxBiLinear,
	ResampleBalanced: draw.BiLinear,
	ResampleQuality:  draw.CatmullRom,
}

// ParseResample разбирает имя режима, пустая строка означает balanced.
func ParseResample(s string) (Resample, error) {
	if s == "" {
		return ResampleBalanced, nil
	}

	mode := Resample(strings.ToLower(s))
	if _, ok := interpolators[mode]; !ok {
		return "", fmt.Errorf("%w: unknown resample mode %q", e.ErrInvalidConfig, s)
	}

	return mode, nil
}

// Codec декодирует, масштабирует, обрезает и кодирует изображения для Pipeline.
type Codec interface {
	Decode(data []byte) (image.Image, error)
	Resize(img image.Image, mode Resample, width, height int) image.Image
	Crop(img image.Image, x, y, width, height int) (image.Image, error)
	Encode(img image.Image, format domain.WireFormat) ([]byte, error)
}

// DrawCodec реализует Codec поверх image и golang.org/x/image/draw.
type DrawCodec struct {
	jpegQuality int
}

func NewDrawCodec(jpegQuality int) *DrawCodec {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = jpeg.DefaultQuality
	}

	return &DrawCodec{jpegQuality: jpegQuality}
}

// Decode распознаёт jpeg, png, gif, bmp и webp.
func (c *DrawCodec) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", e.ErrDecode)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrDecode, err)
	}

	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", e.ErrDecode)
	}

	return img, nil
}

func (c *DrawCodec) Resize(img image.Image, mode Resample, width, height int) image.Image {
	interpolator, ok := interpolators[mode]
	if !ok {
		interpolator = interpolators[ResampleBalanced]
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	interpolator.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	return dst
}

// Crop вырезает прямоугольник (x, y, width, height) относительно левого верхнего угла.
// Прямоугольник, выходящий за границы изображения, даёт ErrCropBounds.
func (c *DrawCodec) Crop(img image.Image, x, y, width, height int) (image.Image, error) {
	bounds := img.Bounds()
	rect := image.Rect(x, y, x+width, y+height).Add(bounds.Min)
	if width <= 0 || height <= 0 || x < 0 || y < 0 || !rect.In(bounds) {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d",
			e.ErrCropBounds, width, height, x, y, bounds.Dx(), bounds.Dy())
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)

	return dst, nil
}

func (c *DrawCodec) Encode(img image.Image, format domain.WireFormat) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case domain.WireFormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.jpegQuality}); err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrEncode, err)
		}
	case domain.WireFormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrEncode, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", e.ErrEncode, format)
	}

	return buf.Bytes(), nil
}
