package imageprep

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o600))

	return name
}

func newTestPipeline(dir string, format domain.WireFormat) *Pipeline {
	return NewPipeline(
		NewResourceLoader(NewFSLoader(dir), nil),
		NewDrawCodec(90),
		Options{Width: 224, Height: 224, ResizeWidth: 300, Resample: ResampleBalanced, Format: format},
		logger.NewNop(),
	)
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)

	return cfg.Width, cfg.Height
}

func TestPipeline_Prepare(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		w, h int
	}{
		{"square", 640, 640},
		{"portrait", 480, 800},
		// После fit-to-width высота 300*100/800 = 38 < 224
		{"wide panorama", 800, 100},
		{"tiny", 10, 10},
		{"exactly target", 224, 224},
		{"thin column", 1, 2000},
		{"thin row", 4000, 1},
	}

	pipeline := newTestPipeline(dir, domain.WireFormatJPEG)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeJPEG(t, dir, tt.name+".jpg", tt.w, tt.h)

			prepared, err := pipeline.Prepare(context.Background(), path)
			require.NoError(t, err)
			require.False(t, prepared.Empty())

			assert.Equal(t, 224, prepared.Width)
			assert.Equal(t, 224, prepared.Height)
			assert.Equal(t, path, prepared.SourcePath())

			w, h := decodedSize(t, prepared.Data)
			assert.Equal(t, 224, w)
			assert.Equal(t, 224, h)
		})
	}
}

func TestPipeline_PreparePNG(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "cat.jpg", 400, 300)

	prepared, err := newTestPipeline(dir, domain.WireFormatPNG).Prepare(context.Background(), path)
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(prepared.Data))
	require.NoError(t, err)
	assert.Equal(t, domain.WireFormatPNG, prepared.Format)
}

func TestPipeline_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.jpg"), []byte("definitely not an image"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.jpg"), nil, 0o600))

	pipeline := newTestPipeline(dir, domain.WireFormatJPEG)

	tests := []struct {
		name string
		path string
		want error
		step Step
	}{
		{"missing file", "nope.jpg", e.ErrResourceNotFound, StepLoad},
		{"object store not configured", "s3://images/cat.jpg", e.ErrResourceNotFound, StepLoad},
		{"garbage bytes", "garbage.jpg", e.ErrDecode, StepDecode},
		{"empty file", "empty.jpg", e.ErrDecode, StepDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepared, err := pipeline.Prepare(context.Background(), tt.path)
			require.Error(t, err)
			assert.Nil(t, prepared)
			assert.ErrorIs(t, err, tt.want)

			var prepErr *PrepareError
			require.ErrorAs(t, err, &prepErr)
			assert.Equal(t, tt.path, prepErr.Path)
			assert.Equal(t, tt.step, prepErr.Step)
		})
	}
}

func TestResizeDims(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		wantW      int
		wantH      int
	}{
		{"fit to width", 600, 600, 300, 300},
		{"fit to width keeps aspect", 600, 900, 300, 450},
		{"cover wide", 800, 100, 1792, 224},
		{"cover small", 100, 50, 448, 224},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := resizeDims(tt.srcW, tt.srcH, 300, 224, 224)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.GreaterOrEqual(t, w, 224)
			assert.GreaterOrEqual(t, h, 224)
		})
	}
}

func TestCropRect(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		want       image.Rectangle
	}{
		{"fit to width", 600, 900, image.Rect(76, 226, 524, 674)},
		{"exact", 224, 224, image.Rect(28, 28, 196, 196)},
		{"cover wide", 800, 100, image.Rect(350, 0, 450, 100)},
		{"thin column", 1, 2000, image.Rect(0, 999, 1, 1001)},
		{"thin row", 4000, 1, image.Rect(1999, 0, 2001, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := resizeDims(tt.srcW, tt.srcH, 300, 224, 224)
			got := cropRect(tt.srcW, tt.srcH, w, h, 224, 224)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.In(image.Rect(0, 0, tt.srcW, tt.srcH)))
			assert.False(t, got.Empty())
		})
	}
}

// boundedCodec запоминает наибольшее изображение, которое создаёт Pipeline.
type boundedCodec struct {
	*DrawCodec
	maxPixels int
}

func (c *boundedCodec) Resize(img image.Image, mode Resample, width, height int) image.Image {
	c.maxPixels = max(c.maxPixels, width*height)
	return c.DrawCodec.Resize(img, mode, width, height)
}

func (c *boundedCodec) Crop(img image.Image, x, y, width, height int) (image.Image, error) {
	c.maxPixels = max(c.maxPixels, width*height)
	return c.DrawCodec.Crop(img, x, y, width, height)
}

func TestPipeline_ExtremeAspectStaysBounded(t *testing.T) {
	dir := t.TempDir()
	codec := &boundedCodec{DrawCodec: NewDrawCodec(90)}
	pipeline := NewPipeline(
		NewResourceLoader(NewFSLoader(dir), nil),
		codec,
		Options{Width: 224, Height: 224, ResizeWidth: 300, Resample: ResampleBalanced, Format: domain.WireFormatJPEG},
		logger.NewNop(),
	)

	for _, size := range []image.Point{{X: 1, Y: 2000}, {X: 4000, Y: 1}, {X: 3000, Y: 2}} {
		path := writeJPEG(t, dir, fmt.Sprintf("%dx%d.jpg", size.X, size.Y), size.X, size.Y)

		prepared, err := pipeline.Prepare(context.Background(), path)
		require.NoError(t, err)

		w, h := decodedSize(t, prepared.Data)
		assert.Equal(t, 224, w)
		assert.Equal(t, 224, h)
	}

	// Промежуточные изображения не больше цели
	assert.LessOrEqual(t, codec.maxPixels, 224*224)
}

func TestDrawCodec_Crop(t *testing.T) {
	codec := NewDrawCodec(90)
	img := image.NewRGBA(image.Rect(0, 0, 300, 38))

	_, err := codec.Crop(img, 38, 0, 224, 224)
	assert.ErrorIs(t, err, e.ErrCropBounds)

	_, err = codec.Crop(img, -1, 0, 10, 10)
	assert.ErrorIs(t, err, e.ErrCropBounds)

	out, err := codec.Crop(img, 38, 0, 224, 38)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 224, 38), out.Bounds())
}

func TestDrawCodec_EncodeUnknownFormat(t *testing.T) {
	_, err := NewDrawCodec(90).Encode(image.NewRGBA(image.Rect(0, 0, 1, 1)), "tiff")
	assert.ErrorIs(t, err, e.ErrEncode)
}

func TestParseResample(t *testing.T) {
	mode, err := ParseResample("")
	require.NoError(t, err)
	assert.Equal(t, ResampleBalanced, mode)

	mode, err = ParseResample("Quality")
	require.NoError(t, err)
	assert.Equal(t, ResampleQuality, mode)

	_, err = ParseResample("lanczos")
	assert.ErrorIs(t, err, e.ErrInvalidConfig)
}
