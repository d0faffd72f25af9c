package imageprep

import (
	"context"
	"fmt"
	"image"

	"github.com/perone/euclidesdb/internal/cfg"
	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
)

// Options задаёт нормализацию изображения.
type Options struct {
	Width       int
	Height      int
	ResizeWidth int
	Resample    Resample
	Format      domain.WireFormat
}

// OptionsFromCfg переносит секцию Image конфигурации в Options.
func OptionsFromCfg(c *cfg.ImageCfg) (Options, error) {
	mode, err := ParseResample(c.Resample)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Width:       c.Width,
		Height:      c.Height,
		ResizeWidth: c.ResizeWidth,
		Resample:    mode,
		Format:      domain.WireFormat(c.WireFormat),
	}, nil
}

// Pipeline превращает ресурс в PreparedImage ровно Width×Height.
type Pipeline struct {
	loader Loader
	codec  Codec
	opts   Options
	logger logger.Logger
}

func NewPipeline(loader Loader, codec Codec, opts Options, logger logger.Logger) *Pipeline {
	if opts.ResizeWidth < opts.Width {
		opts.ResizeWidth = opts.Width
	}
	if opts.Format == "" {
		opts.Format = domain.WireFormatJPEG
	}

	return &Pipeline{
		loader: loader,
		codec:  codec,
		opts:   opts,
		logger: logger,
	}
}

// Prepare загружает, декодирует, вырезает центральное окно, масштабирует его до W×H и кодирует.
// Любая ошибка возвращается как *PrepareError с путём и шагом.
func (p *Pipeline) Prepare(ctx context.Context, path string) (*domain.PreparedImage, error) {
	data, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, stepErr(path, StepLoad, err)
	}

	img, err := p.codec.Decode(data)
	if err != nil {
		return nil, stepErr(path, StepDecode, err)
	}

	src := img.Bounds()
	width, height := resizeDims(src.Dx(), src.Dy(), p.opts.ResizeWidth, p.opts.Width, p.opts.Height)
	if width != p.opts.ResizeWidth {
		p.logger.Debugf("%s: %dx%d does not cover %dx%d after fit-to-width, resizing to cover %dx%d",
			path, src.Dx(), src.Dy(), p.opts.Width, p.opts.Height, width, height)
	}

	// Масштабированное изображение не строится: центральное окно переводится
	// в координаты исходника, и масштабируется только оно.
	region := cropRect(src.Dx(), src.Dy(), width, height, p.opts.Width, p.opts.Height)
	cropped, err := p.codec.Crop(img, region.Min.X, region.Min.Y, region.Dx(), region.Dy())
	if err != nil {
		return nil, stepErr(path, StepCrop, err)
	}

	resized := p.codec.Resize(cropped, p.opts.Resample, p.opts.Width, p.opts.Height)
	if b := resized.Bounds(); b.Dx() != p.opts.Width || b.Dy() != p.opts.Height {
		return nil, stepErr(path, StepResize,
			fmt.Errorf("codec returned %dx%d, want %dx%d", b.Dx(), b.Dy(), p.opts.Width, p.opts.Height))
	}

	encoded, err := p.codec.Encode(resized, p.opts.Format)
	if err != nil {
		return nil, stepErr(path, StepEncode, err)
	}
	if len(encoded) == 0 {
		return nil, stepErr(path, StepEncode, e.ErrEmptyImage)
	}

	return domain.NewPreparedImage(encoded, p.opts.Width, p.opts.Height, p.opts.Format, domain.NewImageAsset(path)), nil
}

// resizeDims возвращает размеры после fit-to-width. Если они не покрывают
// targetW×targetH, размеры считаются от исходника так, чтобы обе стороны были не меньше цели.
func resizeDims(srcW, srcH, resizeWidth, targetW, targetH int) (int, int) {
	width := resizeWidth
	height := (srcH*resizeWidth + srcW/2) / srcW
	if width >= targetW && height >= targetH {
		return width, height
	}

	// Масштаб max(targetW/srcW, targetH/srcH) в целых числах, с округлением вверх
	if targetW*srcH >= targetH*srcW {
		return targetW, max((srcH*targetW+srcW-1)/srcW, targetH)
	}

	return max((srcW*targetH+srcH-1)/srcH, targetW), targetH
}

// cropRect возвращает центральное окно targetW×targetH изображения width×height
// (см. resizeDims) в координатах исходника srcW×srcH. Окно не меньше пикселя и не выходит за исходник.
func cropRect(srcW, srcH, width, height, targetW, targetH int) image.Rectangle {
	x, y := (width-targetW)/2, (height-targetH)/2

	x0, y0 := x*srcW/width, y*srcH/height
	x1 := ((x+targetW)*srcW + width - 1) / width
	y1 := ((y+targetH)*srcH + height - 1) / height

	return image.Rect(x0, y0, min(max(x1, x0+1), srcW), min(max(y1, y0+1), srcH))
}
