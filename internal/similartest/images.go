package similartest

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// JPEG рисует градиент w×h, оттенок задаёт seed.
func JPEG(t testing.TB, w, h int, seed uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x) + seed, G: uint8(y) ^ seed, B: seed, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	return buf.Bytes()
}

// WriteJPEG сохраняет JPEG(w, h, seed) в dir/name и возвращает name.
func WriteJPEG(t testing.TB, dir, name string, w, h int, seed uint8) string {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), JPEG(t, w, h, seed), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}

	return name
}
