package imageprep

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/perone/euclidesdb/pkg/e"
)

// Пути с префиксом ObjectScheme читаются из объектного хранилища.
const ObjectScheme = "s3://"

// Loader отдаёт байты ресурса по пути или ошибку ErrResourceNotFound.
type Loader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// FSLoader читает файлы с диска. Относительные пути ищутся в root.
type FSLoader struct {
	root string
}

func NewFSLoader(root string) *FSLoader {
	return &FSLoader{root: root}
}

func (l *FSLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(l.root, path)
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", e.ErrResourceNotFound, full)
		}
		return nil, e.Wrap("FSLoader.Load", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", e.ErrResourceNotFound, full)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, e.Wrap("FSLoader.Load", err)
	}

	return data, nil
}

// ResourceLoader направляет s3:// пути в объектное хранилище, остальные на диск.
type ResourceLoader struct {
	files   Loader
	objects Loader // nil, если хранилище не настроено
}

func NewResourceLoader(files Loader, objects Loader) *ResourceLoader {
	return &ResourceLoader{files: files, objects: objects}
}

func (r *ResourceLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, ObjectScheme) {
		if r.objects == nil {
			return nil, fmt.Errorf("%w: %s: object storage is not configured", e.ErrResourceNotFound, path)
		}
		return r.objects.Load(ctx, path)
	}

	return r.files.Load(ctx, path)
}
