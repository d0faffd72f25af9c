package cfg

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jimlawless/whereami"
	"github.com/perone/euclidesdb/pkg/e"
	"gopkg.in/yaml.v3"
)

// BatchEntry: одно изображение для регистрации
type BatchEntry struct {
	Path     string `yaml:"path"`
	ID       int32  `yaml:"id"`
	Metadata string `yaml:"metadata,omitempty"`
}

// RunFile — YAML-описание плана прогона (RUN_FILE).
// Заданные в файле поля перекрывают значения из окружения.
type RunFile struct {
	Models       []string     `yaml:"models"`
	TopK         *int         `yaml:"top_k"`
	Batch        []BatchEntry `yaml:"batch"`
	RemoveID     *int32       `yaml:"remove_id"`
	QueryImage   string       `yaml:"query_image"`
	QueryID      *int32       `yaml:"query_id"`
	Shutdown     *bool        `yaml:"shutdown"`
	ShutdownType *int32       `yaml:"shutdown_type"`
}

// LoadRunFile читает YAML-план прогона.
func LoadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var file RunFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &file, nil
}

func (f *RunFile) applyTo(run *RunCfg) {
	if len(f.Models) > 0 {
		run.Models = f.Models
	}
	if f.TopK != nil {
		run.TopK = *f.TopK
	}
	if len(f.Batch) > 0 {
		run.Batch = append(run.Batch, f.Batch...)
	}
	if f.RemoveID != nil {
		run.RemoveID = f.RemoveID
	}
	if f.QueryImage != "" {
		run.QueryImage = f.QueryImage
	}
	if f.QueryID != nil {
		run.QueryID = f.QueryID
	}
	if f.Shutdown != nil {
		run.Shutdown = *f.Shutdown
	}
	if f.ShutdownType != nil {
		run.ShutdownType = *f.ShutdownType
	}
}

// ParseBatch разбирает строку вида "cat.jpg=42,dog.jpg=43".
func ParseBatch(s string) ([]BatchEntry, error) {
	var entries []BatchEntry
	for _, item := range splitList(s) {
		path, idStr, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("batch item %q: want path=id", item)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("batch item %q: %w", item, err)
		}

		entries = append(entries, BatchEntry{Path: strings.TrimSpace(path), ID: int32(id)})
	}

	return entries, nil
}

// EnumerateDir находит файлы dir/pattern и присваивает им последовательные ID начиная со start.
// Относительный dir ищется внутри resourcesDir, пути в результате остаются относительными.
func EnumerateDir(resourcesDir, dir, pattern string, start int32) ([]BatchEntry, error) {
	root := dir
	if !filepath.IsAbs(dir) {
		root = filepath.Join(resourcesDir, dir)
	}

	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	entries := make([]BatchEntry, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if int64(start)+int64(len(entries)) > math.MaxInt32 {
			return nil, e.Wrap(whereami.WhereAmI(),
				fmt.Errorf("%w: image ids starting at %d overflow int32 at %s", e.ErrInvalidConfig, start, match))
		}
		entries = append(entries, BatchEntry{
			Path: filepath.Join(dir, filepath.Base(match)),
			ID:   start + int32(len(entries)),
		})
	}

	return entries, nil
}
