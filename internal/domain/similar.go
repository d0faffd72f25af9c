package domain

import "strings"

// ImageID — идентификатор изображения, уникальность обеспечивает сервис.
type ImageID int32

// ShutdownType интерпретирует только сервис.
type ShutdownType int32

// Известные коды сервиса EuclidesDB.
const (
	ShutdownRegular      ShutdownType = 0
	ShutdownRefreshIndex ShutdownType = 1
)

// ModelSelector — набор моделей извлечения признаков. Порядок не важен.
type ModelSelector []string

// NewModelSelector убирает пустые имена и дубликаты, сохраняя порядок первого появления.
func NewModelSelector(names ...string) ModelSelector {
	seen := make(map[string]struct{}, len(names))
	selector := make(ModelSelector, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		selector = append(selector, name)
	}

	return selector
}

func (m ModelSelector) Empty() bool {
	return len(m) == 0
}

// ItemVectors — признаки изображения в пространстве одной модели.
type ItemVectors struct {
	Model       string
	Predictions []float32
	Features    []float32
}

// TopCategory возвращает индекс класса с максимальной вероятностью или -1.
func (v ItemVectors) TopCategory() int {
	best := -1
	for i, p := range v.Predictions {
		if best == -1 || p > v.Predictions[best] {
			best = i
		}
	}
	return best
}

type AddImageReply struct {
	Vectors []ItemVectors
}

// VectorsAdded возвращает число пространств моделей, в которые добавлено изображение.
func (r *AddImageReply) VectorsAdded() int {
	return len(r.Vectors)
}

type RemoveImageReply struct {
	ImageID ImageID
}

// SearchResults — ранжированные совпадения в пространстве одной модели.
type SearchResults struct {
	Model     string
	IDs       []ImageID
	Distances []float32
}

type FindSimilarReply struct {
	Results []SearchResults
}

// MaxMatches возвращает наибольшее число совпадений среди моделей.
func (r *FindSimilarReply) MaxMatches() int {
	n := 0
	for _, res := range r.Results {
		if len(res.IDs) > n {
			n = len(res.IDs)
		}
	}
	return n
}

type ShutdownReply struct {
	Shutdown bool
}
