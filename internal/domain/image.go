package domain

// WireFormat — формат, в котором изображение передаётся сервису.
type WireFormat string

const (
	WireFormatJPEG WireFormat = "jpeg"
	WireFormatPNG  WireFormat = "png"
)

// ImageAsset описывает исходное изображение. Идентичность определяется путём к ресурсу.
type ImageAsset struct {
	Path string
}

func NewImageAsset(path string) *ImageAsset {
	return &ImageAsset{Path: path}
}

// PreparedImage — закодированный буфер фиксированного размера, готовый к отправке.
// Width и Height всегда равны целевым размерам пайплайна.
type PreparedImage struct {
	Data   []byte
	Width  int
	Height int
	Format WireFormat
	Source *ImageAsset
}

func NewPreparedImage(data []byte, width, height int, format WireFormat, source *ImageAsset) *PreparedImage {
	return &PreparedImage{
		Data:   data,
		Width:  width,
		Height: height,
		Format: format,
		Source: source,
	}
}

// Empty сообщает, что буфер пуст.
func (p *PreparedImage) Empty() bool {
	return p == nil || len(p.Data) == 0
}

// SourcePath возвращает путь исходного ресурса или пустую строку.
func (p *PreparedImage) SourcePath() string {
	if p == nil || p.Source == nil {
		return ""
	}
	return p.Source.Path
}
