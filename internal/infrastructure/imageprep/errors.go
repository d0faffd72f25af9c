package imageprep

import "fmt"

// Step — шаг пайплайна, на котором произошла ошибка.
type Step string

const (
	StepLoad   Step = "load"
	StepDecode Step = "decode"
	StepResize Step = "resize"
	StepCrop   Step = "crop"
	StepEncode Step = "encode"
)

// PrepareError привязывает ошибку к исходному пути и шагу.
type PrepareError struct {
	Path string
	Step Step
	Err  error
}

func (p *PrepareError) Error() string {
	return fmt.Sprintf("prepare %s: %s: %v", p.Path, p.Step, p.Err)
}

func (p *PrepareError) Unwrap() error {
	return p.Err
}

func stepErr(path string, step Step, err error) *PrepareError {
	return &PrepareError{Path: path, Step: step, Err: err}
}
