package converter

import (
	"github.com/perone/euclidesdb/internal/usecase"
)

type ReportInfoConverter interface {
	ToRedisModel(entity *usecase.ReportInfo) *ReportRedisModel
	ToUseCase(model *ReportRedisModel) *usecase.ReportInfo
}

// ReportInfoConverterImpl переносит поля один в один.
type ReportInfoConverterImpl struct{}

func NewReportInfoConverterImpl() *ReportInfoConverterImpl {
	return &ReportInfoConverterImpl{}
}

func (c *ReportInfoConverterImpl) ToRedisModel(entity *usecase.ReportInfo) *ReportRedisModel {
	if entity == nil {
		return nil
	}

	model := &ReportRedisModel{
		RunID:      entity.RunID,
		StartedAt:  entity.StartedAt,
		FinishedAt: entity.FinishedAt,
		Results:    make([]CallResultRedisModel, len(entity.Results)),
	}
	for i, r := range entity.Results {
		model.Results[i] = CallResultRedisModel{
			Seq:       r.Seq,
			Call:      r.Call,
			ImageID:   copyID(r.ImageID),
			ImagePath: r.ImagePath,
			Success:   r.Success,
			ErrorKind: r.ErrorKind,
			Error:     r.Error,
			Summary:   r.Summary,
		}
	}

	return model
}

func (c *ReportInfoConverterImpl) ToUseCase(model *ReportRedisModel) *usecase.ReportInfo {
	if model == nil {
		return nil
	}

	entity := &usecase.ReportInfo{
		RunID:      model.RunID,
		StartedAt:  model.StartedAt,
		FinishedAt: model.FinishedAt,
		Results:    make([]usecase.CallResultInfo, len(model.Results)),
	}
	for i, r := range model.Results {
		entity.Results[i] = usecase.CallResultInfo{
			Seq:       r.Seq,
			Call:      r.Call,
			ImageID:   copyID(r.ImageID),
			ImagePath: r.ImagePath,
			Success:   r.Success,
			ErrorKind: r.ErrorKind,
			Error:     r.Error,
			Summary:   r.Summary,
		}
	}

	return entity
}

func copyID(id *int32) *int32 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
