package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/openjordan/healthatlas/internal/pkg/geo"
	"github.com/openjordan/healthatlas/internal/service/pipeline"
	"github.com/spf13/viper"
)

type RunPipelineRequest struct {
	Layers   map[domain.Level]pipeline.LayerSource `json:"layers" validate:"required,min=1"`
	Tables   []pipeline.TableSource                `json:"tables"`
	Diseases []string                              `json:"diseases"`

	PopulationMetric string        `json:"population_metric"`
	Period           domain.Period `json:"period"`

	Strict bool `json:"strict"`

	OutputPath   string `json:"output_path"`
	OutputFormat string `json:"output_format" validate:"omitempty,oneof=geojson csv"`
}

func (c *Controller) RunPipeline(ctx echo.Context) error {
	req := new(RunPipelineRequest)
	if err := ctx.Bind(req); err != nil {
		return err
	}
	if err := ctx.Validate(req); err != nil {
		return err
	}

	for level := range req.Layers {
		if !level.Valid() {
			return constants.ErrBadRequest
		}
	}

	cfg := pipeline.Config{
		Layers:   req.Layers,
		Tables:   req.Tables,
		Diseases: req.Diseases,

		PopulationMetric: req.PopulationMetric,
		Period:           req.Period,

		RateDecimals:         int32(viper.GetInt(constants.ViperRateDecimals)),
		PopulationTolerance:  viper.GetFloat64(constants.ViperPopulationTolerance),
		ContainmentTolerance: viper.GetFloat64(constants.ViperContainmentTol),

		Strict: req.Strict,

		OutputPath:   req.OutputPath,
		OutputFormat: geo.Format(req.OutputFormat),
	}

	summary, err := c.pipeline.Run(ctx.Request().Context(), cfg)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, summary)
}
