package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/openjordan/healthatlas/internal/api/controller"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/openjordan/healthatlas/internal/pkg/logger"
	"github.com/openjordan/healthatlas/internal/pkg/store"
	"github.com/openjordan/healthatlas/internal/service/pipeline"
	"github.com/openjordan/healthatlas/internal/service/wikidata"
	"github.com/spf13/viper"
)

type APIService struct {
	router          *echo.Echo
	pipelineService *pipeline.Service
	wikidataService *wikidata.Service
}

func (svc *APIService) Serve(addr string) {
	logger.Fatal(context.Background(), svc.router.Start(addr))
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

func NewAPIService(store store.Store) (*APIService, error) {
	svc := &APIService{router: echo.New()}

	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.Use(middleware.Logger())
	svc.router.Use(RequestIDMiddleware)
	svc.router.HTTPErrorHandler = httpErrorHandler
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	svc.pipelineService = pipeline.NewService(store)
	svc.wikidataService = wikidata.NewService(store, viper.GetString(constants.ViperWikidataBaseURL))

	api := svc.router.Group("/api/v1")
	cntrl := controller.NewController(svc.pipelineService, svc.wikidataService, store)

	pipe := api.Group("/pipeline")
	pipe.POST("/run", cntrl.RunPipeline, svc.AdminMiddleware)

	units := api.Group("/units")
	units.GET("/list", cntrl.ListUnits)
	units.GET("/:id/rates", cntrl.GetUnitRates)
	units.POST("/wikidata/backfill", cntrl.BackfillWikidataLabels, svc.AdminMiddleware)

	api.GET("/violations", cntrl.ListViolations)

	return svc, nil
}
