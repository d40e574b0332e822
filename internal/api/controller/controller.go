package controller

import (
	"github.com/openjordan/healthatlas/internal/pkg/store"
	"github.com/openjordan/healthatlas/internal/service/pipeline"
	"github.com/openjordan/healthatlas/internal/service/wikidata"
)

type Controller struct {
	pipeline *pipeline.Service
	wikidata *wikidata.Service
	store    store.Store
}

func NewController(pipelineService *pipeline.Service, wikidataService *wikidata.Service, store store.Store) *Controller {
	return &Controller{
		pipeline: pipelineService,
		wikidata: wikidataService,
		store:    store,
	}
}
