package controller

import (
	"errors"
	"net/http"

	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/metrics"
	"log-triage-backend/internal/model"
	"log-triage-backend/internal/pipeline"
	"log-triage-backend/internal/service"
	"log-triage-backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type TriageController struct {
	triageService service.TriageService
}

func NewTriageController(triageService service.TriageService) *TriageController {
	return &TriageController{
		triageService: triageService,
	}
}

func RegisterTriageRoutes(router *gin.Engine, controller *TriageController) {
	v1 := router.Group("/api/v1/triage")
	{
		v1.POST("/runs", controller.CreateRun)
		v1.GET("/runs/latest", controller.GetLatestRun)
		v1.GET("/runs/:id", controller.GetRun)
	}
}

func RegisterMetricsRoute(router *gin.Engine, recorder *metrics.Recorder) {
	router.GET("/metrics", gin.WrapH(recorder.Handler()))
}

// CreateRun godoc
// @Summary      Run log triage
// @Description  Parses the given log files (or the configured ones), groups events by signature, annotates, files tickets and posts a digest.
// @Tags         triage
// @Accept       json
// @Produce      json
// @Param        request body dto.TriageRunRequest false "Inputs and dry-run flag"
// @Success      200 {object} dto.TriageRunResponse
// @Failure      400 {object} model.Response "Invalid request body or no readable inputs"
// @Failure      409 {object} model.Response "Another run is in progress"
// @Failure      500 {object} model.Response "Internal server error"
// @Router       /api/v1/triage/runs [post]
func (c *TriageController) CreateRun(ctx *gin.Context) {
	var req dto.TriageRunRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			log.Warn().Err(err).Msg("Invalid triage run request body")
			ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
			return
		}
	}

	resp, err := c.triageService.Run(ctx.Request.Context(), req)
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		ctx.JSON(http.StatusConflict, model.NewResponse(err.Error(), nil))
		return
	case errors.Is(err, pipeline.ErrNoInputFiles):
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	case err != nil:
		log.Error().Err(err).Msg("Triage run failed")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Triage run failed: "+err.Error(), nil))
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// GetRun godoc
// @Summary      Get a triage run
// @Tags         triage
// @Produce      json
// @Param        id   path      string  true  "Run ID"
// @Success      200  {object}  dto.TriageRunResponse
// @Failure      404  {object}  model.Response "Run not found"
// @Router       /api/v1/triage/runs/{id} [get]
func (c *TriageController) GetRun(ctx *gin.Context) {
	run, err := c.triageService.GetRun(ctx.Request.Context(), ctx.Param("id"))
	c.respondRun(ctx, run, err)
}

// GetLatestRun godoc
// @Summary      Get the latest finished triage run
// @Tags         triage
// @Produce      json
// @Success      200  {object}  dto.TriageRunResponse
// @Failure      404  {object}  model.Response "No run yet"
// @Router       /api/v1/triage/runs/latest [get]
func (c *TriageController) GetLatestRun(ctx *gin.Context) {
	run, err := c.triageService.LatestRun(ctx.Request.Context())
	c.respondRun(ctx, run, err)
}

func (c *TriageController) respondRun(ctx *gin.Context, run dto.TriageRunResponse, err error) {
	if errors.Is(err, store.ErrRunNotFound) {
		ctx.JSON(http.StatusNotFound, model.NewResponse("Run not found", nil))
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Error loading triage run")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Internal server error", nil))
		return
	}
	ctx.JSON(http.StatusOK, run)
}
