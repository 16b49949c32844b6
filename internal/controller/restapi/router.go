package restapi

import (
	"github.com/VaibhavChidrawar/thumbnail-api/config"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/usecase"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @title Thumbnail API
// @version 1.0.0
// @description Long-running thumbnail generation API
// @host localhost:8080
func NewRouter(app *fiber.App, cfg *config.Config, jobs usecase.JobUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Probes
	app.Get("/health", handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Routers
	r := &jobRoutes{jobs: jobs, logger: l}

	jobsGroup := app.Group("/jobs")
	{
		jobsGroup.Post("/", r.submitJob)
		jobsGroup.Get("/", r.listJobs)
		jobsGroup.Get("/:id", r.jobStatus)
		jobsGroup.Get("/:id/thumbnail", r.getThumbnail)
		jobsGroup.Get("/:id/debug", r.debugJob)
	}
}

// @Summary Liveness probe
// @Tags    health
// @Produce json
// @Success 200 {object} map[string]string
// @Router  /health [get]
func handleHealth(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}
