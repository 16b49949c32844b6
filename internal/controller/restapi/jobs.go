package restapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/VaibhavChidrawar/thumbnail-api/internal/controller/restapi/response"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/controller/restapi/validate"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/usecase"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/logger"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type jobRoutes struct {
	jobs   usecase.JobUseCase
	logger logger.Interface
}

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

// @Summary  	Submit a thumbnail job
// @Description Accepts an image upload, enqueues background processing and returns immediately
// @Tags 		jobs
// @Accept 		mpfd
// @Produce 	json
// @Param 		file formData file true "Image file"
// @Success 	202 {object} response.Job
// @Failure 	400 {object} response.Error "Empty file or non-image content type"
// @Failure 	413 {object} response.Error "File too large"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/jobs [post]
func (r *jobRoutes) submitJob(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "file is required")
	}

	if file.Size == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "file is empty")
	}

	if file.Size > validate.MaxFileSize {
		return errorResponse(ctx, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file size cant be more than %d bytes", validate.MaxFileSize))
	}

	contentType := file.Header.Get("Content-Type")
	if !validate.IsImage(contentType) {
		return errorResponse(ctx, http.StatusBadRequest, "only image files are supported")
	}

	fileReader, err := file.Open()
	if err != nil {
		r.logger.Error(err, "restapi - submitJob - file.Open")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
	}
	defer fileReader.Close()

	job, err := r.jobs.Submit(ctx.UserContext(), fileReader, contentType, file.Size)
	if err != nil {
		r.logger.Error(err, "restapi - submitJob")

		return errorResponse(ctx, http.StatusInternalServerError, "failed to submit job")
	}

	return ctx.Status(http.StatusAccepted).JSON(response.Job{
		JobID:  job.ID.String(),
		Status: string(job.Status),
	})
}

// @Summary 	Job status
// @Tags 		jobs
// @Produce 	json
// @Param 		id path string true "Job ID(uuid)"
// @Success 	200 {object} response.Job
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Job not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/jobs/{id} [get]
func (r *jobRoutes) jobStatus(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	job, err := r.jobs.Get(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrJobNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "job not found")
		}
		r.logger.Error(err, "restapi - jobStatus")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.JSON(response.Job{
		JobID:  job.ID.String(),
		Status: string(job.Status),
	})
}

// @Summary 	List jobs
// @Tags 		jobs
// @Produce 	json
// @Success 	200 {array} response.Job
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/jobs [get]
func (r *jobRoutes) listJobs(ctx *fiber.Ctx) error {
	jobs, err := r.jobs.List(ctx.UserContext())
	if err != nil {
		r.logger.Error(err, "restapi - listJobs")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	resp := make([]response.Job, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, response.Job{
			JobID:  job.ID.String(),
			Status: string(job.Status),
		})
	}

	return ctx.JSON(resp)
}

// @Summary 	Fetch the generated thumbnail
// @Tags 		jobs
// @Produce 	image/png
// @Param 		id path string true "Job ID(uuid)"
// @Success 	200 {file} 	binary
// @Failure 	400 {object} response.Error "Invalid ID or job not yet succeeded"
// @Failure 	404 {object} response.Error "Job not found"
// @Failure 	500 {object} response.Error "Thumbnail file missing"
// @Router 		/jobs/{id}/thumbnail [get]
func (r *jobRoutes) getThumbnail(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	body, err := r.jobs.Thumbnail(ctx.UserContext(), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrJobNotFound):
			return errorResponse(ctx, http.StatusNotFound, "job not found")
		case errors.Is(err, errs.ErrThumbnailNotReady):
			job, getErr := r.jobs.Get(ctx.UserContext(), id)
			if getErr != nil {
				r.logger.Error(getErr, "restapi - getThumbnail - r.jobs.Get")

				return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
			}
			return errorResponse(ctx, http.StatusBadRequest,
				fmt.Sprintf("thumbnail not available, job status: %s", job.Status))
		case errors.Is(err, errs.ErrArtifactMissing):
			// the record says succeeded: this is an invariant violation,
			// not a normal absence
			r.logger.Error(err, "restapi - getThumbnail")

			return errorResponse(ctx, http.StatusInternalServerError, "thumbnail file missing")
		default:
			r.logger.Error(err, "restapi - getThumbnail")

			return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
		}
	}

	ctx.Set(fiber.HeaderContentType, "image/png")

	return ctx.SendStream(body)
}

// @Summary 	Raw job record for diagnostics
// @Tags 		jobs
// @Produce 	json
// @Param 		id path string true "Job ID(uuid)"
// @Success 	200 {object} map[string]string
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Job not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/jobs/{id}/debug [get]
func (r *jobRoutes) debugJob(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	fields, err := r.jobs.Debug(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrJobNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "job not found")
		}
		r.logger.Error(err, "restapi - debugJob")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.JSON(fields)
}
