package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/dto"
	"github.com/SscSPs/usage_billing_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// jobHandler serves asynchronous transcription jobs.
type jobHandler struct {
	settlementService portssvc.SettlementSvc
}

func newJobHandler(ss portssvc.SettlementSvc) *jobHandler {
	return &jobHandler{settlementService: ss}
}

func registerJobRoutes(rg *gin.RouterGroup, settlementService portssvc.SettlementSvc) {
	h := newJobHandler(settlementService)

	jobs := rg.Group("/jobs")
	{
		jobs.POST("", h.createJob)
		jobs.POST("/:jobID/start", h.startJob)
		jobs.GET("/:jobID", h.getJob)
	}
}

// createJob godoc
// @Summary Create a transcription job
// @Description Creates a job waiting for its input and returns a URL to upload the audio to
// @Tags jobs
// @Produce json
// @Success 201 {object} dto.CreateJobResponse
// @Failure 401 {object} map[string]string "Missing or invalid device token"
// @Failure 402 {object} map[string]string "Insufficient balance"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security DeviceToken
// @Router /jobs [post]
func (h *jobHandler) createJob(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	job, uploadURL, err := h.settlementService.CreateJob(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to create job")
		return
	}
	logger.Info("Job created", slog.String("job_id", job.JobID))
	c.JSON(http.StatusCreated, dto.CreateJobResponse{JobID: job.JobID, Status: job.Status, UploadURL: uploadURL})
}

// startJob godoc
// @Summary Start a transcription job
// @Description Confirms the upload and dispatches the job. Starting a job that already left pending_input returns it unchanged.
// @Tags jobs
// @Accept json
// @Produce json
// @Param jobID path string true "Job ID"
// @Param request body dto.StartJobRequest false "Language hint"
// @Success 202 {object} dto.JobResponse
// @Failure 400 {object} map[string]string "Upload missing"
// @Failure 404 {object} map[string]string "Job not found"
// @Failure 409 {object} map[string]string "Invalid status transition"
// @Security DeviceToken
// @Router /jobs/{jobID}/start [post]
func (h *jobHandler) startJob(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.StartJobRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for StartJob", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	jobID := c.Param("jobID")
	job, err := h.settlementService.StartJob(c.Request.Context(), accountID, jobID, req.Language)
	if err != nil {
		respondError(c, logger.With(slog.String("job_id", jobID)), err, "Failed to start job")
		return
	}
	c.JSON(http.StatusAccepted, dto.ToJobResponse(job))
}

// getJob godoc
// @Summary Get a job
// @Description Returns the job status with its result when completed, or its error when failed
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} map[string]string "Job not found"
// @Security DeviceToken
// @Router /jobs/{jobID} [get]
func (h *jobHandler) getJob(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	job, err := h.settlementService.GetJob(c.Request.Context(), accountID, c.Param("jobID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve job")
		return
	}
	c.JSON(http.StatusOK, dto.ToJobResponse(job))
}
