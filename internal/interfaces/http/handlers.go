package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/workflow"
	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
	"github.com/iamSachinDev/transcription-workflow-api/internal/report"
	"github.com/iamSachinDev/transcription-workflow-api/internal/repository"
	"github.com/iamSachinDev/transcription-workflow-api/internal/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflows      service.WorkflowService
	transcriptions service.TranscriptionService
	exporter       *report.Exporter
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	workflows service.WorkflowService,
	transcriptions service.TranscriptionService,
	exporter *report.Exporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		workflows:      workflows,
		transcriptions: transcriptions,
		exporter:       exporter,
		logger:         logger,
	}
}

// CreateWorkflowRequest is the body for creating a workflow
type CreateWorkflowRequest struct {
	TranscriptionID string `json:"transcriptionId" binding:"required"`
	Assignee        string `json:"assignee"`
}

// AdvanceWorkflowRequest is the body for advancing a workflow
type AdvanceWorkflowRequest struct {
	TargetState string `json:"targetState" binding:"required"`
	Assignee    string `json:"assignee"`
	Notes       string `json:"notes"`
}

// RejectWorkflowRequest is the body for rejecting a workflow
type RejectWorkflowRequest struct {
	Reason   string `json:"reason" binding:"required"`
	Assignee string `json:"assignee"`
}

// CreateTranscriptionRequest is the body for ingesting an audio reference
type CreateTranscriptionRequest struct {
	AudioURL string `json:"audioUrl" binding:"required,url"`
}

// SpeechTranscriptionRequest is the body for the speech-backend endpoint
type SpeechTranscriptionRequest struct {
	AudioURL string `json:"audioUrl" binding:"required,url"`
	Language string `json:"language"`
}

// UpdateTranscriptionRequest is the body for partial transcription updates
type UpdateTranscriptionRequest struct {
	AudioURL      *string `json:"audioUrl" binding:"omitempty,url"`
	Transcription *string `json:"transcription"`
	Source        *string `json:"source"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateWorkflow handles POST /api/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	wf, err := h.workflows.Create(c.Request.Context(), req.TranscriptionID, req.Assignee)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, wf)
}

// GetWorkflow handles GET /api/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	wf, err := h.workflows.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wf)
}

// ListWorkflows handles GET /api/workflows?state=
func (h *Handlers) ListWorkflows(c *gin.Context) {
	state := workflow.State(c.Query("state"))
	if !state.IsValid() {
		h.badRequest(c, "state must be one of: transcription, review, approval, completed, rejected")
		return
	}

	workflows, err := h.workflows.ListByState(c.Request.Context(), state)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if workflows == nil {
		// an empty match serializes as [], not null
		c.JSON(http.StatusOK, []struct{}{})
		return
	}
	c.JSON(http.StatusOK, workflows)
}

// AdvanceWorkflow handles PATCH /api/workflows/:id/advance
func (h *Handlers) AdvanceWorkflow(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req AdvanceWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	wf, err := h.workflows.Advance(c.Request.Context(), id, workflow.State(req.TargetState), req.Assignee, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wf)
}

// RejectWorkflow handles PATCH /api/workflows/:id/reject
func (h *Handlers) RejectWorkflow(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req RejectWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	wf, err := h.workflows.Reject(c.Request.Context(), id, req.Reason, req.Assignee)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wf)
}

// ExportWorkflows handles GET /api/workflows/export
func (h *Handlers) ExportWorkflows(c *gin.Context) {
	workflows, err := h.workflows.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := "workflow-report-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.exporter.Write(c.Writer, workflows); err != nil {
		h.logger.Error("Failed to write workflow report", "error", err)
	}
}

// PostTranscription handles POST /api/transcriptions
func (h *Handlers) PostTranscription(c *gin.Context) {
	var req CreateTranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	record, err := h.transcriptions.Create(c.Request.Context(), req.AudioURL)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": record.ID})
}

// PostSpeechTranscription handles POST /api/transcriptions/speech
func (h *Handlers) PostSpeechTranscription(c *gin.Context) {
	var req SpeechTranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	record, err := h.transcriptions.CreateWithSpeech(c.Request.Context(), req.AudioURL, req.Language)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": record.ID})
}

// GetTranscriptions handles GET /api/transcriptions
func (h *Handlers) GetTranscriptions(c *gin.Context) {
	records, err := h.transcriptions.ListRecent(c.Request.Context(), 30)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetRecentTranscriptions handles GET /api/transcriptions/recent
func (h *Handlers) GetRecentTranscriptions(c *gin.Context) {
	records, err := h.transcriptions.ListRecent(c.Request.Context(), 7)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetTranscription handles GET /api/transcriptions/audio/:id
func (h *Handlers) GetTranscription(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	record, err := h.transcriptions.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpdateTranscription handles PUT and PATCH /api/transcriptions/:id
func (h *Handlers) UpdateTranscription(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateTranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	record, err := h.transcriptions.Update(c.Request.Context(), id, port.TranscriptionUpdate{
		AudioURL:      req.AudioURL,
		Transcription: req.Transcription,
		Source:        req.Source,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handlers) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, "invalid id format")
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"message":   msg,
		"requestId": c.GetString("request_id"),
	})
}

// respondError maps service errors onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, workflow.ErrWorkflowNotFound),
		errors.Is(err, service.ErrTranscriptionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrInvalidState):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrWorkflowExists),
		errors.Is(err, workflow.ErrStaleWorkflow),
		errors.Is(err, service.ErrAudioExists),
		errors.Is(err, repository.ErrDuplicateAudioURL):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"error", err,
			"path", c.Request.URL.Path,
			"request_id", c.GetString("request_id"))
	}

	c.JSON(status, gin.H{
		"message":   err.Error(),
		"requestId": c.GetString("request_id"),
	})
}
