package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/services"
)

type ProgressHandler struct {
	log              *logger.Logger
	progressSvc      services.ProgressService
	verificationSvc  services.VerificationService
	planSvc          services.PlanService
	transcriptionSvc services.TranscriptionService
}

func NewProgressHandler(
	log *logger.Logger,
	progressSvc services.ProgressService,
	verificationSvc services.VerificationService,
	planSvc services.PlanService,
	transcriptionSvc services.TranscriptionService,
) *ProgressHandler {
	return &ProgressHandler{
		log:              log.With("handler", "ProgressHandler"),
		progressSvc:      progressSvc,
		verificationSvc:  verificationSvc,
		planSvc:          planSvc,
		transcriptionSvc: transcriptionSvc,
	}
}

// POST /api/resolutions/:id/progress
func (h *ProgressHandler) Log(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in services.LogProgressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	entry, err := h.progressSvc.Log(c.Request.Context(), userID, resolutionID, in)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"progress_log": entry})
}

// GET /api/resolutions/:id/progress/today
func (h *ProgressHandler) Today(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entry, err := h.progressSvc.Today(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress_log": entry})
}

// GET /api/resolutions/:id/progress
func (h *ProgressHandler) History(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.progressSvc.History(c.Request.Context(), userID, resolutionID, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress_logs": entries})
}

// GET /api/resolutions/:id/streak
func (h *ProgressHandler) Streak(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	streak, err := h.progressSvc.Streak(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"streak": streak})
}

// GET /api/resolutions/:id/overview
func (h *ProgressHandler) Overview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	overview, err := h.planSvc.Overview(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"overview": overview})
}

// POST /api/progress-logs/:id/verify
func (h *ProgressHandler) GenerateVerification(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	progressLogID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	quiz, err := h.verificationSvc.Generate(c.Request.Context(), userID, progressLogID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quiz": quiz})
}

type submitAnswersRequest struct {
	Answers []string `json:"answers"`
}

// POST /api/verification-quizzes/:id/submit
func (h *ProgressHandler) SubmitVerification(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	quizID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req submitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := h.verificationSvc.Grade(c.Request.Context(), userID, quizID, req.Answers)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"result": result})
}

type transcribeRequest struct {
	AudioBase64 string `json:"audio_base64"`
	MimeType    string `json:"mime_type"`
}

// POST /api/transcribe
func (h *ProgressHandler) Transcribe(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req transcribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	text, err := h.transcriptionSvc.TranscribeBase64(c.Request.Context(), req.AudioBase64, req.MimeType)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"text": text})
}
