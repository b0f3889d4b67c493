package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/services"
)

type FeedbackHandler struct {
	log         *logger.Logger
	feedbackSvc services.FeedbackService
}

func NewFeedbackHandler(log *logger.Logger, feedbackSvc services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		log:         log.With("handler", "FeedbackHandler"),
		feedbackSvc: feedbackSvc,
	}
}

type createFeedbackRequest struct {
	ContentType  string    `json:"content_type"`
	ContentID    uuid.UUID `json:"content_id"`
	Rating       string    `json:"rating"`
	FeedbackText string    `json:"feedback_text"`
}

// POST /api/feedback
func (h *FeedbackHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req createFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	feedback, err := h.feedbackSvc.Create(c.Request.Context(), userID, req.ContentType, req.ContentID, req.Rating, req.FeedbackText)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback": feedback})
}

// POST /api/feedback/:id/regenerate
func (h *FeedbackHandler) Regenerate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	feedbackID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	feedback, err := h.feedbackSvc.Regenerate(c.Request.Context(), userID, feedbackID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"feedback": feedback})
}
