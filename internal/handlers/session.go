package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/services"
)

type SessionHandler struct {
	log        *logger.Logger
	sessionSvc services.SessionService
}

func NewSessionHandler(log *logger.Logger, sessionSvc services.SessionService) *SessionHandler {
	return &SessionHandler{
		log:        log.With("handler", "SessionHandler"),
		sessionSvc: sessionSvc,
	}
}

// GET /api/resolutions/:id/sessions/today
func (h *SessionHandler) Today(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	session, err := h.sessionSvc.Today(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

// GET /api/resolutions/:id/sessions
func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	sessions, err := h.sessionSvc.List(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	session, err := h.sessionSvc.Get(c.Request.Context(), userID, sessionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

// POST /api/sessions/:id/complete
func (h *SessionHandler) Complete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	session, err := h.sessionSvc.Complete(c.Request.Context(), userID, sessionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

// POST /api/sessions/:id/quiz
func (h *SessionHandler) GenerateQuiz(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	quiz, err := h.sessionSvc.GenerateQuiz(c.Request.Context(), userID, sessionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quiz": quiz})
}

// POST /api/session-quizzes/:id/submit
func (h *SessionHandler) SubmitQuiz(c *gin.Context) {
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
	result, err := h.sessionSvc.SubmitQuiz(c.Request.Context(), userID, quizID, req.Answers)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"result": result})
}
