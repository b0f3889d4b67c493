package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/services"
)

// GoalsHandler serves the weekly goal and the north star vision.
type GoalsHandler struct {
	log          *logger.Logger
	weeklySvc    services.WeeklyGoalService
	northStarSvc services.NorthStarService
}

func NewGoalsHandler(log *logger.Logger, weeklySvc services.WeeklyGoalService, northStarSvc services.NorthStarService) *GoalsHandler {
	return &GoalsHandler{
		log:          log.With("handler", "GoalsHandler"),
		weeklySvc:    weeklySvc,
		northStarSvc: northStarSvc,
	}
}

// GET /api/resolutions/:id/weekly-goal
func (h *GoalsHandler) CurrentWeeklyGoal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	goal, err := h.weeklySvc.Current(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"weekly_goal": goal})
}

// POST /api/weekly-goals/:id/dismiss
func (h *GoalsHandler) DismissWeeklyGoal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	goalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.weeklySvc.Dismiss(c.Request.Context(), userID, goalID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"dismissed": true})
}

// POST /api/weekly-goals/:id/complete
func (h *GoalsHandler) CompleteWeeklyGoal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	goalID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.weeklySvc.Complete(c.Request.Context(), userID, goalID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"completed": true})
}

// GET /api/resolutions/:id/north-star
func (h *GoalsHandler) NorthStar(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	goal, err := h.northStarSvc.Get(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"north_star": goal})
}
