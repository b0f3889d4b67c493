package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/services"
)

type ResolutionHandler struct {
	log           *logger.Logger
	resolutionSvc services.ResolutionService
	roadmapSvc    services.RoadmapService
	milestoneSvc  services.MilestoneService
	planSvc       services.PlanService
	analyticsSvc  services.AnalyticsService
}

func NewResolutionHandler(
	log *logger.Logger,
	resolutionSvc services.ResolutionService,
	roadmapSvc services.RoadmapService,
	milestoneSvc services.MilestoneService,
	planSvc services.PlanService,
	analyticsSvc services.AnalyticsService,
) *ResolutionHandler {
	return &ResolutionHandler{
		log:           log.With("handler", "ResolutionHandler"),
		resolutionSvc: resolutionSvc,
		roadmapSvc:    roadmapSvc,
		milestoneSvc:  milestoneSvc,
		planSvc:       planSvc,
		analyticsSvc:  analyticsSvc,
	}
}

// POST /api/resolutions
func (h *ResolutionHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.CreateResolutionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	resolution, err := h.resolutionSvc.Create(c.Request.Context(), userID, in)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resolution": resolution})
}

// GET /api/resolutions
func (h *ResolutionHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutions, err := h.resolutionSvc.List(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"resolutions": resolutions})
}

// GET /api/resolutions/:id
func (h *ResolutionHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resolution, err := h.resolutionSvc.Get(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"resolution": resolution})
}

// POST /api/resolutions/:id/roadmap
func (h *ResolutionHandler) GenerateRoadmap(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	milestones, err := h.roadmapSvc.Generate(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"milestones": milestones})
}

// GET /api/resolutions/:id/roadmap
func (h *ResolutionHandler) GetRoadmap(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	milestones, err := h.milestoneSvc.List(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"milestones": milestones})
}

// POST /api/milestones/:id/complete
func (h *ResolutionHandler) CompleteMilestone(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	milestoneID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	milestone, err := h.milestoneSvc.Complete(c.Request.Context(), userID, milestoneID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"milestone": milestone})
}

// PATCH /api/milestones/:id
func (h *ResolutionHandler) EditMilestone(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	milestoneID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var edit services.MilestoneEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	milestone, err := h.milestoneSvc.Edit(c.Request.Context(), userID, milestoneID, edit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"milestone": milestone})
}

// POST /api/resolutions/:id/plan/refresh
func (h *ResolutionHandler) RefreshPlan(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	// Ownership gate before the recompute touches anything.
	if _, err := h.resolutionSvc.Get(c.Request.Context(), userID, resolutionID); err != nil {
		RespondServiceError(c, err)
		return
	}
	overview, err := h.planSvc.Recompute(c.Request.Context(), resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": overview})
}

// GET /api/resolutions/:id/analytics
func (h *ResolutionHandler) GetAnalytics(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if _, err := h.resolutionSvc.Get(c.Request.Context(), userID, resolutionID); err != nil {
		RespondServiceError(c, err)
		return
	}
	analytics, err := h.analyticsSvc.Analytics(c.Request.Context(), resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"analytics": analytics})
}
