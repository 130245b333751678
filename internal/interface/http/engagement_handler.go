package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/internal/application"
	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/pkg/response"
	"github.com/oksasatya/gigboard/pkg/validation"
)

type EngagementHandler struct {
	Svc    *application.EngagementService
	Logger *logrus.Logger
}

func NewEngagementHandler(svc *application.EngagementService, logger *logrus.Logger) *EngagementHandler {
	return &EngagementHandler{Svc: svc, Logger: logger}
}

type hireRequest struct {
	FreelancerID string `json:"freelancer_id" binding:"required,uuid"`
	Project      string `json:"project" binding:"required,notblank,max=200"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=Completed Denied"`
}

type reviewRequest struct {
	Review string `json:"review" binding:"required,notblank,max=2000"`
	Rating int    `json:"rating" binding:"required,rating"`
}

func (h *EngagementHandler) Hire(c *gin.Context) {
	var req hireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	e, err := h.Svc.Hire(c.Request.Context(), callerID(c), req.FreelancerID, req.Project)
	if err != nil {
		h.fail(c, err, "hire")
		return
	}
	response.Success(c, http.StatusCreated, e, "engagement created", nil)
}

func (h *EngagementHandler) List(c *gin.Context) {
	history, err := h.Svc.WorkHistory(c.Request.Context(), callerID(c))
	if err != nil {
		h.fail(c, err, "work history")
		return
	}
	response.Success(c, http.StatusOK, history, "ok", nil)
}

func (h *EngagementHandler) Get(c *gin.Context) {
	e, err := h.Svc.Get(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		h.fail(c, err, "get engagement")
		return
	}
	response.Success(c, http.StatusOK, e, "ok", nil)
}

func (h *EngagementHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	e, err := h.Svc.UpdateStatus(c.Request.Context(), c.Param("id"), callerID(c), entity.EngagementStatus(req.Status))
	if err != nil {
		h.fail(c, err, "update status")
		return
	}
	response.Success(c, http.StatusOK, e, "status updated", nil)
}

func (h *EngagementHandler) SubmitReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	e, err := h.Svc.SubmitReview(c.Request.Context(), c.Param("id"), callerID(c), req.Review, req.Rating)
	if err != nil {
		h.fail(c, err, "submit review")
		return
	}
	response.Success(c, http.StatusOK, e, "review submitted", nil)
}

func (h *EngagementHandler) Contacts(c *gin.Context) {
	contacts, err := h.Svc.HiredContacts(c.Request.Context(), callerID(c))
	if err != nil {
		h.fail(c, err, "hired contacts")
		return
	}
	response.Success(c, http.StatusOK, contacts, "ok", map[string]any{"count": len(contacts)})
}

func (h *EngagementHandler) Reputation(c *gin.Context) {
	rep, err := h.Svc.Reputation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "reputation")
		return
	}
	response.Success(c, http.StatusOK, rep, "ok", nil)
}

func (h *EngagementHandler) fail(c *gin.Context, err error, op string) {
	logFailure(h.Logger, c, err, op)
	response.FromError(c, err)
}
