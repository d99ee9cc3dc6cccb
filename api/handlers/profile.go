package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pcubed/gradeboard/api/middleware"
	"github.com/pcubed/gradeboard/internal/authz"
	"github.com/pcubed/gradeboard/internal/models"
	"github.com/pcubed/gradeboard/pkg/logger"
)

// ProfileStore is the policy-gated store surface for profile and course
// reads.
type ProfileStore interface {
	GetProfile(ctx context.Context, principal authz.Principal, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, principal authz.Principal, userID string, profile models.Profile) error
	GetCourse(ctx context.Context, principal authz.Principal, courseID string) (*models.Course, error)
}

type ProfileHandler struct {
	store ProfileStore
	log   logger.Logger
}

func NewProfileHandler(store ProfileStore, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, log: log}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required"})
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), principal, principal.UID)
	if err != nil {
		writeError(c, h.log, "failed to load profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid profile payload", Error: err.Error()})
		return
	}

	err := h.store.UpdateProfile(c.Request.Context(), principal, principal.UID, models.Profile{
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		writeError(c, h.log, "failed to update profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ProfileHandler) GetCourse(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required"})
		return
	}
	courseID := c.Param("courseId")
	if courseID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "course id is required"})
		return
	}

	course, err := h.store.GetCourse(c.Request.Context(), principal, courseID)
	if err != nil {
		writeError(c, h.log, "failed to load course", err)
		return
	}
	c.JSON(http.StatusOK, course)
}
