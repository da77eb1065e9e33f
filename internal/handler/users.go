package handler

import (
	"net/http"
	"quizhub/internal/middleware"
	"quizhub/internal/model"
	"quizhub/internal/profile"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	user, err := h.profiles.GetMe(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) Profile(c *gin.Context) {
	p, err := h.profiles.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var in profile.Input
	if !bindJSON(c, &in) {
		return
	}

	p, err := h.profiles.UpdateProfile(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) ValidateProfile(c *gin.Context) {
	var in profile.Input
	if !bindJSON(c, &in) {
		return
	}

	if err := h.profiles.Validate(in); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Submissions(c *gin.Context) {
	subs, err := h.quizzes.ListSubmissions(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}

	c.JSON(http.StatusOK, subs)
}
