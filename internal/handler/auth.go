package handler

import (
	"net/http"
	"quizhub/internal/auth"
	"quizhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var in auth.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	in.UserAgent = c.Request.UserAgent()

	pair, _, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, pair)
}

func (h *Handler) Login(c *gin.Context) {
	var in auth.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	in.UserAgent = c.Request.UserAgent()

	pair, _, err := h.accounts.Login(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.accounts.Refresh(c.Request.Context(), req.RefreshToken, c.Request.UserAgent())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Logout(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) LogoutAll(c *gin.Context) {
	if err := h.accounts.LogoutAll(c.Request.Context(), middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var in auth.ChangePasswordInput
	if !bindJSON(c, &in) {
		return
	}

	if err := h.accounts.ChangePassword(c.Request.Context(), middleware.UserID(c), in); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
