package handler

import (
	"net/http"
	"quizhub/internal/apperr"
	"quizhub/internal/middleware"
	"quizhub/internal/model"
	"quizhub/internal/quiz"

	"github.com/gin-gonic/gin"
)

type pageQuery struct {
	Limit  *int `form:"limit"`
	Offset int  `form:"offset"`
}

func (h *Handler) ListQuizzes(c *gin.Context) {
	var page pageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		fail(c, apperr.BadRequest(apperr.CodeInvalidRequest, "limit and offset must be integers").Wrap(err))
		return
	}

	quizzes, err := h.quizzes.List(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		fail(c, err)
		return
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}

	c.JSON(http.StatusOK, quizzes)
}

func (h *Handler) GetQuiz(c *gin.Context) {
	q, err := h.quizzes.Get(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, q)
}

func (h *Handler) CreateQuiz(c *gin.Context) {
	var in quiz.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	q, err := h.quizzes.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, q)
}

func (h *Handler) SubmitQuiz(c *gin.Context) {
	var in quiz.SubmitInput
	if !bindJSON(c, &in) {
		return
	}

	sub, err := h.quizzes.Submit(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}
