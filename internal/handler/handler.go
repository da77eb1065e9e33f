package handler

import (
	"net/http"
	"quizhub/internal/apperr"
	"quizhub/internal/auth"
	"quizhub/internal/profile"
	"quizhub/internal/quiz"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	accounts *auth.Service
	profiles *profile.Service
	quizzes  *quiz.Service
	auth     auth.Authenticator
	google   auth.IDTokenVerifier
	logger   *zap.Logger
	checks   []readinessCheck
}

// New builds the HTTP handlers. google may be nil when Google sign-in is not
// configured.
func New(accounts *auth.Service, profiles *profile.Service, quizzes *quiz.Service,
	authenticator auth.Authenticator, google auth.IDTokenVerifier, logger *zap.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		profiles: profiles,
		quizzes:  quizzes,
		auth:     authenticator,
		google:   google,
		logger:   logger,
	}
}

func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "quizhub api"})
}

// fail hands err to the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, apperr.BadRequest(apperr.CodeInvalidRequest, "request body is not valid JSON").Wrap(err))
		return false
	}
	return true
}
