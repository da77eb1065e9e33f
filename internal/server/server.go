package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"quizhub/internal/apperr"
	"quizhub/internal/config"
	"quizhub/internal/handler"
	"quizhub/internal/middleware"
	"quizhub/internal/model"
	"quizhub/internal/telemetry"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 15 * time.Second
)

type Server struct {
	*gin.Engine
	http   *http.Server
	logger *zap.Logger
}

// UseProviders registers the OAuth2 providers that have credentials and
// returns their names.
func UseProviders(cfg *config.Config) []string {
	var providers []goth.Provider

	if cfg.GoogleEnabled() {
		gp := google.New(cfg.OAuth2.GoogleClientID, cfg.OAuth2.GoogleClientSecret, cfg.OAuth2.GoogleCallbackURL, "email", "profile")
		gp.SetPrompt("select_account")
		providers = append(providers, gp)
	}
	if cfg.GitHubEnabled() {
		providers = append(providers, github.New(cfg.OAuth2.GitHubClientID, cfg.OAuth2.GitHubClientSecret, cfg.OAuth2.GitHubCallbackURL, "read:user", "user:email"))
	}

	goth.UseProviders(providers...)

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	return names
}

func New(cfg *config.Config, h *handler.Handler, tokens middleware.AccessTokenParser, logger *zap.Logger, reporter telemetry.Reporter) (*Server, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("setting trusted proxies: %w", err)
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{cfg.FrontendURL}
	}

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(logger, reporter),
		middleware.Logger(logger),
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.ErrorHandler(logger, reporter),
	)

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperr.NotFound("route not found"))
	})

	limited := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	authed := middleware.Auth(tokens)

	r.GET("/", h.Home)
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)

	api := r.Group("/api")

	public := api.Group("/auth")
	public.Use(limited)
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.POST("/refresh", h.Refresh)
		public.POST("/logout", h.Logout)
		public.POST("/google", h.GoogleSignIn)
		public.GET("/oauth2/:provider", h.SignInWithProvider)
		public.GET("/oauth2/:provider/callback", h.CallbackHandler)
	}

	api.GET("/quizzes", h.ListQuizzes)
	api.GET("/quizzes/:id", h.GetQuiz)

	authorized := api.Group("/")
	authorized.Use(authed)
	{
		authorized.POST("/auth/logout-all", h.LogoutAll)

		authorized.GET("/users/me", h.Me)
		authorized.GET("/users/me/profile", h.Profile)
		authorized.PUT("/users/me/profile", h.UpdateProfile)
		authorized.PUT("/users/me/password", h.ChangePassword)
		authorized.GET("/users/me/submissions", h.Submissions)
		authorized.POST("/profile/validate", h.ValidateProfile)

		authorized.POST("/quizzes/:id/submissions", h.SubmitQuiz)
		authorized.POST("/quizzes", middleware.RequireRole(model.RoleAdmin), h.CreateQuiz)
	}

	return &Server{
		Engine: r,
		http: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      r,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		logger: logger,
	}, nil
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
