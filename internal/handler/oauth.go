package handler

import (
	"net/http"
	"net/url"
	"quizhub/internal/apperr"
	"quizhub/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) SignInWithProvider(c *gin.Context) {
	provider := c.Param("provider")

	authURL, err := h.auth.BeginAuth(c.Writer, c.Request, provider, c.Query("redirect_uri"))
	if err != nil {
		fail(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// CallbackHandler finishes the provider flow. Once the stored request is known
// every outcome is a redirect back to the client that started the flow.
func (h *Handler) CallbackHandler(c *gin.Context) {
	provider := c.Param("provider")

	gothUser, req, err := h.auth.CompleteUserAuth(c.Writer, c.Request, provider)
	if err != nil {
		if req == nil {
			fail(c, err)
			return
		}
		h.redirectWithError(c, req.RedirectURI, err)
		return
	}

	pair, _, err := h.accounts.LoginWithProvider(c.Request.Context(), auth.ProviderIdentity{
		Provider:   provider,
		ProviderID: gothUser.UserID,
		Email:      gothUser.Email,
		Name:       gothUser.Name,
		NickName:   gothUser.NickName,
		AvatarURL:  gothUser.AvatarURL,
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		h.redirectWithError(c, req.RedirectURI, err)
		return
	}

	h.redirectWith(c, req.RedirectURI, url.Values{
		"access_token":  {pair.AccessToken},
		"refresh_token": {pair.RefreshToken},
	})
}

func (h *Handler) redirectWithError(c *gin.Context, redirectURI string, err error) {
	if _, ok := apperr.As(err); !ok {
		h.logger.Error("oauth2 callback failed", zap.String("provider", c.Param("provider")), zap.Error(err))
	}
	h.redirectWith(c, redirectURI, url.Values{"error": {apperr.CodeOf(err)}})
}

func (h *Handler) redirectWith(c *gin.Context, redirectURI string, params url.Values) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		fail(c, err)
		return
	}

	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	c.Redirect(http.StatusTemporaryRedirect, u.String())
}

type googleSignInRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

func (h *Handler) GoogleSignIn(c *gin.Context) {
	if h.google == nil {
		fail(c, &apperr.Error{Kind: apperr.KindNotFound, Code: apperr.CodeUnknownProvider, Message: "google sign-in is not configured"})
		return
	}

	var req googleSignInRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.google.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		fail(c, apperr.Unauthenticated(apperr.CodeInvalidToken, "google id token is invalid").Wrap(err))
		return
	}
	id.UserAgent = c.Request.UserAgent()

	pair, _, err := h.accounts.LoginWithProvider(c.Request.Context(), *id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}
