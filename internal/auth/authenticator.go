package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"quizhub/internal/apperr"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
)

// Authenticator drives the provider redirect and completes it on callback.
type Authenticator interface {
	BeginAuth(w http.ResponseWriter, r *http.Request, provider, redirectURI string) (string, error)
	// CompleteUserAuth returns the stored request once it has been loaded, even
	// when a later step fails, so the caller knows where to send the browser.
	CompleteUserAuth(w http.ResponseWriter, r *http.Request, provider string) (goth.User, *AuthorizationRequest, error)
}

var errInvalidState = apperr.BadRequest(apperr.CodeInvalidState, "authorization state is missing or does not match")

// OAuthFlow implements Authenticator on top of goth providers, a RequestStore
// and a cookie session holding the state.
type OAuthFlow struct {
	requests    RequestStore
	cookies     sessions.Store
	allowed     []string
	ttl         time.Duration
	now         func() time.Time
	getProvider func(name string) (goth.Provider, error)
}

func NewOAuthFlow(requests RequestStore, cookies sessions.Store, allowedRedirectURIs []string, ttl time.Duration) *OAuthFlow {
	return &OAuthFlow{
		requests:    requests,
		cookies:     cookies,
		allowed:     allowedRedirectURIs,
		ttl:         ttl,
		now:         time.Now,
		getProvider: goth.GetProvider,
	}
}

func (f *OAuthFlow) redirectAllowed(uri string) bool {
	for _, a := range f.allowed {
		if a == uri {
			return true
		}
	}
	return false
}

func (f *OAuthFlow) provider(name string) (goth.Provider, error) {
	p, err := f.getProvider(name)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindNotFound, Code: apperr.CodeUnknownProvider, Message: "unknown provider " + name, Err: err}
	}
	return p, nil
}

func (f *OAuthFlow) BeginAuth(w http.ResponseWriter, r *http.Request, providerName, redirectURI string) (string, error) {
	if redirectURI == "" && len(f.allowed) > 0 {
		redirectURI = f.allowed[0]
	}
	if !f.redirectAllowed(redirectURI) {
		return "", apperr.BadRequest(apperr.CodeInvalidRedirectURI, "redirect_uri is not allowed")
	}

	p, err := f.provider(providerName)
	if err != nil {
		return "", err
	}

	state := uuid.New().String()

	sess, err := p.BeginAuth(state)
	if err != nil {
		return "", fmt.Errorf("beginning %s auth: %w", providerName, err)
	}

	authURL, err := sess.GetAuthURL()
	if err != nil {
		return "", fmt.Errorf("building %s auth url: %w", providerName, err)
	}

	err = f.requests.Save(r.Context(), &AuthorizationRequest{
		State:       state,
		Provider:    providerName,
		RedirectURI: redirectURI,
		Session:     sess.Marshal(),
		CreatedAt:   f.now(),
	})
	if err != nil {
		return "", err
	}

	session, err := GetSession(f.cookies, r)
	if session == nil {
		return "", err
	}

	session.Values[stateKey] = state
	session.Options.MaxAge = int(f.ttl.Seconds())
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("saving state cookie: %w", err)
	}

	return authURL, nil
}

func (f *OAuthFlow) CompleteUserAuth(w http.ResponseWriter, r *http.Request, providerName string) (goth.User, *AuthorizationRequest, error) {
	session, err := GetSession(f.cookies, r)
	if session == nil {
		return goth.User{}, nil, err
	}

	params := r.URL.Query()
	state := params.Get("state")
	cookieState, _ := session.Values[stateKey].(string)
	if state == "" || cookieState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(cookieState)) != 1 {
		return goth.User{}, nil, errInvalidState
	}

	req, err := f.requests.Take(r.Context(), state)
	if err != nil {
		return goth.User{}, nil, err
	}
	if req == nil {
		return goth.User{}, nil, errInvalidState
	}

	delete(session.Values, stateKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return goth.User{}, req, fmt.Errorf("clearing state cookie: %w", err)
	}

	if req.Provider != providerName {
		return goth.User{}, req, errInvalidState
	}

	if e := params.Get("error"); e != "" {
		return goth.User{}, req, providerError(errors.New(e))
	}

	p, err := f.provider(providerName)
	if err != nil {
		return goth.User{}, req, err
	}

	sess, err := p.UnmarshalSession(req.Session)
	if err != nil {
		return goth.User{}, req, fmt.Errorf("restoring %s session: %w", providerName, err)
	}

	if _, err := sess.Authorize(p, params); err != nil {
		return goth.User{}, req, providerError(err)
	}

	user, err := p.FetchUser(sess)
	if err != nil {
		return goth.User{}, req, providerError(err)
	}

	return user, req, nil
}

func providerError(err error) error {
	return &apperr.Error{
		Kind:    apperr.KindUnauthenticated,
		Code:    apperr.CodeProviderError,
		Message: "sign-in with the provider failed",
		Err:     err,
	}
}
