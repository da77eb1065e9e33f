// Package telemetry reports unhandled errors and panics to Sentry.
package telemetry

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

type Reporter interface {
	CaptureRequestError(r *http.Request, err error, tags map[string]string)
	RecoverPanic(r *http.Request, recovered any)
	Flush(timeout time.Duration) bool
}

type SentryReporter struct {
	hub *sentry.Hub
}

// NewReporter initialises Sentry when dsn is set and returns a no-op
// reporter otherwise.
func NewReporter(dsn, environment string, logger *zap.Logger) (Reporter, error) {
	if dsn == "" {
		logger.Info("SENTRY_DSN not set, error reporting disabled")
		return NoopReporter{}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("sentry initialised", zap.String("environment", environment))
	return NewSentryReporter(sentry.NewHub(client, sentry.NewScope())), nil
}

func NewSentryReporter(hub *sentry.Hub) *SentryReporter {
	return &SentryReporter{hub: hub}
}

func (s *SentryReporter) CaptureRequestError(r *http.Request, err error, tags map[string]string) {
	hub := s.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

func (s *SentryReporter) RecoverPanic(r *http.Request, recovered any) {
	hub := s.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		hub.Recover(recovered)
	})
}

func (s *SentryReporter) Flush(timeout time.Duration) bool {
	return s.hub.Flush(timeout)
}

type NoopReporter struct{}

func (NoopReporter) CaptureRequestError(*http.Request, error, map[string]string) {}
func (NoopReporter) RecoverPanic(*http.Request, any)                             {}
func (NoopReporter) Flush(time.Duration) bool                                    { return true }
