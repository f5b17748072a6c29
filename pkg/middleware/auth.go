package middleware

import (
	"context"
	"net/http"

	"github.com/platinummonkey/mockapi/pkg/auth"
	"github.com/platinummonkey/mockapi/pkg/contextkeys"
	"github.com/sirupsen/logrus"
)

// DefaultAPIKeyHeader carries the static API key
const DefaultAPIKeyHeader = "X-API-Key"

// ErrorWriter renders a rejected request. The api package chooses the
// envelope from the request path.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// BearerAuth requires a valid session token in the Authorization header
type BearerAuth struct {
	authn      *auth.Authenticator
	audit      *auth.AuditLogger
	writeError ErrorWriter
}

// NewBearerAuth creates the bearer-token middleware. audit may be nil.
func NewBearerAuth(authn *auth.Authenticator, audit *auth.AuditLogger, writeError ErrorWriter) *BearerAuth {
	return &BearerAuth{authn: authn, audit: audit, writeError: writeError}
}

// Handler wraps an HTTP handler with bearer authentication
func (m *BearerAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.authn.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			if m.audit != nil {
				m.audit.LogFromRequest(r, auth.ActionBearerCheck, "", auth.StatusDenied, err)
			}
			w.Header().Set("WWW-Authenticate", "Bearer")
			m.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r, principal)))
	})
}

// APIKeyAuth requires a configured API key in a request header
type APIKeyAuth struct {
	keys       *auth.KeySet
	header     string
	audit      *auth.AuditLogger
	recorder   auth.Recorder
	writeError ErrorWriter
}

// APIKeyOption configures APIKeyAuth
type APIKeyOption func(*APIKeyAuth)

// WithAPIKeyAudit logs rejected keys to audit
func WithAPIKeyAudit(audit *auth.AuditLogger) APIKeyOption {
	return func(m *APIKeyAuth) {
		m.audit = audit
	}
}

// WithAPIKeyRecorder counts rejected keys
func WithAPIKeyRecorder(rec auth.Recorder) APIKeyOption {
	return func(m *APIKeyAuth) {
		m.recorder = rec
	}
}

// NewAPIKeyAuth creates the API-key middleware. An empty header uses
// DefaultAPIKeyHeader.
func NewAPIKeyAuth(keys *auth.KeySet, header string, writeError ErrorWriter, opts ...APIKeyOption) *APIKeyAuth {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	m := &APIKeyAuth{keys: keys, header: header, writeError: writeError}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler wraps an HTTP handler with API-key authentication
func (m *APIKeyAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(m.header)
		principal, err := m.keys.Check(key)
		if err != nil {
			reason := "invalid_key"
			if key == "" {
				reason = "missing_key"
			}
			if m.recorder != nil {
				m.recorder.RecordAuthFailure(auth.SchemeAPIKey, reason)
			}
			if m.audit != nil {
				m.audit.LogFromRequest(r, auth.ActionAPIKeyCheck, "", auth.StatusDenied, err)
			}
			m.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r, principal)))
	})
}

// withPrincipal stores the caller and tags the request logger with it
func withPrincipal(r *http.Request, principal *auth.Principal) context.Context {
	ctx := contextkeys.WithPrincipal(r.Context(), principal)
	if entry, ok := contextkeys.GetLogger(ctx).(*logrus.Entry); ok && entry != nil {
		ctx = contextkeys.WithLogger(ctx, entry.WithField("subject", principal.Subject))
	}
	return ctx
}

// GetPrincipal extracts the authenticated caller from the request
func GetPrincipal(r *http.Request) *auth.Principal {
	principal, ok := contextkeys.GetPrincipal(r.Context()).(*auth.Principal)
	if !ok {
		return nil
	}
	return principal
}
