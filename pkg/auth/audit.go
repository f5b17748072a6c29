package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/platinummonkey/mockapi/pkg/contextkeys"
	"github.com/sirupsen/logrus"
)

// Audit action constants
const (
	ActionLogin       = "auth.login"
	ActionBearerCheck = "auth.bearer"
	ActionAPIKeyCheck = "auth.api_key"
	ActionTokenIssue  = "auth.token_issue"
)

// Status constants
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusDenied  = "denied"
)

// AuditEvent is a single security-relevant event
type AuditEvent struct {
	Action    string
	Subject   string
	Status    string
	Reason    string
	IPAddress string
	UserAgent string
}

// AuditLogger writes security audit events to a dedicated logrus logger
type AuditLogger struct {
	log *logrus.Logger
}

// NewAuditLogger creates an audit logger. A nil logger uses the standard logger.
func NewAuditLogger(log *logrus.Logger) *AuditLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuditLogger{log: log}
}

// Log records ev. Failures and denials are logged at warn level.
func (al *AuditLogger) Log(ctx context.Context, ev AuditEvent) {
	fields := logrus.Fields{
		"audit":  true,
		"action": ev.Action,
		"status": ev.Status,
	}
	if ev.Subject != "" {
		fields["subject"] = ev.Subject
	}
	if ev.Reason != "" {
		fields["reason"] = ev.Reason
	}
	if ev.IPAddress != "" {
		fields["ip"] = ev.IPAddress
	}
	if ev.UserAgent != "" {
		fields["user_agent"] = ev.UserAgent
	}
	if id := contextkeys.GetRequestID(ctx); id != "" {
		fields["request_id"] = id
	}

	entry := al.log.WithFields(fields)
	if ev.Status == StatusSuccess {
		entry.Info("Audit event")
		return
	}
	entry.Warn("Audit event")
}

// LogFromRequest records an event with client details taken from r
func (al *AuditLogger) LogFromRequest(r *http.Request, action, subject, status string, err error) {
	ev := AuditEvent{
		Action:    action,
		Subject:   subject,
		Status:    status,
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
	}
	if err != nil {
		ev.Reason = err.Error()
	}
	al.Log(r.Context(), ev)
}

func getClientIP(r *http.Request) string {
	// X-Forwarded-For may hold a chain; the first entry is the client
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
