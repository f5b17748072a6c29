package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/platinummonkey/mockapi/pkg/apierrors"
	"github.com/platinummonkey/mockapi/pkg/catalog"
	"github.com/sirupsen/logrus"
)

// Error details returned to clients
const (
	MissingHeaderDetail     = "Missing authorization header"
	InvalidCredentialDetail = "Could not validate credentials"
	LoginFailedDetail       = "Incorrect email or password"
)

// Authenticator implements login and bearer-token checks against a user directory
type Authenticator struct {
	tokens   *TokenManager
	users    UserDirectory
	log      *logrus.Logger
	recorder Recorder
}

// AuthenticatorOption configures an Authenticator
type AuthenticatorOption func(*Authenticator)

// WithAuthLogger sets the logger
func WithAuthLogger(log *logrus.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithAuthRecorder sets the outcome recorder
func WithAuthRecorder(rec Recorder) AuthenticatorOption {
	return func(a *Authenticator) {
		if rec != nil {
			a.recorder = rec
		}
	}
}

// NewAuthenticator creates an authenticator
func NewAuthenticator(tokens *TokenManager, users UserDirectory, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		tokens:   tokens,
		users:    users,
		log:      logrus.StandardLogger(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login issues a token for the user with email. The password is accepted
// but not verified.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	rec, source, ok := a.users.FindUser(email)
	if !ok {
		a.recorder.RecordAuthFailure(SchemeBearer, "unknown_user")
		a.log.WithField("email", email).Warn("Login for unknown user")
		return nil, apierrors.AuthenticationFailed(LoginFailedDetail)
	}

	token, expiresAt, err := a.tokens.CreateToken(email)
	if err != nil {
		a.log.WithError(err).Error("Failed to issue token")
		return nil, apierrors.Internal("Internal server error", err)
	}
	a.recorder.RecordTokenIssued()

	var attrs catalog.UserAttributes
	if decoded, err := catalog.Users.Attributes(rec); err == nil {
		attrs = *decoded.(*catalog.UserAttributes)
	} else {
		a.log.WithError(err).WithField("source", source.String()).Warn("User record has unexpected shape")
		attrs.Email = email
	}

	a.log.WithFields(logrus.Fields{"email": email, "source": source.String()}).Info("Issued session token")
	return &LoginResult{
		Token:      token,
		ExpiresAt:  expiresAt,
		UserID:     rec.ID(),
		Attributes: attrs,
	}, nil
}

// Authenticate validates an Authorization header value. The subject must
// still exist in the directory.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Principal, error) {
	raw, ok := BearerToken(header)
	if !ok {
		a.recorder.RecordAuthFailure(SchemeBearer, "missing_header")
		return nil, apierrors.Unauthorized(MissingHeaderDetail)
	}

	subject, err := a.tokens.ValidateToken(raw)
	if err != nil {
		reason := "invalid_token"
		if errors.Is(err, ErrMissingSubject) {
			reason = "missing_subject"
		}
		a.recorder.RecordAuthFailure(SchemeBearer, reason)
		a.log.WithError(err).Debug("Rejected bearer token")
		return nil, &apierrors.Error{Kind: apierrors.KindUnauthorized, Detail: InvalidCredentialDetail, Err: err}
	}

	_, source, found := a.users.FindUser(subject)
	if !found {
		a.recorder.RecordAuthFailure(SchemeBearer, "unknown_subject")
		a.log.WithField("subject", subject).Warn("Bearer token for unknown subject")
		return nil, apierrors.Unauthorized(InvalidCredentialDetail)
	}

	return &Principal{Subject: subject, Scheme: SchemeBearer, Source: source}, nil
}

// BearerToken extracts the credentials from "Bearer <token>". The scheme is
// matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
