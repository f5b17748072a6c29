package auth

import (
	"time"

	"github.com/platinummonkey/mockapi/pkg/catalog"
)

// Scheme names how a request was authenticated
type Scheme string

const (
	SchemeBearer Scheme = "bearer"
	SchemeAPIKey Scheme = "api_key"
)

// Principal is the authenticated caller
type Principal struct {
	Subject string
	Scheme  Scheme
	// Source is the collection the subject was found in, for bearer tokens
	Source catalog.Collection
}

// UserDirectory finds login subjects by email
type UserDirectory interface {
	FindUser(email string) (catalog.Record, catalog.Collection, bool)
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	Token      string
	ExpiresAt  time.Time
	UserID     string
	Attributes catalog.UserAttributes
}

// Recorder observes authentication outcomes
type Recorder interface {
	RecordTokenIssued()
	RecordAuthFailure(scheme Scheme, reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordTokenIssued() {}

func (nopRecorder) RecordAuthFailure(Scheme, string) {}
