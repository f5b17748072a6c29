package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/platinummonkey/mockapi/pkg/apierrors"
	"github.com/platinummonkey/mockapi/pkg/catalog"
	"github.com/platinummonkey/mockapi/pkg/contextkeys"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type fakeDirectory map[string]catalog.Record

func (d fakeDirectory) FindUser(email string) (catalog.Record, catalog.Collection, bool) {
	rec, ok := d[email]
	if !ok {
		return nil, 0, false
	}
	if _, isIntegration := rec["identifier"]; isIntegration {
		return rec, catalog.IntegrationUsers, true
	}
	return rec, catalog.Users, true
}

type countingRecorder struct {
	issued   int
	failures map[string]int
}

func (c *countingRecorder) RecordTokenIssued() { c.issued++ }

func (c *countingRecorder) RecordAuthFailure(scheme Scheme, reason string) {
	if c.failures == nil {
		c.failures = map[string]int{}
	}
	c.failures[string(scheme)+"/"+reason]++
}

func testDirectory() fakeDirectory {
	return fakeDirectory{
		"albi@example.edu": {
			"id":         json.Number("1"),
			"first_name": "Albi",
			"last_name":  "Alagesan",
			"email":      "albi@example.edu",
			"created_at": "2022-03-01T00:00:00.000Z",
			"updated_at": "2022-03-02T00:00:00.000Z",
		},
		"ria@example.edu": {
			"id":         json.Number("60"),
			"identifier": "lti-60",
			"first_name": "Ria",
			"email":      "ria@example.edu",
		},
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestManager(t *testing.T, c *clock) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(testSecret, jose.HS256, time.Hour, WithClock(c.Now))
	require.NoError(t, err)
	return tm
}

func TestParseAlgorithm(t *testing.T) {
	for _, name := range []string{"HS256", "hs384", " HS512 "} {
		_, err := ParseAlgorithm(name)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"RS256", "none", ""} {
		_, err := ParseAlgorithm(name)
		assert.Error(t, err, name)
	}
}

func TestNewTokenManagerRejectsShortSecret(t *testing.T) {
	_, err := NewTokenManager("short", jose.HS256, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenManager(testSecret[:40], jose.HS512, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenManager(testSecret, jose.RS256, time.Hour)
	assert.Error(t, err)

	tm, err := NewTokenManager(testSecret, "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, tm.TTL())
}

func TestTokenRoundTrip(t *testing.T) {
	c := &clock{now: time.Now()}
	tm := newTestManager(t, c)

	raw, expiresAt, err := tm.CreateToken("albi@example.edu")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(raw, ".")+1)
	assert.WithinDuration(t, c.now.Add(time.Hour), expiresAt, time.Second)

	sub, err := tm.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "albi@example.edu", sub)
}

func TestTokenExpiry(t *testing.T) {
	c := &clock{now: time.Now()}
	tm := newTestManager(t, c)

	raw, _, err := tm.CreateToken("albi@example.edu")
	require.NoError(t, err)

	c.now = c.now.Add(61 * time.Minute)
	_, err = tm.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenValidationCache(t *testing.T) {
	c := &clock{now: time.Now()}
	tm, err := NewTokenManager(testSecret, jose.HS256, time.Hour, WithClock(c.Now), WithValidationCache(8))
	require.NoError(t, err)

	raw, _, err := tm.CreateToken("albi@example.edu")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		sub, err := tm.ValidateToken(raw)
		require.NoError(t, err)
		assert.Equal(t, "albi@example.edu", sub)
	}
	assert.Equal(t, 1, tm.cache.Len())

	_, err = tm.ValidateToken(raw + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 1, tm.cache.Len(), "failed validations are not cached")

	c.now = c.now.Add(61 * time.Minute)
	_, err = tm.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken, "a cached token still expires")
}

func TestTokenWrongSecret(t *testing.T) {
	c := &clock{now: time.Now()}
	tm := newTestManager(t, c)
	other, err := NewTokenManager(strings.Repeat("x", 64), jose.HS256, time.Hour, WithClock(c.Now))
	require.NoError(t, err)

	raw, _, err := other.CreateToken("albi@example.edu")
	require.NoError(t, err)

	_, err = tm.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongAlgorithm(t *testing.T) {
	c := &clock{now: time.Now()}
	tm := newTestManager(t, c)
	hs512, err := NewTokenManager(testSecret, jose.HS512, time.Hour, WithClock(c.Now))
	require.NoError(t, err)

	raw, _, err := hs512.CreateToken("albi@example.edu")
	require.NoError(t, err)

	_, err = tm.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	tm := newTestManager(t, &clock{now: time.Now()})
	for _, raw := range []string{"", "abc", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		_, err := tm.ValidateToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestTokenMissingSubject(t *testing.T) {
	c := &clock{now: time.Now()}
	tm := newTestManager(t, c)

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: []byte(testSecret)}, nil)
	require.NoError(t, err)
	raw, err := jwt.Signed(signer).Claims(jwt.Claims{Expiry: jwt.NewNumericDate(c.now.Add(time.Hour))}).Serialize()
	require.NoError(t, err)

	_, err = tm.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestLogin(t *testing.T) {
	c := &clock{now: time.Now()}
	rec := &countingRecorder{}
	authn := NewAuthenticator(newTestManager(t, c), testDirectory(), WithAuthLogger(quietLogger()), WithAuthRecorder(rec))

	result, err := authn.Login(context.Background(), "albi@example.edu", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "1", result.UserID)
	assert.Equal(t, "Albi", result.Attributes.FirstName)
	assert.Equal(t, "Alagesan", result.Attributes.LastName)
	assert.Equal(t, "albi@example.edu", result.Attributes.Email)
	assert.Equal(t, "2022-03-01T00:00:00.000Z", result.Attributes.CreatedAt)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, 1, rec.issued)

	principal, err := authn.Authenticate(context.Background(), "Bearer "+result.Token)
	require.NoError(t, err)
	assert.Equal(t, "albi@example.edu", principal.Subject)
	assert.Equal(t, SchemeBearer, principal.Scheme)
	assert.Equal(t, catalog.Users, principal.Source)
}

func TestLoginIntegrationUser(t *testing.T) {
	authn := NewAuthenticator(newTestManager(t, &clock{now: time.Now()}), testDirectory(), WithAuthLogger(quietLogger()))

	result, err := authn.Login(context.Background(), "ria@example.edu", "")
	require.NoError(t, err)
	assert.Equal(t, "60", result.UserID)

	principal, err := authn.Authenticate(context.Background(), "Bearer "+result.Token)
	require.NoError(t, err)
	assert.Equal(t, catalog.IntegrationUsers, principal.Source)
}

func TestLoginUnknownEmail(t *testing.T) {
	rec := &countingRecorder{}
	authn := NewAuthenticator(newTestManager(t, &clock{now: time.Now()}), testDirectory(), WithAuthLogger(quietLogger()), WithAuthRecorder(rec))

	_, err := authn.Login(context.Background(), "nobody@example.edu", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrAuthenticationFailed)

	e := apierrors.As(err)
	assert.Equal(t, 400, e.Kind.Status())
	assert.Equal(t, "Authentication Error", e.Kind.Title())
	assert.Equal(t, LoginFailedDetail, e.Detail)
	assert.Equal(t, 1, rec.failures["bearer/unknown_user"])
}

func TestAuthenticateFailures(t *testing.T) {
	c := &clock{now: time.Now()}
	tm := newTestManager(t, c)
	authn := NewAuthenticator(tm, testDirectory(), WithAuthLogger(quietLogger()))

	ghost, _, err := tm.CreateToken("ghost@example.edu")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantDetail string
	}{
		{"no header", "", MissingHeaderDetail},
		{"wrong scheme", "Token abc", MissingHeaderDetail},
		{"garbage token", "Bearer not-a-jwt", InvalidCredentialDetail},
		{"unknown subject", "Bearer " + ghost, InvalidCredentialDetail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authn.Authenticate(context.Background(), tt.header)
			require.Error(t, err)
			assert.ErrorIs(t, err, apierrors.ErrUnauthorized)
			assert.Equal(t, tt.wantDetail, apierrors.As(err).Detail)
		})
	}
}

func TestKeySet(t *testing.T) {
	ks := NewKeySet("key-one", " ", "key-two ")
	assert.Equal(t, 2, ks.Len())

	assert.True(t, ks.Contains("key-one"))
	assert.True(t, ks.Contains("key-two"))
	assert.False(t, ks.Contains("key-three"))
	assert.False(t, ks.Contains(""))
	assert.False(t, ks.Contains("key-on"))

	p, err := ks.Check("key-one")
	require.NoError(t, err)
	assert.Equal(t, SchemeAPIKey, p.Scheme)
	assert.Equal(t, "key-****", p.Subject)

	_, err = ks.Check("wrong")
	assert.ErrorIs(t, err, apierrors.ErrForbidden)
	assert.Equal(t, InvalidAPIKeyDetail, apierrors.As(err).Detail)
}

func TestEmptyKeySetRejectsEverything(t *testing.T) {
	ks := NewKeySet()
	_, err := ks.Check("anything")
	assert.ErrorIs(t, err, apierrors.ErrForbidden)
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	al := NewAuditLogger(log)
	r := httptest.NewRequest("POST", "/api/v1/users/login", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	r.Header.Set("User-Agent", "test-agent")
	r = r.WithContext(contextkeys.WithRequestID(r.Context(), "req-1"))

	al.LogFromRequest(r, ActionLogin, "albi@example.edu", StatusFailure, apierrors.AuthenticationFailed(LoginFailedDetail))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, ActionLogin, entry["action"])
	assert.Equal(t, "10.0.0.1", entry["ip"])
	assert.Equal(t, "test-agent", entry["user_agent"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, LoginFailedDetail, entry["reason"])
}
